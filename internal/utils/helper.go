package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

var phoneStripper = strings.NewReplacer("+", "", " ", "", "-", "")

// SanitizePhone drops the "+", space and hyphen characters Naboopay rejects.
func SanitizePhone(phone string) string {
	return phoneStripper.Replace(phone)
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}
