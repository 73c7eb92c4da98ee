package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8080"
	defaultStatusAfterPayment = "completed"
	defaultPriceDecimals      = 2
	defaultMethod             = "WAVE"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// StoreBaseURL is the public URL of the shop, used to derive the
	// success, error and webhook URLs handed to Naboopay.
	StoreBaseURL string

	Naboopay Naboopay
}

// Naboopay holds the merchant settings of the gateway.
type Naboopay struct {
	APIToken           string
	WebhookSecret      string
	StatusAfterPayment string
	FeesCustomerSide   bool
	PriceDecimals      int32
	Methods            []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:       os.Getenv("DB_HOST"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBPort:       os.Getenv("DB_PORT"),
		AppPort:      envOr("APP_PORT", defaultPort),
		AppEnv:       os.Getenv("APP_ENV"),
		StoreBaseURL: strings.TrimRight(os.Getenv("STORE_BASE_URL"), "/"),
		Naboopay: Naboopay{
			APIToken:           strings.TrimSpace(os.Getenv("NABOOPAY_API_TOKEN")),
			WebhookSecret:      strings.TrimSpace(os.Getenv("NABOOPAY_WEBHOOK_SECRET")),
			StatusAfterPayment: parseStatusAfterPayment(os.Getenv("NABOOPAY_STATUS_AFTER_PAYMENT")),
			FeesCustomerSide:   parseYesNo(os.Getenv("NABOOPAY_FEES_CUSTOMER_SIDE"), true),
			PriceDecimals:      parseDecimals(os.Getenv("PRICE_DECIMALS")),
			Methods:            parseMethods(os.Getenv("NABOOPAY_METHODS")),
		},
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// WebhookURL is the URL to paste into the Naboopay dashboard.
func (c *Config) WebhookURL() string {
	return c.StoreBaseURL + "/naboopay/v1/webhook"
}

// OrderReceivedURL is where the shopper lands after a successful payment.
func (c *Config) OrderReceivedURL(orderID int64) string {
	return c.StoreBaseURL + "/checkout/order-received/" + strconv.FormatInt(orderID, 10)
}

// CheckoutURL is the checkout page of the shop.
func (c *Config) CheckoutURL() string {
	return c.StoreBaseURL + "/checkout/"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseStatusAfterPayment(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "processing":
		return "processing"
	case "completed":
		return "completed"
	default:
		return defaultStatusAfterPayment
	}
}

func parseYesNo(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "on":
		return true
	case "no", "false", "0", "off":
		return false
	default:
		return fallback
	}
}

func parseDecimals(v string) int32 {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return defaultPriceDecimals
	}
	return int32(n)
}

func parseMethods(v string) []string {
	var methods []string
	for _, m := range strings.Split(v, ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return []string{defaultMethod}
	}
	return methods
}
