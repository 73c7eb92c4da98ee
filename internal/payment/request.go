package payment

// MethodWave is the default mobile money method offered at checkout.
const MethodWave = "WAVE"

// TransactionRequest is the body of the create-transaction call.
type TransactionRequest struct {
	MethodOfPayment  []string   `json:"method_of_payment"`
	Products         []LineItem `json:"products"`
	IsEscrow         bool       `json:"is_escrow"`
	IsMerchant       bool       `json:"is_merchant"`
	SuccessURL       string     `json:"success_url"`
	ErrorURL         string     `json:"error_url"`
	FeesCustomerSide bool       `json:"fees_customer_side"`
}

// RequestOptions carries the merchant settings and shop URLs for one order.
type RequestOptions struct {
	Methods          []string
	FeesCustomerSide bool
	OrderReceivedURL string
	CheckoutURL      string
}

func NewTransactionRequest(items []LineItem, opts RequestOptions) TransactionRequest {
	methods := opts.Methods
	if len(methods) == 0 {
		methods = []string{MethodWave}
	}
	products := make([]LineItem, len(items))
	copy(products, items)

	return TransactionRequest{
		MethodOfPayment:  append([]string(nil), methods...),
		Products:         products,
		IsEscrow:         false,
		IsMerchant:       false,
		SuccessURL:       opts.OrderReceivedURL,
		ErrorURL:         opts.CheckoutURL + "?payment_error=true",
		FeesCustomerSide: opts.FeesCustomerSide,
	}
}
