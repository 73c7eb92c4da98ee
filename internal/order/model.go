package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// MetaNaboopayOrderID is the metadata key holding the Naboopay transaction id.
const MetaNaboopayOrderID = "naboopay_order_id"

// Order is the read-only view of a shop order consumed by the gateway.
type Order interface {
	ID() int64
	Items() []Item
	ShippingTotal() decimal.Decimal
	Fees() []Fee
	TaxTotal() decimal.Decimal
	Total() decimal.Decimal
	Billing() Contact
	Status() Status
}

// Item is a purchasable line. HasProduct is false when the product it
// referenced has since been deleted.
type Item struct {
	Name        string
	Description string
	Quantity    int
	Total       decimal.Decimal
	HasProduct  bool
}

type Fee struct {
	Name  string
	Total decimal.Decimal
}

type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// Record is the stored order. It implements Order.
type Record struct {
	OrderID       int64
	Lines         []Item
	FeeLines      []Fee
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	GrandTotal    decimal.Decimal
	Contact       Contact
	CurrentStatus Status
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Record) ID() int64                      { return r.OrderID }
func (r *Record) Items() []Item                  { return r.Lines }
func (r *Record) ShippingTotal() decimal.Decimal { return r.Shipping }
func (r *Record) Fees() []Fee                    { return r.FeeLines }
func (r *Record) TaxTotal() decimal.Decimal      { return r.Tax }
func (r *Record) Total() decimal.Decimal         { return r.GrandTotal }
func (r *Record) Billing() Contact               { return r.Contact }
func (r *Record) Status() Status                 { return r.CurrentStatus }
