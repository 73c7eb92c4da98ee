package payment

import (
	"naboopay-gateway/internal/order"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryProduct    Category = "product"
	CategoryShipping   Category = "shipping"
	CategoryFee        Category = "fee"
	CategoryTax        Category = "tax"
	CategoryAdjustment Category = "adjustment"
)

// LineItem is one entry of the "products" array sent to Naboopay.
// Amount is the unit price in minor units.
type LineItem struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Amount      int64    `json:"amount"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description"`
}

// Total is Amount × Quantity in minor units.
func (li LineItem) Total() int64 {
	return li.Amount * int64(li.Quantity)
}

// BuildLineItems turns the order into provider line items. The returned sum
// is the order's amount covered by those items, in currency units.
func BuildLineItems(o order.Order, decimals int32) ([]LineItem, decimal.Decimal) {
	var items []LineItem
	sum := decimal.Zero

	for _, it := range o.Items() {
		if !it.HasProduct {
			continue
		}

		// A line without quantity is still listed, as one free unit.
		unit, qty := decimal.Zero, it.Quantity
		if qty > 0 {
			unit = it.Total.Div(decimal.NewFromInt(int64(qty)))
		} else {
			qty = 1
		}

		desc := it.Description
		if desc == "" {
			desc = "N/A"
		}

		items = append(items, LineItem{
			Name:        it.Name,
			Category:    CategoryProduct,
			Amount:      ToMinorUnits(unit, decimals),
			Quantity:    qty,
			Description: desc,
		})
		sum = sum.Add(it.Total)
	}

	if shipping := o.ShippingTotal(); !shipping.IsZero() {
		items = append(items, LineItem{
			Name:        "Shipping",
			Category:    CategoryShipping,
			Amount:      ToMinorUnits(shipping, decimals),
			Quantity:    1,
			Description: "Frais de livraison",
		})
		sum = sum.Add(shipping)
	}

	for _, fee := range o.Fees() {
		name := fee.Name
		if name == "" {
			name = "Fee"
		}
		items = append(items, LineItem{
			Name:        name,
			Category:    CategoryFee,
			Amount:      ToMinorUnits(fee.Total, decimals),
			Quantity:    1,
			Description: "Frais additionnels",
		})
		sum = sum.Add(fee.Total)
	}

	if tax := o.TaxTotal(); !tax.IsZero() {
		items = append(items, LineItem{
			Name:        "Taxes",
			Category:    CategoryTax,
			Amount:      ToMinorUnits(tax, decimals),
			Quantity:    1,
			Description: "Taxes applicables",
		})
		sum = sum.Add(tax)
	}

	return items, sum
}

// Reconcile appends an adjustment item so that the items add up to total.
// The adjustment is the minor-unit gap between total and what the items
// charge once unit prices are rounded. Tolerance only decides whether the
// returned sum keeps its own value or snaps to total.
func Reconcile(items []LineItem, sum, total decimal.Decimal, decimals int32) ([]LineItem, decimal.Decimal) {
	var charged int64
	for _, li := range items {
		charged += li.Total()
	}
	residual := ToMinorUnits(total, decimals) - charged

	if residual != 0 {
		items = append(items, LineItem{
			Name:        "Ajustement (coupons/remises/arrondis)",
			Category:    CategoryAdjustment,
			Amount:      residual,
			Quantity:    1,
			Description: "Ajustement pour faire correspondre le total de la commande",
		})
		return items, total
	}

	if total.Sub(sum).Abs().LessThanOrEqual(Tolerance(decimals)) {
		return items, sum
	}
	return items, total
}
