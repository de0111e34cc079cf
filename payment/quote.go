package payment

import (
	"storefront-svc/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the server-side price of a single line item. All arithmetic is
// done in decimal; floats only appear at the edges.
type Quote struct {
	UnitPrice      decimal.Decimal
	Quantity       int
	Subtotal       decimal.Decimal
	ShippingCharge decimal.Decimal
	Total          decimal.Decimal
}

// NewQuote prices qty units of p at its current effective price plus shipping.
func NewQuote(p *models.Product, qty int, shipping float64) Quote {
	unit := decimal.NewFromFloat(p.EffectivePrice())
	subtotal := unit.Mul(decimal.NewFromInt(int64(qty)))
	ship := decimal.NewFromFloat(shipping)
	return Quote{
		UnitPrice:      unit,
		Quantity:       qty,
		Subtotal:       subtotal,
		ShippingCharge: ship,
		Total:          subtotal.Add(ship),
	}
}

// AmountPaise is the total in the smallest currency unit, rounded half away from zero.
func (q Quote) AmountPaise() int64 {
	return q.Total.Mul(hundred).Round(0).IntPart()
}

func (q Quote) UnitPriceFloat() float64      { return q.UnitPrice.InexactFloat64() }
func (q Quote) SubtotalFloat() float64       { return q.Subtotal.InexactFloat64() }
func (q Quote) ShippingChargeFloat() float64 { return q.ShippingCharge.InexactFloat64() }
func (q Quote) TotalFloat() float64          { return q.Total.InexactFloat64() }
