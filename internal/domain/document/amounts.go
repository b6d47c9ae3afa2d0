package document

import (
	"github.com/autodealer/backend/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// Amounts are the figures printed on a document, frozen at issuance
type Amounts struct {
	SalePrice        decimal.Decimal
	HandlingFee      decimal.Decimal
	VATRate          decimal.Decimal
	PriceExclTax     decimal.Decimal
	VATAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	TradeInDeduction decimal.Decimal
}

// AmountsFrom freezes a tax computation
func AmountsFrom(c tax.Computation) Amounts {
	return Amounts{
		SalePrice:        c.SalePrice,
		HandlingFee:      c.HandlingFee,
		VATRate:          c.VATRate,
		PriceExclTax:     c.PriceExclTax,
		VATAmount:        c.VATAmount,
		TotalAmount:      c.TotalAmount,
		TradeInDeduction: c.TradeInDeduction,
	}
}

// BalanceDue is the total minus the informational trade-in line
func (a Amounts) BalanceDue() decimal.Decimal {
	return a.TotalAmount.Sub(a.TradeInDeduction)
}
