// Package tax computes the amounts printed on sale documents under the
// margin-VAT and apparent-VAT regimes.
package tax

import (
	"github.com/shopspring/decimal"
)

// BillingType selects the VAT regime of a sale
type BillingType string

const (
	// BillingTypeMargin is the margin scheme for second-hand goods: one VAT-inclusive total
	BillingTypeMargin BillingType = "margin"
	// BillingTypeVAT is apparent VAT: the document shows HT, VAT and TTC separately
	BillingTypeVAT BillingType = "vat"
)

// IsValid checks if the billing type is known
func (b BillingType) IsValid() bool {
	return b == BillingTypeMargin || b == BillingTypeVAT
}

// String returns the string representation of BillingType
func (b BillingType) String() string {
	return string(b)
}

// Config holds the externally configured tax parameters
type Config struct {
	HandlingFee decimal.Decimal
	VATRate     decimal.Decimal
}

// DefaultConfig returns the dealership defaults: 350 handling fee, 20% VAT
func DefaultConfig() Config {
	return Config{
		HandlingFee: decimal.NewFromInt(350),
		VATRate:     decimal.RequireFromString("0.20"),
	}
}

// Computation is the result of applying a regime to a sale price
type Computation struct {
	BillingType BillingType
	SalePrice   decimal.Decimal
	HandlingFee decimal.Decimal
	VATRate     decimal.Decimal
	// PriceExclTax and VATAmount are only set under the apparent-VAT regime
	PriceExclTax decimal.Decimal
	VATAmount    decimal.Decimal
	TotalAmount  decimal.Decimal
	// TradeInDeduction is an informational settlement line; it is not subtracted from TotalAmount
	TradeInDeduction decimal.Decimal
	// BalanceDue is TotalAmount minus TradeInDeduction, for display only
	BalanceDue decimal.Decimal
}

// ShowsBreakdown reports whether HT/VAT lines appear on the document
func (c Computation) ShowsBreakdown() bool {
	return c.BillingType == BillingTypeVAT
}

// Engine applies a tax Config
type Engine struct {
	cfg Config
}

// NewEngine creates a tax engine
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute returns the amounts for a sale. An unknown billing type falls back
// to the margin regime, which never decomposes the total.
func (e *Engine) Compute(salePrice decimal.Decimal, billingType BillingType, tradeInValue decimal.Decimal) Computation {
	c := Computation{
		BillingType:      billingType,
		SalePrice:        salePrice,
		HandlingFee:      e.cfg.HandlingFee,
		VATRate:          e.cfg.VATRate,
		TradeInDeduction: tradeInValue,
	}

	switch billingType {
	case BillingTypeVAT:
		c.PriceExclTax = PriceExcludingTax(salePrice, e.cfg.VATRate)
		c.VATAmount = salePrice.Sub(c.PriceExclTax)
		c.TotalAmount = c.PriceExclTax.Add(e.cfg.HandlingFee).Add(c.VATAmount)
	default:
		c.BillingType = BillingTypeMargin
		c.TotalAmount = salePrice.Add(e.cfg.HandlingFee)
	}

	c.BalanceDue = c.TotalAmount.Sub(tradeInValue)
	return c
}

// PriceExcludingTax returns price / (1 + rate) rounded half-up to the cent
func PriceExcludingTax(price, rate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(rate)
	if divisor.IsZero() {
		return price
	}
	return RoundHalfUp(price.Div(divisor), 2)
}

// RoundHalfUp rounds to places decimals, ties away from zero (12.345 -> 12.35)
func RoundHalfUp(value decimal.Decimal, places int32) decimal.Decimal {
	return value.Round(places)
}
