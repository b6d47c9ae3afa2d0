package stock

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryShare is one slice of the cost breakdown
type CategoryShare struct {
	Category CostCategory
	Amount   decimal.Decimal
	Percent  decimal.Decimal // share of PRU, rounded to 2 decimals
}

// CostSummary is the cost basis and margin view of a vehicle
type CostSummary struct {
	PurchasePrice decimal.Decimal
	TotalCosts    decimal.Decimal
	PRU           decimal.Decimal
	SellingPrice  decimal.Decimal
	Margin        decimal.Decimal
	MarginPercent decimal.Decimal
	// Priced is false when no selling price is set; MarginPercent is then 0
	// and means "not yet priced", not "zero margin".
	Priced    bool
	Breakdown []CategoryShare
}

// ComputeTotalCosts sums all cost entries
func ComputeTotalCosts(entries []CostEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// ComputePRU returns purchase price plus every cost entry, whatever its category
func ComputePRU(v *Vehicle) decimal.Decimal {
	return v.PurchasePrice.Add(ComputeTotalCosts(v.Costs))
}

// ComputeMarginPercent returns (sellingPrice - pru) / sellingPrice * 100,
// or 0 when sellingPrice is not positive.
func ComputeMarginPercent(pru, sellingPrice decimal.Decimal) decimal.Decimal {
	if !sellingPrice.IsPositive() {
		return decimal.Zero
	}
	return sellingPrice.Sub(pru).Div(sellingPrice).Mul(hundred)
}

// BreakdownByCategory groups the cost basis by category, largest first.
// The purchase price is counted under the purchase category so shares add up to the PRU.
// Categories whose aggregate is not positive are dropped.
func BreakdownByCategory(v *Vehicle) []CategoryShare {
	totals := make(map[CostCategory]decimal.Decimal)
	totals[CostCategoryPurchase] = v.PurchasePrice
	for _, e := range v.Costs {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	pru := ComputePRU(v)
	shares := make([]CategoryShare, 0, len(totals))
	for category, amount := range totals {
		if !amount.IsPositive() {
			continue
		}
		percent := decimal.Zero
		if pru.IsPositive() {
			percent = amount.Div(pru).Mul(hundred).Round(2)
		}
		shares = append(shares, CategoryShare{
			Category: category,
			Amount:   amount,
			Percent:  percent,
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Equal(shares[j].Amount) {
			return shares[i].Category < shares[j].Category
		}
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	return shares
}

// Summarize computes the full cost summary of a vehicle
func Summarize(v *Vehicle) CostSummary {
	pru := ComputePRU(v)
	summary := CostSummary{
		PurchasePrice: v.PurchasePrice,
		TotalCosts:    ComputeTotalCosts(v.Costs),
		PRU:           pru,
		SellingPrice:  v.SellingPrice,
		Priced:        v.SellingPrice.IsPositive(),
		Breakdown:     BreakdownByCategory(v),
	}
	if summary.Priced {
		summary.Margin = v.SellingPrice.Sub(pru)
		summary.MarginPercent = ComputeMarginPercent(pru, v.SellingPrice).Round(2)
	}
	return summary
}
