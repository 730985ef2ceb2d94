package engine

import (
	"github.com/buildrate/ratebook/internal/model"
	"github.com/shopspring/decimal"
)

// Totals is the computed summary of an estimate, in its base currency.
type Totals struct {
	Currency   string
	Subtotal   float64
	Overhead   float64
	Profit     float64
	GrandTotal float64
}

// CalculateTotals rolls up every task's line items into subtotal, overhead,
// profit, and grand total. Each line item total is converted into the
// estimate's base currency first. Profit is computed on cost plus overhead,
// not on the subtotal alone. The function is deterministic and side-effect
// free; callers must re-invoke it after any mutation, nothing is cached.
func CalculateTotals(e *model.Estimate) Totals {
	subtotal := decimal.Zero
	for _, task := range e.Tasks {
		task.EachItem(func(li *model.LineItem) {
			converted := e.Convert(li.Total, li.Currency)
			subtotal = subtotal.Add(decimal.NewFromFloat(converted))
		})
	}

	overhead := subtotal.Mul(decimal.NewFromFloat(e.OverheadPct)).Div(decimal.NewFromInt(100))
	profit := subtotal.Add(overhead).Mul(decimal.NewFromFloat(e.ProfitPct)).Div(decimal.NewFromInt(100))
	grand := subtotal.Add(overhead).Add(profit)

	return Totals{
		Currency:   e.BaseCurrency,
		Subtotal:   subtotal.InexactFloat64(),
		Overhead:   overhead.InexactFloat64(),
		Profit:     profit.InexactFloat64(),
		GrandTotal: grand.InexactFloat64(),
	}
}
