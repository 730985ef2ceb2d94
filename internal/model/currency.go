package model

import (
	"fmt"
	"time"
)

// RateOperator selects how an exchange rate is applied to an amount.
type RateOperator string

const (
	// OperatorMultiply converts by multiplying the amount with the rate.
	OperatorMultiply RateOperator = "multiply"
	// OperatorDivide converts by dividing the amount by the rate.
	OperatorDivide RateOperator = "divide"
)

// ExchangeRateEntry converts one non-base currency into the estimate's base
// currency. Rate values are user-supplied, never fetched.
type ExchangeRateEntry struct {
	EffectiveDate time.Time    `json:"effective_date"`
	Operator      RateOperator `json:"operator"`
	Rate          float64      `json:"rate"`
}

// Apply converts amount into the base currency. A zero rate under divide
// yields 0 rather than an error; malformed stored data must never abort a
// totals run.
func (e ExchangeRateEntry) Apply(amount float64) float64 {
	if e.Operator == OperatorDivide {
		if e.Rate == 0 {
			return 0
		}
		return amount / e.Rate
	}
	return amount * e.Rate
}

// Validate ensures the entry can convert amounts.
func (e ExchangeRateEntry) Validate() error {
	if e.Rate <= 0 {
		return fmt.Errorf("exchange rate must be positive, got %v", e.Rate)
	}
	if e.Operator != OperatorMultiply && e.Operator != OperatorDivide {
		return fmt.Errorf("unknown rate operator %q", e.Operator)
	}
	return nil
}

// Convert converts an amount tagged with the given currency into the
// estimate's base currency. Amounts already in the base currency (or with no
// currency set) pass through unchanged, as do currencies with no configured
// entry: the identity default keeps totals computable on incomplete data.
func (e *Estimate) Convert(amount float64, currency string) float64 {
	if currency == "" || currency == e.BaseCurrency {
		return amount
	}
	entry, ok := e.Rates[currency]
	if !ok {
		return amount
	}
	return entry.Apply(amount)
}
