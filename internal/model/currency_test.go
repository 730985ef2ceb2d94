package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateConvert(t *testing.T) {
	e := NewEstimate("Bridge", "Acme", "USD")
	e.Rates["EUR"] = ExchangeRateEntry{Rate: 1.1, Operator: OperatorMultiply}
	e.Rates["GBP"] = ExchangeRateEntry{Rate: 0.8, Operator: OperatorDivide}
	e.Rates["XXX"] = ExchangeRateEntry{Rate: 0, Operator: OperatorDivide}

	tests := []struct {
		name     string
		currency string
		amount   float64
		want     float64
	}{
		{"base currency is identity", "USD", 250, 250},
		{"empty currency is identity", "", 250, 250},
		{"missing entry defaults to identity", "AUD", 99, 99},
		{"multiply operator", "EUR", 100, 110},
		{"divide operator", "GBP", 100, 125},
		{"zero rate under divide clamps to zero", "XXX", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.Convert(tt.amount, tt.currency), 1e-9)
		})
	}
}

func TestExchangeRateEntryValidate(t *testing.T) {
	assert.NoError(t, ExchangeRateEntry{Rate: 1.5, Operator: OperatorMultiply}.Validate())
	assert.Error(t, ExchangeRateEntry{Rate: 0, Operator: OperatorMultiply}.Validate())
	assert.Error(t, ExchangeRateEntry{Rate: -1, Operator: OperatorDivide}.Validate())
	assert.Error(t, ExchangeRateEntry{Rate: 1, Operator: "plus"}.Validate())
}

func TestConvertIsPure(t *testing.T) {
	e := NewEstimate("Bridge", "Acme", "USD")
	e.Rates["EUR"] = ExchangeRateEntry{Rate: 2, Operator: OperatorMultiply}

	first := e.Convert(10, "EUR")
	second := e.Convert(10, "EUR")
	assert.Equal(t, first, second)
	assert.Len(t, e.Rates, 1)
}
