package model

import (
	"testing"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRate(code string) *Estimate {
	e := NewEstimate("Rate "+code, "", "USD")
	e.Rate = &RateInfo{Code: code, Unit: "m2", Category: "concrete", Type: RateTypeSimple}
	return e
}

func TestLineItemRecalculate(t *testing.T) {
	li := LineItem{Kind: KindMaterial, Name: "Cement", Quantity: 4, UnitPrice: 8}
	li.Recalculate()
	assert.InDelta(t, 32.0, li.Total, 1e-9)

	// Indirect costs carry their amount as the unit price.
	indirect := LineItem{Kind: KindIndirectCost, Name: "Insurance", UnitPrice: 120}
	indirect.Recalculate()
	assert.InDelta(t, 120.0, indirect.Total, 1e-9)
	assert.InDelta(t, 1.0, indirect.Quantity, 1e-9)
}

func TestTaskPartitionsByKind(t *testing.T) {
	task := NewTask("Foundations")
	task.AddItem(LineItem{Kind: KindMaterial, Name: "Cement", Quantity: 1, UnitPrice: 10})
	task.AddItem(LineItem{Kind: KindLabor, Name: "Mason", Quantity: 8, UnitPrice: 12})
	task.AddItem(LineItem{Kind: KindPlant, Name: "Crane", Quantity: 1, UnitPrice: 500})

	assert.Len(t, task.Materials, 1)
	assert.Len(t, task.Labor, 1)
	assert.Len(t, task.Plant, 1)
	assert.Equal(t, 3, task.ItemCount())
	assert.Equal(t, task.Materials, task.ItemsOf(KindMaterial))

	// Totals are derived on add.
	assert.InDelta(t, 96.0, task.Labor[0].Total, 1e-9)
}

func TestSetRateTypeGuard(t *testing.T) {
	composite := newRate("CONC1A")
	require.NoError(t, composite.SetRateType(RateTypeComposite))
	require.NoError(t, composite.AddSubRate(newRate("CONC1B")))

	err := composite.SetRateType(RateTypeSimple)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateTypeConflict)
	assert.Equal(t, RateTypeComposite, composite.RateType())

	require.NoError(t, composite.RemoveSubRate(0))
	assert.NoError(t, composite.SetRateType(RateTypeSimple))
}

func TestAddSubRateRequiresComposite(t *testing.T) {
	simple := newRate("CONC1A")
	err := simple.AddSubRate(newRate("CONC1B"))
	assert.ErrorIs(t, err, common.ErrRateTypeConflict)
	assert.Empty(t, simple.SubRates)
}

func TestAddSubRateRefusesCycle(t *testing.T) {
	a := newRate("CONC1A")
	require.NoError(t, a.SetRateType(RateTypeComposite))

	b := newRate("CONC1B")
	require.NoError(t, b.SetRateType(RateTypeComposite))
	require.NoError(t, b.AddSubRate(newRate("CONC1A")))

	// b embeds a copy of a; importing b back into a would recurse forever.
	err := a.AddSubRate(b)
	assert.ErrorIs(t, err, common.ErrRateCycle)
	assert.Empty(t, a.SubRates)
}

func TestSubRateIsDeepCopy(t *testing.T) {
	source := newRate("CONC1A")
	task := NewTask("Base")
	task.AddItem(LineItem{Kind: KindMaterial, Name: "Sand", Quantity: 2, UnitPrice: 5})
	source.Tasks = append(source.Tasks, task)

	composite := newRate("CONC2A")
	require.NoError(t, composite.SetRateType(RateTypeComposite))
	require.NoError(t, composite.AddSubRate(source))

	sub := &composite.SubRates[0]
	assert.InDelta(t, 1.0, sub.Quantity, 1e-9)
	assert.Equal(t, "m2", sub.ConvertedUnit)
	assert.Equal(t, "CONC1A", sub.SourceCode)

	// Mutating the original must not reach the embedded copy.
	source.Tasks[0].Materials[0].UnitPrice = 999
	assert.InDelta(t, 5.0, sub.Estimate.Tasks[0].Materials[0].UnitPrice, 1e-9)
}

func TestEstimateClone(t *testing.T) {
	e := newRate("CONC1A")
	task := NewTask("Base")
	task.AddItem(LineItem{Kind: KindMaterial, Name: "Sand", Quantity: 2, UnitPrice: 5})
	e.Tasks = append(e.Tasks, task)
	e.Rates["EUR"] = ExchangeRateEntry{Rate: 1.1, Operator: OperatorMultiply}
	id := int64(7)
	e.ID = &id

	c := e.Clone()
	c.Tasks[0].Materials[0].Quantity = 50
	c.Rates["EUR"] = ExchangeRateEntry{Rate: 9, Operator: OperatorDivide}
	*c.ID = 8
	c.Rate.Code = "CONC9Z"

	assert.InDelta(t, 2.0, e.Tasks[0].Materials[0].Quantity, 1e-9)
	assert.InDelta(t, 1.1, e.Rates["EUR"].Rate, 1e-9)
	assert.Equal(t, int64(7), *e.ID)
	assert.Equal(t, "CONC1A", e.Rate.Code)
}

func TestEstimateValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Estimate)
		wantErr bool
	}{
		{"valid", func(_ *Estimate) {}, false},
		{"missing project name", func(e *Estimate) { e.ProjectName = "" }, true},
		{"missing base currency", func(e *Estimate) { e.BaseCurrency = "" }, true},
		{"overhead out of range", func(e *Estimate) { e.OverheadPct = 101 }, true},
		{"profit negative", func(e *Estimate) { e.ProfitPct = -1 }, true},
		{"bad exchange rate", func(e *Estimate) {
			e.Rates["EUR"] = ExchangeRateEntry{Rate: 0, Operator: OperatorMultiply}
		}, true},
		{"simple rate with sub-rates", func(e *Estimate) {
			e.SubRates = append(e.SubRates, NewSubRate(newRate("CONC5A")))
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimate("Bridge", "Acme", "USD")
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
