package engine

import (
	"testing"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateWithSubtotal(code string, subtotal float64) *model.Estimate {
	e := estimateWithSubtotal(subtotal)
	e.Rate = &model.RateInfo{Code: code, Unit: "m2", Category: "concrete", Type: model.RateTypeSimple}
	return e
}

func TestNetRate_SimpleEqualsSubtotal(t *testing.T) {
	r1 := rateWithSubtotal("CONC1A", 100)
	net, err := NetRate(r1)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, net, 1e-9)
}

func TestNetRate_RecursesThroughNesting(t *testing.T) {
	r1 := rateWithSubtotal("CONC1A", 100)

	r2 := model.NewEstimate("Rate CONC1B", "", "USD")
	r2.Rate = &model.RateInfo{Code: "CONC1B", Unit: "m2", Type: model.RateTypeComposite}
	require.NoError(t, r2.AddSubRate(r1))
	r2.SubRates[0].Quantity = 2

	net, err := NetRate(r2)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, net, 1e-9)

	r3 := model.NewEstimate("Rate CONC1C", "", "USD")
	r3.Rate = &model.RateInfo{Code: "CONC1C", Unit: "m2", Type: model.RateTypeComposite}
	require.NoError(t, r3.AddSubRate(r2))
	r3.SubRates[0].Quantity = 3

	net, err = NetRate(r3)
	require.NoError(t, err)
	assert.InDelta(t, 600.0, net, 1e-9)
}

func TestNetRate_CombinesTasksAndSubRates(t *testing.T) {
	r1 := rateWithSubtotal("CONC1A", 100)

	composite := rateWithSubtotal("CONC1B", 40)
	composite.Rate.Type = model.RateTypeComposite
	require.NoError(t, composite.AddSubRate(r1))
	composite.SubRates[0].Quantity = 2

	net, err := NetRate(composite)
	require.NoError(t, err)
	assert.InDelta(t, 240.0, net, 1e-9)
}

func TestNetRate_RefusesCycle(t *testing.T) {
	// Hand-build a cyclic graph that AddSubRate would have refused; a
	// corrupted store must fail resolution, not hang it.
	a := rateWithSubtotal("CONC1A", 10)
	b := rateWithSubtotal("CONC1B", 20)
	b.Rate.Type = model.RateTypeComposite
	b.SubRates = append(b.SubRates, model.SubRate{Estimate: *rateWithSubtotal("CONC1A", 10), Quantity: 1})
	a.Rate.Type = model.RateTypeComposite
	a.SubRates = append(a.SubRates, model.SubRate{Estimate: *b, Quantity: 1})

	_, err := NetRate(a)
	assert.ErrorIs(t, err, common.ErrRateCycle)
}

func TestNetRate_SharedSubRateIsNotACycle(t *testing.T) {
	// The same rate imported twice side by side is legitimate; only an
	// ancestor chain is a cycle.
	leaf := rateWithSubtotal("CONC1A", 50)
	composite := rateWithSubtotal("CONC1B", 0)
	composite.Rate.Type = model.RateTypeComposite
	require.NoError(t, composite.AddSubRate(leaf))
	require.NoError(t, composite.AddSubRate(leaf))

	net, err := NetRate(composite)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, net, 1e-9)
}

func TestEngineNetRate_WarnsOnceOnUnitMismatch(t *testing.T) {
	leaf := rateWithSubtotal("CONC1A", 50)
	composite := rateWithSubtotal("BLCK1A", 0)
	composite.Rate.Type = model.RateTypeComposite
	composite.Rate.Unit = "m3"
	require.NoError(t, composite.AddSubRate(leaf))
	// leaf's unit is m2; advisory only, never an error.

	eng := New(nil)
	net, err := eng.NetRate(composite)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, net, 1e-9)
	assert.True(t, eng.warnedUnits[composite])

	// A second resolution stays silent but still computes.
	net, err = eng.NetRate(composite)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, net, 1e-9)
}

func TestEngineNetRate_LateMismatchStillWarns(t *testing.T) {
	leaf := rateWithSubtotal("CONC1A", 50)
	composite := rateWithSubtotal("BLCK1A", 0)
	composite.Rate.Type = model.RateTypeComposite
	composite.Rate.Unit = "m2"
	require.NoError(t, composite.AddSubRate(leaf))

	eng := New(nil)

	// Units agree, so nothing is warned and nothing is marked.
	_, err := eng.NetRate(composite)
	require.NoError(t, err)
	assert.False(t, eng.warnedUnits[composite])

	// A unit edited later in the same session still gets its advisory.
	composite.SubRates[0].ConvertedUnit = "m3"
	_, err = eng.NetRate(composite)
	require.NoError(t, err)
	assert.True(t, eng.warnedUnits[composite])
}
