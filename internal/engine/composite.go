package engine

import (
	"fmt"
	"log/slog"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/model"
)

// NetRate resolves the full cost of one measured unit of a rate: the
// task-based subtotal plus, for composite rates, every sub-rate's own net rate
// scaled by its quantity multiplier. Resolution recurses to arbitrary depth
// and refuses rate-code cycles rather than truncating them, so a corrupted
// stored graph cannot produce a silently wrong total.
func NetRate(e *model.Estimate) (float64, error) {
	return netRate(e, make(map[string]bool))
}

func netRate(e *model.Estimate, visited map[string]bool) (float64, error) {
	if code := e.RateCode(); code != "" {
		if visited[code] {
			return 0, fmt.Errorf("%w: rate %s embeds itself", common.ErrRateCycle, code)
		}
		visited[code] = true
		defer delete(visited, code)
	}

	total := CalculateTotals(e).Subtotal
	for i := range e.SubRates {
		sub := &e.SubRates[i]
		subNet, err := netRate(&sub.Estimate, visited)
		if err != nil {
			return 0, err
		}
		total += subNet * sub.Quantity
	}
	return total, nil
}

// NetRate resolves a rate's net unit cost and surfaces unit-mismatch
// advisories. A sub-rate whose converted unit differs from the composite's own
// unit is warned about once per importing estimate per session; computation
// always proceeds.
func (eng *Engine) NetRate(e *model.Estimate) (float64, error) {
	eng.warnUnitMismatches(e)
	return NetRate(e)
}

func (eng *Engine) warnUnitMismatches(e *model.Estimate) {
	if e.Rate == nil || len(e.SubRates) == 0 {
		return
	}

	eng.warnedUnitsMu.Lock()
	warned := eng.warnedUnits[e]
	eng.warnedUnitsMu.Unlock()
	if warned {
		return
	}

	// The warned flag is only set once something was actually emitted, so a
	// unit changed later in the session still gets its advisory.
	emitted := false
	for i := range e.SubRates {
		sub := &e.SubRates[i]
		if sub.ConvertedUnit != "" && sub.ConvertedUnit != e.Rate.Unit {
			emitted = true
			slog.Warn("sub-rate unit differs from composite unit",
				"rate_code", e.RateCode(),
				"sub_rate", sub.SourceCode,
				"sub_unit", sub.ConvertedUnit,
				"composite_unit", e.Rate.Unit)
		}
	}
	if emitted {
		eng.warnedUnitsMu.Lock()
		eng.warnedUnits[e] = true
		eng.warnedUnitsMu.Unlock()
	}
}
