package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/model"
)

// ImportedRatesTask is the conventional task holding line items materialized
// from sub-rates.
const ImportedRatesTask = "Imported Rates"

// SyncSubRate reloads the i-th sub-rate's embedded estimate from the rate
// library, by original estimate id or, failing that, by rate code. The local
// quantity multiplier, converted unit, and formula survive the sync; every
// other field is replaced by the freshly loaded rate. When no persisted source
// can be found the embedded copy is left untouched and ErrSyncSourceNotFound
// is returned.
func (eng *Engine) SyncSubRate(ctx context.Context, e *model.Estimate, i int) error {
	if i < 0 || i >= len(e.SubRates) {
		return fmt.Errorf("sub-rate index %d out of range", i)
	}
	sub := &e.SubRates[i]

	fresh, err := eng.loadSubRateSource(ctx, sub)
	if err != nil {
		return err
	}

	quantity, unit, formulaText := sub.Quantity, sub.ConvertedUnit, sub.Formula
	sub.Estimate = *fresh.Clone()
	sub.Quantity = quantity
	sub.ConvertedUnit = unit
	sub.Formula = formulaText
	if fresh.ID != nil {
		sub.SourceID = *fresh.ID
	}
	sub.SourceCode = fresh.RateCode()

	slog.Info("synced sub-rate from library",
		"estimate", e.ProjectName,
		"index", i,
		"rate_code", sub.SourceCode)
	return nil
}

func (eng *Engine) loadSubRateSource(ctx context.Context, sub *model.SubRate) (*model.Estimate, error) {
	if sub.SourceID != 0 {
		fresh, err := eng.storage.GetEstimate(ctx, sub.SourceID)
		if err == nil {
			return fresh, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to load sub-rate source %d: %w", sub.SourceID, err)
		}
	}
	if sub.SourceCode != "" {
		fresh, err := eng.storage.FindRateByCode(ctx, sub.SourceCode)
		if err == nil {
			return fresh, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to load sub-rate source %q: %w", sub.SourceCode, err)
		}
	}
	return nil, fmt.Errorf("%w: id=%d code=%q", common.ErrSyncSourceNotFound, sub.SourceID, sub.SourceCode)
}

// InsertRate materializes the i-th sub-rate as a material line item in the
// "Imported Rates" task: quantity is the sub-rate's multiplier, unit price its
// net rate. Re-running for the same sub-rate updates the existing line item in
// place instead of duplicating it; the item is keyed by "code: description".
func (eng *Engine) InsertRate(e *model.Estimate, i int) error {
	if i < 0 || i >= len(e.SubRates) {
		return fmt.Errorf("sub-rate index %d out of range", i)
	}
	sub := &e.SubRates[i]

	net, err := eng.NetRate(&sub.Estimate)
	if err != nil {
		return fmt.Errorf("failed to resolve sub-rate net rate: %w", err)
	}

	name := fmt.Sprintf("%s: %s", sub.SourceCode, sub.Estimate.ProjectName)
	item := model.LineItem{
		Kind:      model.KindMaterial,
		Name:      name,
		Quantity:  sub.Quantity,
		Unit:      sub.ConvertedUnit,
		UnitPrice: net,
		Currency:  sub.Estimate.BaseCurrency,
		Formula:   sub.Formula,
	}
	item.Recalculate()

	task := e.TaskByDescription(ImportedRatesTask)
	if task == nil {
		task = model.NewTask(ImportedRatesTask)
		e.Tasks = append(e.Tasks, task)
	}
	for j := range task.Materials {
		if task.Materials[j].Name == name {
			task.Materials[j] = item
			return nil
		}
	}
	task.Materials = append(task.Materials, item)
	return nil
}
