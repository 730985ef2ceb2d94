package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
)

// Propagate pushes a price-list change into every stored estimate referencing
// the resource by exact name. Line items already carrying the new price and
// currency are left untouched; only estimates with at least one real change
// are re-persisted. Embedded sub-rate copies are deliberately not visited:
// they are frozen snapshots, refreshed only by an explicit sync. Returns the
// number of estimates updated.
//
// The scan is linear in the number of stored estimates and honors ctx
// cancellation between estimates; callers should treat it as a batch job.
func (eng *Engine) Propagate(ctx context.Context, kind model.Kind, name string, newPrice float64, newCurrency string) (int, error) {
	return eng.PropagateWithProgress(ctx, kind, name, newPrice, newCurrency, nil)
}

// PropagateWithProgress is Propagate with a per-estimate progress callback,
// called as (scanned, total) after each estimate is examined. progress may be
// nil.
func (eng *Engine) PropagateWithProgress(ctx context.Context, kind model.Kind, name string, newPrice float64, newCurrency string, progress func(scanned, total int)) (int, error) {
	ids, err := eng.storage.ListEstimatesReferencing(ctx, kind, name)
	if err != nil {
		return 0, fmt.Errorf("failed to list estimates referencing %q: %w", name, err)
	}

	updated := 0
	for scanned, id := range ids {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		estimate, err := eng.storage.GetEstimate(ctx, id)
		if err != nil {
			return updated, fmt.Errorf("failed to load estimate %d: %w", id, err)
		}

		if applyPriceChange(estimate, kind, name, newPrice, newCurrency) {
			if _, err := eng.storage.SaveEstimate(ctx, estimate); err != nil {
				return updated, fmt.Errorf("failed to save estimate %d: %w", id, err)
			}
			updated++
			slog.Debug("propagated price change", "estimate_id", id, "resource", name)
		}

		if progress != nil {
			progress(scanned+1, len(ids))
		}
	}

	// Keep the price list itself consistent with what was pushed out.
	item := &service.PriceListItem{Kind: kind, Name: name, UnitPrice: newPrice, Currency: newCurrency}
	if existing, err := eng.storage.FindPriceListItem(ctx, kind, name); err == nil {
		item.Unit = existing.Unit
		if newCurrency == "" {
			item.Currency = existing.Currency
		}
	}
	if err := eng.storage.SavePriceListItem(ctx, item); err != nil {
		return updated, fmt.Errorf("failed to update price list: %w", err)
	}

	slog.Info("price change propagated", "resource", name, "kind", kind, "estimates_updated", updated)
	return updated, nil
}

// applyPriceChange rewrites matching line items and reports whether anything
// actually changed.
func applyPriceChange(e *model.Estimate, kind model.Kind, name string, newPrice float64, newCurrency string) bool {
	changed := false
	e.EachLineItem(func(_ *model.Task, li *model.LineItem) {
		if li.Kind != kind || li.Name != name {
			return
		}
		if li.UnitPrice == newPrice && (newCurrency == "" || li.Currency == newCurrency) {
			return
		}
		li.UnitPrice = newPrice
		if newCurrency != "" {
			li.Currency = newCurrency
		}
		li.Recalculate()
		changed = true
	})
	return changed
}
