package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildrate/ratebook/internal/common"
	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/ratecode"
)

// SaveRate persists an estimate into the rate library under the given
// category, allocating the next rate code when the estimate has none yet.
// Allocation reads the current code set and computes the next code without a
// reservation step; a concurrent allocator can win the rate-code UNIQUE
// constraint, in which case the code set is re-read and allocation retried.
// The category-to-prefix table is injected configuration, never global state.
func (eng *Engine) SaveRate(ctx context.Context, e *model.Estimate, category string, prefixes map[string]string) (int64, error) {
	if e.Rate == nil {
		e.Rate = &model.RateInfo{Type: model.RateTypeSimple}
	}
	if category != "" {
		e.Rate.Category = category
	}

	if e.Rate.Code != "" {
		return eng.storage.SaveEstimate(ctx, e)
	}

	var id int64
	err := common.WithRetry(ctx, func() error {
		prefix := ratecode.Prefix(e.Rate.Category, prefixes)
		codes, err := eng.storage.RateCodes(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to read rate codes for %s: %w", prefix, err)
		}
		e.Rate.Code = ratecode.Next(e.Rate.Category, codes, prefixes)

		id, err = eng.storage.SaveEstimate(ctx, e)
		if errors.Is(err, common.ErrDuplicateRateCode) {
			// Lost the allocation race; drop the code so the next attempt
			// re-reads the latest set.
			e.Rate.Code = ""
		}
		return err
	}, common.RetryOptions{MaxAttempts: 5})
	if err != nil {
		return 0, err
	}
	return id, nil
}
