// Package engine implements the valuation core: totals rollup, composite rate
// resolution, sub-rate sync, and price-list propagation.
package engine

import (
	"sync"

	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
)

// Engine orchestrates valuation over the persistence collaborator. All pure
// computations live in package-level functions; the engine adds storage access
// and per-session advisory state.
type Engine struct {
	storage       service.Storage
	warnedUnits   map[*model.Estimate]bool
	warnedUnitsMu sync.Mutex
}

// New creates a valuation engine backed by the given storage.
func New(storage service.Storage) *Engine {
	return &Engine{
		storage:     storage,
		warnedUnits: make(map[*model.Estimate]bool),
	}
}
