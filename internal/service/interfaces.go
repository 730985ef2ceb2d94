// Package service defines the interfaces for the persistence collaborators.
package service

import (
	"context"
	"time"

	"github.com/buildrate/ratebook/internal/model"
)

// EstimateFilter defines filtering options for estimate listings.
type EstimateFilter struct {
	RatesOnly bool // only estimates saved to the rate library
	Category  string
	Limit     int
	Offset    int
}

// EstimateSummary is the listing view of a stored estimate.
type EstimateSummary struct {
	CreatedAt    time.Time
	ProjectName  string
	ClientName   string
	BaseCurrency string
	RateCode     string
	Category     string
	ID           int64
	Subtotal     float64
	GrandTotal   float64
}

// PriceListItem is one priced resource in the global price list.
type PriceListItem struct {
	Name      string
	Unit      string
	Currency  string
	Kind      model.Kind
	UnitPrice float64
}

// Storage defines the contract for our persistence layer. Saves are atomic at
// this boundary: a failed save reports the error and leaves both stored and
// in-memory state unchanged so the caller can retry.
type Storage interface {
	// Estimate operations
	SaveEstimate(ctx context.Context, estimate *model.Estimate) (int64, error)
	GetEstimate(ctx context.Context, id int64) (*model.Estimate, error)
	DeleteEstimate(ctx context.Context, id int64) error
	ListEstimates(ctx context.Context, filter EstimateFilter) ([]EstimateSummary, error)
	ListEstimatesReferencing(ctx context.Context, kind model.Kind, name string) ([]int64, error)

	// Rate library operations
	FindRateByCode(ctx context.Context, code string) (*model.Estimate, error)
	RateCodes(ctx context.Context, prefix string) ([]string, error)

	// Price list operations
	FindPriceListItem(ctx context.Context, kind model.Kind, name string) (*PriceListItem, error)
	SavePriceListItem(ctx context.Context, item *PriceListItem) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
