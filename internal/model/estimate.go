package model

import (
	"fmt"
	"time"

	"github.com/buildrate/ratebook/internal/common"
)

// RateType distinguishes rates priced purely from their own tasks from rates
// that also embed other rates.
type RateType string

const (
	// RateTypeSimple means the rate's cost comes only from its own tasks.
	RateTypeSimple RateType = "simple"
	// RateTypeComposite means the rate additionally embeds sub-rates.
	RateTypeComposite RateType = "composite"
)

// RateInfo is the library metadata carried by an estimate saved as a rate.
type RateInfo struct {
	Code       string   `json:"code"`
	Unit       string   `json:"unit"`
	Category   string   `json:"category"`
	Notes      string   `json:"notes,omitempty"`
	Type       RateType `json:"type"`
	Adjustment float64  `json:"adjustment"`
}

// Estimate is a priced breakdown of tasks and resources for a project. When
// saved to the rate library it carries RateInfo and doubles as a reusable
// rate. The estimate is the root of the ownership tree: it owns its tasks,
// sub-rates, and exchange-rate entries.
type Estimate struct {
	CreatedAt    time.Time                    `json:"created_at"`
	Rates        map[string]ExchangeRateEntry `json:"rates,omitempty"`
	ID           *int64                       `json:"id,omitempty"`
	Rate         *RateInfo                    `json:"rate,omitempty"`
	ProjectName  string                       `json:"project_name"`
	ClientName   string                       `json:"client_name"`
	BaseCurrency string                       `json:"base_currency"`
	Tasks        []*Task                      `json:"tasks,omitempty"`
	SubRates     []SubRate                    `json:"sub_rates,omitempty"`
	OverheadPct  float64                      `json:"overhead_pct"`
	ProfitPct    float64                      `json:"profit_pct"`
}

// NewEstimate creates an empty estimate in the given base currency.
func NewEstimate(projectName, clientName, baseCurrency string) *Estimate {
	return &Estimate{
		ProjectName:  projectName,
		ClientName:   clientName,
		BaseCurrency: baseCurrency,
		CreatedAt:    time.Now(),
		Rates:        make(map[string]ExchangeRateEntry),
	}
}

// RateCode returns the estimate's rate code, or "" for plain estimates.
func (e *Estimate) RateCode() string {
	if e.Rate == nil {
		return ""
	}
	return e.Rate.Code
}

// RateType returns the estimate's rate type, defaulting to simple when the
// estimate carries no rate metadata.
func (e *Estimate) RateType() RateType {
	if e.Rate == nil {
		return RateTypeSimple
	}
	return e.Rate.Type
}

// SetRateType changes the rate type. Demoting a composite rate to simple is
// rejected while any sub-rate remains attached; the caller must remove them
// first. The current type is left unchanged on rejection.
func (e *Estimate) SetRateType(t RateType) error {
	if t == RateTypeSimple && len(e.SubRates) > 0 {
		return fmt.Errorf("%w: %d sub-rates still attached", common.ErrRateTypeConflict, len(e.SubRates))
	}
	if e.Rate == nil {
		e.Rate = &RateInfo{}
	}
	e.Rate.Type = t
	return nil
}

// SetExchangeRate records the conversion entry for a non-base currency.
func (e *Estimate) SetExchangeRate(currency string, entry ExchangeRateEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if e.Rates == nil {
		e.Rates = make(map[string]ExchangeRateEntry)
	}
	e.Rates[currency] = entry
	return nil
}

// AddSubRate imports source as a sub-rate. Importing is refused when the
// source's embedded graph already contains this estimate's rate code, which
// would make totals resolution recurse forever.
func (e *Estimate) AddSubRate(source *Estimate) error {
	if e.RateType() != RateTypeComposite {
		return fmt.Errorf("%w: only composite rates accept sub-rates", common.ErrRateTypeConflict)
	}
	if code := e.RateCode(); code != "" && source.containsRateCode(code) {
		return fmt.Errorf("%w: %s is already embedded in %s", common.ErrRateCycle, code, source.RateCode())
	}
	e.SubRates = append(e.SubRates, NewSubRate(source))
	return nil
}

// RemoveSubRate removes the sub-rate at index i.
func (e *Estimate) RemoveSubRate(i int) error {
	if i < 0 || i >= len(e.SubRates) {
		return fmt.Errorf("sub-rate index %d out of range", i)
	}
	e.SubRates = append(e.SubRates[:i], e.SubRates[i+1:]...)
	return nil
}

// containsRateCode reports whether the estimate or any embedded sub-rate
// carries the given rate code.
func (e *Estimate) containsRateCode(code string) bool {
	if e.RateCode() == code {
		return true
	}
	for i := range e.SubRates {
		if e.SubRates[i].Estimate.containsRateCode(code) {
			return true
		}
	}
	return false
}

// EachLineItem calls fn for every line item in every task. fn receives a
// pointer so callers can edit items in place. Embedded sub-rates are not
// visited; they are frozen copies with their own graphs.
func (e *Estimate) EachLineItem(fn func(task *Task, li *LineItem)) {
	for _, task := range e.Tasks {
		t := task
		t.EachItem(func(li *LineItem) { fn(t, li) })
	}
}

// TaskByDescription returns the first task with the given description, or nil.
func (e *Estimate) TaskByDescription(description string) *Task {
	for _, task := range e.Tasks {
		if task.Description == description {
			return task
		}
	}
	return nil
}

// Clone returns a deep copy of the estimate graph. Used for sub-rate imports
// and undo snapshots.
func (e *Estimate) Clone() *Estimate {
	c := *e
	if e.ID != nil {
		id := *e.ID
		c.ID = &id
	}
	if e.Rate != nil {
		r := *e.Rate
		c.Rate = &r
	}
	if e.Rates != nil {
		c.Rates = make(map[string]ExchangeRateEntry, len(e.Rates))
		for k, v := range e.Rates {
			c.Rates[k] = v
		}
	}
	c.Tasks = make([]*Task, len(e.Tasks))
	for i, t := range e.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.SubRates = make([]SubRate, len(e.SubRates))
	for i := range e.SubRates {
		c.SubRates[i] = e.SubRates[i].Clone()
	}
	return &c
}

// Validate ensures the estimate graph has usable data.
func (e *Estimate) Validate() error {
	if e.ProjectName == "" {
		return fmt.Errorf("project name is required")
	}
	if e.BaseCurrency == "" {
		return fmt.Errorf("base currency is required")
	}
	if e.OverheadPct < 0 || e.OverheadPct > 100 {
		return fmt.Errorf("overhead percent must be between 0 and 100, got %v", e.OverheadPct)
	}
	if e.ProfitPct < 0 || e.ProfitPct > 100 {
		return fmt.Errorf("profit percent must be between 0 and 100, got %v", e.ProfitPct)
	}
	for currency, entry := range e.Rates {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("exchange rate for %s: %w", currency, err)
		}
	}
	if e.RateType() == RateTypeSimple && len(e.SubRates) > 0 {
		return fmt.Errorf("%w: simple rate carries %d sub-rates", common.ErrRateTypeConflict, len(e.SubRates))
	}
	for _, task := range e.Tasks {
		var err error
		task.EachItem(func(li *LineItem) {
			if err == nil {
				err = li.Validate()
			}
		})
		if err != nil {
			return fmt.Errorf("task %q: %w", task.Description, err)
		}
	}
	return nil
}
