// Package testutil provides shared helpers for tests that need a migrated
// database or a populated estimate graph.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/buildrate/ratebook/internal/model"
	"github.com/buildrate/ratebook/internal/service"
	"github.com/buildrate/ratebook/internal/storage"
)

// SetupTestDB creates a migrated sqlite database in a test temp dir. Cleanup
// is registered automatically.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ratebook-test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return store
}

// SampleEstimate builds a two-task estimate with mixed-kind line items, priced
// in the given base currency.
func SampleEstimate(projectName, baseCurrency string) *model.Estimate {
	e := model.NewEstimate(projectName, "Test Client", baseCurrency)
	e.OverheadPct = 15
	e.ProfitPct = 10

	foundations := model.NewTask("Foundations")
	foundations.AddItem(model.LineItem{
		Kind: model.KindMaterial, Name: "Cement", Quantity: 10, Unit: "bag", UnitPrice: 8.5, Currency: baseCurrency,
	})
	foundations.AddItem(model.LineItem{
		Kind: model.KindLabor, Name: "Mason", Quantity: 16, Unit: "hr", UnitPrice: 12, Currency: baseCurrency,
	})
	e.Tasks = append(e.Tasks, foundations)

	walls := model.NewTask("Walls")
	walls.AddItem(model.LineItem{
		Kind: model.KindMaterial, Name: "Blocks", Quantity: 200, Unit: "pcs", UnitPrice: 1.25, Currency: baseCurrency,
	})
	walls.AddItem(model.LineItem{
		Kind: model.KindEquipment, Name: "Mixer", Quantity: 2, Unit: "day", UnitPrice: 40, Currency: baseCurrency,
	})
	walls.AddItem(model.LineItem{
		Kind: model.KindIndirectCost, Name: "Site insurance", UnitPrice: 75, Currency: baseCurrency,
	})
	e.Tasks = append(e.Tasks, walls)

	return e
}

// SampleRate builds a simple library rate with the given code and a known
// subtotal of 100 in the base currency.
func SampleRate(code, unit, category, baseCurrency string) *model.Estimate {
	e := model.NewEstimate("Rate "+code, "", baseCurrency)
	e.Rate = &model.RateInfo{
		Code:     code,
		Unit:     unit,
		Category: category,
		Type:     model.RateTypeSimple,
	}

	task := model.NewTask("Base work")
	task.AddItem(model.LineItem{
		Kind: model.KindMaterial, Name: "Aggregate", Quantity: 4, Unit: "m3", UnitPrice: 25, Currency: baseCurrency,
	})
	e.Tasks = append(e.Tasks, task)
	return e
}
