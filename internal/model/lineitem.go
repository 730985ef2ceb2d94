// Package model defines the estimate graph: estimates, tasks, line items,
// sub-rates, and exchange rates.
package model

import "fmt"

// Kind identifies the resource type of a line item.
type Kind string

const (
	// KindMaterial represents purchased materials.
	KindMaterial Kind = "material"
	// KindLabor represents trade labor priced by the hour.
	KindLabor Kind = "labor"
	// KindEquipment represents owned or hired equipment.
	KindEquipment Kind = "equipment"
	// KindPlant represents plant installations.
	KindPlant Kind = "plant"
	// KindIndirectCost represents lump-sum indirect costs.
	KindIndirectCost Kind = "indirect"
)

// Kinds lists every line item kind in task display order.
var Kinds = []Kind{KindMaterial, KindLabor, KindEquipment, KindPlant, KindIndirectCost}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMaterial, KindLabor, KindEquipment, KindPlant, KindIndirectCost:
		return true
	}
	return false
}

// LineItem is a single priced resource entry owned by a task.
// Name carries the material name, trade, or description depending on kind.
type LineItem struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Currency  string  `json:"currency"`
	Formula   string  `json:"formula,omitempty"`
	Kind      Kind    `json:"kind"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Recalculate rederives Total from Quantity and UnitPrice. Totals are never
// mutated independently; every edit path must call this. Indirect costs carry
// their amount in both Quantity and UnitPrice fields with Quantity fixed at 1.
func (li *LineItem) Recalculate() {
	if li.Kind == KindIndirectCost {
		li.Quantity = 1
		li.Total = li.UnitPrice
		return
	}
	li.Total = li.Quantity * li.UnitPrice
}

// Validate ensures the line item has usable data.
func (li *LineItem) Validate() error {
	if !li.Kind.Valid() {
		return fmt.Errorf("unknown line item kind %q", li.Kind)
	}
	if li.Name == "" {
		return fmt.Errorf("line item name is required")
	}
	if li.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %v", li.Quantity)
	}
	return nil
}
