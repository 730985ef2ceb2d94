package engine

import (
	"github.com/buildrate/ratebook/internal/formula"
	"github.com/buildrate/ratebook/internal/model"
)

// Editor exposes the quantity and formula of whichever entity a generic entry
// field is editing, so one evaluation path serves both line items and
// sub-rates without structural duck-typing.
type Editor interface {
	Quantity() float64
	SetQuantity(q float64)
	Formula() string
	SetFormula(f string)
}

// LineItemEditor adapts a line item to the Editor interface. Setting the
// quantity recalculates the item's total.
type LineItemEditor struct {
	Item *model.LineItem
}

// Quantity returns the line item's quantity.
func (ed LineItemEditor) Quantity() float64 { return ed.Item.Quantity }

// SetQuantity updates the quantity and rederives the total.
func (ed LineItemEditor) SetQuantity(q float64) {
	ed.Item.Quantity = q
	ed.Item.Recalculate()
}

// Formula returns the persisted formula text.
func (ed LineItemEditor) Formula() string { return ed.Item.Formula }

// SetFormula updates the persisted formula text.
func (ed LineItemEditor) SetFormula(f string) { ed.Item.Formula = f }

// SubRateEditor adapts a sub-rate's quantity multiplier to the Editor
// interface.
type SubRateEditor struct {
	Sub *model.SubRate
}

// Quantity returns the sub-rate's quantity multiplier.
func (ed SubRateEditor) Quantity() float64 { return ed.Sub.Quantity }

// SetQuantity updates the quantity multiplier.
func (ed SubRateEditor) SetQuantity(q float64) { ed.Sub.Quantity = q }

// Formula returns the persisted formula text.
func (ed SubRateEditor) Formula() string { return ed.Sub.Formula }

// SetFormula updates the persisted formula text.
func (ed SubRateEditor) SetFormula(f string) { ed.Sub.Formula = f }

// ApplyFormula evaluates raw field text and writes the resulting quantity and
// formula through the editor. The evaluation result is returned for live
// preview of per-line values.
func ApplyFormula(ed Editor, raw string) formula.Result {
	res := formula.Evaluate(raw)
	ed.SetQuantity(res.Total)
	ed.SetFormula(res.Formula)
	return res
}
