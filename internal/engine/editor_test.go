package engine

import (
	"testing"

	"github.com/buildrate/ratebook/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestApplyFormula_LineItem(t *testing.T) {
	li := &model.LineItem{Kind: model.KindMaterial, Name: "Cement", UnitPrice: 8}

	res := ApplyFormula(LineItemEditor{Item: li}, `=5 x 4 "bags per pallet"`)

	assert.InDelta(t, 20.0, res.Total, 1e-9)
	assert.InDelta(t, 20.0, li.Quantity, 1e-9)
	assert.Equal(t, `=5 x 4 "bags per pallet"`, li.Formula)
	// Totals are rederived, never left stale.
	assert.InDelta(t, 160.0, li.Total, 1e-9)
}

func TestApplyFormula_LiteralClearsFormula(t *testing.T) {
	li := &model.LineItem{Kind: model.KindMaterial, Name: "Cement", UnitPrice: 2, Formula: "=1+1"}

	ApplyFormula(LineItemEditor{Item: li}, "7")

	assert.InDelta(t, 7.0, li.Quantity, 1e-9)
	assert.Empty(t, li.Formula)
	assert.InDelta(t, 14.0, li.Total, 1e-9)
}

func TestApplyFormula_SubRate(t *testing.T) {
	sub := &model.SubRate{Quantity: 1}

	res := ApplyFormula(SubRateEditor{Sub: sub}, "=2.5 x 2")

	assert.InDelta(t, 5.0, res.Total, 1e-9)
	assert.InDelta(t, 5.0, sub.Quantity, 1e-9)
	assert.Equal(t, "=2.5 x 2", sub.Formula)
}

func TestHistory_UndoRedo(t *testing.T) {
	e := estimateWithSubtotal(100)
	h := NewHistory(10)

	h.Push(e)
	e.Tasks[0].Materials[0].Quantity = 200
	e.Tasks[0].Materials[0].Recalculate()

	restored := h.Undo(e)
	assert.NotNil(t, restored)
	assert.InDelta(t, 100.0, restored.Tasks[0].Materials[0].Quantity, 1e-9)

	redone := h.Redo(restored)
	assert.NotNil(t, redone)
	assert.InDelta(t, 200.0, redone.Tasks[0].Materials[0].Quantity, 1e-9)

	assert.Nil(t, h.Redo(redone))
}

func TestHistory_BoundedAndClearedRedo(t *testing.T) {
	e := estimateWithSubtotal(1)
	h := NewHistory(2)

	h.Push(e)
	h.Push(e)
	h.Push(e)
	assert.Equal(t, 2, h.Len())

	restored := h.Undo(e)
	assert.NotNil(t, restored)
	h.Push(e) // new mutation invalidates the redo branch
	assert.Nil(t, h.Redo(e))
}
