package model

// Task groups line items for one unit of work, partitioned by kind.
// A task owns its line items; they are copied in, never shared.
type Task struct {
	Description   string     `json:"description"`
	Materials     []LineItem `json:"materials,omitempty"`
	Labor         []LineItem `json:"labor,omitempty"`
	Equipment     []LineItem `json:"equipment,omitempty"`
	Plant         []LineItem `json:"plant,omitempty"`
	IndirectCosts []LineItem `json:"indirect_costs,omitempty"`
}

// NewTask creates an empty task with the given description.
func NewTask(description string) *Task {
	return &Task{Description: description}
}

// ItemsOf returns the line item slice for the given kind.
func (t *Task) ItemsOf(kind Kind) []LineItem {
	switch kind {
	case KindMaterial:
		return t.Materials
	case KindLabor:
		return t.Labor
	case KindEquipment:
		return t.Equipment
	case KindPlant:
		return t.Plant
	case KindIndirectCost:
		return t.IndirectCosts
	}
	return nil
}

// AddItem appends a line item to the partition matching its kind and
// recalculates its total.
func (t *Task) AddItem(li LineItem) {
	li.Recalculate()
	switch li.Kind {
	case KindMaterial:
		t.Materials = append(t.Materials, li)
	case KindLabor:
		t.Labor = append(t.Labor, li)
	case KindEquipment:
		t.Equipment = append(t.Equipment, li)
	case KindPlant:
		t.Plant = append(t.Plant, li)
	case KindIndirectCost:
		t.IndirectCosts = append(t.IndirectCosts, li)
	}
}

// EachItem calls fn for every line item across all partitions, in kind order.
// fn receives a pointer so callers can edit items in place.
func (t *Task) EachItem(fn func(li *LineItem)) {
	for _, items := range [][]LineItem{t.Materials, t.Labor, t.Equipment, t.Plant, t.IndirectCosts} {
		for i := range items {
			fn(&items[i])
		}
	}
}

// ItemCount returns the number of line items across all partitions.
func (t *Task) ItemCount() int {
	return len(t.Materials) + len(t.Labor) + len(t.Equipment) + len(t.Plant) + len(t.IndirectCosts)
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := &Task{Description: t.Description}
	c.Materials = append([]LineItem(nil), t.Materials...)
	c.Labor = append([]LineItem(nil), t.Labor...)
	c.Equipment = append([]LineItem(nil), t.Equipment...)
	c.Plant = append([]LineItem(nil), t.Plant...)
	c.IndirectCosts = append([]LineItem(nil), t.IndirectCosts...)
	return c
}
