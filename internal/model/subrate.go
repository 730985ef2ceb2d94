package model

// SubRate embeds another rate inside a composite estimate. The referenced
// estimate is deep-copied at import time; edits to the library original never
// reach the embedded copy until an explicit re-sync.
type SubRate struct {
	Estimate      Estimate `json:"estimate"`
	ConvertedUnit string   `json:"converted_unit"`
	Formula       string   `json:"formula,omitempty"`
	SourceID      int64    `json:"source_id,omitempty"`
	SourceCode    string   `json:"source_code,omitempty"`
	Quantity      float64  `json:"quantity"`
}

// NewSubRate imports source as a sub-rate, deep-copying it and defaulting the
// quantity multiplier to 1 and the converted unit to the source's own unit.
// The source id and rate code are retained as a weak link for re-sync only.
func NewSubRate(source *Estimate) SubRate {
	sr := SubRate{
		Estimate: *source.Clone(),
		Quantity: 1,
	}
	if source.ID != nil {
		sr.SourceID = *source.ID
	}
	if source.Rate != nil {
		sr.SourceCode = source.Rate.Code
		sr.ConvertedUnit = source.Rate.Unit
	}
	return sr
}

// Unit returns the sub-rate's native unit, if it has rate metadata.
func (sr *SubRate) Unit() string {
	if sr.Estimate.Rate != nil {
		return sr.Estimate.Rate.Unit
	}
	return ""
}

// Clone returns a deep copy of the sub-rate.
func (sr *SubRate) Clone() SubRate {
	c := *sr
	c.Estimate = *sr.Estimate.Clone()
	return c
}
