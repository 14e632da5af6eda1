package report

import "encoding/json"

// Kind tells what a pivot cell's value measures.
type Kind int

const (
	// Mass cells hold accumulated kilograms.
	Mass Kind = iota
	// PackCount cells hold a number of packs; PackWeight converts them to mass.
	PackCount
)

func (k Kind) String() string {
	if k == PackCount {
		return "packs"
	}
	return "mass"
}

// MarshalJSON renders the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Cell is one accumulated (row, product) value of the pivot.
type Cell struct {
	Kind       Kind    `json:"kind"`
	Value      float64 `json:"value"`
	PackWeight float64 `json:"pack_weight,omitempty"`
}

// Mass returns the cell's value in kilograms.
func (c Cell) Mass() float64 {
	if c.Kind == PackCount {
		return c.Value * c.PackWeight
	}
	return c.Value
}
