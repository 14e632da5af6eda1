package report

// Number patterns used in reports.
const (
	PatternKg    = `0 "kg"`
	PatternPacks = "0"
)

// Zebra is the background of every second data row.
var Zebra = Color{Red: 0.96, Green: 0.96, Blue: 0.96}

// Color is an RGB color with channels in [0, 1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// Range addresses cells by 0-based row and column. End bounds are exclusive.
type Range struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// Contains reports whether the 0-based cell lies inside the range.
func (r Range) Contains(row, col int) bool {
	return row >= r.StartRow && row < r.EndRow && col >= r.StartCol && col < r.EndCol
}

// Format is one formatting instruction. Zero fields leave the cells untouched.
type Format struct {
	Range         Range  `json:"range"`
	NumberPattern string `json:"number_pattern,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	FontSize      int    `json:"font_size,omitempty"`
	Background    *Color `json:"background,omitempty"`
}
