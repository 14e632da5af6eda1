package report

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kubryk/vegetables-shop/internal/data"
)

var (
	// ErrNoOrders is returned when a range has nothing to report.
	ErrNoOrders = errors.New("no orders found for this period")
	// ErrNotConfigured is returned when no spreadsheet target is set up.
	ErrNotConfigured = errors.New("spreadsheet export is not configured")
)

// Fixed leading columns of the report.
const (
	ColOrderID = iota
	ColEmail
	ColMarket
	ColWeight
	FirstProductCol
)

// FirstDataRow is the 1-based sheet row of the first order.
const FirstDataRow = 2

// LeadingHeader names the fixed columns.
var LeadingHeader = []string{"order_id", "email", "market_name", "weight"}

// TotalLabel opens the totals row.
const TotalLabel = "TOTAL"

// Formula is a cell holding a spreadsheet formula, "=" included.
type Formula string

// Report is a grid ready for a spreadsheet: a header row, one row per order
// and a totals row. Cells are string, float64 or Formula.
type Report struct {
	Title    string   `json:"title"`
	Header   []string `json:"header"`
	Rows     [][]any  `json:"rows"`
	Formats  []Format `json:"formats"`
	DataRows int      `json:"data_rows"`
}

// Width is the number of columns.
func (r *Report) Width() int {
	return len(r.Header)
}

// BuildReport lays the pivot out as a report grid. It refuses to build an
// empty report.
func BuildReport(p *Pivot, rng data.DateRange, now time.Time) (*Report, error) {
	if len(p.Rows) == 0 {
		return nil, ErrNoOrders
	}

	header := make([]string, 0, FirstProductCol+len(p.Keys))
	header = append(header, LeadingHeader...)
	header = append(header, p.Keys...)

	multipliers := make([]float64, len(p.Keys))
	for i, key := range p.Keys {
		multipliers[i] = Multiplier(p.Product(key))
	}

	n := len(p.Rows)
	rows := make([][]any, 0, n+2)

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	rows = append(rows, head)

	for i, r := range p.Rows {
		sheetRow := FirstDataRow + i
		row := make([]any, 0, len(header))
		row = append(row,
			r.Order.ID.String(),
			r.Order.CustomerEmail,
			r.Order.CustomerName,
			RowWeightFormula(sheetRow, multipliers),
		)
		for _, key := range p.Keys {
			row = append(row, r.Cells[key].Value)
		}
		rows = append(rows, row)
	}

	lastDataRow := FirstDataRow + n - 1
	footer := make([]any, 0, len(header))
	footer = append(footer, TotalLabel, "", "")
	for col := ColWeight; col < len(header); col++ {
		footer = append(footer, SumFormula(col, FirstDataRow, lastDataRow))
	}
	rows = append(rows, footer)

	return &Report{
		Title:    Title(rng, now),
		Header:   header,
		Rows:     rows,
		Formats:  reportFormats(p, n, len(header)),
		DataRows: n,
	}, nil
}

// RowWeightFormula sums a row's product cells, each scaled by its column
// multiplier, e.g. "=E2+(F2*2)". Multipliers of 1 are left out.
func RowWeightFormula(sheetRow int, multipliers []float64) Formula {
	if len(multipliers) == 0 {
		return "=0"
	}
	terms := make([]string, len(multipliers))
	for i, m := range multipliers {
		ref := CellRef(FirstProductCol+i, sheetRow)
		if m == 1 {
			terms[i] = ref
			continue
		}
		terms[i] = "(" + ref + "*" + strconv.FormatFloat(m, 'f', -1, 64) + ")"
	}
	return Formula("=" + strings.Join(terms, "+"))
}

// SumFormula totals one column over the given 1-based rows.
func SumFormula(col, firstRow, lastRow int) Formula {
	return Formula("=SUM(" + ColumnRange(col, firstRow, lastRow) + ")")
}

// reportFormats lists the formatting instructions in the order they must
// be applied; later instructions win where they overlap.
func reportFormats(p *Pivot, dataRows, width int) []Format {
	total := dataRows + 2
	footer := dataRows + 1

	formats := make([]Format, 0, len(p.Keys)+4+dataRows/2)

	formats = append(formats, Format{
		Range:         Range{StartRow: 1, EndRow: total, StartCol: ColWeight, EndCol: ColWeight + 1},
		NumberPattern: PatternKg,
	})

	for i, key := range p.Keys {
		col := FirstProductCol + i
		pattern := PatternKg
		if kindOf(p.Product(key)) == PackCount {
			pattern = PatternPacks
		}
		formats = append(formats, Format{
			Range:         Range{StartRow: 1, EndRow: total, StartCol: col, EndCol: col + 1},
			NumberPattern: pattern,
		})
	}

	formats = append(formats,
		Format{Range: Range{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: width}, Bold: true},
		Format{Range: Range{StartRow: 1, EndRow: total, StartCol: ColWeight, EndCol: ColWeight + 1}, Bold: true, FontSize: 12},
	)

	for i := 1; i < dataRows; i += 2 {
		stripe := Zebra
		formats = append(formats, Format{
			Range:      Range{StartRow: 1 + i, EndRow: 2 + i, StartCol: 0, EndCol: width},
			Background: &stripe,
		})
	}

	formats = append(formats, Format{
		Range:    Range{StartRow: footer, EndRow: footer + 1, StartCol: 0, EndCol: width},
		Bold:     true,
		FontSize: 12,
	})
	return formats
}
