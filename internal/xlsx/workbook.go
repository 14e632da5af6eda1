// File: internal/xlsx/workbook.go
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// defaultSheet is the tab every new excelize file starts with.
const defaultSheet = "Sheet1"

var (
	ErrUnknownSheet   = errors.New("xlsx: unknown sheet")
	ErrDuplicateSheet = errors.New("xlsx: sheet already exists")
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Workbook is an in-memory spreadsheet that reports can be written to.
// Call Bytes to get the finished file.
type Workbook struct {
	mu     sync.Mutex
	file   *excelize.File
	names  map[int64]string  // sheet id -> sheet name
	titles map[string]string // requested title -> sheet name
	nextID int64
	fresh  bool // only the untouched default sheet exists
}

// styleKey is the merged formatting of a single cell.
type styleKey struct {
	pattern    string
	bold       bool
	size       int
	background string
}

func (k styleKey) isZero() bool {
	return k == styleKey{}
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{
		file:   excelize.NewFile(),
		names:  make(map[int64]string),
		titles: make(map[string]string),
		nextID: 1,
		fresh:  true,
	}
}

// CreateSheet adds a tab for the title. The first tab takes over the default
// sheet so the file does not carry an empty "Sheet1".
func (w *Workbook) CreateSheet(ctx context.Context, title string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name := SheetName(title)
	if _, ok := w.titles[title]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateSheet, name)
	}
	for _, existing := range w.names {
		if existing == name {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateSheet, name)
		}
	}

	if w.fresh {
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return 0, fmt.Errorf("set sheet name: %w", err)
		}
		w.fresh = false
	} else {
		index, err := w.file.NewSheet(name)
		if err != nil {
			return 0, fmt.Errorf("create sheet: %w", err)
		}
		w.file.SetActiveSheet(index)
	}

	id := w.nextID
	w.nextID++
	w.names[id] = name
	w.titles[title] = name
	return id, nil
}

// ReplaceContent clears the tab and writes rows from A1. Formulas are stored
// as formulas, text that would read as one is escaped.
func (w *Workbook) ReplaceContent(ctx context.Context, title string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name, ok := w.titles[title]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSheet, title)
	}

	existing, err := w.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	for r := len(existing); r >= 1; r-- {
		if err := w.file.RemoveRow(name, r); err != nil {
			return fmt.Errorf("clear row %d: %w", r, err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := w.setCell(name, cell, value); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet, cell string, value any) error {
	switch v := value.(type) {
	case report.Formula:
		return w.file.SetCellFormula(sheet, cell, strings.TrimPrefix(string(v), "="))
	case string:
		return w.file.SetCellValue(sheet, cell, sanitizeCell(v))
	default:
		return w.file.SetCellValue(sheet, cell, v)
	}
}

// FormatCells merges the instructions per cell, later ones winning on the
// properties they set, and applies one excelize style per distinct result.
func (w *Workbook) FormatCells(ctx context.Context, sheetID int64, formats []report.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name, ok := w.names[sheetID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownSheet, sheetID)
	}

	cells := mergeFormats(formats)
	styles := make(map[styleKey]int)
	for r, row := range cells {
		for c, key := range row {
			if key.isZero() {
				continue
			}
			style, ok := styles[key]
			if !ok {
				var err error
				style, err = w.file.NewStyle(newStyle(key))
				if err != nil {
					return fmt.Errorf("create style: %w", err)
				}
				styles[key] = style
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStyle(name, cell, cell, style); err != nil {
				return fmt.Errorf("style %s: %w", cell, err)
			}
		}
	}
	return nil
}

// DeleteSheet removes a tab. Removing the last tab leaves an empty workbook.
func (w *Workbook) DeleteSheet(ctx context.Context, sheetID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name, ok := w.names[sheetID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownSheet, sheetID)
	}

	delete(w.names, sheetID)
	for title, n := range w.titles {
		if n == name {
			delete(w.titles, title)
		}
	}

	if len(w.names) == 0 {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = excelize.NewFile()
		w.fresh = true
		return nil
	}
	return w.file.DeleteSheet(name)
}

// Sheets lists the tab names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fresh {
		return nil
	}
	return w.file.GetSheetList()
}

// Bytes serializes the workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the workbook's temporary files.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ----------------------------------------------------------------------
//
//	Helpers
//
// ----------------------------------------------------------------------

var sheetNameReplacer = strings.NewReplacer(
	":", ".",
	"\\", "-",
	"/", "-",
	"?", "",
	"*", "",
	"[", "(",
	"]", ")",
)

// SheetName turns a report title into a valid Excel sheet name.
func SheetName(title string) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(title))
	if runes := []rune(name); len(runes) > maxSheetName {
		name = strings.TrimSpace(string(runes[:maxSheetName]))
	}
	name = strings.Trim(name, "'")
	if name == "" {
		return "Report"
	}
	return name
}

// sanitizeCell stops user text from being read as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// mergeFormats resolves the instructions into a per-cell style grid indexed
// by 0-based row and column.
func mergeFormats(formats []report.Format) [][]styleKey {
	rows, cols := 0, 0
	for _, f := range formats {
		rows = max(rows, f.Range.EndRow)
		cols = max(cols, f.Range.EndCol)
	}

	grid := make([][]styleKey, rows)
	for r := range grid {
		grid[r] = make([]styleKey, cols)
	}

	for _, f := range formats {
		for r := max(f.Range.StartRow, 0); r < f.Range.EndRow; r++ {
			for c := max(f.Range.StartCol, 0); c < f.Range.EndCol; c++ {
				key := &grid[r][c]
				if f.NumberPattern != "" {
					key.pattern = f.NumberPattern
				}
				if f.Bold {
					key.bold = true
				}
				if f.FontSize > 0 {
					key.size = f.FontSize
				}
				if f.Background != nil {
					key.background = hexColor(*f.Background)
				}
			}
		}
	}
	return grid
}

func newStyle(key styleKey) *excelize.Style {
	style := &excelize.Style{}
	if key.bold || key.size > 0 {
		style.Font = &excelize.Font{Bold: key.bold, Size: float64(key.size)}
	}
	if key.background != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{key.background},
			Pattern: 1,
		}
	}
	if key.pattern != "" {
		pattern := key.pattern
		style.CustomNumFmt = &pattern
	}
	return style
}

// hexColor converts a [0, 1] RGB color into #RRGGBB.
func hexColor(c report.Color) string {
	channel := func(v float64) int {
		return int(math.Round(math.Min(math.Max(v, 0), 1) * 255))
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(c.Red), channel(c.Green), channel(c.Blue))
}
