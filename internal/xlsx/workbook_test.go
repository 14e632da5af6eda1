package xlsx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func open(t *testing.T, w *Workbook) *excelize.File {
	t.Helper()
	b, err := w.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Звіт 01.03 - 07.03", "Звіт 01.03 - 07.03"},
		{"a/b\\c?d*e[f]g:h", "a-b-cde(f)g.h"},
		{"Звіт 01.03 - 07.03 (08.03 14:05)", "Звіт 01.03 - 07.03 (08.03 14.05"},
		{"   ", "Report"},
		{"'quoted'", "quoted"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := SheetName(tt.title)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), maxSheetName)
		})
	}
}

func TestWorkbookWritesValuesAndFormulas(t *testing.T) {
	ctx := context.Background()
	w := New()
	defer w.Close()

	id, err := w.CreateSheet(ctx, "Report")
	require.NoError(t, err)

	rows := [][]any{
		{"order_id", "email", "market_name", "weight", "Apples"},
		{"o-1", "a@example.com", "=evil()", report.Formula("=E2"), 3.0},
		{report.TotalLabel, "", "", report.Formula("=SUM(D2:D2)"), report.Formula("=SUM(E2:E2)")},
	}
	require.NoError(t, w.ReplaceContent(ctx, "Report", rows))
	require.NoError(t, w.FormatCells(ctx, id, nil))

	f := open(t, w)
	assert.Equal(t, []string{"Report"}, f.GetSheetList())

	assert.Equal(t, "order_id", raw(t, f, "Report", "A1"))
	assert.Equal(t, "'=evil()", raw(t, f, "Report", "C2"))
	assert.Equal(t, "3", raw(t, f, "Report", "E2"))
	assert.Equal(t, "TOTAL", raw(t, f, "Report", "A3"))

	formula, err := f.GetCellFormula("Report", "D3")
	require.NoError(t, err)
	assert.Equal(t, "SUM(D2:D2)", strings.TrimPrefix(formula, "="))
}

func TestReplaceContentClearsOldRows(t *testing.T) {
	ctx := context.Background()
	w := New()
	defer w.Close()

	_, err := w.CreateSheet(ctx, "Report")
	require.NoError(t, err)
	require.NoError(t, w.ReplaceContent(ctx, "Report", [][]any{{"a"}, {"b"}, {"c"}}))
	require.NoError(t, w.ReplaceContent(ctx, "Report", [][]any{{"x"}}))

	f := open(t, w)
	got, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x"}}, got)
}

func TestFormatCellsMergesInstructions(t *testing.T) {
	ctx := context.Background()
	w := New()
	defer w.Close()

	id, err := w.CreateSheet(ctx, "Report")
	require.NoError(t, err)
	require.NoError(t, w.ReplaceContent(ctx, "Report", [][]any{
		{"h1", "h2"},
		{"r1", 1.0},
		{"r2", 2.0},
	}))

	zebra := report.Zebra
	formats := []report.Format{
		{Range: report.Range{StartRow: 1, EndRow: 3, StartCol: 1, EndCol: 2}, NumberPattern: report.PatternKg},
		{Range: report.Range{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: 2}, Bold: true},
		{Range: report.Range{StartRow: 1, EndRow: 3, StartCol: 1, EndCol: 2}, Bold: true, FontSize: 12},
		{Range: report.Range{StartRow: 2, EndRow: 3, StartCol: 0, EndCol: 2}, Background: &zebra},
	}
	require.NoError(t, w.FormatCells(ctx, id, formats))

	f := open(t, w)

	header, err := f.GetCellStyle("Report", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(header)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	weight, err := f.GetCellStyle("Report", "B3")
	require.NoError(t, err)
	style, err = f.GetStyle(weight)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, 12.0, style.Font.Size)
	require.NotNil(t, style.CustomNumFmt)
	assert.Equal(t, report.PatternKg, *style.CustomNumFmt)
	require.NotEmpty(t, style.Fill.Color)
	assert.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), "F5F5F5"), style.Fill.Color[0])

	plain, err := f.GetCellStyle("Report", "A2")
	require.NoError(t, err)
	assert.Zero(t, plain)
}

func TestDeleteSheet(t *testing.T) {
	ctx := context.Background()
	w := New()
	defer w.Close()

	first, err := w.CreateSheet(ctx, "first")
	require.NoError(t, err)
	second, err := w.CreateSheet(ctx, "second")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{"first", "second"}, w.Sheets())

	require.NoError(t, w.DeleteSheet(ctx, second))
	assert.Equal(t, []string{"first"}, w.Sheets())

	require.NoError(t, w.DeleteSheet(ctx, first))
	assert.Empty(t, w.Sheets())

	assert.ErrorIs(t, w.DeleteSheet(ctx, first), ErrUnknownSheet)

	// the workbook is usable again after the rollback of its only sheet
	_, err = w.CreateSheet(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, []string{"again"}, w.Sheets())
}

func TestCreateSheetRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	w := New()
	defer w.Close()

	_, err := w.CreateSheet(ctx, "Report")
	require.NoError(t, err)
	_, err = w.CreateSheet(ctx, "Report")
	assert.ErrorIs(t, err, ErrDuplicateSheet)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New()
	defer w.Close()
	_, err := w.CreateSheet(ctx, "Report")
	assert.ErrorIs(t, err, context.Canceled)
}

type stubOrders []*data.Order

func (s stubOrders) GetForReport(context.Context, data.DateRange, string) ([]*data.Order, error) {
	return s, nil
}

type stubProducts []*data.Product

func (s stubProducts) All(context.Context) ([]*data.Product, error) {
	return s, nil
}

func TestExporterWritesWorkbook(t *testing.T) {
	rng := data.NewDateRange(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
	)
	products := stubProducts{
		{ID: "1", Name: "Apples", Unit: data.UnitKg, NetWeight: 2, AggregationType: data.AggregationWeight},
		{ID: "2", Name: "Boxes", Unit: data.UnitPcs, UnitPerCardboard: 10, AggregationType: data.AggregationCardboard},
	}
	orders := stubOrders{{
		CustomerName:  "Shop",
		CustomerEmail: "shop@example.com",
		Status:        data.StatusCompleted,
		OrderDate:     time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
		TotalPrice:    decimal.NewFromInt(10),
		Items: []data.OrderItem{
			{ProductID: "1", Name: "Apples", Quantity: 3},
			{ProductID: "2", Name: "Boxes", Quantity: 2},
		},
	}}

	e := &report.Exporter{
		Orders:   orders,
		Products: products,
		Now:      func() time.Time { return time.Date(2025, 3, 8, 13, 5, 0, 0, time.UTC) },
	}

	w := New()
	defer w.Close()

	result, err := e.Export(context.Background(), w, rng)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Empty(t, result.URL)

	f := open(t, w)
	sheet := SheetName(result.SheetName)
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	header, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, header, 3)
	assert.Equal(t, []string{"order_id", "email", "market_name", "weight", "Apples", "Boxes"}, header[0][:6])

	assert.Equal(t, "6", raw(t, f, sheet, "E2"))
	assert.Equal(t, "2", raw(t, f, sheet, "F2"))

	formula, err := f.GetCellFormula(sheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "E2+(F2*10)", strings.TrimPrefix(formula, "="))
}
