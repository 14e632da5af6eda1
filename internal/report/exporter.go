package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kubryk/vegetables-shop/internal/data"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// OrderSource loads the orders placed in a range. An empty status matches all.
type OrderSource interface {
	GetForReport(ctx context.Context, rng data.DateRange, status string) ([]*data.Order, error)
}

// ProductSource loads the full product catalog.
type ProductSource interface {
	All(ctx context.Context) ([]*data.Product, error)
}

// Writer persists a report into a spreadsheet tab.
type Writer interface {
	CreateSheet(ctx context.Context, title string) (int64, error)
	ReplaceContent(ctx context.Context, title string, rows [][]any) error
	FormatCells(ctx context.Context, sheetID int64, formats []Format) error
	DeleteSheet(ctx context.Context, sheetID int64) error
}

// Linker is implemented by writers whose sheets can be opened by URL.
type Linker interface {
	SheetURL(sheetID int64) string
}

// DefaultTimeout bounds the spreadsheet writes of a single export.
const DefaultTimeout = 30 * time.Second

// Exporter turns orders into reports and writes them out.
type Exporter struct {
	Orders   OrderSource
	Products ProductSource
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Result describes a written report.
type Result struct {
	SheetName string `json:"sheet_name"`
	SheetID   int64  `json:"sheet_id"`
	URL       string `json:"sheet_url,omitempty"`
	Rows      int    `json:"row_count"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// Aggregate builds the pivot of every order in the range, whatever its status.
func (e *Exporter) Aggregate(ctx context.Context, rng data.DateRange) (*Pivot, error) {
	orders, err := e.Orders.GetForReport(ctx, rng, "")
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	products, err := e.Products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return BuildPivot(FilterOrders(orders, rng, ""), products), nil
}

// Build loads completed orders in the range and lays them out as a report.
func (e *Exporter) Build(ctx context.Context, rng data.DateRange) (*Report, error) {
	orders, err := e.Orders.GetForReport(ctx, rng, data.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	orders = FilterOrders(orders, rng, data.StatusCompleted)
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	products, err := e.Products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	return BuildReport(BuildPivot(orders, products), rng, e.now())
}

// Export builds the report for the range and writes it to a new sheet. When
// filling or formatting fails the new sheet is deleted again.
func (e *Exporter) Export(ctx context.Context, w Writer, rng data.DateRange) (*Result, error) {
	if w == nil {
		return nil, ErrNotConfigured
	}

	rep, err := e.Build(ctx, rng)
	if err != nil {
		return nil, err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sheetID, err := w.CreateSheet(ctx, rep.Title)
	if err != nil {
		return nil, fmt.Errorf("create sheet %q: %w", rep.Title, err)
	}

	if err := e.fill(ctx, w, sheetID, rep); err != nil {
		e.rollback(w, sheetID, rep.Title)
		return nil, err
	}

	result := &Result{SheetName: rep.Title, SheetID: sheetID, Rows: rep.DataRows}
	if l, ok := w.(Linker); ok {
		result.URL = l.SheetURL(sheetID)
	}

	e.logger().Info("report exported",
		slog.String("sheet", rep.Title),
		slog.Int("orders", rep.DataRows),
		slog.Int("columns", rep.Width()))
	return result, nil
}

func (e *Exporter) fill(ctx context.Context, w Writer, sheetID int64, rep *Report) error {
	if err := w.ReplaceContent(ctx, rep.Title, rep.Rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := w.FormatCells(ctx, sheetID, rep.Formats); err != nil {
		return fmt.Errorf("format report: %w", err)
	}
	return nil
}

// rollback runs on its own deadline since the export context may be the
// reason the write failed.
func (e *Exporter) rollback(w Writer, sheetID int64, title string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.DeleteSheet(ctx, sheetID); err != nil {
		e.logger().Error("delete partial sheet",
			slog.String("sheet", title),
			slog.Int64("sheet_id", sheetID),
			slog.String("error", err.Error()))
		return
	}
	e.logger().Warn("partial sheet removed", slog.String("sheet", title))
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// FilterOrders keeps orders placed inside the range with the given status.
// An empty status keeps every status.
func FilterOrders(orders []*data.Order, rng data.DateRange, status string) []*data.Order {
	kept := make([]*data.Order, 0, len(orders))
	for _, o := range orders {
		if o == nil || !rng.Contains(o.OrderDate) {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// IsUserError reports whether err is something an operator can fix by
// choosing another range rather than a failure of the system.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoOrders)
}
