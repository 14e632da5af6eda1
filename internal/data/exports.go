// File: internal/data/exports.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kubryk/vegetables-shop/internal/validator"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Export targets.
const (
	TargetSheets = "sheets"
	TargetXLSX   = "xlsx"
)

// Export statuses.
const (
	ExportPending   = "pending"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// ExportHistory represents an export record in the system.
type ExportHistory struct {
	ID            int64     `json:"id"`
	Operator      string    `json:"operator"`
	Target        string    `json:"target"`
	SpreadsheetID string    `json:"spreadsheet_id,omitempty"`
	SheetName     string    `json:"sheet_name,omitempty"`
	RowCount      int64     `json:"row_count"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExportHistoryModel wraps a sql.DB connection pool.
type ExportHistoryModel struct {
	DB *sql.DB
}

// ExportFilter represents filtering criteria for querying export history.
type ExportFilter struct {
	Filter Filter `json:"filter"`
	Target string `json:"target"`
	Status string `json:"status"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// ValidateExportHistory checks the fields of an ExportHistory struct to ensure they meet the required criteria.
func ValidateExportHistory(v *validator.Validator, export *ExportHistory) {
	v.Check(export.Operator != "", "operator", "must be provided")
	v.Check(validator.PermittedValue(export.Target, TargetSheets, TargetXLSX), "target", "must be sheets or xlsx")
	v.Check(validator.PermittedValue(export.Status, ExportPending, ExportCompleted, ExportFailed), "status", "must be pending, completed, or failed")
	v.Check(!export.EndDate.Before(export.StartDate), "end_date", "must not be before start_date")
	v.Check(export.RowCount >= 0, "row_count", "must be a non-negative number")
}

// Insert adds a new export history record to the database.
func (m ExportHistoryModel) Insert(ctx context.Context, export *ExportHistory) error {
	query := `
		INSERT INTO export_history (operator, target, spreadsheet_id, sheet_name, row_count,
			start_date, end_date, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	if err := m.DB.QueryRowContext(
		ctx,
		query,
		export.Operator,
		export.Target,
		export.SpreadsheetID,
		export.SheetName,
		export.RowCount,
		export.StartDate,
		export.EndDate,
		export.Status,
		export.ErrorMessage,
	).Scan(&export.ID, &export.CreatedAt); err != nil {
		return err
	}
	return nil
}

// Update records the outcome of an export.
func (m ExportHistoryModel) Update(ctx context.Context, export *ExportHistory) error {
	query := `
		UPDATE export_history
		SET status = $1, error_message = $2, row_count = $3, sheet_name = $4
		WHERE id = $5
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(
		ctx,
		query,
		export.Status,
		export.ErrorMessage,
		export.RowCount,
		export.SheetName,
		export.ID,
	)
	if err != nil {
		return err
	}
	if rowsAffected, err := result.RowsAffected(); err != nil {
		return err
	} else if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get retrieves an export history record by its ID.
func (m ExportHistoryModel) Get(ctx context.Context, id int64) (*ExportHistory, error) {
	query := exportSelect + `
		WHERE id = $1
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	export, err := scanExport(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return export, nil
}

// GetAll retrieves export history records based on filtering criteria and pagination.
func (m ExportHistoryModel) GetAll(ctx context.Context, filter ExportFilter) ([]*ExportHistory, MetaData, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, operator, target, spreadsheet_id, sheet_name, row_count,
			start_date, end_date, status, error_message, created_at
		FROM export_history
		WHERE (target = $1 OR $1 = '')
		  AND (status = $2 OR $2 = '')
		ORDER BY %s %s, id DESC
		LIMIT $3 OFFSET $4
	`, filter.Filter.SortColumn(), filter.Filter.SortDirection())

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(
		ctx,
		query,
		filter.Target,
		filter.Status,
		filter.Filter.Limit(),
		filter.Filter.Offset(),
	)
	if err != nil {
		return nil, MetaData{}, err
	}
	defer rows.Close()

	exports := []*ExportHistory{}
	totalRecords := int64(0)

	for rows.Next() {
		export := &ExportHistory{}
		if err := rows.Scan(
			&totalRecords,
			&export.ID,
			&export.Operator,
			&export.Target,
			&export.SpreadsheetID,
			&export.SheetName,
			&export.RowCount,
			&export.StartDate,
			&export.EndDate,
			&export.Status,
			&export.ErrorMessage,
			&export.CreatedAt,
		); err != nil {
			return nil, MetaData{}, err
		}
		exports = append(exports, export)
	}

	if err := rows.Err(); err != nil {
		return nil, MetaData{}, err
	}

	metadata := CalculateMetaData(totalRecords, filter.Filter.Page, filter.Filter.PageSize)

	return exports, metadata, nil
}

const exportSelect = `
		SELECT id, operator, target, spreadsheet_id, sheet_name, row_count,
			start_date, end_date, status, error_message, created_at
		FROM export_history`

func scanExport(row rowScanner) (*ExportHistory, error) {
	export := &ExportHistory{}
	err := row.Scan(
		&export.ID,
		&export.Operator,
		&export.Target,
		&export.SpreadsheetID,
		&export.SheetName,
		&export.RowCount,
		&export.StartDate,
		&export.EndDate,
		&export.Status,
		&export.ErrorMessage,
		&export.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return export, nil
}
