// File: internal/data/models.go
package data

import "database/sql"

// Models wraps all data models for use with db
type Models struct {
	Products        ProductModel
	ProductMetadata ProductMetadataModel
	Orders          OrderModel
	ExportHistory   ExportHistoryModel
}

// NewModels initializes the Models struct with a given database connection
func NewModels(db *sql.DB) Models {
	return Models{
		Products:        ProductModel{DB: db},
		ProductMetadata: ProductMetadataModel{DB: db},
		Orders:          OrderModel{DB: db},
		ExportHistory:   ExportHistoryModel{DB: db},
	}
}
