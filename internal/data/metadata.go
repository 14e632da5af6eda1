// File: internal/data/metadata.go
package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/kubryk/vegetables-shop/internal/validator"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// ProductMetadata is the operator-owned overlay kept for every product,
// including products that live in the external catalog.
type ProductMetadata struct {
	ID              string    `json:"id"`
	Image           *string   `json:"image,omitempty"`
	AggregationType *string   `json:"aggregation_type,omitempty"`
	Position        *int      `json:"position,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProductMetadataModel wraps a sql.DB connection pool.
type ProductMetadataModel struct {
	DB *sql.DB
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// ValidateProductMetadata checks an update request. At least one field must be set.
func ValidateProductMetadata(v *validator.Validator, md *ProductMetadata) {
	v.Check(md.ID != "", "id", "must be provided")
	v.Check(md.Image != nil || md.AggregationType != nil || md.Position != nil, "metadata", "must change at least one field")
	if md.Image != nil {
		v.Check(len(*md.Image) <= 2048, "image", "must not be more than 2048 bytes long")
	}
	if md.AggregationType != nil {
		ValidateAggregationType(v, *md.AggregationType)
	}
	if md.Position != nil {
		v.Check(*md.Position >= 0, "position", "must be a non-negative number")
	}
}

// Upsert writes the given fields. Fields left nil keep their stored value.
func (m ProductMetadataModel) Upsert(ctx context.Context, md *ProductMetadata) error {
	query := `
		INSERT INTO product_metadata (id, image, aggregation_type, position, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET image = COALESCE(EXCLUDED.image, product_metadata.image),
			aggregation_type = COALESCE(EXCLUDED.aggregation_type, product_metadata.aggregation_type),
			position = COALESCE(EXCLUDED.position, product_metadata.position),
			updated_at = NOW()
		RETURNING image, aggregation_type, position, updated_at
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	var (
		image, aggregation sql.NullString
		position           sql.NullInt64
	)
	err := m.DB.QueryRowContext(ctx, query, md.ID, md.Image, md.AggregationType, md.Position).
		Scan(&image, &aggregation, &position, &md.UpdatedAt)
	if err != nil {
		return err
	}

	md.Image = nullString(image)
	md.AggregationType = nullString(aggregation)
	md.Position = nullInt(position)
	return nil
}

// All returns every metadata row keyed by product id.
func (m ProductMetadataModel) All(ctx context.Context) (map[string]*ProductMetadata, error) {
	query := `
		SELECT id, image, aggregation_type, position, updated_at
		FROM product_metadata
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*ProductMetadata)
	for rows.Next() {
		var (
			md                 ProductMetadata
			image, aggregation sql.NullString
			position           sql.NullInt64
		)
		if err := rows.Scan(&md.ID, &image, &aggregation, &position, &md.UpdatedAt); err != nil {
			return nil, err
		}
		md.Image = nullString(image)
		md.AggregationType = nullString(aggregation)
		md.Position = nullInt(position)
		result[md.ID] = &md
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Apply overlays the metadata on a product. Empty strings do not override.
func (md *ProductMetadata) Apply(p *Product) {
	if md == nil {
		return
	}
	if md.Image != nil && *md.Image != "" {
		p.Image = *md.Image
	}
	if md.AggregationType != nil && *md.AggregationType != "" {
		p.AggregationType = *md.AggregationType
	}
	if md.Position != nil {
		p.Position = *md.Position
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
