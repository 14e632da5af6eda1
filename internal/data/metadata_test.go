package data

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductMetadataUpsertKeepsUnsetFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updated := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	position := 7

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("p1", nil, nil, 7).
		WillReturnRows(sqlmock.NewRows([]string{"image", "aggregation_type", "position", "updated_at"}).
			AddRow("stored.png", nil, 7, updated))

	md := &ProductMetadata{ID: "p1", Position: &position}
	require.NoError(t, ProductMetadataModel{DB: db}.Upsert(context.Background(), md))

	require.NotNil(t, md.Image)
	assert.Equal(t, "stored.png", *md.Image)
	assert.Nil(t, md.AggregationType)
	assert.Equal(t, 7, *md.Position)
	assert.Equal(t, updated, md.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductMetadataAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_metadata")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "aggregation_type", "position", "updated_at"}).
			AddRow("p1", "a.png", "weight", 3, now).
			AddRow("p2", nil, nil, nil, now))

	all, err := ProductMetadataModel{DB: db}.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "weight", *all["p1"].AggregationType)
	assert.Nil(t, all["p2"].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductMetadataApply(t *testing.T) {
	image, empty, cardboard, position := "new.png", "", AggregationCardboard, 4

	p := &Product{Image: "old.png", AggregationType: AggregationWeight}
	(&ProductMetadata{Image: &image, AggregationType: &cardboard, Position: &position}).Apply(p)
	assert.Equal(t, "new.png", p.Image)
	assert.Equal(t, AggregationCardboard, p.AggregationType)
	assert.Equal(t, 4, p.Position)

	p = &Product{Image: "old.png"}
	(&ProductMetadata{Image: &empty}).Apply(p)
	assert.Equal(t, "old.png", p.Image)

	var none *ProductMetadata
	none.Apply(p)
	assert.Equal(t, "old.png", p.Image)
}

func TestValidateProductMetadata(t *testing.T) {
	v := validator.New()
	ValidateProductMetadata(v, &ProductMetadata{ID: "p1"})
	assert.Contains(t, v.Errors, "metadata")

	bad := "by-volume"
	v = validator.New()
	ValidateProductMetadata(v, &ProductMetadata{ID: "p1", AggregationType: &bad})
	assert.Equal(t, "must be weight or cardboard", v.Errors["aggregation_type"])
}
