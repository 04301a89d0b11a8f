package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/internal/models"
)

var itemRowColumns = []string{"id", "job_section_id", "name", "volume", "minimum_volume", "material_price_per_unit",
	"fee_price_per_unit", "total_material_price", "total_fee_price", "unit", "information", "created_at", "updated_at"}

func TestItemJobSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewItemJobSectionRepository(db)

	now := time.Now()
	cols := append(append([]string{}, itemRowColumns...), "document_id")
	mock.ExpectQuery(regexp.QuoteMeta("FROM item_job_sections i JOIN job_sections s ON s.id = i.job_section_id WHERE i.id = $1")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 3, "Galian", "2.0000", "1.0000", "10000.0000", "5000.0000", "20000.0000", "10000.0000", "m3", nil, now, now, 7))

	item, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.DocumentID)
	assert.Equal(t, int64(3), item.JobSectionID)
	assert.True(t, item.TotalMaterialPrice.Equal(decimal.NewFromInt(20000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemJobSectionRepositoryListByDocument(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewItemJobSectionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.document_id = $1 ORDER BY i.job_section_id ASC, i.id ASC")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(11, 3, "Galian", "2", "1", "10000", "5000", "20000", "10000", "m3", "catatan", now, now))

	items, err := repo.ListByDocument(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Information)
	assert.Equal(t, "catatan", *items[0].Information)
}

func TestItemJobSectionRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewItemJobSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO item_job_sections")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	item := &models.ItemJobSection{
		JobSectionID:         3,
		Name:                 "Urugan",
		Volume:               decimal.NewFromInt(4),
		MinimumVolume:        decimal.NewFromInt(1),
		MaterialPricePerUnit: decimal.NewFromInt(1000),
		FeePricePerUnit:      decimal.NewFromInt(500),
		TotalMaterialPrice:   decimal.NewFromInt(4000),
		TotalFeePrice:        decimal.NewFromInt(2000),
		Unit:                 "m3",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.Equal(t, int64(12), item.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE item_job_sections SET name = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), item))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM item_job_sections WHERE id = $1")).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 12))
	assert.NoError(t, mock.ExpectationsWereMet())
}
