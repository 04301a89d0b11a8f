package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rab-api/internal/models"
)

func TestJobSectionRepositoryListByDocument(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewJobSectionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM job_sections WHERE document_id = $1 ORDER BY id ASC")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "name", "created_at", "updated_at"}).
			AddRow(1, 7, "Persiapan", now, now).
			AddRow(2, 7, "Struktur", now, now))

	sections, err := repo.ListByDocument(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Struktur", sections[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobSectionRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewJobSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_sections WHERE document_id = $1 AND name = $2 AND id <> $3")).
		WithArgs(int64(7), "Persiapan", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByName(context.Background(), 7, "Persiapan", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestJobSectionRepositoryCreateRenameDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewJobSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_sections")).
		WithArgs(int64(7), "Persiapan", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	section := &models.JobSection{DocumentID: 7, Name: "Persiapan"}
	require.NoError(t, repo.Create(context.Background(), section))
	assert.Equal(t, int64(3), section.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_sections SET name = ?, updated_at = ? WHERE id = ?")).
		WithArgs("Pekerjaan Awal", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	section.Name = "Pekerjaan Awal"
	require.NoError(t, repo.Rename(context.Background(), section))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job_sections WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), 3), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
