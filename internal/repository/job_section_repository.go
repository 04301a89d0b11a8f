package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rab-api/internal/models"
)

const jobSectionColumns = `id, document_id, name, created_at, updated_at`

// JobSectionRepository persists job sections.
type JobSectionRepository struct {
	db *sqlx.DB
}

// NewJobSectionRepository constructs the repository.
func NewJobSectionRepository(db *sqlx.DB) *JobSectionRepository {
	return &JobSectionRepository{db: db}
}

// FindByID fetches a job section.
func (r *JobSectionRepository) FindByID(ctx context.Context, id int64) (*models.JobSection, error) {
	var section models.JobSection
	if err := r.db.GetContext(ctx, &section, `SELECT `+jobSectionColumns+` FROM job_sections WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job section: %w", err)
	}
	return &section, nil
}

// ListByDocument returns the document's sections in creation order.
func (r *JobSectionRepository) ListByDocument(ctx context.Context, documentID int64) ([]models.JobSection, error) {
	sections := make([]models.JobSection, 0)
	if err := r.db.SelectContext(ctx, &sections,
		`SELECT `+jobSectionColumns+` FROM job_sections WHERE document_id = $1 ORDER BY id ASC`, documentID); err != nil {
		return nil, fmt.Errorf("list job sections: %w", err)
	}
	return sections, nil
}

// ExistsByName reports whether another section of the document uses name.
// excludeID is ignored when zero.
func (r *JobSectionRepository) ExistsByName(ctx context.Context, documentID int64, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM job_sections WHERE document_id = $1 AND name = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, documentID, name, excludeID); err != nil {
		return false, fmt.Errorf("check job section name: %w", err)
	}
	return exists, nil
}

// Create inserts a section and fills in its id.
func (r *JobSectionRepository) Create(ctx context.Context, section *models.JobSection) error {
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now
	const query = `INSERT INTO job_sections (document_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, section.DocumentID, section.Name, now, now).Scan(&section.ID); err != nil {
		return fmt.Errorf("create job section: %w", err)
	}
	return nil
}

// Rename changes the section name.
func (r *JobSectionRepository) Rename(ctx context.Context, section *models.JobSection) error {
	section.UpdatedAt = time.Now().UTC()
	result, err := r.db.NamedExecContext(ctx, `UPDATE job_sections SET name = :name, updated_at = :updated_at WHERE id = :id`, section)
	if err != nil {
		return fmt.Errorf("rename job section: %w", err)
	}
	return expectRow(result, "rename job section")
}

// Delete removes a section and, by cascade, its items.
func (r *JobSectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM job_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job section: %w", err)
	}
	return expectRow(result, "delete job section")
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
