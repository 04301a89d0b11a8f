package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rab-api/internal/models"
)

const documentColumns = `id, slug, name, job, location, base, recapitulation_location, percentage_benefits_and_risks,
       status, qr_code_url, created_by_id, checked_by_id, confirmed_by_id, checked_at, confirmed_at, created_at, updated_at`

// DocumentRepository persists cost-estimate documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// SlugExists reports whether a document already uses slug.
func (r *DocumentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM documents WHERE slug = $1)`, slug); err != nil {
		return false, fmt.Errorf("check document slug: %w", err)
	}
	return exists, nil
}

// Create inserts the document and fills in its generated columns.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.Status == "" {
		doc.Status = models.DocumentStatusInProgress
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	const query = `INSERT INTO documents (slug, name, job, location, base, status, created_by_id, checked_by_id, confirmed_by_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		doc.Slug, doc.Name, doc.Job, doc.Location, doc.Base, doc.Status,
		doc.CreatedByID, doc.CheckedByID, doc.ConfirmedByID, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindBySlug fetches a document by slug.
func (r *DocumentRepository) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE slug = $1`, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by slug: %w", err)
	}
	return &doc, nil
}

// FindByID fetches a document by id.
func (r *DocumentRepository) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// List returns documents related to the filter actor through the scope's column.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + documentColumns + ` FROM documents WHERE `)

	switch filter.Scope {
	case models.DocumentScopeReview:
		builder.WriteString("checked_by_id = $1")
	case models.DocumentScopeConfirm:
		builder.WriteString("confirmed_by_id = $1")
	default:
		builder.WriteString("created_by_id = $1")
	}

	switch filter.SortBy {
	case models.DocumentSortNameAsc:
		builder.WriteString(" ORDER BY name ASC")
	case models.DocumentSortNameDesc:
		builder.WriteString(" ORDER BY name DESC")
	case models.DocumentSortRecent:
		builder.WriteString(" ORDER BY updated_at DESC")
	case models.DocumentSortLeast:
		builder.WriteString(" ORDER BY updated_at ASC")
	default:
		builder.WriteString(" ORDER BY id ASC")
	}

	if filter.Limit > 0 {
		builder.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	docs := make([]models.Document, 0)
	if err := r.db.SelectContext(ctx, &docs, builder.String(), filter.ActorID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateAssigneesParams carries the editable identity columns.
type UpdateAssigneesParams struct {
	ID            int64
	Name          string
	CheckedByID   int64
	ConfirmedByID int64
}

// UpdateAssignees rewrites name and reviewers while the document is in progress.
func (r *DocumentRepository) UpdateAssignees(ctx context.Context, params UpdateAssigneesParams) error {
	return r.updateInProgress(ctx, "update document assignees",
		"name = $2, checked_by_id = $3, confirmed_by_id = $4",
		params.ID, params.Name, params.CheckedByID, params.ConfirmedByID)
}

// UpdateGeneralInfo rewrites job, location and base while the document is in progress.
func (r *DocumentRepository) UpdateGeneralInfo(ctx context.Context, id int64, job, location, base string) error {
	return r.updateInProgress(ctx, "update document general info",
		"job = $2, location = $3, base = $4", id, job, location, base)
}

// UpdatePercentage sets the benefits and risks percentage while the document is in progress.
func (r *DocumentRepository) UpdatePercentage(ctx context.Context, id int64, percentage int) error {
	return r.updateInProgress(ctx, "update document percentage",
		"percentage_benefits_and_risks = $2", id, percentage)
}

// UpdateRecapitulationLocation sets the recapitulation location while the document is in progress.
func (r *DocumentRepository) UpdateRecapitulationLocation(ctx context.Context, id int64, location string) error {
	return r.updateInProgress(ctx, "update document recapitulation location",
		"recapitulation_location = $2", id, location)
}

// updateInProgress applies set to document id guarded by IN_PROGRESS status.
// The caller's arguments start at $2; updated_at is appended last.
func (r *DocumentRepository) updateInProgress(ctx context.Context, op, set string, args ...interface{}) error {
	args = append(args, time.Now().UTC())
	query := fmt.Sprintf("UPDATE documents SET %s, updated_at = $%d WHERE id = $1 AND status = '%s'",
		set, len(args), models.DocumentStatusInProgress)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TransitionParams describes a guarded status change.
type TransitionParams struct {
	ID          int64
	From        models.DocumentStatus
	To          models.DocumentStatus
	CheckedAt   *time.Time
	ConfirmedAt *time.Time
	QRCodeURL   *string
}

// TransitionStatus moves a document from one status to the next. It returns
// sql.ErrNoRows when the row is no longer in the expected status.
func (r *DocumentRepository) TransitionStatus(ctx context.Context, params TransitionParams) error {
	setParts := []string{"status = :to", "updated_at = :updated_at"}
	if params.CheckedAt != nil {
		setParts = append(setParts, "checked_at = :checked_at")
	}
	if params.ConfirmedAt != nil {
		setParts = append(setParts, "confirmed_at = :confirmed_at")
	}
	if params.QRCodeURL != nil {
		setParts = append(setParts, "qr_code_url = :qr_code_url")
	}
	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = :id AND status = :from", strings.Join(setParts, ", "))

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":           params.ID,
		"from":         params.From,
		"to":           params.To,
		"updated_at":   time.Now().UTC(),
		"checked_at":   params.CheckedAt,
		"confirmed_at": params.ConfirmedAt,
		"qr_code_url":  params.QRCodeURL,
	})
	if err != nil {
		return fmt.Errorf("transition document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the document; sections and items cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
