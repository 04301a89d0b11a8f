package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rab-api/internal/models"
)

const itemColumns = `i.id, i.job_section_id, i.name, i.volume, i.minimum_volume, i.material_price_per_unit, i.fee_price_per_unit,
       i.total_material_price, i.total_fee_price, i.unit, i.information, i.created_at, i.updated_at`

// ItemJobSectionRepository persists priced line items.
type ItemJobSectionRepository struct {
	db *sqlx.DB
}

// NewItemJobSectionRepository constructs the repository.
func NewItemJobSectionRepository(db *sqlx.DB) *ItemJobSectionRepository {
	return &ItemJobSectionRepository{db: db}
}

// FindByID fetches an item together with its document id.
func (r *ItemJobSectionRepository) FindByID(ctx context.Context, id int64) (*models.ItemJobSectionRef, error) {
	query := `SELECT ` + itemColumns + `, s.document_id
	FROM item_job_sections i JOIN job_sections s ON s.id = i.job_section_id WHERE i.id = $1`
	var item models.ItemJobSectionRef
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find item job section: %w", err)
	}
	return &item, nil
}

// ListByDocument returns every item of the document ordered by section then id.
func (r *ItemJobSectionRepository) ListByDocument(ctx context.Context, documentID int64) ([]models.ItemJobSection, error) {
	query := `SELECT ` + itemColumns + `
	FROM item_job_sections i JOIN job_sections s ON s.id = i.job_section_id
	WHERE s.document_id = $1 ORDER BY i.job_section_id ASC, i.id ASC`
	items := make([]models.ItemJobSection, 0)
	if err := r.db.SelectContext(ctx, &items, query, documentID); err != nil {
		return nil, fmt.Errorf("list item job sections: %w", err)
	}
	return items, nil
}

// ExistsByName reports whether another item of the section uses name.
// excludeID is ignored when zero.
func (r *ItemJobSectionRepository) ExistsByName(ctx context.Context, jobSectionID int64, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM item_job_sections WHERE job_section_id = $1 AND name = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, jobSectionID, name, excludeID); err != nil {
		return false, fmt.Errorf("check item job section name: %w", err)
	}
	return exists, nil
}

// Create inserts an item and fills in its id.
func (r *ItemJobSectionRepository) Create(ctx context.Context, item *models.ItemJobSection) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO item_job_sections
	(job_section_id, name, volume, minimum_volume, material_price_per_unit, fee_price_per_unit,
	 total_material_price, total_fee_price, unit, information, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		item.JobSectionID, item.Name, item.Volume, item.MinimumVolume, item.MaterialPricePerUnit, item.FeePricePerUnit,
		item.TotalMaterialPrice, item.TotalFeePrice, item.Unit, item.Information, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("create item job section: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of the item.
func (r *ItemJobSectionRepository) Update(ctx context.Context, item *models.ItemJobSection) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE item_job_sections SET name = :name, volume = :volume, minimum_volume = :minimum_volume,
	material_price_per_unit = :material_price_per_unit, fee_price_per_unit = :fee_price_per_unit,
	total_material_price = :total_material_price, total_fee_price = :total_fee_price,
	unit = :unit, information = :information, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update item job section: %w", err)
	}
	return expectRow(result, "update item job section")
}

// Delete removes an item.
func (r *ItemJobSectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM item_job_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item job section: %w", err)
	}
	return expectRow(result, "delete item job section")
}
