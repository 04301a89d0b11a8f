package dto

import "github.com/shopspring/decimal"

// CreateJobSectionRequest adds a section to a document.
type CreateJobSectionRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	DocumentID int64  `json:"documentId" validate:"required,min=1"`
}

// UpdateJobSectionRequest renames a section. DocumentID must match the
// section's current document.
type UpdateJobSectionRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	DocumentID int64  `json:"documentId" validate:"required,min=1"`
}

// CreateItemJobSectionRequest adds a priced line item to a section.
type CreateItemJobSectionRequest struct {
	Name                 string           `json:"name" validate:"required,max=255"`
	Volume               *decimal.Decimal `json:"volume" validate:"required"`
	MinimumVolume        *decimal.Decimal `json:"minimumVolume" validate:"required"`
	MaterialPricePerUnit *decimal.Decimal `json:"materialPricePerUnit" validate:"required"`
	FeePricePerUnit      *decimal.Decimal `json:"feePricePerUnit" validate:"required"`
	Unit                 string           `json:"unit" validate:"required,max=50"`
	Information          *string          `json:"information"`
	JobSectionID         int64            `json:"jobSectionId" validate:"required,min=1"`
}

// UpdateItemJobSectionRequest patches an item. Absent fields keep their value
// and totals are recomputed from the merged row.
type UpdateItemJobSectionRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Volume               *decimal.Decimal `json:"volume"`
	MinimumVolume        *decimal.Decimal `json:"minimumVolume"`
	MaterialPricePerUnit *decimal.Decimal `json:"materialPricePerUnit"`
	FeePricePerUnit      *decimal.Decimal `json:"feePricePerUnit"`
	Unit                 *string          `json:"unit" validate:"omitempty,min=1,max=50"`
	Information          *string          `json:"information"`
}
