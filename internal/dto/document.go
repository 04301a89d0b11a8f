package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/rab-api/internal/models"
)

// CreateDocumentRequest starts a new document owned by the caller.
type CreateDocumentRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	CheckedByID   int64  `json:"checkedById" validate:"required,min=1"`
	ConfirmedByID int64  `json:"confirmedById" validate:"required,min=1"`
}

// UpdateDocumentRequest changes the name and reviewers. Absent fields keep their value.
type UpdateDocumentRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	CheckedByID   *int64  `json:"checkedById" validate:"omitempty,min=1"`
	ConfirmedByID *int64  `json:"confirmedById" validate:"omitempty,min=1"`
}

// UpdateGeneralInfoRequest edits the job, location and base fields.
type UpdateGeneralInfoRequest struct {
	Job      *string `json:"job"`
	Location *string `json:"location"`
	Base     *string `json:"base"`
}

// UpdatePercentageRequest sets the benefits and risks surcharge.
type UpdatePercentageRequest struct {
	PercentageBenefitsAndRisks *int `json:"percentageBenefitsAndRisks" validate:"required,min=0"`
}

// UpdateRecapitulationLocationRequest sets where the recapitulation is signed.
type UpdateRecapitulationLocationRequest struct {
	RecapitulationLocation string `json:"recapitulationLocation" validate:"required"`
}

// DocumentListQuery mirrors the list endpoint query string.
type DocumentListQuery struct {
	SortBy string `form:"sortBy"`
	Scope  string `form:"scope"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

// JobSectionDetail is a section with its items and derived totals.
type JobSectionDetail struct {
	models.JobSection
	ItemJobSections    []models.ItemJobSection `json:"itemJobSections"`
	TotalMaterialPrice decimal.Decimal         `json:"totalMaterialPrice"`
	TotalFeePrice      decimal.Decimal         `json:"totalFeePrice"`
}

// DocumentDetail is the full document view with totals recomputed on read.
type DocumentDetail struct {
	models.Document
	CreatedBy             models.UserRef     `json:"createdBy"`
	CheckedBy             models.UserRef     `json:"checkedBy"`
	ConfirmedBy           models.UserRef     `json:"confirmedBy"`
	JobSections           []JobSectionDetail `json:"jobSections"`
	TotalMaterialPrice    decimal.Decimal    `json:"totalMaterialPrice"`
	TotalFeePrice         decimal.Decimal    `json:"totalFeePrice"`
	TotalMaterialAndFee   decimal.Decimal    `json:"totalMaterialAndFee"`
	TotalBenefitsAndRisks decimal.Decimal    `json:"totalBenefitsAndRisks"`
	TotalPrice            decimal.Decimal    `json:"totalPrice"`
}

// Signer is the public identity of an approver.
type Signer struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// VerificationView is the public projection of an approved document.
type VerificationView struct {
	Name        string                `json:"name"`
	Slug        string                `json:"slug"`
	Status      models.DocumentStatus `json:"status"`
	Job         string                `json:"job"`
	Location    string                `json:"location"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	CheckedAt   *time.Time            `json:"checkedAt"`
	ConfirmedAt *time.Time            `json:"confirmedAt"`
	CreatedBy   Signer                `json:"createdBy"`
	CheckedBy   Signer                `json:"checkedBy"`
	ConfirmedBy Signer                `json:"confirmedBy"`
}
