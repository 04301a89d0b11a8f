package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus enumerates the approval workflow states.
type DocumentStatus string

const (
	DocumentStatusInProgress    DocumentStatus = "IN_PROGRESS"
	DocumentStatusNeedChecked   DocumentStatus = "NEED_CHECKED"
	DocumentStatusNeedConfirmed DocumentStatus = "NEED_CONFIRMED"
	DocumentStatusApproved      DocumentStatus = "APPROVED"
)

// Valid reports whether the status is one of the known workflow states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusInProgress, DocumentStatusNeedChecked, DocumentStatusNeedConfirmed, DocumentStatusApproved:
		return true
	}
	return false
}

// Document is a cost-estimate record stored in the documents table.
type Document struct {
	ID                         int64          `db:"id" json:"id"`
	Slug                       string         `db:"slug" json:"slug"`
	Name                       string         `db:"name" json:"name"`
	Job                        string         `db:"job" json:"job"`
	Location                   string         `db:"location" json:"location"`
	Base                       string         `db:"base" json:"base"`
	RecapitulationLocation     *string        `db:"recapitulation_location" json:"recapitulationLocation"`
	PercentageBenefitsAndRisks *int           `db:"percentage_benefits_and_risks" json:"percentageBenefitsAndRisks"`
	Status                     DocumentStatus `db:"status" json:"status"`
	QRCodeURL                  *string        `db:"qr_code_url" json:"qrCodeUrl,omitempty"`
	CreatedByID                int64          `db:"created_by_id" json:"createdById"`
	CheckedByID                int64          `db:"checked_by_id" json:"checkedById"`
	ConfirmedByID              int64          `db:"confirmed_by_id" json:"confirmedById"`
	CheckedAt                  *time.Time     `db:"checked_at" json:"checkedAt"`
	ConfirmedAt                *time.Time     `db:"confirmed_at" json:"confirmedAt"`
	CreatedAt                  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                  time.Time      `db:"updated_at" json:"updatedAt"`
}

// JobSection groups priced items inside a document.
type JobSection struct {
	ID         int64     `db:"id" json:"id"`
	DocumentID int64     `db:"document_id" json:"documentId"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// ItemJobSection is a priced line item. Totals are derived at write time.
type ItemJobSection struct {
	ID                   int64           `db:"id" json:"id"`
	JobSectionID         int64           `db:"job_section_id" json:"jobSectionId"`
	Name                 string          `db:"name" json:"name"`
	Volume               decimal.Decimal `db:"volume" json:"volume"`
	MinimumVolume        decimal.Decimal `db:"minimum_volume" json:"minimumVolume"`
	MaterialPricePerUnit decimal.Decimal `db:"material_price_per_unit" json:"materialPricePerUnit"`
	FeePricePerUnit      decimal.Decimal `db:"fee_price_per_unit" json:"feePricePerUnit"`
	TotalMaterialPrice   decimal.Decimal `db:"total_material_price" json:"totalMaterialPrice"`
	TotalFeePrice        decimal.Decimal `db:"total_fee_price" json:"totalFeePrice"`
	Unit                 string          `db:"unit" json:"unit"`
	Information          *string         `db:"information" json:"information"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`
}

// ItemJobSectionRef pairs an item with the document it ultimately belongs to.
type ItemJobSectionRef struct {
	ItemJobSection
	DocumentID int64 `db:"document_id"`
}

// DocumentScope selects which relationship to the caller a listing uses.
type DocumentScope string

const (
	DocumentScopeDefault DocumentScope = "default"
	DocumentScopeReview  DocumentScope = "review"
	DocumentScopeConfirm DocumentScope = "confirm"
)

// DocumentSort enumerates list orderings.
type DocumentSort string

const (
	DocumentSortNameAsc  DocumentSort = "asc"
	DocumentSortNameDesc DocumentSort = "desc"
	DocumentSortRecent   DocumentSort = "recent"
	DocumentSortLeast    DocumentSort = "least"
)

// DocumentFilter captures list criteria for documents visible to ActorID.
type DocumentFilter struct {
	ActorID int64
	Scope   DocumentScope
	SortBy  DocumentSort
	Limit   int
}

// JobSectionWithItems is a section with its items loaded in id order.
type JobSectionWithItems struct {
	JobSection
	Items []ItemJobSection
}

// DocumentHierarchy is a document loaded with its full section tree.
type DocumentHierarchy struct {
	Document    Document
	Sections    []JobSectionWithItems
	CreatedBy   UserRef
	CheckedBy   UserRef
	ConfirmedBy UserRef
}
