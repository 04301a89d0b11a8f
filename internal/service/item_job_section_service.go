package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/database"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

type sectionFinder interface {
	FindByID(ctx context.Context, id int64) (*models.JobSection, error)
}

type itemStore interface {
	FindByID(ctx context.Context, id int64) (*models.ItemJobSectionRef, error)
	ExistsByName(ctx context.Context, jobSectionID int64, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, item *models.ItemJobSection) error
	Update(ctx context.Context, item *models.ItemJobSection) error
	Delete(ctx context.Context, id int64) error
}

// ItemJobSectionService manages priced line items and keeps their stored
// totals in step with volume and unit prices.
type ItemJobSectionService struct {
	docs      documentFinder
	sections  sectionFinder
	items     itemStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemJobSectionService constructs an ItemJobSectionService.
func NewItemJobSectionService(docs documentFinder, sections sectionFinder, items itemStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ItemJobSectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ItemJobSectionService{docs: docs, sections: sections, items: items, audit: audit, validator: validate, logger: logger}
}

// Create adds an item to a section and stores its computed totals.
func (s *ItemJobSectionService) Create(ctx context.Context, req dto.CreateItemJobSectionRequest, actorID int64) (*models.ItemJobSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid item payload")
	}
	section, err := s.sections.FindByID(ctx, req.JobSectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job section not found")
		}
		return nil, appErrors.Internal(err, "failed to load job section")
	}
	if _, err := loadEditableDocument(ctx, s.docs, section.DocumentID, actorID); err != nil {
		return nil, err
	}

	item := &models.ItemJobSection{
		JobSectionID:         section.ID,
		Name:                 strings.TrimSpace(req.Name),
		Volume:               *req.Volume,
		MinimumVolume:        *req.MinimumVolume,
		MaterialPricePerUnit: *req.MaterialPricePerUnit,
		FeePricePerUnit:      *req.FeePricePerUnit,
		Unit:                 strings.TrimSpace(req.Unit),
		Information:          req.Information,
	}
	if err := validateItemAmounts(item); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, section.ID, item.Name, 0); err != nil {
		return nil, err
	}
	item.TotalMaterialPrice, item.TotalFeePrice = ComputeItemTotals(item.Volume, item.MinimumVolume, item.MaterialPricePerUnit, item.FeePricePerUnit)

	if err := s.items.Create(ctx, item); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "item name already exists in job section")
		case database.IsForeignKeyViolation(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job section not found")
		case database.IsCheckViolation(err), database.IsNumericOutOfRange(err):
			return nil, appErrors.Clone(appErrors.ErrValidation, "item values are out of range")
		}
		return nil, appErrors.Internal(err, "failed to create item")
	}
	s.emitAudit(ctx, actorID, item, nil)
	return item, nil
}

// Update patches an item and recomputes its totals from the merged values.
func (s *ItemJobSectionService) Update(ctx context.Context, id int64, req dto.UpdateItemJobSectionRequest, actorID int64) (*models.ItemJobSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid item payload")
	}
	ref, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := loadEditableDocument(ctx, s.docs, ref.DocumentID, actorID); err != nil {
		return nil, err
	}

	before := ref.ItemJobSection
	item := ref.ItemJobSection
	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		renamed = name != item.Name
		item.Name = name
	}
	if req.Volume != nil {
		item.Volume = *req.Volume
	}
	if req.MinimumVolume != nil {
		item.MinimumVolume = *req.MinimumVolume
	}
	if req.MaterialPricePerUnit != nil {
		item.MaterialPricePerUnit = *req.MaterialPricePerUnit
	}
	if req.FeePricePerUnit != nil {
		item.FeePricePerUnit = *req.FeePricePerUnit
	}
	if req.Unit != nil {
		item.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Information != nil {
		item.Information = req.Information
	}
	if err := validateItemAmounts(&item); err != nil {
		return nil, err
	}
	if renamed {
		if err := s.ensureUniqueName(ctx, item.JobSectionID, item.Name, item.ID); err != nil {
			return nil, err
		}
	}
	item.TotalMaterialPrice, item.TotalFeePrice = ComputeItemTotals(item.Volume, item.MinimumVolume, item.MaterialPricePerUnit, item.FeePricePerUnit)

	if err := s.items.Update(ctx, &item); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "item name already exists in job section")
		case database.IsCheckViolation(err), database.IsNumericOutOfRange(err):
			return nil, appErrors.Clone(appErrors.ErrValidation, "item values are out of range")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Internal(err, "failed to update item")
	}
	s.emitAudit(ctx, actorID, &item, &before)
	return &item, nil
}

// Delete removes an item.
func (s *ItemJobSectionService) Delete(ctx context.Context, id int64, actorID int64) error {
	ref, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := loadEditableDocument(ctx, s.docs, ref.DocumentID, actorID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, ref.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return appErrors.Internal(err, "failed to delete item")
	}
	s.emitAudit(ctx, actorID, nil, &ref.ItemJobSection)
	return nil
}

func (s *ItemJobSectionService) find(ctx context.Context, id int64) (*models.ItemJobSectionRef, error) {
	ref, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Internal(err, "failed to load item")
	}
	return ref, nil
}

func (s *ItemJobSectionService) ensureUniqueName(ctx context.Context, jobSectionID int64, name string, excludeID int64) error {
	exists, err := s.items.ExistsByName(ctx, jobSectionID, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check item name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "item name already exists in job section")
	}
	return nil
}

func (s *ItemJobSectionService) emitAudit(ctx context.Context, actorID int64, after, before *models.ItemJobSection) {
	if s.audit == nil {
		return
	}
	subject := after
	if subject == nil {
		subject = before
	}
	id := strconv.FormatInt(subject.ID, 10)
	entry := &models.AuditLog{UserID: &actorID, Action: models.AuditActionItemSectionChange, Resource: "item_job_section", ResourceID: &id}
	if after != nil {
		entry.NewValues = auditValues(s.logger, "item_job_section", after)
	}
	if before != nil {
		entry.OldValues = auditValues(s.logger, "item_job_section", before)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func validateItemAmounts(item *models.ItemJobSection) error {
	if item.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if item.Unit == "" {
		return appErrors.Clone(appErrors.ErrValidation, "unit is required")
	}
	if !item.MinimumVolume.GreaterThan(decimal.Zero) {
		return appErrors.Clone(appErrors.ErrValidation, "minimumVolume must be greater than zero")
	}
	if item.Volume.IsNegative() || item.MaterialPricePerUnit.IsNegative() || item.FeePricePerUnit.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "volume and unit prices cannot be negative")
	}
	for _, amount := range []struct {
		field string
		value decimal.Decimal
	}{
		{"volume", item.Volume},
		{"minimumVolume", item.MinimumVolume},
		{"materialPricePerUnit", item.MaterialPricePerUnit},
		{"feePricePerUnit", item.FeePricePerUnit},
	} {
		if !amount.value.Equal(amount.value.Truncate(itemTotalScale)) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s allows at most %d decimal places", amount.field, itemTotalScale))
		}
	}
	return nil
}
