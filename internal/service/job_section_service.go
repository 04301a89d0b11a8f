package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/database"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

type documentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Document, error)
}

type jobSectionStore interface {
	FindByID(ctx context.Context, id int64) (*models.JobSection, error)
	ExistsByName(ctx context.Context, documentID int64, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, section *models.JobSection) error
	Rename(ctx context.Context, section *models.JobSection) error
	Delete(ctx context.Context, id int64) error
}

// JobSectionService manages the sections of an in-progress document.
type JobSectionService struct {
	docs      documentFinder
	sections  jobSectionStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJobSectionService constructs a JobSectionService.
func NewJobSectionService(docs documentFinder, sections jobSectionStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *JobSectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JobSectionService{docs: docs, sections: sections, audit: audit, validator: validate, logger: logger}
}

// Create adds a uniquely named section to the document.
func (s *JobSectionService) Create(ctx context.Context, req dto.CreateJobSectionRequest, actorID int64) (*models.JobSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid job section payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if _, err := loadEditableDocument(ctx, s.docs, req.DocumentID, actorID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.DocumentID, name, 0); err != nil {
		return nil, err
	}

	section := &models.JobSection{DocumentID: req.DocumentID, Name: name}
	if err := s.sections.Create(ctx, section); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "job section name already exists in document")
		case database.IsForeignKeyViolation(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to create job section")
	}
	s.emitAudit(ctx, actorID, section, nil)
	return section, nil
}

// Update renames a section. The uniqueness check only runs when the name changes.
func (s *JobSectionService) Update(ctx context.Context, id int64, req dto.UpdateJobSectionRequest, actorID int64) (*models.JobSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid job section payload")
	}
	section, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if section.DocumentID != req.DocumentID {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "job section does not belong to document")
	}
	if _, err := loadEditableDocument(ctx, s.docs, section.DocumentID, actorID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if name == section.Name {
		return section, nil
	}
	if err := s.ensureUniqueName(ctx, section.DocumentID, name, section.ID); err != nil {
		return nil, err
	}

	before := *section
	section.Name = name
	if err := s.sections.Rename(ctx, section); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "job section name already exists in document")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job section not found")
		}
		return nil, appErrors.Internal(err, "failed to update job section")
	}
	s.emitAudit(ctx, actorID, section, &before)
	return section, nil
}

// Delete removes a section together with its items.
func (s *JobSectionService) Delete(ctx context.Context, id int64, actorID int64) error {
	section, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := loadEditableDocument(ctx, s.docs, section.DocumentID, actorID); err != nil {
		return err
	}
	if err := s.sections.Delete(ctx, section.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "job section not found")
		}
		return appErrors.Internal(err, "failed to delete job section")
	}
	s.emitAudit(ctx, actorID, nil, section)
	return nil
}

func (s *JobSectionService) find(ctx context.Context, id int64) (*models.JobSection, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job section not found")
		}
		return nil, appErrors.Internal(err, "failed to load job section")
	}
	return section, nil
}

func (s *JobSectionService) ensureUniqueName(ctx context.Context, documentID int64, name string, excludeID int64) error {
	exists, err := s.sections.ExistsByName(ctx, documentID, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check job section name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "job section name already exists in document")
	}
	return nil
}

func (s *JobSectionService) emitAudit(ctx context.Context, actorID int64, after, before *models.JobSection) {
	if s.audit == nil {
		return
	}
	subject := after
	if subject == nil {
		subject = before
	}
	id := strconv.FormatInt(subject.ID, 10)
	entry := &models.AuditLog{UserID: &actorID, Action: models.AuditActionJobSectionChange, Resource: "job_section", ResourceID: &id}
	if after != nil {
		entry.NewValues = auditValues(s.logger, "job_section", after)
	}
	if before != nil {
		entry.OldValues = auditValues(s.logger, "job_section", before)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// loadEditableDocument resolves the parent document and checks the actor may
// edit its content.
func loadEditableDocument(ctx context.Context, docs documentFinder, documentID, actorID int64) (*models.Document, error) {
	doc, err := docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to load document")
	}
	if _, err := authorizeDocument(doc, actorID, ActionEdit); err != nil {
		return nil, err
	}
	return doc, nil
}
