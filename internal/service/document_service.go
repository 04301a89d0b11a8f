package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/internal/repository"
	"github.com/noah-isme/rab-api/pkg/database"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
	"github.com/noah-isme/rab-api/pkg/export"
	"github.com/noah-isme/rab-api/pkg/qrcode"
)

type documentStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, doc *models.Document) error
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)
	FindByID(ctx context.Context, id int64) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	UpdateAssignees(ctx context.Context, params repository.UpdateAssigneesParams) error
	UpdateGeneralInfo(ctx context.Context, id int64, job, location, base string) error
	UpdatePercentage(ctx context.Context, id int64, percentage int) error
	UpdateRecapitulationLocation(ctx context.Context, id int64, location string) error
	TransitionStatus(ctx context.Context, params repository.TransitionParams) error
	Delete(ctx context.Context, id int64) error
}

type jobSectionLister interface {
	ListByDocument(ctx context.Context, documentID int64) ([]models.JobSection, error)
}

type itemLister interface {
	ListByDocument(ctx context.Context, documentID int64) ([]models.ItemJobSection, error)
}

type participantStore interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
	FindRefs(ctx context.Context, ids []int64) ([]models.UserRef, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type documentRenderer interface {
	Render(sheet export.DocumentSheet) ([]byte, error)
}

type documentArchive interface {
	Schedule(ctx context.Context, slug string) error
	Load(slug string) ([]byte, error)
	Remove(slug string) error
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// DocumentServiceConfig tunes document behaviour.
type DocumentServiceConfig struct {
	FrontendURL    string
	VerifyCacheTTL time.Duration
}

// DocumentServiceParams groups constructor dependencies. Cache, Archive and
// Metrics are optional.
type DocumentServiceParams struct {
	Documents    documentStore
	Sections     jobSectionLister
	Items        itemLister
	Participants participantStore
	Audit        auditLogger
	Renderer     documentRenderer
	Archive      documentArchive
	Cache        viewCache
	Metrics      *MetricsService
	Validate     *validator.Validate
	Logger       *zap.Logger
	Config       DocumentServiceConfig
}

// DocumentService runs the approval workflow and builds document views.
type DocumentService struct {
	docs         documentStore
	sections     jobSectionLister
	items        itemLister
	participants participantStore
	audit        auditLogger
	renderer     documentRenderer
	archive      documentArchive
	cache        viewCache
	metrics      *MetricsService
	slugs        *SlugGenerator
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
	cfg          DocumentServiceConfig
}

// NewDocumentService constructs a DocumentService with sane defaults.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	cfg := params.Config
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	if cfg.VerifyCacheTTL <= 0 {
		cfg.VerifyCacheTTL = 10 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validate
	if validate == nil {
		validate = validator.New()
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = export.NewDocumentRenderer()
	}
	return &DocumentService{
		docs:         params.Documents,
		sections:     params.Sections,
		items:        params.Items,
		participants: params.Participants,
		audit:        params.Audit,
		renderer:     renderer,
		archive:      params.Archive,
		cache:        params.Cache,
		metrics:      params.Metrics,
		slugs:        NewSlugGenerator(params.Documents),
		validator:    validate,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// Create starts an IN_PROGRESS document owned by actorID.
func (s *DocumentService) Create(ctx context.Context, req dto.CreateDocumentRequest, actorID int64) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid document payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if err := s.validateAssignees(ctx, actorID, req.CheckedByID, req.ConfirmedByID, true); err != nil {
		return nil, err
	}

	slug, err := s.slugs.Generate(ctx, name)
	if err != nil {
		return nil, err
	}
	doc := &models.Document{
		Slug:          slug,
		Name:          name,
		Status:        models.DocumentStatusInProgress,
		CreatedByID:   actorID,
		CheckedByID:   req.CheckedByID,
		ConfirmedByID: req.ConfirmedByID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document slug already exists, please retry")
		}
		return nil, appErrors.Internal(err, "failed to create document")
	}

	s.metrics.RecordDocumentTransition("create")
	s.emitAudit(ctx, actorID, models.AuditActionDocumentCreate, doc, nil)
	return doc, nil
}

// List returns documents related to actorID through the requested scope.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentListQuery, actorID int64) ([]models.Document, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid list query")
	}
	filter := models.DocumentFilter{
		ActorID: actorID,
		SortBy:  models.DocumentSort(strings.ToLower(strings.TrimSpace(query.SortBy))),
		Limit:   query.Limit,
	}
	switch scope := models.DocumentScope(strings.ToLower(strings.TrimSpace(query.Scope))); scope {
	case "", models.DocumentScopeDefault:
		filter.Scope = models.DocumentScopeDefault
	case models.DocumentScopeReview, models.DocumentScopeConfirm:
		filter.Scope = scope
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "scope must be one of default, review, confirm")
	}

	docs, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list documents")
	}
	return docs, nil
}

// Detail returns the document hierarchy with totals recomputed. It fails when
// the benefits and risks percentage has not been set.
func (s *DocumentService) Detail(ctx context.Context, slug string, actorID int64) (*dto.DocumentDetail, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeDocument(doc, actorID, ActionView); err != nil {
		return nil, err
	}
	hierarchy, err := s.loadHierarchy(ctx, doc)
	if err != nil {
		return nil, err
	}
	totals, err := AggregateDocument(hierarchy, AggregateOptions{})
	if err != nil {
		return nil, err
	}
	return buildDocumentDetail(hierarchy, totals), nil
}

// Update changes name, checker and confirmer while the document is in progress.
func (s *DocumentService) Update(ctx context.Context, id int64, req dto.UpdateDocumentRequest, actorID int64) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid document payload")
	}
	doc, err := s.editableByID(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	before := *doc

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		doc.Name = name
	}
	if req.CheckedByID != nil {
		doc.CheckedByID = *req.CheckedByID
	}
	if req.ConfirmedByID != nil {
		doc.ConfirmedByID = *req.ConfirmedByID
	}
	reassigned := doc.CheckedByID != before.CheckedByID || doc.ConfirmedByID != before.ConfirmedByID
	if err := s.validateAssignees(ctx, doc.CreatedByID, doc.CheckedByID, doc.ConfirmedByID, reassigned); err != nil {
		return nil, err
	}

	err = s.docs.UpdateAssignees(ctx, repository.UpdateAssigneesParams{
		ID:            doc.ID,
		Name:          doc.Name,
		CheckedByID:   doc.CheckedByID,
		ConfirmedByID: doc.ConfirmedByID,
	})
	if err != nil {
		return nil, s.mapGuardedWrite(err, "failed to update document")
	}
	doc.UpdatedAt = s.now().UTC()
	s.emitAudit(ctx, actorID, models.AuditActionDocumentUpdate, doc, &before)
	return doc, nil
}

// UpdateGeneralInfo edits job, location and base while the document is in progress.
func (s *DocumentService) UpdateGeneralInfo(ctx context.Context, slug string, req dto.UpdateGeneralInfoRequest, actorID int64) (*models.Document, error) {
	doc, err := s.editable(ctx, slug, actorID)
	if err != nil {
		return nil, err
	}
	before := *doc
	if req.Job != nil {
		doc.Job = strings.TrimSpace(*req.Job)
	}
	if req.Location != nil {
		doc.Location = strings.TrimSpace(*req.Location)
	}
	if req.Base != nil {
		doc.Base = strings.TrimSpace(*req.Base)
	}
	if err := s.docs.UpdateGeneralInfo(ctx, doc.ID, doc.Job, doc.Location, doc.Base); err != nil {
		return nil, s.mapGuardedWrite(err, "failed to update document general info")
	}
	doc.UpdatedAt = s.now().UTC()
	s.emitAudit(ctx, actorID, models.AuditActionDocumentUpdate, doc, &before)
	return doc, nil
}

// UpdatePercentage sets the benefits and risks surcharge while the document is in progress.
func (s *DocumentService) UpdatePercentage(ctx context.Context, slug string, req dto.UpdatePercentageRequest, actorID int64) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid percentage payload")
	}
	doc, err := s.editable(ctx, slug, actorID)
	if err != nil {
		return nil, err
	}
	before := *doc
	percentage := *req.PercentageBenefitsAndRisks
	if err := s.docs.UpdatePercentage(ctx, doc.ID, percentage); err != nil {
		return nil, s.mapGuardedWrite(err, "failed to update document percentage")
	}
	doc.PercentageBenefitsAndRisks = &percentage
	doc.UpdatedAt = s.now().UTC()
	s.emitAudit(ctx, actorID, models.AuditActionDocumentUpdate, doc, &before)
	return doc, nil
}

// UpdateRecapitulationLocation sets the recapitulation location while the document is in progress.
func (s *DocumentService) UpdateRecapitulationLocation(ctx context.Context, slug string, req dto.UpdateRecapitulationLocationRequest, actorID int64) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid recapitulation location payload")
	}
	location := strings.TrimSpace(req.RecapitulationLocation)
	if location == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recapitulationLocation is required")
	}
	doc, err := s.editable(ctx, slug, actorID)
	if err != nil {
		return nil, err
	}
	before := *doc
	if err := s.docs.UpdateRecapitulationLocation(ctx, doc.ID, location); err != nil {
		return nil, s.mapGuardedWrite(err, "failed to update recapitulation location")
	}
	doc.RecapitulationLocation = &location
	doc.UpdatedAt = s.now().UTC()
	s.emitAudit(ctx, actorID, models.AuditActionDocumentUpdate, doc, &before)
	return doc, nil
}

// SubmitForCheck moves an IN_PROGRESS document to NEED_CHECKED.
func (s *DocumentService) SubmitForCheck(ctx context.Context, slug string, actorID int64) (*models.Document, error) {
	return s.transition(ctx, slug, actorID, ActionSubmit, models.AuditActionDocumentSubmit)
}

// ApproveCheck moves a NEED_CHECKED document to NEED_CONFIRMED and stamps checkedAt.
func (s *DocumentService) ApproveCheck(ctx context.Context, slug string, actorID int64) (*models.Document, error) {
	return s.transition(ctx, slug, actorID, ActionApproveCheck, models.AuditActionDocumentCheck)
}

// ApproveConfirm approves a NEED_CONFIRMED document, stamps confirmedAt and
// stores the verification QR code. An archive copy is scheduled when enabled.
func (s *DocumentService) ApproveConfirm(ctx context.Context, slug string, actorID int64) (*models.Document, error) {
	doc, err := s.transition(ctx, slug, actorID, ActionApproveConfirm, models.AuditActionDocumentConfirm)
	if err != nil {
		return nil, err
	}
	if s.archive != nil {
		if err := s.archive.Schedule(ctx, doc.Slug); err != nil {
			s.logger.Warn("failed to schedule document archive", zap.String("slug", doc.Slug), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *DocumentService) transition(ctx context.Context, slug string, actorID int64, action DocumentAction, auditAction string) (*models.Document, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	rule, err := authorizeDocument(doc, actorID, action)
	if err != nil {
		return nil, err
	}
	before := *doc

	now := s.now().UTC()
	params := repository.TransitionParams{ID: doc.ID, From: rule.From, To: rule.To}
	switch action {
	case ActionApproveCheck:
		params.CheckedAt = &now
	case ActionApproveConfirm:
		params.ConfirmedAt = &now
		qr, err := qrcode.DataURL(qrcode.VerificationURL(s.cfg.FrontendURL, doc.Slug))
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate verification qr code")
		}
		params.QRCodeURL = &qr
	}

	if err := s.docs.TransitionStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "document status has changed, reload and try again")
		}
		return nil, appErrors.Internal(err, "failed to update document status")
	}

	doc.Status = rule.To
	doc.UpdatedAt = now
	if params.CheckedAt != nil {
		doc.CheckedAt = params.CheckedAt
	}
	if params.ConfirmedAt != nil {
		doc.ConfirmedAt = params.ConfirmedAt
	}
	if params.QRCodeURL != nil {
		doc.QRCodeURL = params.QRCodeURL
	}

	s.metrics.RecordDocumentTransition(string(action))
	s.emitAudit(ctx, actorID, auditAction, doc, &before)
	return doc, nil
}

// Delete removes the document and everything below it. Only the creator may
// delete; the status is not consulted.
func (s *DocumentService) Delete(ctx context.Context, id int64, actorID int64) error {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := authorizeDocument(doc, actorID, ActionDelete); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Internal(err, "failed to delete document")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, verifyCacheKey(doc.Slug)); err != nil {
			s.logger.Warn("failed to evict verification cache", zap.String("slug", doc.Slug), zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Remove(doc.Slug); err != nil {
			s.logger.Warn("failed to remove archived document", zap.String("slug", doc.Slug), zap.Error(err))
		}
	}
	s.metrics.RecordDocumentTransition(string(ActionDelete))
	s.emitAudit(ctx, actorID, models.AuditActionDocumentDelete, nil, doc)
	return nil
}

// ExportPDF renders the document for any participant. An unset percentage is
// treated as zero so approved documents can always be printed.
func (s *DocumentService) ExportPDF(ctx context.Context, slug string, actorID int64) ([]byte, string, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	if _, err := authorizeDocument(doc, actorID, ActionExport); err != nil {
		return nil, "", err
	}
	pdf, err := s.renderPDF(ctx, doc)
	if err != nil {
		return nil, "", err
	}
	return pdf, pdfFilename(doc.Slug), nil
}

// RenderArchive renders an approved document without an actor check. It backs
// the background archive job.
func (s *DocumentService) RenderArchive(ctx context.Context, slug string) ([]byte, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "only approved documents are archived")
	}
	return s.renderPDF(ctx, doc)
}

// Archived returns the archived PDF of an approved document to a participant.
func (s *DocumentService) Archived(ctx context.Context, slug string, actorID int64) ([]byte, string, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	if _, err := authorizeDocument(doc, actorID, ActionView); err != nil {
		return nil, "", err
	}
	if s.archive == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document archive is disabled")
	}
	pdf, err := s.archive.Load(doc.Slug)
	if err != nil {
		if errors.Is(err, errArchiveMissing) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "archived document is not available yet")
		}
		return nil, "", appErrors.Internal(err, "failed to read archived document")
	}
	return pdf, pdfFilename(doc.Slug), nil
}

// Verify returns the public projection of an approved document. Documents in
// any other status are reported as forbidden rather than missing.
func (s *DocumentService) Verify(ctx context.Context, slug string) (*dto.VerificationView, error) {
	key := verifyCacheKey(slug)
	if s.cache != nil {
		var cached dto.VerificationView
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document has not been approved")
	}
	refs, err := s.participantRefs(ctx, doc)
	if err != nil {
		return nil, err
	}

	view := &dto.VerificationView{
		Name:        doc.Name,
		Slug:        doc.Slug,
		Status:      doc.Status,
		Job:         doc.Job,
		Location:    doc.Location,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		CheckedAt:   doc.CheckedAt,
		ConfirmedAt: doc.ConfirmedAt,
		CreatedBy:   dto.Signer{Name: refs[doc.CreatedByID].Name, Position: refs[doc.CreatedByID].Position},
		CheckedBy:   dto.Signer{Name: refs[doc.CheckedByID].Name, Position: refs[doc.CheckedByID].Position},
		ConfirmedBy: dto.Signer{Name: refs[doc.ConfirmedByID].Name, Position: refs[doc.ConfirmedByID].Position},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cfg.VerifyCacheTTL); err != nil {
			s.logger.Warn("failed to cache verification view", zap.String("slug", slug), zap.Error(err))
		}
	}
	return view, nil
}

// editable loads the document by slug and checks the actor may edit it.
func (s *DocumentService) editable(ctx context.Context, slug string, actorID int64) (*models.Document, error) {
	doc, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeDocument(doc, actorID, ActionEdit); err != nil {
		return nil, err
	}
	return doc, nil
}

// editableByID is the id-keyed variant of editable.
func (s *DocumentService) editableByID(ctx context.Context, id int64, actorID int64) (*models.Document, error) {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeDocument(doc, actorID, ActionEdit); err != nil {
		return nil, err
	}
	return doc, nil
}

// validateAssignees enforces that creator, checker and confirmer are pairwise
// distinct and, when checkExistence is set, that both reviewers exist.
func (s *DocumentService) validateAssignees(ctx context.Context, creatorID, checkedByID, confirmedByID int64, checkExistence bool) error {
	if checkedByID == confirmedByID {
		return appErrors.Clone(appErrors.ErrBadRequest, "checker and confirmer must be different users")
	}
	if checkedByID == creatorID || confirmedByID == creatorID {
		return appErrors.Clone(appErrors.ErrBadRequest, "creator cannot be assigned as checker or confirmer")
	}
	if !checkExistence {
		return nil
	}
	count, err := s.participants.CountExisting(ctx, []int64{checkedByID, confirmedByID})
	if err != nil {
		return appErrors.Internal(err, "failed to verify checker and confirmer")
	}
	if count != 2 {
		return appErrors.Clone(appErrors.ErrBadRequest, "checker or confirmer user not found")
	}
	return nil
}

func (s *DocumentService) findBySlug(ctx context.Context, slug string) (*models.Document, error) {
	doc, err := s.docs.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to load document")
	}
	return doc, nil
}

func (s *DocumentService) findByID(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to load document")
	}
	return doc, nil
}

func (s *DocumentService) mapGuardedWrite(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrBadRequest, "document is no longer in progress")
	}
	return appErrors.Internal(err, message)
}

func (s *DocumentService) loadHierarchy(ctx context.Context, doc *models.Document) (*models.DocumentHierarchy, error) {
	sections, err := s.sections.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load job sections")
	}
	items, err := s.items.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load job section items")
	}
	refs, err := s.participantRefs(ctx, doc)
	if err != nil {
		return nil, err
	}

	h := &models.DocumentHierarchy{
		Document:    *doc,
		Sections:    make([]models.JobSectionWithItems, len(sections)),
		CreatedBy:   refs[doc.CreatedByID],
		CheckedBy:   refs[doc.CheckedByID],
		ConfirmedBy: refs[doc.ConfirmedByID],
	}
	index := make(map[int64]int, len(sections))
	for i, section := range sections {
		h.Sections[i] = models.JobSectionWithItems{JobSection: section, Items: make([]models.ItemJobSection, 0)}
		index[section.ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.JobSectionID]; ok {
			h.Sections[i].Items = append(h.Sections[i].Items, item)
		}
	}
	return h, nil
}

func (s *DocumentService) participantRefs(ctx context.Context, doc *models.Document) (map[int64]models.UserRef, error) {
	refs, err := s.participants.FindRefs(ctx, []int64{doc.CreatedByID, doc.CheckedByID, doc.ConfirmedByID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load document participants")
	}
	byID := make(map[int64]models.UserRef, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}
	return byID, nil
}

func (s *DocumentService) renderPDF(ctx context.Context, doc *models.Document) ([]byte, error) {
	hierarchy, err := s.loadHierarchy(ctx, doc)
	if err != nil {
		return nil, err
	}
	totals, err := AggregateDocument(hierarchy, AggregateOptions{PercentageDefaultsToZero: true})
	if err != nil {
		return nil, err
	}
	png, err := qrcode.PNG(qrcode.VerificationURL(s.cfg.FrontendURL, doc.Slug), qrcode.DefaultSize)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate verification qr code")
	}

	start := time.Now()
	pdf, err := s.renderer.Render(buildDocumentSheet(hierarchy, totals, png))
	s.metrics.ObservePDFRender(time.Since(start))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render document pdf")
	}
	return pdf, nil
}

func (s *DocumentService) emitAudit(ctx context.Context, actorID int64, action string, after, before *models.Document) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{UserID: &actorID, Action: action, Resource: "document"}
	subject := after
	if subject == nil {
		subject = before
	}
	if subject != nil {
		id := strconv.FormatInt(subject.ID, 10)
		entry.ResourceID = &id
	}
	if after != nil {
		entry.NewValues = auditValues(s.logger, "document", after)
	}
	if before != nil {
		entry.OldValues = auditValues(s.logger, "document", before)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

func buildDocumentDetail(h *models.DocumentHierarchy, totals *DocumentTotals) *dto.DocumentDetail {
	detail := &dto.DocumentDetail{
		Document:              h.Document,
		CreatedBy:             h.CreatedBy,
		CheckedBy:             h.CheckedBy,
		ConfirmedBy:           h.ConfirmedBy,
		JobSections:           make([]dto.JobSectionDetail, len(h.Sections)),
		TotalMaterialPrice:    totals.TotalMaterialPrice,
		TotalFeePrice:         totals.TotalFeePrice,
		TotalMaterialAndFee:   totals.TotalMaterialAndFee,
		TotalBenefitsAndRisks: totals.TotalBenefitsAndRisks,
		TotalPrice:            totals.TotalPrice,
	}
	for i, section := range h.Sections {
		detail.JobSections[i] = dto.JobSectionDetail{
			JobSection:         section.JobSection,
			ItemJobSections:    section.Items,
			TotalMaterialPrice: totals.Sections[i].TotalMaterialPrice,
			TotalFeePrice:      totals.Sections[i].TotalFeePrice,
		}
	}
	return detail
}

func buildDocumentSheet(h *models.DocumentHierarchy, totals *DocumentTotals, qr []byte) export.DocumentSheet {
	doc := h.Document
	sheet := export.DocumentSheet{
		Name:                       doc.Name,
		Slug:                       doc.Slug,
		Job:                        doc.Job,
		Location:                   doc.Location,
		Base:                       doc.Base,
		PercentageBenefitsAndRisks: totals.PercentageBenefitsAndRisks,
		Sections:                   make([]export.SectionSheet, len(h.Sections)),
		TotalMaterialPrice:         totals.TotalMaterialPrice,
		TotalFeePrice:              totals.TotalFeePrice,
		TotalMaterialAndFee:        totals.TotalMaterialAndFee,
		TotalBenefitsAndRisks:      totals.TotalBenefitsAndRisks,
		TotalPrice:                 totals.TotalPrice,
		CreatedAt:                  doc.CreatedAt,
		CreatedBy:                  export.Signatory{Name: h.CreatedBy.Name, Position: h.CreatedBy.Position},
		CheckedBy:                  export.Signatory{Name: h.CheckedBy.Name, Position: h.CheckedBy.Position, At: doc.CheckedAt},
		ConfirmedBy:                export.Signatory{Name: h.ConfirmedBy.Name, Position: h.ConfirmedBy.Position, At: doc.ConfirmedAt},
		QRCode:                     qr,
	}
	if doc.RecapitulationLocation != nil {
		sheet.RecapitulationLocation = *doc.RecapitulationLocation
	}
	for i, section := range h.Sections {
		lines := make([]export.ItemLine, len(section.Items))
		for j, item := range section.Items {
			lines[j] = export.ItemLine{
				Name:               item.Name,
				Volume:             item.Volume,
				Unit:               item.Unit,
				TotalMaterialPrice: item.TotalMaterialPrice,
				TotalFeePrice:      item.TotalFeePrice,
			}
		}
		sheet.Sections[i] = export.SectionSheet{
			Name:               section.Name,
			Items:              lines,
			TotalMaterialPrice: totals.Sections[i].TotalMaterialPrice,
			TotalFeePrice:      totals.Sections[i].TotalFeePrice,
		}
	}
	return sheet
}

func verifyCacheKey(slug string) string {
	return "verify:" + slug
}

func pdfFilename(slug string) string {
	return fmt.Sprintf("document-%s.pdf", slug)
}
