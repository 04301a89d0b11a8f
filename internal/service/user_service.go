package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rab-api/internal/dto"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/pkg/database"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

const (
	defaultUserPage     = 1
	defaultUserPageSize = 10
)

type userRepository interface {
	HasActiveAdmin(ctx context.Context) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SoftDelete(ctx context.Context, id int64) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AdminBootstrap carries the credentials of the default administrator.
type AdminBootstrap struct {
	Email    string
	Password string
	Name     string
}

// UserServiceConfig tunes user provisioning.
type UserServiceConfig struct {
	DefaultPassword string
}

// UserService handles user provisioning workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    UserServiceConfig
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger, config UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger, config: config}
}

// EnsureDefaultAdmin creates the bootstrap administrator when no active admin
// exists. It returns true when a user was created.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, cfg AdminBootstrap) (bool, error) {
	if strings.TrimSpace(cfg.Email) == "" || cfg.Password == "" {
		return false, errors.New("default admin email and password are required")
	}

	exists, err := s.repo.HasActiveAdmin(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up administrators")
	}
	if exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Administrator"
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		PasswordHash: string(hash),
		Name:         name,
		Position:     "Administrator",
		Role:         models.RoleAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create default admin")
	}

	s.audit(ctx, nil, models.AuditActionAdminBootstrap, user.ID, []byte(`{"role":"ADMIN"}`))
	s.logger.Info("default admin created", zap.String("email", user.Email))
	return true, nil
}

// List returns a page of active regular users ordered by name.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) (*dto.UserList, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid user list query")
	}
	filter := models.UserFilter{Name: query.Name, Page: query.Page, PageSize: query.PageSize}
	if filter.Page < 1 {
		filter.Page = defaultUserPage
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultUserPageSize
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	return &dto.UserList{
		List: users,
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
			TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
		},
	}, nil
}

// Create registers a regular user whose initial password is the configured default.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actorID int64) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}
	if s.config.DefaultPassword == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "USER_DEFAULT_PASSWORD is not set")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	taken, err := s.repo.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		PhoneNumber:  &phone,
		Position:     strings.TrimSpace(req.Position),
		Role:         models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	payload := auditValues(s.logger, "user", map[string]interface{}{"email": user.Email, "role": user.Role})
	s.audit(ctx, &actorID, models.AuditActionUserCreate, user.ID, payload)
	return user, nil
}

// Update patches a user profile. Callers may edit their own profile;
// administrators may edit anyone. Email and phone uniqueness is only checked
// when the value changes.
func (s *UserService) Update(ctx context.Context, id int64, req dto.UpdateUserRequest, actorID int64) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update user payload")
	}
	if err := s.authorizeSelfOrAdmin(ctx, id, actorID); err != nil {
		return nil, err
	}
	user, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"name": user.Name, "email": user.Email, "phoneNumber": user.PhoneNumber, "position": user.Position}

	if name := trimmed(req.Name); name != "" {
		user.Name = name
	}
	if position := trimmed(req.Position); position != "" {
		user.Position = position
	}
	if email := strings.ToLower(trimmed(req.Email)); email != "" && email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to check email uniqueness")
		}
		user.Email = email
	}
	if phone := trimmed(req.PhoneNumber); phone != "" && (user.PhoneNumber == nil || phone != *user.PhoneNumber) {
		taken, err := s.repo.ExistsByPhone(ctx, phone)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check phone uniqueness")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already in use")
		}
		user.PhoneNumber = &phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		case database.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}

	entry := &models.AuditLog{
		UserID:    &actorID,
		Action:    models.AuditActionUserUpdate,
		Resource:  "user",
		OldValues: auditValues(s.logger, "user", before),
		NewValues: auditValues(s.logger, "user", map[string]interface{}{"name": user.Name, "email": user.Email, "phoneNumber": user.PhoneNumber, "position": user.Position}),
	}
	s.record(ctx, entry, user.ID)
	return user, nil
}

// ChangePassword replaces the caller's own password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, req dto.ChangePasswordRequest, actorID int64) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid change password payload")
	}
	if id != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only change your own password")
	}
	user, err := s.findActive(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "old password is incorrect")
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return appErrors.Clone(appErrors.ErrBadRequest, "new password and confirmation do not match")
	}
	if err := s.setPassword(ctx, id, req.NewPassword); err != nil {
		return err
	}
	s.audit(ctx, &actorID, models.AuditActionPasswordChange, id, nil)
	return nil
}

// ResetPassword restores a regular user's password to the configured default.
func (s *UserService) ResetPassword(ctx context.Context, id int64, actorID int64) error {
	user, err := s.findActive(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RoleUser {
		return appErrors.Clone(appErrors.ErrForbidden, "only USER accounts can be reset")
	}
	if s.config.DefaultPassword == "" {
		return appErrors.Clone(appErrors.ErrInternal, "USER_DEFAULT_PASSWORD is not set")
	}
	if err := s.setPassword(ctx, id, s.config.DefaultPassword); err != nil {
		return err
	}
	s.audit(ctx, &actorID, models.AuditActionPasswordReset, id, nil)
	return nil
}

func (s *UserService) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to update password")
	}
	return nil
}

func (s *UserService) authorizeSelfOrAdmin(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return nil
	}
	actor, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUnauthorized
		}
		return appErrors.Internal(err, "failed to load caller")
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only update your own profile")
	}
	return nil
}

func (s *UserService) findActive(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// Remove soft deletes a regular user. Administrators cannot be removed.
func (s *UserService) Remove(ctx context.Context, id int64, actorID int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleUser {
		return appErrors.Clone(appErrors.ErrForbidden, "only USER accounts can be removed")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove user")
	}

	s.audit(ctx, &actorID, models.AuditActionUserRemove, id, nil)
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID *int64, action string, userID int64, payload []byte) {
	s.record(ctx, &models.AuditLog{UserID: actorID, Action: action, Resource: "user", NewValues: payload}, userID)
}

func (s *UserService) record(ctx context.Context, entry *models.AuditLog, userID int64) {
	resourceID := strconv.FormatInt(userID, 10)
	entry.ResourceID = &resourceID
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
