package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/repository"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, name, email *string, program *models.Program, status *models.AccountStatus) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListInactive(ctx context.Context) ([]models.User, error)
	ApproveAllInactive(ctx context.Context) (int, error)
	DeleteAllInactive(ctx context.Context) (int, error)
	GetLastLogin(ctx context.Context, userID int64) (*time.Time, error)
	TouchLastLogin(ctx context.Context, userID int64, ts time.Time) error
}

// CreateUserRequest describes a new account.
type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin student instructor"`
	Program  *models.Program `json:"program,omitempty" validate:"omitempty,oneof=PWM BIO COMM COMP"`
}

// UpdateUserRequest carries partial account changes.
type UpdateUserRequest struct {
	Name    *string               `json:"name,omitempty"`
	Email   *string               `json:"email,omitempty" validate:"omitempty,email"`
	Program *models.Program       `json:"program,omitempty" validate:"omitempty,oneof=PWM BIO COMM COMP"`
	Status  *models.AccountStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// UserService manages accounts. New student accounts start inactive and
// wait for admin approval; staff accounts are active immediately.
type UserService struct {
	users     userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// Create registers an account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if req.Role == models.RoleStudent && req.Program == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "students must belong to a program")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	status := models.AccountActive
	if req.Role == models.RoleStudent {
		status = models.AccountInactive
	}
	user := &models.User{
		Name:          req.Name,
		Email:         req.Email,
		Program:       req.Program,
		PasswordHash:  string(hash),
		Role:          req.Role,
		AccountStatus: status,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("status", string(user.AccountStatus)))
	return user, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Update changes only the supplied fields.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if req.Name == nil && req.Email == nil && req.Program == nil && req.Status == nil {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	ok, err := s.users.Update(ctx, id, req.Name, req.Email, req.Program, req.Status)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "email already registered")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return nil
}

// Delete removes an account. Returns false when nothing matched.
func (s *UserService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return ok, nil
}

// ListInactive returns accounts pending approval.
func (s *UserService) ListInactive(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListInactive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inactive users")
	}
	return users, nil
}

// ApproveAllInactive activates every pending account.
func (s *UserService) ApproveAllInactive(ctx context.Context) (int, error) {
	count, err := s.users.ApproveAllInactive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve inactive users")
	}
	s.logger.Info("inactive accounts approved", zap.Int("count", count))
	return count, nil
}

// DeleteAllInactive removes every pending account.
func (s *UserService) DeleteAllInactive(ctx context.Context) (int, error) {
	count, err := s.users.DeleteAllInactive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete inactive users")
	}
	s.logger.Info("inactive accounts deleted", zap.Int("count", count))
	return count, nil
}

// LastLogin returns the most recent recorded login, or nil.
func (s *UserService) LastLogin(ctx context.Context, userID int64) (*time.Time, error) {
	ts, err := s.users.GetLastLogin(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load last login")
	}
	return ts, nil
}
