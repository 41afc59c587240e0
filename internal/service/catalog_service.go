package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/repository"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

const (
	cacheKeyCourses    = "catalog:courses"
	cacheKeyPlanPrefix = "catalog:plan:"
	cacheKeyPattern    = "catalog:*"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, code string, newCode, newName *string, newCredits *int) (bool, error)
	Delete(ctx context.Context, code string) (bool, error)
	ListPrerequisites(ctx context.Context, courseCode string) ([]string, error)
	AddPrerequisite(ctx context.Context, courseCode, prereqCode string) error
	UpdatePrerequisite(ctx context.Context, courseCode, oldPrereq, newPrereq string) (bool, error)
	DeletePrerequisite(ctx context.Context, courseCode, prereqCode string) (bool, error)
}

type planRepository interface {
	ListCourses(ctx context.Context, program models.Program) ([]models.PlanCourse, error)
	Create(ctx context.Context, entry *models.PlanEntry) error
	UpdateLevel(ctx context.Context, program models.Program, courseCode string, level int) (bool, error)
	Delete(ctx context.Context, program models.Program, courseCode string) (bool, error)
}

// CreateCourseRequest describes a new catalog entry.
type CreateCourseRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Credits int    `json:"credits" validate:"gte=0"`
}

// UpdateCourseRequest carries partial course changes.
type UpdateCourseRequest struct {
	Code    *string `json:"code,omitempty"`
	Name    *string `json:"name,omitempty"`
	Credits *int    `json:"credits,omitempty" validate:"omitempty,gte=0"`
}

// PrerequisiteRequest describes a prerequisite edge.
type PrerequisiteRequest struct {
	PrereqCode string `json:"prereq_code" validate:"required"`
}

// PlanEntryRequest assigns a course to a program plan.
type PlanEntryRequest struct {
	Program    models.Program `json:"program" validate:"required,oneof=PWM BIO COMM COMP"`
	CourseCode string         `json:"course_code" validate:"required"`
	Level      int            `json:"level" validate:"gte=1"`
}

// CatalogService exposes courses, prerequisite sets, and program-plan
// membership. Reads go through the cache; every mutation invalidates the
// catalog key space.
type CatalogService struct {
	courses   courseRepository
	plans     planRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(courses courseRepository, plans planRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, plans: plans, cache: cache, validator: validate, logger: logger}
}

// ListCourses returns all catalog courses ordered by code.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, cacheKeyCourses, &cached); hit {
		return cached, nil
	}

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	_ = s.cache.Set(ctx, cacheKeyCourses, courses, 0)
	return courses, nil
}

// GetCourse returns a single course.
func (s *CatalogService) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.courses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a catalog entry.
func (s *CatalogService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{Code: req.Code, Name: req.Name, Credits: req.Credits}
	if err := s.courses.Create(ctx, course); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// UpdateCourse changes only the supplied fields.
func (s *CatalogService) UpdateCourse(ctx context.Context, code string, req UpdateCourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.Code == nil && req.Name == nil && req.Credits == nil {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	ok, err := s.courses.Update(ctx, code, req.Code, req.Name, req.Credits)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "course code already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.invalidate(ctx)
	return nil
}

// DeleteCourse removes a course; prerequisite edges and plan entries
// cascade in the store. Returns false when the code did not exist.
func (s *CatalogService) DeleteCourse(ctx context.Context, code string) (bool, error) {
	ok, err := s.courses.Delete(ctx, code)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if ok {
		s.invalidate(ctx)
	}
	return ok, nil
}

// ListPrerequisites returns the prerequisite codes for a course.
func (s *CatalogService) ListPrerequisites(ctx context.Context, courseCode string) ([]string, error) {
	prereqs, err := s.courses.ListPrerequisites(ctx, courseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prerequisites")
	}
	return prereqs, nil
}

// AddPrerequisite records that courseCode requires prereqCode.
func (s *CatalogService) AddPrerequisite(ctx context.Context, courseCode string, req PrerequisiteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	if courseCode == req.PrereqCode {
		return appErrors.Clone(appErrors.ErrValidation, "a course cannot require itself")
	}
	if err := s.courses.AddPrerequisite(ctx, courseCode, req.PrereqCode); err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "prerequisite already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add prerequisite")
	}
	s.invalidate(ctx)
	return nil
}

// UpdatePrerequisite swaps one prerequisite for another.
func (s *CatalogService) UpdatePrerequisite(ctx context.Context, courseCode, oldPrereq, newPrereq string) error {
	if newPrereq == "" {
		return appErrors.Clone(appErrors.ErrValidation, "new prerequisite code is required")
	}
	if courseCode == newPrereq {
		return appErrors.Clone(appErrors.ErrValidation, "a course cannot require itself")
	}
	ok, err := s.courses.UpdatePrerequisite(ctx, courseCode, oldPrereq, newPrereq)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "prerequisite already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update prerequisite")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
	}
	s.invalidate(ctx)
	return nil
}

// DeletePrerequisite removes an edge. Returns false when nothing matched.
func (s *CatalogService) DeletePrerequisite(ctx context.Context, courseCode, prereqCode string) (bool, error) {
	ok, err := s.courses.DeletePrerequisite(ctx, courseCode, prereqCode)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prerequisite")
	}
	if ok {
		s.invalidate(ctx)
	}
	return ok, nil
}

// ListPlanCourses returns plan membership; empty program means all
// programs.
func (s *CatalogService) ListPlanCourses(ctx context.Context, program models.Program) ([]models.PlanCourse, error) {
	if program != "" && !program.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown program")
	}

	key := cacheKeyPlanPrefix + "all"
	if program != "" {
		key = cacheKeyPlanPrefix + string(program)
	}
	var cached []models.PlanCourse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	courses, err := s.plans.ListCourses(ctx, program)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plan courses")
	}
	_ = s.cache.Set(ctx, key, courses, 0)
	return courses, nil
}

// AddPlanEntry assigns a course to a program plan.
func (s *CatalogService) AddPlanEntry(ctx context.Context, req PlanEntryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan entry payload")
	}
	entry := &models.PlanEntry{Program: req.Program, CourseCode: req.CourseCode, Level: req.Level}
	if err := s.plans.Create(ctx, entry); err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "course already in program plan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add plan entry")
	}
	s.invalidate(ctx)
	return nil
}

// UpdatePlanLevel moves a plan entry to a different level.
func (s *CatalogService) UpdatePlanLevel(ctx context.Context, program models.Program, courseCode string, level int) error {
	if level < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "level must be at least 1")
	}
	ok, err := s.plans.UpdateLevel(ctx, program, courseCode, level)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan entry")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "plan entry not found")
	}
	s.invalidate(ctx)
	return nil
}

// DeletePlanEntry removes a course from a program plan. Returns false
// when nothing matched.
func (s *CatalogService) DeletePlanEntry(ctx context.Context, program models.Program, courseCode string) (bool, error) {
	ok, err := s.plans.Delete(ctx, program, courseCode)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete plan entry")
	}
	if ok {
		s.invalidate(ctx)
	}
	return ok, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyPattern); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
