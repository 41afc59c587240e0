package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/schedule"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type sectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error)
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	Update(ctx context.Context, id int64, update models.SectionUpdate) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type sectionCourseReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

// CreateSectionRequest describes a new section offering.
type CreateSectionRequest struct {
	CourseCode   string              `json:"course_code" validate:"required"`
	InstructorID *int64              `json:"instructor_id,omitempty"`
	Days         string              `json:"days" validate:"required"`
	TimeStart    string              `json:"time_start" validate:"required"`
	TimeEnd      string              `json:"time_end" validate:"required"`
	Room         string              `json:"room"`
	Capacity     int                 `json:"capacity" validate:"gte=0"`
	Semester     string              `json:"semester" validate:"required"`
	State        models.SectionState `json:"state" validate:"omitempty,oneof=open closed"`
}

// SectionService manages section offerings. The enrolled counter is off
// limits here; only the registration transaction moves it.
type SectionService struct {
	sections  sectionRepository
	courses   sectionCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionRepository, courses sectionCourseReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, courses: courses, validator: validate, logger: logger}
}

// Create opens a new section. It starts empty regardless of the payload
// and defaults to the open state.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if err := validateMeetingTimes(req.TimeStart, req.TimeEnd); err != nil {
		return nil, err
	}

	if _, err := s.courses.FindByCode(ctx, req.CourseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	state := req.State
	if state == "" {
		state = models.SectionStateOpen
	}
	section := &models.Section{
		CourseCode:   req.CourseCode,
		InstructorID: req.InstructorID,
		Days:         req.Days,
		TimeStart:    req.TimeStart,
		TimeEnd:      req.TimeEnd,
		Room:         req.Room,
		Capacity:     req.Capacity,
		Semester:     req.Semester,
		State:        state,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.logger.Info("section created",
		zap.Int64("section_id", section.ID),
		zap.String("course_code", section.CourseCode),
		zap.String("semester", section.Semester))
	return section, nil
}

// List returns sections matching the filter.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	sections, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get returns one section.
func (s *SectionService) Get(ctx context.Context, id int64) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Update applies the supplied fields only. Closing a section stops new
// registrations but never touches existing ones.
func (s *SectionService) Update(ctx context.Context, id int64, update models.SectionUpdate) error {
	if update.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if update.State != nil && *update.State != models.SectionStateOpen && *update.State != models.SectionStateClosed {
		return appErrors.Clone(appErrors.ErrValidation, "state must be open or closed")
	}
	if update.Capacity != nil && *update.Capacity < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "capacity must not be negative")
	}
	if update.TimeStart != nil || update.TimeEnd != nil {
		current, err := s.sections.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		start, end := current.TimeStart, current.TimeEnd
		if update.TimeStart != nil {
			start = *update.TimeStart
		}
		if update.TimeEnd != nil {
			end = *update.TimeEnd
		}
		if err := validateMeetingTimes(start, end); err != nil {
			return err
		}
	}

	ok, err := s.sections.Update(ctx, id, update)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	return nil
}

// Delete removes a section; registrations cascade in the store. Returns
// false when the id did not exist.
func (s *SectionService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.sections.Delete(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	if ok {
		s.logger.Info("section deleted", zap.Int64("section_id", id))
	}
	return ok, nil
}

func validateMeetingTimes(start, end string) error {
	startMin, err := schedule.ParseClock(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "time_start must be HH:MM")
	}
	endMin, err := schedule.ParseClock(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "time_end must be HH:MM")
	}
	if startMin >= endMin {
		return appErrors.Clone(appErrors.ErrValidation, "time_start must precede time_end")
	}
	return nil
}
