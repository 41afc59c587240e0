package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/schedule"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	ListStudentSections(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error)
	Register(ctx context.Context, reg models.Registration) error
	Withdraw(ctx context.Context, studentID int64, courseCode string) (int, error)
}

type registrationSectionReader interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
}

type registrationGate interface {
	IsRegistrationOpen(ctx context.Context) (bool, error)
}

// RegisterRequest is the payload for a registration attempt.
type RegisterRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	SectionID int64  `json:"section_id" validate:"required,gt=0"`
	Semester  string `json:"semester" validate:"required"`
}

// RegistrationService coordinates registration attempts and withdrawals.
// All seat accounting happens inside the repository transaction; this
// layer adds the registration-window gate, validation, and metrics.
type RegistrationService struct {
	registrations registrationRepository
	sections      registrationSectionReader
	settings      registrationGate
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(
	registrations registrationRepository,
	sections registrationSectionReader,
	settings registrationGate,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		sections:      sections,
		settings:      settings,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Register enrolls the student in a section. The registration window is
// checked first; every other precondition is enforced inside one store
// transaction so a failed attempt never leaves partial state.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	open, err := s.settings.IsRegistrationOpen(ctx)
	if err != nil {
		return err
	}
	if !open {
		s.recordOutcome(appErrors.ErrRegistrationClosed.Code)
		return appErrors.ErrRegistrationClosed
	}

	section, err := s.sections.FindByID(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordOutcome(appErrors.ErrNotFound.Code)
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	reg := models.Registration{
		StudentID:  req.StudentID,
		SectionID:  req.SectionID,
		CourseCode: section.CourseCode,
		Semester:   req.Semester,
	}

	start := time.Now()
	err = s.registrations.Register(ctx, reg)
	if s.metrics != nil {
		s.metrics.ObserveTransaction("register", time.Since(start))
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.recordOutcome(appErr.Code)
			return err
		}
		s.recordOutcome(appErrors.ErrInternal.Code)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "registration failed")
	}

	s.recordOutcome("success")
	s.logger.Info("registration committed",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("section_id", req.SectionID),
		zap.String("course_code", section.CourseCode),
		zap.String("semester", req.Semester))
	return nil
}

// Withdraw drops the student from a course. Returns false when no
// registration matched.
func (s *RegistrationService) Withdraw(ctx context.Context, studentID int64, courseCode string) (bool, error) {
	if studentID <= 0 || courseCode == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "student id and course code are required")
	}

	start := time.Now()
	removed, err := s.registrations.Withdraw(ctx, studentID, courseCode)
	if s.metrics != nil {
		s.metrics.ObserveTransaction("withdraw", time.Since(start))
	}
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "withdrawal failed")
	}
	if removed > 1 {
		// The primary key should make this impossible; log it so drift
		// gets noticed instead of silently repaired.
		s.logger.Warn("withdrawal removed multiple registrations",
			zap.Int64("student_id", studentID),
			zap.String("course_code", courseCode),
			zap.Int("removed", removed))
	}
	if removed > 0 {
		s.logger.Info("registration withdrawn",
			zap.Int64("student_id", studentID),
			zap.String("course_code", courseCode))
	}
	return removed > 0, nil
}

// HasTimeConflict reports whether a section's meeting pattern collides
// with the student's current schedule for that section's semester. This is
// the advisory screen; the registration transaction re-validates.
func (s *RegistrationService) HasTimeConflict(ctx context.Context, studentID, sectionID int64) (bool, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	registered, err := s.registrations.ListStudentSections(ctx, studentID, section.Semester)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	candidate := schedule.Meeting{Days: section.Days, TimeStart: section.TimeStart, TimeEnd: section.TimeEnd}
	current := make([]schedule.Meeting, len(registered))
	for i, reg := range registered {
		current[i] = schedule.Meeting{Days: reg.Days, TimeStart: reg.TimeStart, TimeEnd: reg.TimeEnd}
	}
	return schedule.AnyOverlap(candidate, current), nil
}

// ListRegistrations returns registrations matching the filter.
func (s *RegistrationService) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	regs, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// StudentSchedule returns the sections a student is registered in.
func (s *RegistrationService) StudentSchedule(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error) {
	sections, err := s.registrations.ListStudentSections(ctx, studentID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return sections, nil
}

func (s *RegistrationService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRegistrationOutcome(outcome)
	}
}
