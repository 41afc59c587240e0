package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/repository"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type transcriptRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error)
	Create(ctx context.Context, entry *models.TranscriptEntry) error
	UpdateGrade(ctx context.Context, studentID int64, courseCode, semester, grade string) (bool, error)
	Finalize(ctx context.Context, entry models.TranscriptEntry) error
}

// GradeRequest identifies one transcript cell and the grade to write.
type GradeRequest struct {
	StudentID  int64  `json:"student_id" validate:"required,gt=0"`
	CourseCode string `json:"course_code" validate:"required"`
	Semester   string `json:"semester" validate:"required"`
	Grade      string `json:"grade" validate:"required"`
}

// TranscriptService maintains the permanent academic record.
type TranscriptService struct {
	transcripts transcriptRepository
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(transcripts transcriptRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{transcripts: transcripts, metrics: metrics, validator: validate, logger: logger}
}

// GetTranscript returns the student's full transcript.
func (s *TranscriptService) GetTranscript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	entries, err := s.transcripts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	return entries, nil
}

// AddEntry inserts a transcript row directly, for administrative imports
// of historical records.
func (s *TranscriptService) AddEntry(ctx context.Context, entry models.TranscriptEntry) error {
	if entry.StudentID <= 0 || entry.CourseCode == "" || entry.Semester == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id, course code and semester are required")
	}
	if err := s.transcripts.Create(ctx, &entry); err != nil {
		if repository.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateKey, "transcript entry already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transcript entry")
	}
	return nil
}

// UpdateGrade corrects the grade of an existing entry without touching
// registrations.
func (s *TranscriptService) UpdateGrade(ctx context.Context, req GradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	ok, err := s.transcripts.UpdateGrade(ctx, req.StudentID, req.CourseCode, req.Semester, req.Grade)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "transcript entry not found")
	}
	return nil
}

// FinalizeGrade records the grade and retires the matching registration in
// one transaction, so a course is never simultaneously registered and
// transcripted for the same semester.
func (s *TranscriptService) FinalizeGrade(ctx context.Context, req GradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade := req.Grade
	entry := models.TranscriptEntry{
		StudentID:  req.StudentID,
		CourseCode: req.CourseCode,
		Semester:   req.Semester,
		Grade:      &grade,
	}

	start := time.Now()
	err := s.transcripts.Finalize(ctx, entry)
	if s.metrics != nil {
		s.metrics.ObserveTransaction("finalize_grade", time.Since(start))
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize grade")
	}

	s.logger.Info("grade finalized",
		zap.Int64("student_id", req.StudentID),
		zap.String("course_code", req.CourseCode),
		zap.String("semester", req.Semester),
		zap.String("grade", req.Grade))
	return nil
}
