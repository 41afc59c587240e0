package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type eligibilityUserReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type eligibilityPlanReader interface {
	ListCourses(ctx context.Context, program models.Program) ([]models.PlanCourse, error)
}

type eligibilityTranscriptReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error)
}

type eligibilityRegistrationReader interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
}

type eligibilityCourseReader interface {
	ListPrerequisites(ctx context.Context, courseCode string) ([]string, error)
}

// EligibilityService computes which plan courses a student may register
// for in a given semester. Results are derived from the plan, transcript,
// and current registrations on every call; nothing is persisted.
type EligibilityService struct {
	users         eligibilityUserReader
	plans         eligibilityPlanReader
	transcripts   eligibilityTranscriptReader
	registrations eligibilityRegistrationReader
	courses       eligibilityCourseReader
	passing       map[string]struct{}
	logger        *zap.Logger
}

// NewEligibilityService constructs EligibilityService. passingGrades is
// the set of grades that count as completing a course.
func NewEligibilityService(
	users eligibilityUserReader,
	plans eligibilityPlanReader,
	transcripts eligibilityTranscriptReader,
	registrations eligibilityRegistrationReader,
	courses eligibilityCourseReader,
	passingGrades []string,
	logger *zap.Logger,
) *EligibilityService {
	passing := make(map[string]struct{}, len(passingGrades))
	for _, grade := range passingGrades {
		passing[grade] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		users:         users,
		plans:         plans,
		transcripts:   transcripts,
		registrations: registrations,
		courses:       courses,
		passing:       passing,
		logger:        logger,
	}
}

// CompletedCourses returns the set of course codes the student has passed.
// An entry with a nil grade or a grade outside the passing set does not
// complete the course.
func (s *EligibilityService) CompletedCourses(ctx context.Context, studentID int64) (map[string]struct{}, error) {
	entries, err := s.transcripts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	completed := make(map[string]struct{})
	for _, entry := range entries {
		if entry.Grade == nil {
			continue
		}
		if _, ok := s.passing[*entry.Grade]; ok {
			completed[entry.CourseCode] = struct{}{}
		}
	}
	return completed, nil
}

// AvailableCourses lists the plan courses the student can still take in
// the semester: plan membership minus completed minus currently
// registered, each annotated with its unmet prerequisites.
func (s *EligibilityService) AvailableCourses(ctx context.Context, studentID int64, semester string) ([]models.EligibilityResult, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Program == nil {
		// No program means no plan and therefore nothing to offer.
		return []models.EligibilityResult{}, nil
	}

	planCourses, err := s.plans.ListCourses(ctx, *student.Program)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program plan")
	}

	completed, err := s.CompletedCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}

	registered := make(map[string]struct{})
	regs, err := s.registrations.List(ctx, models.RegistrationFilter{StudentID: studentID, Semester: semester})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	for _, reg := range regs {
		registered[reg.CourseCode] = struct{}{}
	}

	results := make([]models.EligibilityResult, 0, len(planCourses))
	for _, plan := range planCourses {
		if _, done := completed[plan.Code]; done {
			continue
		}
		if _, taken := registered[plan.Code]; taken {
			continue
		}

		prereqs, err := s.courses.ListPrerequisites(ctx, plan.Code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
		}

		missing := make([]string, 0)
		for _, prereq := range prereqs {
			if _, done := completed[prereq]; !done {
				missing = append(missing, prereq)
			}
		}
		sort.Strings(missing)

		results = append(results, models.EligibilityResult{
			CourseCode:     plan.Code,
			CourseName:     plan.Name,
			Credits:        plan.Credits,
			Prereqs:        prereqs,
			MissingPrereqs: missing,
			CanRegister:    len(missing) == 0,
		})
	}
	return results, nil
}

// CanRegister reports whether the student meets every prerequisite for
// one course, with the unmet codes.
func (s *EligibilityService) CanRegister(ctx context.Context, studentID int64, courseCode string) (bool, []string, error) {
	completed, err := s.CompletedCourses(ctx, studentID)
	if err != nil {
		return false, nil, err
	}
	prereqs, err := s.courses.ListPrerequisites(ctx, courseCode)
	if err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	missing := make([]string, 0)
	for _, prereq := range prereqs {
		if _, done := completed[prereq]; !done {
			missing = append(missing, prereq)
		}
	}
	sort.Strings(missing)
	return len(missing) == 0, missing, nil
}
