package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type mockCourseRepo struct {
	courses   map[string]models.Course
	prereqs   map[string][]string
	createErr error
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if c, ok := m.courses[code]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.Code] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, code string, newCode, newName *string, newCredits *int) (bool, error) {
	_, ok := m.courses[code]
	return ok, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, code string) (bool, error) {
	_, ok := m.courses[code]
	delete(m.courses, code)
	return ok, nil
}

func (m *mockCourseRepo) ListPrerequisites(ctx context.Context, courseCode string) ([]string, error) {
	return m.prereqs[courseCode], nil
}

func (m *mockCourseRepo) AddPrerequisite(ctx context.Context, courseCode, prereqCode string) error {
	if m.prereqs == nil {
		m.prereqs = make(map[string][]string)
	}
	m.prereqs[courseCode] = append(m.prereqs[courseCode], prereqCode)
	return nil
}

func (m *mockCourseRepo) UpdatePrerequisite(ctx context.Context, courseCode, oldPrereq, newPrereq string) (bool, error) {
	return true, nil
}

func (m *mockCourseRepo) DeletePrerequisite(ctx context.Context, courseCode, prereqCode string) (bool, error) {
	return true, nil
}

type mockPlanRepo struct {
	entries   []models.PlanEntry
	createErr error
}

func (m *mockPlanRepo) ListCourses(ctx context.Context, program models.Program) ([]models.PlanCourse, error) {
	return nil, nil
}

func (m *mockPlanRepo) Create(ctx context.Context, entry *models.PlanEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockPlanRepo) UpdateLevel(ctx context.Context, program models.Program, courseCode string, level int) (bool, error) {
	return true, nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, program models.Program, courseCode string) (bool, error) {
	return true, nil
}

func newCatalogFixture() (*CatalogService, *mockCourseRepo, *mockPlanRepo) {
	courses := &mockCourseRepo{courses: map[string]models.Course{
		"CS101": {Code: "CS101", Name: "Intro to CS", Credits: 3},
	}}
	plans := &mockPlanRepo{}
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := NewCatalogService(courses, plans, cache, nil, zap.NewNop())
	return svc, courses, plans
}

func TestCreateCourse(t *testing.T) {
	svc, repo, _ := newCatalogFixture()

	course, err := svc.CreateCourse(context.Background(), CreateCourseRequest{Code: "CS201", Name: "Data Structures", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, "CS201", course.Code)
	_, stored := repo.courses["CS201"]
	assert.True(t, stored)
}

func TestCreateCourseDuplicateCode(t *testing.T) {
	svc, repo, _ := newCatalogFixture()
	repo.createErr = &pq.Error{Code: "23505"}

	_, err := svc.CreateCourse(context.Background(), CreateCourseRequest{Code: "CS101", Name: "Intro to CS", Credits: 3})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestCreateCourseRejectsMissingFields(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.CreateCourse(context.Background(), CreateCourseRequest{Code: "", Name: "Nameless", Credits: 3})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGetCourseNotFound(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.GetCourse(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAddPrerequisiteRejectsSelfReference(t *testing.T) {
	svc, repo, _ := newCatalogFixture()

	err := svc.AddPrerequisite(context.Background(), "CS101", PrerequisiteRequest{PrereqCode: "CS101"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.prereqs["CS101"])
}

func TestAddPrerequisite(t *testing.T) {
	svc, repo, _ := newCatalogFixture()

	err := svc.AddPrerequisite(context.Background(), "CS201", PrerequisiteRequest{PrereqCode: "CS101"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, repo.prereqs["CS201"])
}

func TestAddPlanEntryRejectsUnknownProgram(t *testing.T) {
	svc, _, plans := newCatalogFixture()

	err := svc.AddPlanEntry(context.Background(), PlanEntryRequest{Program: "LAW", CourseCode: "CS101", Level: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, plans.entries)
}

func TestAddPlanEntryDuplicate(t *testing.T) {
	svc, _, plans := newCatalogFixture()
	plans.createErr = &pq.Error{Code: "23505"}

	err := svc.AddPlanEntry(context.Background(), PlanEntryRequest{Program: models.ProgramCOMP, CourseCode: "CS101", Level: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestListPlanCoursesRejectsUnknownProgram(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.ListPlanCourses(context.Background(), "LAW")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
