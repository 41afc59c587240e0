package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type mockSectionRepo struct {
	sections map[int64]*models.Section
	nextID   int64
	updates  []models.SectionUpdate
}

func (m *mockSectionRepo) Create(ctx context.Context, section *models.Section) error {
	if m.sections == nil {
		m.sections = make(map[int64]*models.Section)
	}
	m.nextID++
	section.ID = m.nextID
	section.Enrolled = 0
	m.sections[section.ID] = section
	return nil
}

func (m *mockSectionRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	var out []models.Section
	for _, s := range m.sections {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSectionRepo) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionRepo) Update(ctx context.Context, id int64, update models.SectionUpdate) (bool, error) {
	if _, ok := m.sections[id]; !ok {
		return false, nil
	}
	m.updates = append(m.updates, update)
	return true, nil
}

func (m *mockSectionRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := m.sections[id]
	delete(m.sections, id)
	return ok, nil
}

type mockCatalogReader struct {
	courses map[string]models.Course
}

func (m *mockCatalogReader) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if c, ok := m.courses[code]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newSectionFixture() (*SectionService, *mockSectionRepo) {
	repo := &mockSectionRepo{}
	courses := &mockCatalogReader{courses: map[string]models.Course{
		"CS101": {Code: "CS101", Name: "Intro to CS", Credits: 3},
	}}
	return NewSectionService(repo, courses, nil, zap.NewNop()), repo
}

func validCreate() CreateSectionRequest {
	return CreateSectionRequest{
		CourseCode: "CS101", Days: "MON WED", TimeStart: "09:00", TimeEnd: "10:00",
		Room: "B12", Capacity: 30, Semester: "2025-1",
	}
}

func TestCreateSectionDefaults(t *testing.T) {
	svc, _ := newSectionFixture()

	section, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, models.SectionStateOpen, section.State)
	assert.Zero(t, section.Enrolled)
}

func TestCreateSectionUnknownCourse(t *testing.T) {
	svc, repo := newSectionFixture()
	req := validCreate()
	req.CourseCode = "NOPE"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.sections)
}

func TestCreateSectionRejectsBadTimes(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"malformed start", "9am", "10:00"},
		{"malformed end", "09:00", "25:00"},
		{"start after end", "11:00", "10:00"},
		{"zero length", "10:00", "10:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newSectionFixture()
			req := validCreate()
			req.TimeStart = tc.start
			req.TimeEnd = tc.end

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestUpdateSectionValidatesMergedTimes(t *testing.T) {
	svc, repo := newSectionFixture()
	section, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	late := "08:00"
	err = svc.Update(context.Background(), section.ID, models.SectionUpdate{TimeEnd: &late})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "09:00-08:00 must be rejected")
	assert.Empty(t, repo.updates)
}

func TestUpdateSectionClose(t *testing.T) {
	svc, repo := newSectionFixture()
	section, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	closed := models.SectionStateClosed
	require.NoError(t, svc.Update(context.Background(), section.ID, models.SectionUpdate{State: &closed}))
	require.Len(t, repo.updates, 1)
	assert.Equal(t, closed, *repo.updates[0].State)
}

func TestUpdateSectionNothingToDo(t *testing.T) {
	svc, _ := newSectionFixture()

	err := svc.Update(context.Background(), 1, models.SectionUpdate{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDeleteSectionReportsMissing(t *testing.T) {
	svc, _ := newSectionFixture()

	ok, err := svc.Delete(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
}
