package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type mockRegistrationRepo struct {
	sections    map[int64][]models.RegisteredSection
	registerErr error
	registered  []models.Registration
	withdrawn   int
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	return m.registered, nil
}

func (m *mockRegistrationRepo) ListStudentSections(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error) {
	return m.sections[studentID], nil
}

func (m *mockRegistrationRepo) Register(ctx context.Context, reg models.Registration) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered = append(m.registered, reg)
	return nil
}

func (m *mockRegistrationRepo) Withdraw(ctx context.Context, studentID int64, courseCode string) (int, error) {
	return m.withdrawn, nil
}

type mockSectionReader struct {
	sections map[int64]*models.Section
}

func (m *mockSectionReader) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockGate struct {
	open bool
}

func (m *mockGate) IsRegistrationOpen(ctx context.Context) (bool, error) {
	return m.open, nil
}

func newRegistrationFixture(open bool) (*RegistrationService, *mockRegistrationRepo, *mockSectionReader) {
	repo := &mockRegistrationRepo{sections: map[int64][]models.RegisteredSection{}}
	sections := &mockSectionReader{sections: map[int64]*models.Section{
		5: {
			ID: 5, CourseCode: "CS101", Days: "MON WED", TimeStart: "09:00", TimeEnd: "10:00",
			Room: "B12", Capacity: 30, Semester: "2025-1", State: models.SectionStateOpen,
		},
	}}
	svc := NewRegistrationService(repo, sections, &mockGate{open: open}, nil, nil, zap.NewNop())
	return svc, repo, sections
}

func TestRegisterResolvesCourseFromSection(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)

	err := svc.Register(context.Background(), RegisterRequest{StudentID: 2500001, SectionID: 5, Semester: "2025-1"})
	require.NoError(t, err)
	require.Len(t, repo.registered, 1)
	assert.Equal(t, models.Registration{
		StudentID: 2500001, SectionID: 5, CourseCode: "CS101", Semester: "2025-1",
	}, repo.registered[0])
}

func TestRegisterWindowClosed(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(false)

	err := svc.Register(context.Background(), RegisterRequest{StudentID: 2500001, SectionID: 5, Semester: "2025-1"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErr.Code)
	assert.Empty(t, repo.registered, "closed window must never reach the store")
}

func TestRegisterUnknownSection(t *testing.T) {
	svc, _, _ := newRegistrationFixture(true)

	err := svc.Register(context.Background(), RegisterRequest{StudentID: 2500001, SectionID: 404, Semester: "2025-1"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRegisterPropagatesTypedStoreErrors(t *testing.T) {
	for _, want := range []*appErrors.Error{
		appErrors.ErrSectionFull,
		appErrors.ErrSectionClosed,
		appErrors.ErrAlreadyRegistered,
		appErrors.ErrTimeConflict,
	} {
		svc, repo, _ := newRegistrationFixture(true)
		repo.registerErr = want

		err := svc.Register(context.Background(), RegisterRequest{StudentID: 2500001, SectionID: 5, Semester: "2025-1"})
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, want.Code, appErr.Code)
	}
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)

	err := svc.Register(context.Background(), RegisterRequest{StudentID: 0, SectionID: 5, Semester: ""})
	require.Error(t, err)
	assert.Empty(t, repo.registered)
}

func TestWithdrawReportsMatch(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)
	repo.withdrawn = 1

	removed, err := svc.Withdraw(context.Background(), 2500001, "CS101")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestWithdrawNothingMatched(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)
	repo.withdrawn = 0

	removed, err := svc.Withdraw(context.Background(), 2500001, "CS999")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestHasTimeConflict(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)
	repo.sections[2500001] = []models.RegisteredSection{
		{Section: models.Section{
			ID: 9, CourseCode: "MATH101", Days: "WED", TimeStart: "09:30", TimeEnd: "10:30", Semester: "2025-1",
		}, StudentID: 2500001},
	}

	conflict, err := svc.HasTimeConflict(context.Background(), 2500001, 5)
	require.NoError(t, err)
	assert.True(t, conflict, "WED 09:00-10:00 overlaps WED 09:30-10:30")
}

func TestHasTimeConflictDisjointDays(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(true)
	repo.sections[2500001] = []models.RegisteredSection{
		{Section: models.Section{
			ID: 9, CourseCode: "MATH101", Days: "TUE THU", TimeStart: "09:00", TimeEnd: "10:00", Semester: "2025-1",
		}, StudentID: 2500001},
	}

	conflict, err := svc.HasTimeConflict(context.Background(), 2500001, 5)
	require.NoError(t, err)
	assert.False(t, conflict)
}
