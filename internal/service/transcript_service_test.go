package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type mockTranscriptRepo struct {
	entries   []models.TranscriptEntry
	finalized []models.TranscriptEntry
}

func (m *mockTranscriptRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	var out []models.TranscriptEntry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockTranscriptRepo) Create(ctx context.Context, entry *models.TranscriptEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockTranscriptRepo) UpdateGrade(ctx context.Context, studentID int64, courseCode, semester, grade string) (bool, error) {
	for i, e := range m.entries {
		if e.StudentID == studentID && e.CourseCode == courseCode && e.Semester == semester {
			m.entries[i].Grade = &grade
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTranscriptRepo) Finalize(ctx context.Context, entry models.TranscriptEntry) error {
	m.finalized = append(m.finalized, entry)
	return nil
}

func newTranscriptFixture() (*TranscriptService, *mockTranscriptRepo) {
	repo := &mockTranscriptRepo{}
	return NewTranscriptService(repo, nil, nil, zap.NewNop()), repo
}

func TestFinalizeGrade(t *testing.T) {
	svc, repo := newTranscriptFixture()

	err := svc.FinalizeGrade(context.Background(), GradeRequest{
		StudentID: 2500001, CourseCode: "CS101", Semester: "2025-1", Grade: "B+",
	})
	require.NoError(t, err)
	require.Len(t, repo.finalized, 1)
	entry := repo.finalized[0]
	assert.Equal(t, int64(2500001), entry.StudentID)
	require.NotNil(t, entry.Grade)
	assert.Equal(t, "B+", *entry.Grade)
}

func TestFinalizeGradeRejectsIncompletePayload(t *testing.T) {
	svc, repo := newTranscriptFixture()

	err := svc.FinalizeGrade(context.Background(), GradeRequest{StudentID: 2500001, CourseCode: "CS101"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.finalized)
}

func TestUpdateGradeUnknownEntry(t *testing.T) {
	svc, _ := newTranscriptFixture()

	err := svc.UpdateGrade(context.Background(), GradeRequest{
		StudentID: 2500001, CourseCode: "CS999", Semester: "2025-1", Grade: "A",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAddEntryAndGetTranscript(t *testing.T) {
	svc, _ := newTranscriptFixture()

	require.NoError(t, svc.AddEntry(context.Background(), models.TranscriptEntry{
		StudentID: 2500001, CourseCode: "CS101", Semester: "2024-2", Grade: grade("A"),
	}))

	entries, err := svc.GetTranscript(context.Background(), 2500001)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CS101", entries[0].CourseCode)
}
