package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campus-core/registrar-api/internal/models"
)

func TestCourseRepositoryListOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"code", "name", "credits"}).
		AddRow("CS101", "Intro to Computing", 3).
		AddRow("MATH101", "Calculus 1", 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, name, credits FROM courses ORDER BY code")).
		WillReturnRows(rows)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "CS101", courses[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WithArgs("CS101", "Intro to Computing", 3).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Course{Code: "CS101", Name: "Intro to Computing", Credits: 3})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListPrerequisites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT prereq_code FROM requires WHERE course_code = $1 ORDER BY prereq_code")).
		WithArgs("MATH201").
		WillReturnRows(sqlmock.NewRows([]string{"prereq_code"}).AddRow("MATH101"))

	prereqs, err := repo.ListPrerequisites(context.Background(), "MATH201")
	require.NoError(t, err)
	require.Equal(t, []string{"MATH101"}, prereqs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(nil))
}
