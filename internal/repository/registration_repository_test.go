package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sectionRows(capacity, enrolled int, state string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"section_id", "course_code", "instructor_id", "days", "time_start", "time_end",
		"room", "capacity", "enrolled", "semester", "state",
	}).AddRow(int64(5), "CS101", nil, "MON", "09:00", "10:00", "B1", capacity, enrolled, "2025-1", state)
}

func emptyMeetingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"days", "time_start", "time_end"})
}

func TestRegistrationRepositoryRegisterCommitsAtomically(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE section_id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sectionRows(30, 12, "open"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registrations WHERE student_id = $1 AND course_code = $2 AND semester = $3 LIMIT 1")).
		WithArgs(int64(2500001), "CS101", "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.days, s.time_start, s.time_end")).
		WithArgs(int64(2500001), "2025-1").
		WillReturnRows(emptyMeetingRows())
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET enrolled = enrolled + 1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WithArgs(int64(2500001), int64(5), "CS101", "2025-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Register(context.Background(), models.Registration{
		StudentID: 2500001, SectionID: 5, CourseCode: "CS101", Semester: "2025-1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterSectionNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"section_id", "course_code", "instructor_id", "days", "time_start", "time_end",
			"room", "capacity", "enrolled", "semester", "state",
		}))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 99, CourseCode: "CS101", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterClosedSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sectionRows(30, 12, "closed"))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 5, CourseCode: "CS101", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrSectionClosed))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterFullSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sectionRows(1, 1, "open"))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 5, CourseCode: "CS101", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrSectionFull))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterConditionalUpdateGuards(t *testing.T) {
	// The locked read passes but the conditional update reports zero rows;
	// the transaction must abort with SectionFull and write nothing.
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sectionRows(10, 9, "open"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registrations")).
		WithArgs(int64(1), "CS101", "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.days, s.time_start, s.time_end")).
		WithArgs(int64(1), "2025-1").
		WillReturnRows(emptyMeetingRows())
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET enrolled = enrolled + 1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 5, CourseCode: "CS101", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrSectionFull))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sectionRows(30, 3, "open"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registrations")).
		WithArgs(int64(1), "CS101", "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 7, CourseCode: "CS101", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrAlreadyRegistered))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRegisterTimeConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sectionRows(30, 3, "open"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM registrations")).
		WithArgs(int64(1), "MATH201", "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.days, s.time_start, s.time_end")).
		WithArgs(int64(1), "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"days", "time_start", "time_end"}).
			AddRow("MON", "09:30", "10:30"))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), models.Registration{StudentID: 1, SectionID: 5, CourseCode: "MATH201", Semester: "2025-1"})
	require.True(t, appErrors.Is(err, appErrors.ErrTimeConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryWithdraw(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT section_id FROM registrations WHERE student_id = $1 AND course_code = $2 FOR UPDATE")).
		WithArgs(int64(1), "CS101").
		WillReturnRows(sqlmock.NewRows([]string{"section_id"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE student_id = $1 AND course_code = $2")).
		WithArgs(int64(1), "CS101").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET enrolled = GREATEST(enrolled - 1, 0)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Withdraw(context.Background(), 1, "CS101")
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryWithdrawNothingMatched(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT section_id FROM registrations")).
		WithArgs(int64(1), "CS999").
		WillReturnRows(sqlmock.NewRows([]string{"section_id"}))
	mock.ExpectRollback()

	removed, err := repo.Withdraw(context.Background(), 1, "CS999")
	require.NoError(t, err)
	require.Zero(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
