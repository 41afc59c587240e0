package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/schedule"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

// RegistrationRepository handles registrations and owns the only code path
// that mutates section enrolled counters.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns registrations matching the filter. Zero filter values are
// ignored.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	query := `SELECT student_id, section_id, course_code, semester FROM registrations`
	var conditions []string
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY student_id, course_code"

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// IsRegistered reports whether the student holds a registration in the
// section, optionally narrowed to a semester.
func (r *RegistrationRepository) IsRegistered(ctx context.Context, studentID, sectionID int64, semester string) (bool, error) {
	query := `SELECT 1 FROM registrations WHERE student_id = $1 AND section_id = $2`
	args := []interface{}{studentID, sectionID}
	if semester != "" {
		query += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, semester)
	}
	query += " LIMIT 1"

	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// ListStudentSections returns the sections a student is registered in,
// optionally narrowed to a semester.
func (r *RegistrationRepository) ListStudentSections(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error) {
	query := `SELECT s.section_id, s.course_code, s.instructor_id, s.days, s.time_start, s.time_end,
        s.room, s.capacity, s.enrolled, s.semester, s.state, r.student_id
        FROM registrations r
        JOIN sections s ON s.section_id = r.section_id
        WHERE r.student_id = $1`
	args := []interface{}{studentID}
	if semester != "" {
		query += fmt.Sprintf(" AND r.semester = $%d", len(args)+1)
		args = append(args, semester)
	}
	query += " ORDER BY s.course_code, s.section_id"

	var sections []models.RegisteredSection
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list student sections: %w", err)
	}
	return sections, nil
}

// Register validates and commits a registration as one transaction. The
// section row is locked for the duration so the capacity check and the
// enrolled increment cannot interleave with a concurrent registrant; the
// conditional update is the final guard either way. Precondition failures
// come back as the typed domain errors, each leaving the store untouched.
func (r *RegistrationRepository) Register(ctx context.Context, reg models.Registration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var section models.Section
	sectionQuery := `SELECT ` + sectionColumns + ` FROM sections WHERE section_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &section, sectionQuery, reg.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return fmt.Errorf("load section: %w", err)
	}

	if section.State == models.SectionStateClosed {
		return appErrors.ErrSectionClosed
	}
	if section.Capacity > 0 && section.Enrolled >= section.Capacity {
		return appErrors.ErrSectionFull
	}

	var exists int
	err = tx.GetContext(ctx, &exists,
		`SELECT 1 FROM registrations WHERE student_id = $1 AND course_code = $2 AND semester = $3 LIMIT 1`,
		reg.StudentID, reg.CourseCode, reg.Semester)
	if err == nil {
		return appErrors.ErrAlreadyRegistered
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check duplicate registration: %w", err)
	}

	// Re-validate the time conflict inside the transaction; the UI screen
	// may be stale by commit time.
	current, err := r.listMeetingsTx(ctx, tx, reg.StudentID, reg.Semester)
	if err != nil {
		return err
	}
	candidate := schedule.Meeting{Days: section.Days, TimeStart: section.TimeStart, TimeEnd: section.TimeEnd}
	if schedule.AnyOverlap(candidate, current) {
		return appErrors.ErrTimeConflict
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE sections SET enrolled = enrolled + 1
        WHERE section_id = $1 AND state = 'open' AND (capacity = 0 OR enrolled < capacity)`,
		reg.SectionID)
	if err != nil {
		return fmt.Errorf("increment enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment enrollment rows: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrSectionFull
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO registrations (student_id, section_id, course_code, semester)
        VALUES (:student_id, :section_id, :course_code, :semester)`, reg); err != nil {
		if IsUniqueViolation(err) {
			return appErrors.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// Withdraw deletes the student's registration rows for the course and
// decrements each affected section's enrolled counter, clamped at zero.
// It returns the number of registrations removed; zero means nothing
// matched. The primary key guarantees at most one row, so a count above
// one is drift the caller should surface.
func (r *RegistrationRepository) Withdraw(ctx context.Context, studentID int64, courseCode string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin withdrawal: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var sectionIDs []int64
	if err := tx.SelectContext(ctx, &sectionIDs,
		`SELECT section_id FROM registrations WHERE student_id = $1 AND course_code = $2 FOR UPDATE`,
		studentID, courseCode); err != nil {
		return 0, fmt.Errorf("find registrations: %w", err)
	}
	if len(sectionIDs) == 0 {
		return 0, nil
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM registrations WHERE student_id = $1 AND course_code = $2`,
		studentID, courseCode)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete registrations rows: %w", err)
	}
	if deleted == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sections SET enrolled = GREATEST(enrolled - 1, 0) WHERE section_id = ANY($1)`,
		pq.Array(sectionIDs)); err != nil {
		return 0, fmt.Errorf("decrement enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit withdrawal: %w", err)
	}
	return int(deleted), nil
}

func (r *RegistrationRepository) listMeetingsTx(ctx context.Context, tx *sqlx.Tx, studentID int64, semester string) ([]schedule.Meeting, error) {
	var rows []struct {
		Days      string `db:"days"`
		TimeStart string `db:"time_start"`
		TimeEnd   string `db:"time_end"`
	}
	if err := tx.SelectContext(ctx, &rows,
		`SELECT s.days, s.time_start, s.time_end
        FROM registrations r
        JOIN sections s ON s.section_id = r.section_id
        WHERE r.student_id = $1 AND r.semester = $2`,
		studentID, semester); err != nil {
		return nil, fmt.Errorf("list registered meetings: %w", err)
	}

	meetings := make([]schedule.Meeting, len(rows))
	for i, row := range rows {
		meetings[i] = schedule.Meeting{Days: row.Days, TimeStart: row.TimeStart, TimeEnd: row.TimeEnd}
	}
	return meetings, nil
}
