package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-core/registrar-api/internal/models"
)

// TranscriptRepository handles persistence of transcript entries.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository constructs the repository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// ListByStudent returns a student's transcript ordered by semester and
// course.
func (r *TranscriptRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	const query = `SELECT student_id, course_code, semester, grade
        FROM transcripts WHERE student_id = $1
        ORDER BY semester, course_code`
	var entries []models.TranscriptEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	return entries, nil
}

// Create persists a new transcript entry. A duplicate
// (student, course, semester) surfaces as a unique violation.
func (r *TranscriptRepository) Create(ctx context.Context, entry *models.TranscriptEntry) error {
	const query = `INSERT INTO transcripts (student_id, course_code, semester, grade)
        VALUES (:student_id, :course_code, :semester, :grade)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create transcript entry: %w", err)
	}
	return nil
}

// UpdateGrade changes only the grade of one transcript entry. Returns
// false when the entry does not exist.
func (r *TranscriptRepository) UpdateGrade(ctx context.Context, studentID int64, courseCode, semester, grade string) (bool, error) {
	const query = `UPDATE transcripts SET grade = $1
        WHERE student_id = $2 AND course_code = $3 AND semester = $4`
	res, err := r.db.ExecContext(ctx, query, grade, studentID, courseCode, semester)
	if err != nil {
		return false, fmt.Errorf("update transcript grade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update transcript grade rows: %w", err)
	}
	return affected > 0, nil
}

// Finalize records a grade and removes the matching registration in one
// transaction, so a course is never simultaneously registered and
// transcripted for the same semester. The transcript entry is upserted on
// its primary key; enrolled counters are decremented with a floor of zero.
func (r *TranscriptRepository) Finalize(ctx context.Context, entry models.TranscriptEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade finalization: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO transcripts (student_id, course_code, semester, grade)
        VALUES (:student_id, :course_code, :semester, :grade)
        ON CONFLICT (student_id, course_code, semester) DO UPDATE SET grade = EXCLUDED.grade`,
		entry); err != nil {
		return fmt.Errorf("upsert transcript entry: %w", err)
	}

	var sectionIDs []int64
	if err := tx.SelectContext(ctx, &sectionIDs,
		`SELECT section_id FROM registrations
        WHERE student_id = $1 AND course_code = $2 AND semester = $3 FOR UPDATE`,
		entry.StudentID, entry.CourseCode, entry.Semester); err != nil {
		return fmt.Errorf("find graded registrations: %w", err)
	}

	if len(sectionIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM registrations WHERE student_id = $1 AND course_code = $2 AND semester = $3`,
			entry.StudentID, entry.CourseCode, entry.Semester); err != nil {
			return fmt.Errorf("delete graded registrations: %w", err)
		}
		for _, sectionID := range sectionIDs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE sections SET enrolled = GREATEST(enrolled - 1, 0) WHERE section_id = $1`,
				sectionID); err != nil {
				return fmt.Errorf("decrement graded enrollment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade finalization: %w", err)
	}
	return nil
}
