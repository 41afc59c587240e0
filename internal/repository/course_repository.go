package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campus-core/registrar-api/internal/models"
)

// CourseRepository handles persistence of courses and their prerequisite
// edges.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT code, name, credits FROM courses ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode returns a course by its code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT code, name, credits FROM courses WHERE code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course. A duplicate code surfaces as a unique
// violation which the caller maps to DuplicateKey.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (code, name, credits) VALUES (:code, :name, :credits)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update changes only the provided course fields. Returns false when the
// code does not exist.
func (r *CourseRepository) Update(ctx context.Context, code string, newCode, newName *string, newCredits *int) (bool, error) {
	var sets []string
	var args []interface{}

	if newCode != nil {
		sets = append(sets, fmt.Sprintf("code = $%d", len(args)+1))
		args = append(args, *newCode)
	}
	if newName != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)+1))
		args = append(args, *newName)
	}
	if newCredits != nil {
		sets = append(sets, fmt.Sprintf("credits = $%d", len(args)+1))
		args = append(args, *newCredits)
	}
	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, code)
	query := fmt.Sprintf("UPDATE courses SET %s WHERE code = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update course rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a course by code. Prerequisite edges and plan entries
// cascade at the store level. Returns false when nothing matched.
func (r *CourseRepository) Delete(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows: %w", err)
	}
	return affected > 0, nil
}

// ListPrerequisites returns the prerequisite course codes for a course,
// ordered by code.
func (r *CourseRepository) ListPrerequisites(ctx context.Context, courseCode string) ([]string, error) {
	const query = `SELECT prereq_code FROM requires WHERE course_code = $1 ORDER BY prereq_code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, courseCode); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return codes, nil
}

// AddPrerequisite inserts a prerequisite edge.
func (r *CourseRepository) AddPrerequisite(ctx context.Context, courseCode, prereqCode string) error {
	const query = `INSERT INTO requires (course_code, prereq_code) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, courseCode, prereqCode); err != nil {
		return fmt.Errorf("add prerequisite: %w", err)
	}
	return nil
}

// UpdatePrerequisite swaps one prerequisite edge for another.
func (r *CourseRepository) UpdatePrerequisite(ctx context.Context, courseCode, oldPrereq, newPrereq string) (bool, error) {
	const query = `UPDATE requires SET prereq_code = $1 WHERE course_code = $2 AND prereq_code = $3`
	res, err := r.db.ExecContext(ctx, query, newPrereq, courseCode, oldPrereq)
	if err != nil {
		return false, fmt.Errorf("update prerequisite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update prerequisite rows: %w", err)
	}
	return affected > 0, nil
}

// DeletePrerequisite removes a prerequisite edge. Returns false when
// nothing matched.
func (r *CourseRepository) DeletePrerequisite(ctx context.Context, courseCode, prereqCode string) (bool, error) {
	const query = `DELETE FROM requires WHERE course_code = $1 AND prereq_code = $2`
	res, err := r.db.ExecContext(ctx, query, courseCode, prereqCode)
	if err != nil {
		return false, fmt.Errorf("delete prerequisite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete prerequisite rows: %w", err)
	}
	return affected > 0, nil
}
