package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-core/registrar-api/internal/models"
)

// PlanRepository handles persistence of program plan entries.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// ListCourses returns plan entries joined with catalog rows. An empty
// program returns every program ordered by (program, level, code);
// otherwise rows are ordered by (level, code).
func (r *PlanRepository) ListCourses(ctx context.Context, program models.Program) ([]models.PlanCourse, error) {
	var courses []models.PlanCourse
	if program == "" {
		const query = `SELECT p.program, c.code, c.name, c.credits, p.level
        FROM program_plans p
        JOIN courses c ON p.course_code = c.code
        ORDER BY p.program, p.level, c.code`
		if err := r.db.SelectContext(ctx, &courses, query); err != nil {
			return nil, fmt.Errorf("list plan courses: %w", err)
		}
		return courses, nil
	}

	const query = `SELECT p.program, c.code, c.name, c.credits, p.level
        FROM program_plans p
        JOIN courses c ON p.course_code = c.code
        WHERE p.program = $1
        ORDER BY p.level, c.code`
	if err := r.db.SelectContext(ctx, &courses, query, program); err != nil {
		return nil, fmt.Errorf("list plan courses: %w", err)
	}
	return courses, nil
}

// Create adds a course to a program plan. Duplicate (program, course)
// pairs surface as unique violations.
func (r *PlanRepository) Create(ctx context.Context, entry *models.PlanEntry) error {
	const query = `INSERT INTO program_plans (program, course_code, level) VALUES (:program, :course_code, :level)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create plan entry: %w", err)
	}
	return nil
}

// UpdateLevel moves a plan entry to a different level. Returns false when
// the entry does not exist.
func (r *PlanRepository) UpdateLevel(ctx context.Context, program models.Program, courseCode string, level int) (bool, error) {
	const query = `UPDATE program_plans SET level = $1 WHERE program = $2 AND course_code = $3`
	res, err := r.db.ExecContext(ctx, query, level, program, courseCode)
	if err != nil {
		return false, fmt.Errorf("update plan entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update plan entry rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a course from a program plan. Returns false when nothing
// matched.
func (r *PlanRepository) Delete(ctx context.Context, program models.Program, courseCode string) (bool, error) {
	const query = `DELETE FROM program_plans WHERE program = $1 AND course_code = $2`
	res, err := r.db.ExecContext(ctx, query, program, courseCode)
	if err != nil {
		return false, fmt.Errorf("delete plan entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete plan entry rows: %w", err)
	}
	return affected > 0, nil
}
