package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campus-core/registrar-api/internal/models"
)

const sectionColumns = `section_id, course_code, instructor_id, days, time_start, time_end, room, capacity, enrolled, semester, state`

// SectionRepository handles persistence of sections. The enrolled counter
// is never written here; only the registration transaction mutates it.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create persists a new section with enrolled initialized to zero. The
// generated id is written back into section.ID.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	const query = `INSERT INTO sections (course_code, instructor_id, days, time_start, time_end, room, capacity, enrolled, semester, state)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
        RETURNING section_id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		section.CourseCode,
		section.InstructorID,
		section.Days,
		section.TimeStart,
		section.TimeEnd,
		section.Room,
		section.Capacity,
		section.Semester,
		section.State,
	)
	if err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	section.ID = id
	section.Enrolled = 0
	return nil
}

// List returns sections matching the filter, ordered by
// (course_code, section_id).
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections`
	var conditions []string
	var args []interface{}

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
	query += " ORDER BY course_code, section_id"

	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a section by its id.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE section_id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Update changes only the fields provided in the update. It never touches
// enrolled. Returns false when the section does not exist.
func (r *SectionRepository) Update(ctx context.Context, id int64, update models.SectionUpdate) (bool, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if update.InstructorID != nil {
		add("instructor_id", *update.InstructorID)
	}
	if update.Days != nil {
		add("days", *update.Days)
	}
	if update.TimeStart != nil {
		add("time_start", *update.TimeStart)
	}
	if update.TimeEnd != nil {
		add("time_end", *update.TimeEnd)
	}
	if update.Room != nil {
		add("room", *update.Room)
	}
	if update.Capacity != nil {
		add("capacity", *update.Capacity)
	}
	if update.Semester != nil {
		add("semester", *update.Semester)
	}
	if update.State != nil {
		add("state", *update.State)
	}
	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE sections SET %s WHERE section_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update section rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a section by id. Returns false when nothing matched.
func (r *SectionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE section_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete section rows: %w", err)
	}
	return affected > 0, nil
}
