package models

// Registration binds a student to exactly one section of a course for a
// semester. The primary key is (student_id, course_code, semester).
type Registration struct {
	StudentID  int64  `db:"student_id" json:"student_id"`
	SectionID  int64  `db:"section_id" json:"section_id"`
	CourseCode string `db:"course_code" json:"course_code"`
	Semester   string `db:"semester" json:"semester"`
}

// RegistrationFilter narrows registration listings. Zero values are
// ignored.
type RegistrationFilter struct {
	StudentID  int64
	CourseCode string
	Semester   string
}

// RegisteredSection is a registration joined with its section row, used
// for schedule views and conflict screening.
type RegisteredSection struct {
	Section
	StudentID int64 `db:"student_id" json:"student_id"`
}
