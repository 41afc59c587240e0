package models

// Program enumerates the degree programs offered.
type Program string

// Supported degree programs.
const (
	ProgramPWM  Program = "PWM"
	ProgramBIO  Program = "BIO"
	ProgramCOMM Program = "COMM"
	ProgramCOMP Program = "COMP"
)

// Valid reports whether p is one of the known programs.
func (p Program) Valid() bool {
	switch p {
	case ProgramPWM, ProgramBIO, ProgramCOMM, ProgramCOMP:
		return true
	}
	return false
}

// PlanEntry assigns a course to a program plan at a given level.
type PlanEntry struct {
	Program    Program `db:"program" json:"program"`
	CourseCode string  `db:"course_code" json:"course_code"`
	Level      int     `db:"level" json:"level"`
}

// PlanCourse is a plan entry joined with its catalog row, the shape the
// plan listing endpoints return.
type PlanCourse struct {
	Program Program `db:"program" json:"program"`
	Code    string  `db:"code" json:"code"`
	Name    string  `db:"name" json:"name"`
	Credits int     `db:"credits" json:"credits"`
	Level   int     `db:"level" json:"level"`
}
