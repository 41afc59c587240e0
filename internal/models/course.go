package models

// Course is a catalog entry identified by its course code.
type Course struct {
	Code    string `db:"code" json:"code"`
	Name    string `db:"name" json:"name"`
	Credits int    `db:"credits" json:"credits"`
}

// Prerequisite is a directed edge in the catalog: taking Course requires
// having completed Prereq first.
type Prerequisite struct {
	CourseCode string `db:"course_code" json:"course_code"`
	PrereqCode string `db:"prereq_code" json:"prereq_code"`
}
