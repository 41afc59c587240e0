package models

// EligibilityResult describes one plan course a student has not yet
// completed or registered, with the prerequisite verdict. Recomputed on
// every request; never persisted.
type EligibilityResult struct {
	CourseCode     string   `json:"course_code"`
	CourseName     string   `json:"course_name"`
	Credits        int      `json:"credits"`
	Prereqs        []string `json:"prereqs"`
	MissingPrereqs []string `json:"missing_prereqs"`
	CanRegister    bool     `json:"can_register"`
}
