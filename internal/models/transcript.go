package models

// TranscriptEntry is a finalized historical record for a course taken in a
// semester. A nil grade means the entry is still in progress.
type TranscriptEntry struct {
	StudentID  int64   `db:"student_id" json:"student_id"`
	CourseCode string  `db:"course_code" json:"course_code"`
	Semester   string  `db:"semester" json:"semester"`
	Grade      *string `db:"grade" json:"grade,omitempty"`
}
