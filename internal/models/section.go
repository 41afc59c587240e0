package models

// SectionState represents whether a section accepts registrations.
type SectionState string

// Possible section states.
const (
	SectionStateOpen   SectionState = "open"
	SectionStateClosed SectionState = "closed"
)

// Section is one scheduled offering of a course in a semester.
// Enrolled is mutated only through the registration transaction; admin
// edits never touch it. Capacity 0 means unlimited seats.
type Section struct {
	ID           int64        `db:"section_id" json:"section_id"`
	CourseCode   string       `db:"course_code" json:"course_code"`
	InstructorID *int64       `db:"instructor_id" json:"instructor_id,omitempty"`
	Days         string       `db:"days" json:"days"`
	TimeStart    string       `db:"time_start" json:"time_start"`
	TimeEnd      string       `db:"time_end" json:"time_end"`
	Room         string       `db:"room" json:"room"`
	Capacity     int          `db:"capacity" json:"capacity"`
	Enrolled     int          `db:"enrolled" json:"enrolled"`
	Semester     string       `db:"semester" json:"semester"`
	State        SectionState `db:"state" json:"state"`
}

// SectionFilter narrows section listings.
type SectionFilter struct {
	CourseCode string
	Semester   string
}

// SectionUpdate carries partial-update fields; nil means leave unchanged.
// Enrolled is deliberately absent.
type SectionUpdate struct {
	InstructorID *int64        `json:"instructor_id,omitempty"`
	Days         *string       `json:"days,omitempty"`
	TimeStart    *string       `json:"time_start,omitempty"`
	TimeEnd      *string       `json:"time_end,omitempty"`
	Room         *string       `json:"room,omitempty"`
	Capacity     *int          `json:"capacity,omitempty"`
	Semester     *string       `json:"semester,omitempty"`
	State        *SectionState `json:"state,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u SectionUpdate) Empty() bool {
	return u.InstructorID == nil && u.Days == nil && u.TimeStart == nil &&
		u.TimeEnd == nil && u.Room == nil && u.Capacity == nil &&
		u.Semester == nil && u.State == nil
}
