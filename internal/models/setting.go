package models

// Setting is a process-wide key/value flag.
type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// SettingRegistrationOpen gates all registration and withdrawal
// operations, independent of individual section state.
const SettingRegistrationOpen = "registration_open"
