package models

import "time"

// UserRole represents the account type. The column is named "state" in the
// persisted schema.
type UserRole string

// Possible user roles.
const (
	RoleAdmin      UserRole = "admin"
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
)

// AccountStatus gates whether an account can log in and register.
type AccountStatus string

// Possible account statuses. Students start inactive pending admin
// approval; staff accounts start active.
const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// User is any account in the system: admin, student, or instructor.
// Program is nil for non-students.
type User struct {
	ID            int64         `db:"user_id" json:"user_id"`
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	Program       *Program      `db:"program" json:"program,omitempty"`
	PasswordHash  string        `db:"password_h" json:"-"`
	Role          UserRole      `db:"state" json:"role"`
	AccountStatus AccountStatus `db:"account_status" json:"account_status"`
}

// LoginRecord tracks a user's last successful login.
type LoginRecord struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	LastLogin time.Time `db:"last_login" json:"last_login"`
}
