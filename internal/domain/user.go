package domain

import "time"

// User is the directory record for an account that can log in and act on
// workflows. Email doubles as the login name. CreatedBy is nil only for the
// seed admin created at bootstrap.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	CreatedBy    *string
}
