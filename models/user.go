package models

import "time"

type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

// User is an organizer account. Players are tracked separately; a user is
// whoever runs tournaments through the API.
type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
