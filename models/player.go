package models

import "time"

// Player is a registered competitor. Players exist independently of any
// tournament; enrollment is tracked by the tournament_players table.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	DCINumber *string   `json:"dci_number,omitempty" db:"dci_number"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
