package models

import "time"

// TournamentStatus represents tournament lifecycle states matching the ENUM in the DB.
type TournamentStatus string

const (
	TournamentPlanned   TournamentStatus = "planned"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// TournamentStructure selects the pairing engine used for the event.
type TournamentStructure string

const (
	StructureSwiss             TournamentStructure = "swiss"
	StructureSingleElimination TournamentStructure = "single_elimination"
	StructureDoubleElimination TournamentStructure = "double_elimination"
)

// GrandFinalsReset forces a second grand-finals match when the losers-bracket
// finalist wins the first one.
const GrandFinalsReset = "reset"

// StructureConfig holds structure-specific knobs, stored as a JSON column.
type StructureConfig struct {
	UseSeedsForByes     bool   `json:"use_seeds_for_byes,omitempty"`
	Seeded              bool   `json:"seeded,omitempty"`
	ThirdPlaceMatch     bool   `json:"third_place_match,omitempty"`
	GrandFinalsModifier string `json:"grand_finals_modifier,omitempty"`
}

type Tournament struct {
	ID           int                 `json:"id" db:"id"`
	Name         string              `json:"name" db:"name"`
	Format       string              `json:"format" db:"format"`
	Structure    TournamentStructure `json:"structure" db:"structure"`
	Date         time.Time           `json:"date" db:"date"`
	Location     *string             `json:"location,omitempty" db:"location"`
	Status       TournamentStatus    `json:"status" db:"status"`
	Rounds       int                 `json:"rounds" db:"rounds"`
	CurrentRound int                 `json:"current_round" db:"current_round"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`

	StructureConfig StructureConfig `json:"structure_config" db:"structure_config"`

	// Registered player IDs, loaded separately from tournament_players.
	PlayerIDs []int `json:"players,omitempty" db:"-"`
}

// IsElimination reports whether results must be propagated through a bracket.
func (t *Tournament) IsElimination() bool {
	return t.Structure == StructureSingleElimination || t.Structure == StructureDoubleElimination
}
