package models

// Standing is the per-(tournament, player) score sheet. Counters are
// incremented as results come in; the percentage columns and rank are
// recomputed wholesale after every completed match and never hand-edited.
// Invariant: MatchPoints == 3*wins + draws, a bye counting as a win.
type Standing struct {
	ID                          int     `json:"id" db:"id"`
	TournamentID                int     `json:"tournament_id" db:"tournament_id"`
	PlayerID                    int     `json:"player_id" db:"player_id"`
	MatchesPlayed               int     `json:"matches_played" db:"matches_played"`
	MatchPoints                 int     `json:"match_points" db:"match_points"`
	GamePoints                  int     `json:"game_points" db:"game_points"`
	MatchWinPercentage          float64 `json:"match_win_percentage" db:"match_win_percentage"`
	GameWinPercentage           float64 `json:"game_win_percentage" db:"game_win_percentage"`
	OpponentsMatchWinPercentage float64 `json:"opponents_match_win_percentage" db:"opponents_match_win_percentage"`
	OpponentsGameWinPercentage  float64 `json:"opponents_game_win_percentage" db:"opponents_game_win_percentage"`
	Rank                        *int    `json:"rank,omitempty" db:"rank"`
	Active                      bool    `json:"active" db:"active"`

	// Populated by the service layer for standings views, not a DB column.
	PlayerName *string `json:"player_name,omitempty" db:"-"`
}
