package models

import "time"

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

// MatchResult is recorded from player 1's perspective.
type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
	ResultDraw MatchResult = "draw"
	ResultBye  MatchResult = "bye"
)

// BracketName identifies which bracket an elimination match belongs to.
type BracketName string

const (
	BracketWinners     BracketName = "winners"
	BracketLosers      BracketName = "losers"
	BracketGrandFinals BracketName = "grand_finals"
	BracketThirdPlace  BracketName = "third_place"
)

// Match is one pairing within a round. Player2ID == nil means a bye.
// Once Status is completed the counts and result are never rewritten;
// bracket advancement only touches the downstream match's player slots.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	TableNumber  *int        `json:"table_number,omitempty" db:"table_number"`
	Player1ID    int         `json:"player1_id" db:"player1_id"`
	Player2ID    *int        `json:"player2_id,omitempty" db:"player2_id"`
	Player1Wins  int         `json:"player1_wins" db:"player1_wins"`
	Player2Wins  int         `json:"player2_wins" db:"player2_wins"`
	Draws        int         `json:"draws" db:"draws"`
	Result       MatchResult `json:"result,omitempty" db:"result"`
	Status       MatchStatus `json:"status" db:"status"`
	StartTime    *time.Time  `json:"start_time,omitempty" db:"start_time"`
	EndTime      *time.Time  `json:"end_time,omitempty" db:"end_time"`

	// Elimination-only fields, NULL for swiss matches.
	Bracket          *BracketName `json:"bracket,omitempty" db:"bracket"`
	BracketPosition  *int         `json:"bracket_position,omitempty" db:"bracket_position"`
	WinnersNextMatch *int         `json:"winners_next_match,omitempty" db:"winners_next_match"`
	LosersNextMatch  *int         `json:"losers_next_match,omitempty" db:"losers_next_match"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsBye reports whether the match was an automatic win for player 1.
func (m *Match) IsBye() bool {
	return m.Player2ID == nil
}
