package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/bits"
	"time"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/models"
)

// roundMatches materializes Swiss pairings into match rows for one round.
// Tables are numbered sequentially over the pairing order, the bye included,
// and the bye row is created already completed 2-0.
func roundMatches(tournamentID, round int, pairings []brackets.Pairing, now time.Time) []*models.Match {
	matches := make([]*models.Match, 0, len(pairings))
	for i, pairing := range pairings {
		match := &models.Match{
			TournamentID: tournamentID,
			Round:        round,
			TableNumber:  intPtr(i + 1),
			Player1ID:    pairing[0],
			Status:       models.MatchPending,
		}
		if len(pairing) == 2 {
			match.Player2ID = intPtr(pairing[1])
		} else {
			match.Player1Wins = byeGamePoints
			match.Result = models.ResultBye
			match.Status = models.MatchCompleted
			match.EndTime = &now
		}
		matches = append(matches, match)
	}
	return matches
}

// swissRoundCount is the recommended round count for n players:
// ceil(log2(n)) with a floor of three rounds.
func swissRoundCount(n int) int {
	if n <= 1 {
		return 3
	}
	r := bits.Len(uint(n - 1))
	if r < 3 {
		return 3
	}
	return r
}

// eliminationRoundCount is the winners-bracket depth for n players.
func eliminationRoundCount(n int) int {
	if n <= 1 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// runInTransaction wraps fn in a transaction, rolling back on error or panic.
func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
