package brackets

import (
	"errors"
	"fmt"

	"github.com/cardhall/tournament-engine/models"
)

var ErrNotEnoughPlayers = errors.New("not enough players to generate a bracket (minimum 2)")

// BracketMatch is the in-memory description of one slot of a generated
// bracket. Generators link matches positionally through UIDs; the bracket
// service resolves those to database match IDs when it persists the bracket.
type BracketMatch struct {
	UID      string
	Bracket  models.BracketName
	Round    int
	Position int

	Player1ID *int
	Player2ID *int

	// IsBye marks a round-one walkover: Player1ID advances 2-0 with no
	// elapsed match.
	IsBye bool

	// WinnerTo / LoserTo name the UID of the match that receives this
	// match's winner / loser, nil at the end of a chain.
	WinnerTo *string
	LoserTo  *string
}

type GenerateBracketParams struct {
	PlayerIDs []int
	Config    models.StructureConfig
}

type BracketGenerator interface {
	GenerateBracket(params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

func matchUID(bracket models.BracketName, round, position int) string {
	return fmt.Sprintf("%s-r%d-p%d", bracket, round, position)
}

// AdvanceSlot decides which player slot (1 or 2) of target receives the
// player routed out of source. winner distinguishes the two routes out of a
// match; both can point at the same target (a two-player double elimination
// sends the winners final's winner and loser straight to the grand finals).
//
// The default rule derives the slot from the source position's parity, so the
// sibling pair feeding a match lands on opposite sides without an explicit
// left/right flag. Losers-bracket hops override it: winners-bracket droppers
// from round two onward always take slot 2, and odd losers rounds feed slot 1
// of the following minor round.
func AdvanceSlot(source, target *models.Match, winner bool) int {
	srcBracket := models.BracketWinners
	if source.Bracket != nil {
		srcBracket = *source.Bracket
	}
	tgtBracket := models.BracketWinners
	if target.Bracket != nil {
		tgtBracket = *target.Bracket
	}
	pos := 0
	if source.BracketPosition != nil {
		pos = *source.BracketPosition
	}

	switch {
	case tgtBracket == models.BracketGrandFinals:
		if srcBracket == models.BracketLosers || !winner {
			return 2
		}
		return 1
	case srcBracket == models.BracketWinners && tgtBracket == models.BracketLosers:
		if source.Round == 1 {
			return 1 + pos%2
		}
		return 2
	case srcBracket == models.BracketLosers && tgtBracket == models.BracketLosers:
		if source.Round%2 == 1 {
			return 1
		}
		return 1 + pos%2
	default:
		return 1 + pos%2
	}
}

// SlotReachable reports whether the given empty slot of target can still be
// filled by some upstream match in all. When it cannot (its only feeders were
// byes), the match must be resolved as a walkover instead of waiting forever.
func SlotReachable(target *models.Match, slot int, all []*models.Match) bool {
	memo := make(map[int]int)
	for _, m := range all {
		if m.ID == target.ID {
			continue
		}
		if m.WinnersNextMatch != nil && *m.WinnersNextMatch == target.ID &&
			AdvanceSlot(m, target, true) == slot && eventualEntrants(m, all, memo) >= 1 {
			return true
		}
		if m.LosersNextMatch != nil && *m.LosersNextMatch == target.ID &&
			AdvanceSlot(m, target, false) == slot && eventualEntrants(m, all, memo) >= 2 {
			return true
		}
	}
	return false
}

func slotFilled(m *models.Match, slot int) bool {
	if slot == 1 {
		return m.Player1ID != 0
	}
	return m.Player2ID != nil
}

// eventualEntrants counts how many players can ever sit in m: currently
// filled slots plus empty slots that some upstream match can still feed.
// Completed matches are counted as-is.
func eventualEntrants(m *models.Match, all []*models.Match, memo map[int]int) int {
	if n, ok := memo[m.ID]; ok {
		return n
	}
	memo[m.ID] = 0

	n := 0
	for slot := 1; slot <= 2; slot++ {
		if slotFilled(m, slot) {
			n++
			continue
		}
		if m.Status == models.MatchCompleted {
			continue
		}
		for _, f := range all {
			if f.ID == m.ID {
				continue
			}
			if f.WinnersNextMatch != nil && *f.WinnersNextMatch == m.ID &&
				AdvanceSlot(f, m, true) == slot && eventualEntrants(f, all, memo) >= 1 {
				n++
				break
			}
			if f.LosersNextMatch != nil && *f.LosersNextMatch == m.ID &&
				AdvanceSlot(f, m, false) == slot && eventualEntrants(f, all, memo) >= 2 {
				n++
				break
			}
		}
	}
	memo[m.ID] = n
	return n
}
