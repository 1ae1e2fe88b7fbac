package brackets

import (
	"fmt"
	"math/rand"

	"github.com/cardhall/tournament-engine/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// assignSlots places players into the slots of a full bracket of the given
// size. Seeded placement follows SeedPositions; unseeded placement shuffles
// the field first and then runs it through the same template, which keeps the
// empty slots (byes) spread across the bracket so two byes never pair up.
func assignSlots(playerIDs []int, size int, seeded bool) []*int {
	order := playerIDs
	if !seeded {
		order = make([]int, len(playerIDs))
		copy(order, playerIDs)
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	slots := make([]*int, size)
	for slot, seed := range SeedPositions(size) {
		if seed <= len(order) {
			id := order[seed-1]
			slots[slot] = &id
		}
	}
	return slots
}

// buildWinnersRounds creates the full winners-side skeleton: round 1 from the
// slot assignment with byes resolved as walkovers, later rounds as empty
// placeholders chained by position/2.
func buildWinnersRounds(slots []*int, rounds int) ([]*BracketMatch, map[string]*BracketMatch, error) {
	size := len(slots)
	matches := make([]*BracketMatch, 0, size-1)
	byUID := make(map[string]*BracketMatch, size-1)

	for r := 1; r <= rounds; r++ {
		count := size >> uint(r)
		for p := 0; p < count; p++ {
			bm := &BracketMatch{
				UID:      matchUID(models.BracketWinners, r, p),
				Bracket:  models.BracketWinners,
				Round:    r,
				Position: p,
			}
			if r < rounds {
				next := matchUID(models.BracketWinners, r+1, p/2)
				bm.WinnerTo = &next
			}
			matches = append(matches, bm)
			byUID[bm.UID] = bm
		}
	}

	for p := 0; p < size/2; p++ {
		bm := byUID[matchUID(models.BracketWinners, 1, p)]
		s1, s2 := slots[2*p], slots[2*p+1]

		switch {
		case s1 != nil && s2 != nil:
			bm.Player1ID, bm.Player2ID = s1, s2
		case s1 != nil:
			bm.Player1ID = s1
			bm.IsBye = true
			placeWinner(byUID, bm, *s1)
		case s2 != nil:
			bm.Player1ID = s2
			bm.IsBye = true
			placeWinner(byUID, bm, *s2)
		default:
			return nil, nil, fmt.Errorf("round 1 match %d has no players; slot assignment is broken", p)
		}
	}

	return matches, byUID, nil
}

// placeWinner writes a known winner into the downstream match's slot, used
// when round-one byes resolve at generation time.
func placeWinner(byUID map[string]*BracketMatch, src *BracketMatch, winnerID int) {
	if src.WinnerTo == nil {
		return
	}
	target := byUID[*src.WinnerTo]
	id := winnerID
	if src.Position%2 == 0 {
		target.Player1ID = &id
	} else {
		target.Player2ID = &id
	}
}

func (g *SingleEliminationGenerator) GenerateBracket(params GenerateBracketParams) ([]*BracketMatch, error) {
	n := len(params.PlayerIDs)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	size := NextPowerOfTwo(n)
	rounds := 0
	for 1<<uint(rounds) < size {
		rounds++
	}

	slots := assignSlots(params.PlayerIDs, size, params.Config.Seeded)
	matches, byUID, err := buildWinnersRounds(slots, rounds)
	if err != nil {
		return nil, err
	}

	// The third-place match has no pre-assigned feeders beyond the loser
	// links; advancement fills it from the semifinal losers.
	if params.Config.ThirdPlaceMatch && rounds >= 2 {
		tp := &BracketMatch{
			UID:      matchUID(models.BracketThirdPlace, rounds, 0),
			Bracket:  models.BracketThirdPlace,
			Round:    rounds,
			Position: 0,
		}
		for p := 0; p < 2; p++ {
			semi := byUID[matchUID(models.BracketWinners, rounds-1, p)]
			uid := tp.UID
			semi.LoserTo = &uid
		}
		matches = append(matches, tp)
	}

	return matches, nil
}
