package brackets

import (
	"github.com/cardhall/tournament-engine/models"
)

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket builds a winners bracket, a losers bracket and the grand
// finals. The losers mapping is the simplified positional scheme: winners
// round 1 losers drop to losers round 1 at position/2, winners round r >= 2
// losers drop into losers round 2(r-1) at the same position, and the losers
// chain alternates a same-position hop (odd rounds) with a position/2 merge
// (even rounds). This is exact for bracket sizes 4 and 8 and an approximation
// beyond; see the structure notes in DESIGN.md.
//
// A grand-finals reset match is always created when the modifier asks for
// one; it stays empty unless the losers finalist wins the first grand final.
func (g *DoubleEliminationGenerator) GenerateBracket(params GenerateBracketParams) ([]*BracketMatch, error) {
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

	grandFinalsUID := matchUID(models.BracketGrandFinals, 1, 0)
	lbRounds := 2 * (rounds - 1)

	for j := 1; j <= rounds-1; j++ {
		count := size >> uint(j+1)
		for _, lr := range []int{2*j - 1, 2 * j} {
			for p := 0; p < count; p++ {
				bm := &BracketMatch{
					UID:      matchUID(models.BracketLosers, lr, p),
					Bracket:  models.BracketLosers,
					Round:    lr,
					Position: p,
				}
				switch {
				case lr == lbRounds:
					uid := grandFinalsUID
					bm.WinnerTo = &uid
				case lr%2 == 1:
					uid := matchUID(models.BracketLosers, lr+1, p)
					bm.WinnerTo = &uid
				default:
					uid := matchUID(models.BracketLosers, lr+1, p/2)
					bm.WinnerTo = &uid
				}
				matches = append(matches, bm)
				byUID[bm.UID] = bm
			}
		}
	}

	// Loser drop-downs out of the winners bracket. A bye has no loser, so it
	// gets no link.
	for _, bm := range matches {
		if bm.Bracket != models.BracketWinners || bm.IsBye {
			continue
		}
		var target string
		switch {
		case rounds == 1:
			// Two-player bracket: the winners final's loser goes straight
			// to the grand finals for the rematch.
			target = grandFinalsUID
		case bm.Round == 1:
			target = matchUID(models.BracketLosers, 1, bm.Position/2)
		default:
			target = matchUID(models.BracketLosers, 2*(bm.Round-1), bm.Position)
		}
		uid := target
		bm.LoserTo = &uid
	}

	// With a sparse round one some losers matches have only byes upstream;
	// nobody can ever enter them, so they are cut from the bracket. Their
	// surviving feeder routes resolve as walkovers at advance time.
	matches = pruneUnreachableLoserMatches(matches, byUID, size, rounds)

	// Winners champion meets the losers champion.
	final := byUID[matchUID(models.BracketWinners, rounds, 0)]
	uid := grandFinalsUID
	final.WinnerTo = &uid

	grandFinals := &BracketMatch{
		UID:      grandFinalsUID,
		Bracket:  models.BracketGrandFinals,
		Round:    1,
		Position: 0,
	}
	matches = append(matches, grandFinals)

	if params.Config.GrandFinalsModifier == models.GrandFinalsReset {
		reset := &BracketMatch{
			UID:      matchUID(models.BracketGrandFinals, 2, 0),
			Bracket:  models.BracketGrandFinals,
			Round:    2,
			Position: 0,
		}
		matches = append(matches, reset)
	}

	return matches, nil
}

// pruneUnreachableLoserMatches walks the losers bracket round by round,
// counting how many entrants can ever reach each match: winners-bracket
// drop-downs (byes excluded) plus winners of surviving upstream losers
// matches. Matches with zero possible entrants are removed.
func pruneUnreachableLoserMatches(matches []*BracketMatch, byUID map[string]*BracketMatch, size, rounds int) []*BracketMatch {
	entrants := make(map[string]int)
	for _, bm := range matches {
		if bm.Bracket == models.BracketWinners && !bm.IsBye && bm.LoserTo != nil {
			entrants[*bm.LoserTo]++
		}
	}

	dead := make(map[string]bool)
	for j := 1; j <= rounds-1; j++ {
		count := size >> uint(j+1)
		for _, lr := range []int{2*j - 1, 2 * j} {
			for p := 0; p < count; p++ {
				uid := matchUID(models.BracketLosers, lr, p)
				bm, ok := byUID[uid]
				if !ok {
					continue
				}
				if entrants[uid] == 0 {
					dead[uid] = true
					continue
				}
				if bm.WinnerTo != nil {
					entrants[*bm.WinnerTo]++
				}
			}
		}
	}
	if len(dead) == 0 {
		return matches
	}

	kept := make([]*BracketMatch, 0, len(matches)-len(dead))
	for _, bm := range matches {
		if dead[bm.UID] {
			delete(byUID, bm.UID)
			continue
		}
		kept = append(kept, bm)
	}
	return kept
}
