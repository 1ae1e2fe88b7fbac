package services

import (
	"context"
	"sort"
	"time"

	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
)

// In-memory repositories for service tests. The exec argument is ignored;
// these fakes have no transactions.

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	f.matches[m.ID] = m
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) ListAll(_ context.Context) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(f.matches))
	for _, m := range f.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range f.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) CompleteWithResult(ctx context.Context, _ repositories.SQLExecutor, id int, p1Wins, p2Wins, draws int, result models.MatchResult, endTime time.Time) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Player1Wins = p1Wins
	m.Player2Wins = p2Wins
	m.Draws = draws
	m.Result = result
	m.Status = models.MatchCompleted
	m.EndTime = &endTime
	return nil
}

func (f *fakeMatchRepo) MarkInProgress(ctx context.Context, id int, startTime time.Time) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Status = models.MatchInProgress
	m.StartTime = &startTime
	return nil
}

func (f *fakeMatchRepo) MarkCompleted(ctx context.Context, id int, endTime time.Time) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Status = models.MatchCompleted
	m.EndTime = &endTime
	return nil
}

func (f *fakeMatchRepo) UpdatePlayers(ctx context.Context, _ repositories.SQLExecutor, id int, player1ID *int, player2ID *int) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if player1ID != nil {
		m.Player1ID = *player1ID
	}
	if player2ID != nil {
		m.Player2ID = player2ID
	}
	return nil
}

func (f *fakeMatchRepo) UpdateNextMatchInfo(ctx context.Context, _ repositories.SQLExecutor, id int, winnersNext, losersNext *int) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.WinnersNextMatch = winnersNext
	m.LosersNextMatch = losersNext
	return nil
}

type standingKey struct {
	tournamentID int
	playerID     int
}

type fakeStandingRepo struct {
	nextID    int
	standings map[standingKey]*models.Standing
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{standings: make(map[standingKey]*models.Standing)}
}

func (f *fakeStandingRepo) seed(tournamentID int, playerIDs ...int) {
	for _, pid := range playerIDs {
		_ = f.Create(context.Background(), nil, &models.Standing{
			TournamentID: tournamentID,
			PlayerID:     pid,
			Active:       true,
		})
	}
}

func (f *fakeStandingRepo) Create(_ context.Context, _ repositories.SQLExecutor, s *models.Standing) error {
	key := standingKey{s.TournamentID, s.PlayerID}
	if _, ok := f.standings[key]; ok {
		return repositories.ErrStandingConflict
	}
	f.nextID++
	s.ID = f.nextID
	f.standings[key] = s
	return nil
}

func (f *fakeStandingRepo) GetByTournamentAndPlayer(_ context.Context, tournamentID, playerID int) (*models.Standing, error) {
	s, ok := f.standings[standingKey{tournamentID, playerID}]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	return s, nil
}

func (f *fakeStandingRepo) ListByTournament(_ context.Context, tournamentID int, _ bool) ([]*models.Standing, error) {
	out := make([]*models.Standing, 0)
	for _, s := range f.standings {
		if s.TournamentID == tournamentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStandingRepo) Update(_ context.Context, _ repositories.SQLExecutor, s *models.Standing) error {
	f.standings[standingKey{s.TournamentID, s.PlayerID}] = s
	return nil
}

func (f *fakeStandingRepo) IncrementCounters(ctx context.Context, _ repositories.SQLExecutor, tournamentID, playerID, playedDelta, matchPointsDelta, gamePointsDelta int) error {
	s, err := f.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		return err
	}
	s.MatchesPlayed += playedDelta
	s.MatchPoints += matchPointsDelta
	s.GamePoints += gamePointsDelta
	return nil
}

func (f *fakeStandingRepo) SetActive(ctx context.Context, _ repositories.SQLExecutor, tournamentID, playerID int, active bool) error {
	s, err := f.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		return err
	}
	s.Active = active
	return nil
}

func (f *fakeStandingRepo) DeleteByTournamentAndPlayer(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) error {
	delete(f.standings, standingKey{tournamentID, playerID})
	return nil
}

func (f *fakeStandingRepo) DeleteByTournamentID(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for key := range f.standings {
		if key.tournamentID == tournamentID {
			delete(f.standings, key)
		}
	}
	return nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
	players     map[int][]int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		players:     make(map[int][]int),
	}
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) List(_ context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0)
	for _, t := range f.tournaments {
		if status == nil || t.Status == *status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []*models.Tournament{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	if _, ok := f.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	t.UpdatedAt = time.Now()
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	delete(f.players, id)
	return nil
}

func (f *fakeTournamentRepo) AddPlayer(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) error {
	for _, pid := range f.players[tournamentID] {
		if pid == playerID {
			return repositories.ErrRegistrationConflict
		}
	}
	f.players[tournamentID] = append(f.players[tournamentID], playerID)
	return nil
}

func (f *fakeTournamentRepo) RemovePlayer(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int) error {
	ids := f.players[tournamentID]
	for i, pid := range ids {
		if pid == playerID {
			f.players[tournamentID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTournamentNotFound
}

func (f *fakeTournamentRepo) ListPlayerIDs(_ context.Context, tournamentID int) ([]int, error) {
	return f.players[tournamentID], nil
}
