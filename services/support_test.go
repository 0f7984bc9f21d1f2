package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/feed"
	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory repository fakes. They hold copies, like a real store would:
// mutating a returned record never leaks back without an explicit update.

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[string]models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[string]models.Tournament)}
}

func (r *fakeTournamentRepo) put(t models.Tournament) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tournaments[t.ID] = t
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.put(*t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Tournament{}
	for _, t := range r.tournaments {
		if filter.ClubID != "" && t.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id string, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = &round
	r.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) UpdatePosterKey(ctx context.Context, id string, posterKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.PosterKey = posterKey
	r.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string][]models.Participant
	seedUpdates  int
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string][]models.Participant)}
}

func (r *fakeParticipantRepo) put(tournamentID string, ps ...models.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[tournamentID] = append(r.participants[tournamentID], ps...)
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Participant{}, r.participants[tournamentID]...), nil
}

func (r *fakeParticipantRepo) Add(ctx context.Context, tournamentID string, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants[tournamentID] {
		if existing.PlayerID == p.PlayerID {
			return repositories.ErrParticipantConflict
		}
	}
	r.participants[tournamentID] = append(r.participants[tournamentID], *p)
	return nil
}

func (r *fakeParticipantRepo) Remove(ctx context.Context, tournamentID, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.participants[tournamentID]
	for i, p := range list {
		if p.PlayerID == playerID {
			r.participants[tournamentID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

// UpdateSeeds is all-or-nothing, like the transactional repository: a plan
// naming an unknown player mutates nothing.
func (r *fakeParticipantRepo) UpdateSeeds(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, plan []brackets.SeedAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seedUpdates++
	list := r.participants[tournamentID]

	indexes := make([]int, len(plan))
	for p, assignment := range plan {
		indexes[p] = -1
		for i := range list {
			if list[i].PlayerID == assignment.PlayerID {
				indexes[p] = i
				break
			}
		}
		if indexes[p] == -1 {
			return repositories.ErrParticipantNotFound
		}
	}
	for p, assignment := range plan {
		list[indexes[p]].Seed = assignment.Seed
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string][]models.BracketMatch
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string][]models.BracketMatch)}
}

func (r *fakeMatchRepo) put(tournamentID string, ms ...models.BracketMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[tournamentID] = append(r.matches[tournamentID], ms...)
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BracketMatch{}, r.matches[tournamentID]...), nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.BracketMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.matches {
		for _, m := range list {
			if m.ID == id {
				copied := m
				return &copied, nil
			}
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.BracketMatch) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.put(m.TournamentID, *m)
	return nil
}

func (r *fakeMatchRepo) UpdateNextMatchID(ctx context.Context, exec repositories.SQLExecutor, id, nextMatchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tid, list := range r.matches {
		for i := range list {
			if list[i].ID == id {
				next := nextMatchID
				r.matches[tid][i].NextMatchID = &next
				return nil
			}
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id string, status models.MatchStatus, score *models.Score, winnerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tid, list := range r.matches {
		for i := range list {
			if list[i].ID == id {
				r.matches[tid][i].Status = status
				r.matches[tid][i].Score = score
				r.matches[tid][i].WinnerID = winnerID
				return nil
			}
		}
	}
	return repositories.ErrMatchNotFound
}

// fakeBackend counts invocations and defers to overridable funcs.
type fakeBackend struct {
	mu           sync.Mutex
	initialCalls int
	nextCalls    int
	statusCalls  int

	initialFn func(ctx context.Context, tournamentID string) error
	nextFn    func(ctx context.Context, tournamentID string) error
	statusFn  func(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error)
}

func (b *fakeBackend) GenerateInitialBracket(ctx context.Context, tournamentID string) error {
	b.mu.Lock()
	b.initialCalls++
	fn := b.initialFn
	b.mu.Unlock()
	if fn != nil {
		return fn(ctx, tournamentID)
	}
	return nil
}

func (b *fakeBackend) GenerateNextRound(ctx context.Context, tournamentID string) error {
	b.mu.Lock()
	b.nextCalls++
	fn := b.nextFn
	b.mu.Unlock()
	if fn != nil {
		return fn(ctx, tournamentID)
	}
	return nil
}

func (b *fakeBackend) CanGenerateNextRound(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error) {
	b.mu.Lock()
	b.statusCalls++
	fn := b.statusFn
	b.mu.Unlock()
	if fn != nil {
		return fn(ctx, tournamentID)
	}
	return models.RoundGenerationStatus{}, nil
}

func (b *fakeBackend) calls() (initial, next int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialCalls, b.nextCalls
}

func (b *fakeBackend) statusCallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

// lifecycleFixture wires a LifecycleService onto the fakes.
type lifecycleFixture struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	backend      *fakeBackend
	advisor      *brackets.Advisor
	deletions    *DeletionTracker
	bus          *feed.Bus
	service      *LifecycleService
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		backend:      &fakeBackend{},
		advisor:      brackets.NewAdvisor(),
		deletions:    NewDeletionTracker(),
		bus:          feed.NewBus(),
	}
	f.service = NewLifecycleService(
		f.tournaments, f.participants, f.matches,
		f.backend, f.advisor, f.deletions, f.bus, testLogger())
	return f
}

func (f *lifecycleFixture) seedTournament(id string, status models.TournamentStatus, eventType models.EventType, seeding models.SeedingMethod) {
	f.tournaments.put(models.Tournament{
		ID:        id,
		ClubID:    "club-1",
		Name:      "Autumn Open",
		EventType: eventType,
		Status:    status,
		Settings: models.TournamentSettings{
			SeedingMethod: seeding,
		},
	})
}

func (f *lifecycleFixture) status(id string) models.TournamentStatus {
	t, err := f.tournaments.GetByID(context.Background(), id)
	if err != nil {
		return ""
	}
	return t.Status
}

func strPtr(s string) *string { return &s }
