package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/feed"
	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
)

// minimum bracket units: 2 players in singles, 2 teams (4 players) in doubles.
const minBracketUnits = 2

// LifecycleService owns every tournament status transition and its guards.
// All writes go through here; views observe the result through the change
// feed, never through an optimistic local mutation.
type LifecycleService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	backend         BracketBackend
	advisor         *brackets.Advisor
	deletions       *DeletionTracker
	bus             *feed.Bus
	logger          *slog.Logger

	mu             sync.Mutex
	addsInFlight   map[string]int
	startsInFlight map[string]bool
}

func NewLifecycleService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	backend BracketBackend,
	advisor *brackets.Advisor,
	deletions *DeletionTracker,
	bus *feed.Bus,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		backend:         backend,
		advisor:         advisor,
		deletions:       deletions,
		bus:             bus,
		logger:          logger,
		addsInFlight:    make(map[string]int),
		startsInFlight:  make(map[string]bool),
	}
}

// isValidStatusTransition enumerates the forward-only status graph. The
// switch is exhaustive over the status set so a new status fails loudly
// here instead of silently passing.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if next == models.StatusCancelled {
		return !current.Terminal()
	}
	switch current {
	case models.StatusDraft:
		return next == models.StatusRegistration
	case models.StatusRegistration:
		return next == models.StatusBracketGeneration || next == models.StatusInProgress
	case models.StatusBracketGeneration:
		return next == models.StatusInProgress
	case models.StatusInProgress:
		return next == models.StatusCompleted
	case models.StatusCompleted, models.StatusCancelled:
		return false
	default:
		return false
	}
}

func (s *LifecycleService) load(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	tournament.Participants = participants
	return tournament, nil
}

func (s *LifecycleService) transition(ctx context.Context, t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return validationErr(ErrInvalidStatusTransition, "%s -> %s", t.Status, next)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, next); err != nil {
		return err
	}
	s.logger.Info("tournament status changed",
		slog.String("tournament_id", t.ID),
		slog.String("from", string(t.Status)),
		slog.String("to", string(next)))
	t.Status = next
	return nil
}

// publishTournament re-reads the record and pushes it through the feed, so
// every subscriber (this client's own views included) converges on the
// stored state.
func (s *LifecycleService) publishTournament(ctx context.Context, tournamentID string) {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		s.logger.Warn("failed to publish tournament update",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.bus.Publish(feed.Event{
		Type:         feed.EventTournamentUpdated,
		TournamentID: tournamentID,
		Tournament:   tournament,
	})
}

func (s *LifecycleService) publishMatches(ctx context.Context, tournamentID string) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		s.logger.Warn("failed to publish match update",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.bus.Publish(feed.Event{
		Type:         feed.EventMatchesUpdated,
		TournamentID: tournamentID,
		Matches:      matches,
	})
}

// CreateTournamentInput содержит поля нового турнира; всё остальное
// выставляется здесь.
type CreateTournamentInput struct {
	ClubID    string                    `json:"club_id"`
	Name      string                    `json:"name"`
	EventType models.EventType          `json:"event_type"`
	Settings  models.TournamentSettings `json:"settings"`
}

// CreateTournament creates a draft record. Every tournament starts in draft;
// there is no way to create one mid-lifecycle.
func (s *LifecycleService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, validationErr(ErrValidationFailed, "tournament name is required")
	}
	switch input.EventType {
	case models.EventSingles, models.EventMensDoubles, models.EventWomensDoubles, models.EventMixedDoubles:
	default:
		return nil, validationErr(ErrValidationFailed, "unknown event type %q", input.EventType)
	}
	if input.Settings.SeedingMethod == "" {
		input.Settings.SeedingMethod = models.SeedingManual
	}
	if input.Settings.SeedingMethod != models.SeedingManual && input.Settings.SeedingMethod != models.SeedingAuto {
		return nil, validationErr(ErrValidationFailed, "unknown seeding method %q", input.Settings.SeedingMethod)
	}

	tournament := &models.Tournament{
		ClubID:    input.ClubID,
		Name:      input.Name,
		EventType: input.EventType,
		Status:    models.StatusDraft,
		Settings:  input.Settings,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, validationErr(ErrValidationFailed, "a tournament with this name already exists")
		}
		return nil, err
	}
	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID),
		slog.String("club_id", tournament.ClubID))
	return tournament, nil
}

// OpenRegistration moves a draft tournament into its registration window.
func (s *LifecycleService) OpenRegistration(ctx context.Context, tournamentID string) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, tournament, models.StatusRegistration); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	return nil
}

// AddParticipant registers a player while registration is open. The
// in-flight counter lets StartTournament refuse to freeze a participant
// list that is about to change under it.
func (s *LifecycleService) AddParticipant(ctx context.Context, tournamentID string, p models.Participant) error {
	s.mu.Lock()
	s.addsInFlight[tournamentID]++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.addsInFlight[tournamentID]--
		if s.addsInFlight[tournamentID] <= 0 {
			delete(s.addsInFlight, tournamentID)
		}
		s.mu.Unlock()
	}()

	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusRegistration {
		return validationErr(ErrRegistrationNotOpen, "tournament is %s", tournament.Status)
	}
	if max := tournament.Settings.MaxParticipants; max > 0 && len(tournament.Participants) >= max {
		return validationErr(ErrTournamentFull, "limit of %d participants reached", max)
	}
	if err := s.participantRepo.Add(ctx, tournamentID, &p); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	return nil
}

// RemoveParticipant withdraws a player during registration.
func (s *LifecycleService) RemoveParticipant(ctx context.Context, tournamentID, playerID string) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusRegistration {
		return validationErr(ErrRegistrationNotOpen, "tournament is %s", tournament.Status)
	}
	if err := s.participantRepo.Remove(ctx, tournamentID, playerID); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	return nil
}

// checkFieldGuards validates participant count and doubles parity, failing
// with a violation-specific reason. It never touches the backend.
func checkFieldGuards(t *models.Tournament) error {
	if t.EventType.IsDoubles() {
		if len(t.Participants)%2 != 0 {
			return validationErr(ErrOddDoublesParticipants,
				"%d participants cannot form complete pairs", len(t.Participants))
		}
		teams, err := brackets.GroupIntoTeams(t.Participants)
		if err != nil {
			return validationErr(ErrValidationFailed, "%v", err)
		}
		if len(teams) < minBracketUnits {
			return validationErr(ErrInsufficientParticipants,
				"at least %d teams (%d players) are required, have %d",
				minBracketUnits, minBracketUnits*2, len(teams))
		}
		return nil
	}
	if len(t.Participants) < minBracketUnits {
		return validationErr(ErrInsufficientParticipants,
			"at least %d players are required, have %d", minBracketUnits, len(t.Participants))
	}
	return nil
}

// CloseRegistration is a single guarded operation: field guards first, then
// either a stop in bracket_generation for manual seeding, or, for auto
// seeding, bracket generation followed by in_progress, so the client never
// parks in an intermediate state on that path.
func (s *LifecycleService) CloseRegistration(ctx context.Context, tournamentID string) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusRegistration {
		return validationErr(ErrInvalidStatusTransition, "registration is not open (status %s)", tournament.Status)
	}
	if err := checkFieldGuards(tournament); err != nil {
		return err
	}

	if tournament.Settings.SeedingMethod == models.SeedingManual {
		if err := s.transition(ctx, tournament, models.StatusBracketGeneration); err != nil {
			return err
		}
		s.publishTournament(ctx, tournamentID)
		return nil
	}

	// Auto seeding: only a successful generation call moves the record
	// forward; on failure local state is untouched.
	if err := s.backend.GenerateInitialBracket(ctx, tournamentID); err != nil {
		return &BackendError{Op: "bracket generation", Err: err}
	}
	if err := s.transition(ctx, tournament, models.StatusInProgress); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	s.publishMatches(ctx, tournamentID)
	return nil
}

// StartTournament takes a manually seeded tournament live. It refuses while
// a participant addition is in flight: the bracket must not be generated
// against a list that is about to change.
func (s *LifecycleService) StartTournament(ctx context.Context, tournamentID string) error {
	s.mu.Lock()
	if s.startsInFlight[tournamentID] {
		s.mu.Unlock()
		return ErrStartInFlight
	}
	if s.addsInFlight[tournamentID] > 0 {
		s.mu.Unlock()
		return validationErr(ErrParticipantAdditionInFlight, "retry once the addition settles")
	}
	s.startsInFlight[tournamentID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.startsInFlight, tournamentID)
		s.mu.Unlock()
	}()

	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusBracketGeneration {
		return validationErr(ErrInvalidStatusTransition, "tournament is %s, not awaiting start", tournament.Status)
	}
	if tournament.Settings.SeedingMethod == models.SeedingManual && !brackets.IsSeedingComplete(tournament) {
		return validationErr(ErrSeedingIncomplete, "every unit needs a distinct seed from 1 to the unit count")
	}

	if err := s.backend.GenerateInitialBracket(ctx, tournamentID); err != nil {
		return &BackendError{Op: "bracket generation", Err: err}
	}
	if err := s.transition(ctx, tournament, models.StatusInProgress); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	s.publishMatches(ctx, tournamentID)
	return nil
}

// AssignSeed validates and persists one seed assignment; doubles partners
// move together in the same write. A no-op plan avoids a redundant write
// and a redundant feed cycle.
func (s *LifecycleService) AssignSeed(ctx context.Context, tournamentID, playerID string, seed int) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusBracketGeneration {
		return validationErr(ErrInvalidStatusTransition, "seeds can only be edited while the bracket is being set up")
	}

	plan, err := brackets.PlanSeedAssignment(tournament, playerID, seed)
	if err != nil {
		return validationErr(ErrValidationFailed, "%v", err)
	}
	if len(plan) == 0 {
		return nil
	}
	if err := s.participantRepo.UpdateSeeds(ctx, nil, tournamentID, plan); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	return nil
}

// GenerateNextRound is the guarded, non-re-entrant round advancement. A
// second call for the same tournament while one is outstanding is rejected
// locally and never reaches the backend.
func (s *LifecycleService) GenerateNextRound(ctx context.Context, tournamentID string) error {
	if err := s.advisor.Begin(tournamentID); err != nil {
		return err
	}

	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		s.advisor.Finish(tournamentID, false)
		return err
	}
	if tournament.Status != models.StatusInProgress {
		s.advisor.Finish(tournamentID, false)
		return validationErr(ErrInvalidStatusTransition, "tournament is %s", tournament.Status)
	}

	if err := s.backend.GenerateNextRound(ctx, tournamentID); err != nil {
		s.advisor.Finish(tournamentID, false)
		return &BackendError{Op: "round generation", Err: err}
	}
	// Release the guard and drop the stale status before the refresh below
	// caches the new round's answer; a deferred release would wipe it again.
	s.advisor.Finish(tournamentID, true)

	s.publishTournament(ctx, tournamentID)
	s.publishMatches(ctx, tournamentID)
	s.refreshRoundStatus(ctx, tournamentID)
	return nil
}

// RoundStatus returns the advisor's view for the tournament, asking the
// backend when nothing is cached.
func (s *LifecycleService) RoundStatus(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error) {
	if status, ok := s.advisor.Last(tournamentID); ok {
		return status, nil
	}
	return s.refreshRoundStatus(ctx, tournamentID)
}

func (s *LifecycleService) refreshRoundStatus(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error) {
	status, err := s.backend.CanGenerateNextRound(ctx, tournamentID)
	if err != nil {
		return models.RoundGenerationStatus{}, &BackendError{Op: "round status check", Err: err}
	}
	s.advisor.Remember(tournamentID, status)
	return status, nil
}

// CompleteTournament closes the tournament once the final has a confirmed
// outcome.
func (s *LifecycleService) CompleteTournament(ctx context.Context, tournamentID string) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.StatusInProgress {
		return validationErr(ErrInvalidStatusTransition, "tournament is %s", tournament.Status)
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	view := brackets.BuildBracket(matches)
	if len(view.Rounds) == 0 {
		return validationErr(ErrFinalNotDecided, "bracket has not been generated")
	}
	final := view.Rounds[len(view.Rounds)-1]
	if len(final.Matches) != 1 || !final.Matches[0].Status.Terminal() || view.Champion == nil {
		return validationErr(ErrFinalNotDecided, "finish and confirm the final match first")
	}

	if err := s.transition(ctx, tournament, models.StatusCompleted); err != nil {
		return err
	}
	s.logger.Info("tournament completed",
		slog.String("tournament_id", tournamentID),
		slog.String("champion", view.Champion.PlayerID))
	s.publishTournament(ctx, tournamentID)
	return nil
}

// CancelTournament cancels from any non-terminal state. Irreversible.
func (s *LifecycleService) CancelTournament(ctx context.Context, tournamentID string) error {
	tournament, err := s.load(ctx, tournamentID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, tournament, models.StatusCancelled); err != nil {
		return err
	}
	s.publishTournament(ctx, tournamentID)
	return nil
}

// DeleteTournament destroys the record. The self-initiated marker is set
// before the delete call goes out, so the feed's "record no longer exists"
// event is attributed to this client and not to another admin.
func (s *LifecycleService) DeleteTournament(ctx context.Context, tournamentID string) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status.Terminal() {
		return validationErr(ErrTournamentTerminal, "cannot delete a %s tournament", tournament.Status)
	}

	s.deletions.Mark(tournamentID)
	if err := s.tournamentRepo.Delete(ctx, tournamentID); err != nil {
		// A retried delete must still be attributed to this client.
		s.deletions.Clear(tournamentID)
		return err
	}

	s.advisor.Forget(tournamentID)
	s.bus.Publish(feed.Event{
		Type:         feed.EventTournamentDeleted,
		TournamentID: tournamentID,
	})
	return nil
}
