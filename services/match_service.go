package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/feed"
	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
)

// defaultRecheckDelay is how long after a score submission the round status
// is re-checked; backend jobs may advance the round on their own in that
// window.
const defaultRecheckDelay = 5 * time.Second

// MatchService records match results and owns the post-score fallback:
// when the backend has not advanced the round by itself a configurable
// delay after a score lands, the next round is generated from here, once.
type MatchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	lifecycle      *LifecycleService
	bus            *feed.Bus
	logger         *slog.Logger
	recheckDelay   time.Duration
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	lifecycle *LifecycleService,
	bus *feed.Bus,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		lifecycle:      lifecycle,
		bus:            bus,
		logger:         logger,
		recheckDelay:   defaultRecheckDelay,
	}
}

// SetRecheckDelay overrides the fallback delay; tests shrink it.
func (s *MatchService) SetRecheckDelay(d time.Duration) {
	s.recheckDelay = d
}

func (s *MatchService) loadMatch(ctx context.Context, matchID string) (*models.BracketMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// SubmitScore records a completed result. The winner comes from the score's
// winner slot mapped onto the match's player slots.
func (s *MatchService) SubmitScore(ctx context.Context, matchID string, score models.Score) error {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status == models.MatchStatusConfirmed {
		return validationErr(ErrMatchAlreadyConfirmed, "match %s", matchID)
	}

	winnerID, err := winnerForSlot(match, score.Winner)
	if err != nil {
		return err
	}

	if err := s.matchRepo.UpdateResult(ctx, nil, matchID, models.MatchStatusCompleted, &score, &winnerID); err != nil {
		return err
	}
	s.logger.Info("score submitted",
		slog.String("match_id", matchID),
		slog.String("winner_id", winnerID))

	s.publishMatches(ctx, match.TournamentID)
	s.scheduleRoundRecheck(match.TournamentID)
	return nil
}

// ConfirmResult locks a completed result against further mutation.
func (s *MatchService) ConfirmResult(ctx context.Context, matchID string) error {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchStatusCompleted {
		return validationErr(ErrValidationFailed, "only completed matches can be confirmed (status %s)", match.Status)
	}
	if err := s.matchRepo.UpdateResult(ctx, nil, matchID, models.MatchStatusConfirmed, match.Score, match.WinnerID); err != nil {
		return err
	}
	s.publishMatches(ctx, match.TournamentID)
	return nil
}

func winnerForSlot(match *models.BracketMatch, slot models.ScoreSlot) (string, error) {
	var winner *models.Participant
	switch slot {
	case models.SlotPlayer1:
		winner = match.Player1
	case models.SlotPlayer2:
		winner = match.Player2
	default:
		return "", validationErr(ErrValidationFailed, "score must name player1 or player2 as winner")
	}
	if winner == nil {
		return "", validationErr(ErrValidationFailed, "winner slot %s is empty in this match", slot)
	}
	return winner.PlayerID, nil
}

func (s *MatchService) publishMatches(ctx context.Context, tournamentID string) {
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

// scheduleRoundRecheck arms the delayed post-score check. If the backend
// reports the round complete and no advancement has happened in the
// meantime, generation is invoked automatically, at most once per score
// submission, followed by one further re-check that only refreshes the
// advisor cache.
func (s *MatchService) scheduleRoundRecheck(tournamentID string) {
	roundBefore := s.currentRound(context.Background(), tournamentID)

	time.AfterFunc(s.recheckDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		status, err := s.lifecycle.refreshRoundStatus(ctx, tournamentID)
		if err != nil {
			s.logger.Warn("post-score round check failed",
				slog.String("tournament_id", tournamentID), slog.Any("error", err))
			return
		}
		if !status.CanGenerate {
			return
		}
		if s.currentRound(ctx, tournamentID) != roundBefore {
			// A backend job advanced the round while we waited.
			return
		}

		s.logger.Info("round advancement fallback triggered",
			slog.String("tournament_id", tournamentID),
			slog.Int("next_round", status.NextRound))

		err = s.lifecycle.GenerateNextRound(ctx, tournamentID)
		if err != nil && !isBenignGenerationError(err) {
			s.logger.Warn("fallback round generation failed",
				slog.String("tournament_id", tournamentID), slog.Any("error", err))
			return
		}

		// One trailing re-check; never another fallback from it.
		time.AfterFunc(s.recheckDelay, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.lifecycle.refreshRoundStatus(ctx, tournamentID); err != nil {
				s.logger.Warn("trailing round check failed",
					slog.String("tournament_id", tournamentID), slog.Any("error", err))
			}
		})
	})
}

func (s *MatchService) currentRound(ctx context.Context, tournamentID string) int {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil || tournament.CurrentRound == nil {
		return 0
	}
	return *tournament.CurrentRound
}

// isBenignGenerationError filters races that resolve themselves: someone
// else already started generating, or the round stopped being eligible.
func isBenignGenerationError(err error) bool {
	if errors.Is(err, brackets.ErrGenerationInFlight) {
		return true
	}
	return errors.Is(err, ErrInvalidStatusTransition)
}
