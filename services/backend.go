package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
)

// BracketBackend is the pair of bracket operations the lifecycle controller
// consumes. The controller never assumes anything about how brackets are
// built; it invokes by tournament id and awaits completion.
type BracketBackend interface {
	GenerateInitialBracket(ctx context.Context, tournamentID string) error
	GenerateNextRound(ctx context.Context, tournamentID string) error
	CanGenerateNextRound(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error)
}

type bracketBackend struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	logger          *slog.Logger
}

func NewBracketBackend(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) BracketBackend {
	return &bracketBackend{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

func (b *bracketBackend) loadTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := b.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	participants, err := b.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants for tournament %s: %w", tournamentID, err)
	}
	tournament.Participants = participants
	return tournament, nil
}

// inTx runs fn inside one transaction with the rollback/commit handling in
// the defer, so every early return path is covered.
func (b *bracketBackend) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, beginErr := b.db.BeginTx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				b.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	err = fn(tx)
	return err
}

func (b *bracketBackend) GenerateInitialBracket(ctx context.Context, tournamentID string) error {
	tournament, err := b.loadTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	matches, err := brackets.GenerateFirstRound(tournament)
	if err != nil {
		return fmt.Errorf("failed to generate bracket for tournament %s: %w", tournamentID, err)
	}

	b.logger.Info("generating initial bracket",
		slog.String("tournament_id", tournamentID),
		slog.Int("matches", len(matches)))

	return b.inTx(ctx, func(tx *sql.Tx) error {
		for i := range matches {
			if err := b.matchRepo.Create(ctx, tx, &matches[i]); err != nil {
				return fmt.Errorf("failed to persist round 1 match %d: %w", matches[i].MatchNumber, err)
			}
		}
		return b.tournamentRepo.UpdateCurrentRound(ctx, tx, tournamentID, 1)
	})
}

func (b *bracketBackend) GenerateNextRound(ctx context.Context, tournamentID string) error {
	existing, err := b.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load matches for tournament %s: %w", tournamentID, err)
	}

	generated, err := brackets.PairNextRound(existing)
	if err != nil {
		return err
	}
	nextRound := generated[0].Match.RoundNumber

	b.logger.Info("generating next round",
		slog.String("tournament_id", tournamentID),
		slog.Int("round", nextRound),
		slog.Int("matches", len(generated)))

	return b.inTx(ctx, func(tx *sql.Tx) error {
		for i := range generated {
			match := &generated[i].Match
			if err := b.matchRepo.Create(ctx, tx, match); err != nil {
				return fmt.Errorf("failed to persist round %d match %d: %w", nextRound, match.MatchNumber, err)
			}
			// Backfill the advancement pointers now that the new match
			// has an id.
			for _, sourceID := range generated[i].SourceMatchIDs {
				if err := b.matchRepo.UpdateNextMatchID(ctx, tx, sourceID, match.ID); err != nil {
					return fmt.Errorf("failed to link match %s forward: %w", sourceID, err)
				}
			}
		}
		return b.tournamentRepo.UpdateCurrentRound(ctx, tx, tournamentID, nextRound)
	})
}

func (b *bracketBackend) CanGenerateNextRound(ctx context.Context, tournamentID string) (models.RoundGenerationStatus, error) {
	matches, err := b.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return models.RoundGenerationStatus{}, fmt.Errorf("failed to load matches for tournament %s: %w", tournamentID, err)
	}
	return brackets.EvaluateNextRound(matches), nil
}
