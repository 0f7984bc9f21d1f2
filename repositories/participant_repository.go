package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("player is already registered for this tournament")
)

type ParticipantRepository interface {
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error)
	Add(ctx context.Context, tournamentID string, p *models.Participant) error
	Remove(ctx context.Context, tournamentID, playerID string) error
	// UpdateSeeds applies a seed-assignment plan atomically. When exec is
	// nil it opens its own transaction, so doubles partners never persist
	// with differing seeds.
	UpdateSeeds(ctx context.Context, exec SQLExecutor, tournamentID string, plan []brackets.SeedAssignment) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	query := `
		SELECT player_id, player_name, skill_level, seed, partner_id, team_name
		FROM participants
		WHERE tournament_id = $1
		ORDER BY registered_at, player_id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		var seed sql.NullInt64
		if err := rows.Scan(&p.PlayerID, &p.PlayerName, &p.SkillLevel, &seed, &p.PartnerID, &p.TeamName); err != nil {
			return nil, err
		}
		p.Seed = int(seed.Int64)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) Add(ctx context.Context, tournamentID string, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, player_id, player_name, skill_level, seed, partner_id, team_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		tournamentID, p.PlayerID, p.PlayerName, p.SkillLevel, p.Seed, p.PartnerID, p.TeamName)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrParticipantConflict
	}
	return err
}

func (r *postgresParticipantRepository) Remove(ctx context.Context, tournamentID, playerID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM participants WHERE tournament_id = $1 AND player_id = $2`,
		tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateSeeds(ctx context.Context, exec SQLExecutor, tournamentID string, plan []brackets.SeedAssignment) error {
	if exec != nil {
		return applySeedPlan(ctx, exec, tournamentID, plan)
	}

	// Without a caller-provided transaction the plan opens its own, so
	// doubles partners never persist with differing seeds.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := applySeedPlan(ctx, tx, tournamentID, plan); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func applySeedPlan(ctx context.Context, exec SQLExecutor, tournamentID string, plan []brackets.SeedAssignment) error {
	query := `UPDATE participants SET seed = $1 WHERE tournament_id = $2 AND player_id = $3`
	for _, assignment := range plan {
		result, err := exec.ExecContext(ctx, query, assignment.Seed, tournamentID, assignment.PlayerID)
		if err != nil {
			return err
		}
		if err := checkAffectedRows(result, ErrParticipantNotFound); err != nil {
			return err
		}
	}
	return nil
}
