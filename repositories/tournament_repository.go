package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside-club/courtside-server/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this club")
)

type ListTournamentsFilter struct {
	ClubID string
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.TournamentStatus) error
	UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id string, round int) error
	UpdatePosterKey(ctx context.Context, id string, posterKey *string) error
	Delete(ctx context.Context, id string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, club_id, name, event_type, status,
	seeding_method, max_participants, match_format,
	current_round, poster_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `
		INSERT INTO tournaments (
			id, club_id, name, event_type, status,
			seeding_method, max_participants, match_format
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.ClubID, t.Name, t.EventType, t.Status,
		t.Settings.SeedingMethod, t.Settings.MaxParticipants, t.Settings.MatchFormat,
	).Scan(&t.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrTournamentNameConflict
	}
	return err
}

func scanTournament(row interface{ Scan(...any) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.ClubID, &t.Name, &t.EventType, &t.Status,
		&t.Settings.SeedingMethod, &t.Settings.MaxParticipants, &t.Settings.MatchFormat,
		&t.CurrentRound, &t.PosterKey, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE club_id = $1`
	args := []any{filter.ClubID}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := []models.Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id string, round int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET current_round = $1 WHERE id = $2`, round, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePosterKey(ctx context.Context, id string, posterKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET poster_key = $1 WHERE id = $2`, posterKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	// Participants and matches go with the tournament record.
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
