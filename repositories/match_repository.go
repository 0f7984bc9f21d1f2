package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courtside-club/courtside-server/models"
	"github.com/google/uuid"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketMatch, error)
	GetByID(ctx context.Context, id string) (*models.BracketMatch, error)
	Create(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error
	UpdateNextMatchID(ctx context.Context, exec SQLExecutor, id, nextMatchID string) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id string, status models.MatchStatus, score *models.Score, winnerID *string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round_number, match_number, bracket_position,
	player1_id, player1_name, player2_id, player2_name,
	status, score, winner_id, winner_player_id, next_match_id, scheduled_at`

type matchRow struct {
	player1ID   sql.NullString
	player1Name sql.NullString
	player2ID   sql.NullString
	player2Name sql.NullString
	score       []byte
}

func scanMatch(row interface{ Scan(...any) error }) (*models.BracketMatch, error) {
	m := &models.BracketMatch{}
	var raw matchRow
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.RoundNumber, &m.MatchNumber, &m.BracketPosition,
		&raw.player1ID, &raw.player1Name, &raw.player2ID, &raw.player2Name,
		&m.Status, &raw.score, &m.WinnerID, &m.WinnerPlayerID, &m.NextMatchID, &m.ScheduledAt,
	)
	if err != nil {
		return nil, err
	}

	if raw.player1ID.Valid {
		m.Player1 = &models.Participant{PlayerID: raw.player1ID.String, PlayerName: raw.player1Name.String}
	}
	if raw.player2ID.Valid {
		m.Player2 = &models.Participant{PlayerID: raw.player2ID.String, PlayerName: raw.player2Name.String}
	}
	if len(raw.score) > 0 {
		score := &models.Score{}
		if err := json.Unmarshal(raw.score, score); err != nil {
			return nil, fmt.Errorf("malformed score payload for match %s: %w", m.ID, err)
		}
		m.Score = score
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketMatch, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round_number, match_number, bracket_position`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []models.BracketMatch{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.BracketMatch, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.BracketMatch) error {
	executor := r.getExecutor(exec)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	var p1ID, p1Name, p2ID, p2Name *string
	if m.Player1 != nil {
		p1ID, p1Name = &m.Player1.PlayerID, &m.Player1.PlayerName
	}
	if m.Player2 != nil {
		p2ID, p2Name = &m.Player2.PlayerID, &m.Player2.PlayerName
	}

	var score []byte
	if m.Score != nil {
		var err error
		if score, err = json.Marshal(m.Score); err != nil {
			return fmt.Errorf("failed to encode score: %w", err)
		}
	}

	query := `
		INSERT INTO matches (
			id, tournament_id, round_number, match_number, bracket_position,
			player1_id, player1_name, player2_id, player2_name,
			status, score, winner_id, next_match_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING scheduled_at`

	return executor.QueryRowContext(ctx, query,
		m.ID, m.TournamentID, m.RoundNumber, m.MatchNumber, m.BracketPosition,
		p1ID, p1Name, p2ID, p2Name,
		m.Status, score, m.WinnerID, m.NextMatchID,
	).Scan(&m.ScheduledAt)
}

func (r *postgresMatchRepository) UpdateNextMatchID(ctx context.Context, exec SQLExecutor, id, nextMatchID string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET next_match_id = $1 WHERE id = $2`, nextMatchID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id string, status models.MatchStatus, score *models.Score, winnerID *string) error {
	executor := r.getExecutor(exec)

	var encoded []byte
	if score != nil {
		var err error
		if encoded, err = json.Marshal(score); err != nil {
			return fmt.Errorf("failed to encode score: %w", err)
		}
	}

	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET status = $1, score = $2, winner_id = $3 WHERE id = $4`,
		status, encoded, winnerID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
