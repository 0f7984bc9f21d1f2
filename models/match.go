package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusConfirmed  MatchStatus = "confirmed"
)

// Terminal reports whether no further result mutation is expected.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusConfirmed
}

// ScoreSlot identifies a side of a match in a recorded score.
type ScoreSlot string

const (
	SlotPlayer1 ScoreSlot = "player1"
	SlotPlayer2 ScoreSlot = "player2"
)

type SetScore struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

type Score struct {
	Sets   []SetScore `json:"sets,omitempty"`
	Winner ScoreSlot  `json:"winner,omitempty"`
}

// BracketMatch представляет запись матча сетки. Создаётся и изменяется генератором
// сетки и вводом счёта; остальной код её только читает.
type BracketMatch struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	// RoundNumber is authoritative; no other field may be used to infer
	// the round a match belongs to.
	RoundNumber int `json:"round_number" db:"round_number"`
	// MatchNumber orders matches within a round; BracketPosition is the
	// older ordering column kept for rows written before match_number.
	MatchNumber     int          `json:"match_number" db:"match_number"`
	BracketPosition int          `json:"bracket_position" db:"bracket_position"`
	Player1         *Participant `json:"player1,omitempty" db:"-"`
	Player2         *Participant `json:"player2,omitempty" db:"-"`
	Status          MatchStatus  `json:"status" db:"status"`
	Score           *Score       `json:"score,omitempty" db:"-"`
	WinnerID        *string      `json:"winner_id,omitempty" db:"winner_id"`
	// WinnerPlayerID is the legacy winner column, set only on rows that
	// predate winner_id.
	WinnerPlayerID *string   `json:"winner_player_id,omitempty" db:"winner_player_id"`
	NextMatchID    *string   `json:"next_match_id,omitempty" db:"next_match_id"`
	ScheduledAt    time.Time `json:"scheduled_at" db:"scheduled_at"`
}

// Bye reports whether the match has an empty slot (TBD opponent).
func (m BracketMatch) Bye() bool {
	return m.Player1 == nil || m.Player2 == nil
}
