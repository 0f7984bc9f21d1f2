package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusDraft             TournamentStatus = "draft"
	StatusRegistration      TournamentStatus = "registration"
	StatusBracketGeneration TournamentStatus = "bracket_generation"
	StatusInProgress        TournamentStatus = "in_progress"
	StatusCompleted         TournamentStatus = "completed"
	StatusCancelled         TournamentStatus = "cancelled"
)

// Terminal reports whether no further status transition is possible.
func (s TournamentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type EventType string

const (
	EventSingles       EventType = "singles"
	EventMensDoubles   EventType = "mens_doubles"
	EventWomensDoubles EventType = "womens_doubles"
	EventMixedDoubles  EventType = "mixed_doubles"
)

// IsDoubles reports whether participants pair into teams for this event type.
func (e EventType) IsDoubles() bool {
	switch e {
	case EventMensDoubles, EventWomensDoubles, EventMixedDoubles:
		return true
	}
	return false
}

type SeedingMethod string

const (
	SeedingManual SeedingMethod = "manual"
	SeedingAuto   SeedingMethod = "auto"
)

type TournamentSettings struct {
	SeedingMethod   SeedingMethod `json:"seeding_method" db:"seeding_method"`
	MaxParticipants int           `json:"max_participants" db:"max_participants"`
	MatchFormat     string        `json:"match_format" db:"match_format"`
}

// Tournament представляет турнир клуба.
type Tournament struct {
	ID        string             `json:"id" db:"id"`
	ClubID    string             `json:"club_id" db:"club_id"`
	Name      string             `json:"name" db:"name"`
	EventType EventType          `json:"event_type" db:"event_type"`
	Status    TournamentStatus   `json:"status" db:"status"`
	Settings  TournamentSettings `json:"settings"`
	// CurrentRound is set once the tournament is in_progress.
	CurrentRound *int      `json:"current_round,omitempty" db:"current_round"`
	PosterKey    *string   `json:"-" db:"poster_key"`
	PosterURL    *string   `json:"poster_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Загружается отдельным запросом, не мапится напрямую.
	Participants []Participant `json:"participants,omitempty" db:"-"`
}

// RoundGenerationStatus описывает, можно ли сгенерировать следующий раунд.
type RoundGenerationStatus struct {
	CanGenerate  bool   `json:"can_generate"`
	Reason       string `json:"reason,omitempty"`
	CurrentRound int    `json:"current_round"`
	NextRound    int    `json:"next_round"`
}
