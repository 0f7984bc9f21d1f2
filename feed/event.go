package feed

import "github.com/courtside-club/courtside-server/models"

// EventType enumerates change-feed frames delivered to subscribers.
type EventType string

const (
	EventTournamentUpdated EventType = "TOURNAMENT_UPDATED"
	EventTournamentDeleted EventType = "TOURNAMENT_DELETED"
	EventMatchesUpdated    EventType = "MATCHES_UPDATED"
)

// Event is one change-feed delivery for a tournament. Deleted events carry
// only the id: the record no longer exists.
type Event struct {
	Type         EventType             `json:"type"`
	TournamentID string                `json:"tournament_id"`
	Tournament   *models.Tournament    `json:"tournament,omitempty"`
	Matches      []models.BracketMatch `json:"matches,omitempty"`
	// External is set on outbound deleted frames: true when another admin
	// removed the record, false when this process's own delete caused it.
	External bool `json:"external,omitempty"`
}
