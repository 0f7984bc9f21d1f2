package brackets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/courtside-club/courtside-server/models"
)

// ErrGenerationInFlight means a round-generation call for the tournament is
// already outstanding. The second request is rejected locally and never
// reaches the backend.
var ErrGenerationInFlight = errors.New("round generation already in progress for this tournament")

// Advisor tracks round-generation state per tournament: the last known
// RoundGenerationStatus and whether a generation call is outstanding. A fast
// double-tap must race here, not at the transport, so the guard is taken
// synchronously before any backend work starts.
type Advisor struct {
	mu       sync.Mutex
	statuses map[string]models.RoundGenerationStatus
	inFlight map[string]bool
}

func NewAdvisor() *Advisor {
	return &Advisor{
		statuses: make(map[string]models.RoundGenerationStatus),
		inFlight: make(map[string]bool),
	}
}

// Remember caches the backend's latest answer for the tournament.
func (a *Advisor) Remember(tournamentID string, status models.RoundGenerationStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses[tournamentID] = status
}

// Last returns the cached status, if any. While a generation call is in
// flight the action is reported as unavailable regardless of the cache.
func (a *Advisor) Last(tournamentID string) (models.RoundGenerationStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	status, ok := a.statuses[tournamentID]
	if ok && a.inFlight[tournamentID] {
		status.CanGenerate = false
		status.Reason = "round generation in progress"
	}
	return status, ok
}

// Begin takes the per-tournament generation guard.
func (a *Advisor) Begin(tournamentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight[tournamentID] {
		return ErrGenerationInFlight
	}
	a.inFlight[tournamentID] = true
	return nil
}

// Finish releases the guard. It must run on success and failure alike. When
// the call generated a round, the cached status is dropped so the action
// stays disabled until the backend is asked again.
func (a *Advisor) Finish(tournamentID string, generated bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, tournamentID)
	if generated {
		delete(a.statuses, tournamentID)
	}
}

// Forget drops all advisor state for a deleted tournament.
func (a *Advisor) Forget(tournamentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.statuses, tournamentID)
	delete(a.inFlight, tournamentID)
}

// EvaluateNextRound computes whether the next round may be generated from
// the current match set. The highest stored round number is the current
// round; every match in it must be terminal with a resolved winner, and more
// than one match must remain (a finished final completes the tournament
// instead of spawning a round).
func EvaluateNextRound(matches []models.BracketMatch) models.RoundGenerationStatus {
	view := BuildBracket(matches)
	if len(view.Rounds) == 0 {
		return models.RoundGenerationStatus{Reason: "bracket has not been generated"}
	}

	current := view.Rounds[len(view.Rounds)-1]
	status := models.RoundGenerationStatus{
		CurrentRound: current.Number,
		NextRound:    current.Number + 1,
	}

	if len(current.Matches) == 1 {
		status.Reason = "final round reached"
		return status
	}

	pending := 0
	for _, m := range current.Matches {
		if !m.Status.Terminal() || ResolveWinner(m) == nil {
			pending++
		}
	}
	if pending > 0 {
		status.Reason = fmt.Sprintf("%d of %d matches in round %d are unfinished",
			pending, len(current.Matches), current.Number)
		return status
	}

	if len(current.Matches)%2 != 0 {
		status.Reason = fmt.Sprintf("round %d has an odd number of matches", current.Number)
		return status
	}

	status.CanGenerate = true
	return status
}
