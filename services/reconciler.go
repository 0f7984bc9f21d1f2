package services

import (
	"sync"

	"github.com/courtside-club/courtside-server/feed"
)

// DeletionTracker attributes "record no longer exists" feed events. A
// marker is set synchronously the instant this client dispatches a delete,
// before the call returns, so a concurrent feed delivery can never race it.
// State is keyed by tournament id: an admin juggling several tournaments
// must not have one delete suppress another's notice.
type DeletionTracker struct {
	mu    sync.Mutex
	marks map[string]bool
}

var _ feed.DeletionAttributor = (*DeletionTracker)(nil)

func NewDeletionTracker() *DeletionTracker {
	return &DeletionTracker{marks: make(map[string]bool)}
}

// Mark records that this client is deleting the tournament.
func (d *DeletionTracker) Mark(tournamentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marks[tournamentID] = true
}

// Clear drops the marker after a failed delete, so a retry is attributed
// correctly.
func (d *DeletionTracker) Clear(tournamentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.marks, tournamentID)
}

// consume reports whether the marker was set and clears it.
func (d *DeletionTracker) consume(tournamentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	marked := d.marks[tournamentID]
	delete(d.marks, tournamentID)
	return marked
}

// ShouldNotifyExternalDeletion decides whether a feed event warrants the
// "removed by another administrator" notice. Self-initiated deletions are
// suppressed; the delete action's own success path already informed the
// user.
func (d *DeletionTracker) ShouldNotifyExternalDeletion(ev feed.Event) bool {
	if ev.Type != feed.EventTournamentDeleted {
		return false
	}
	return !d.consume(ev.TournamentID)
}
