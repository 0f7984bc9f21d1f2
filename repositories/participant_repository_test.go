package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedExecutor records the player ids the plan writes and reports zero
// affected rows for any player it does not know about.
type seedExecutor struct {
	known    map[string]bool
	executed []string
}

func (e *seedExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	playerID, ok := args[2].(string)
	if !ok {
		return nil, sql.ErrNoRows
	}
	e.executed = append(e.executed, playerID)
	if e.known[playerID] {
		return affectedRows(1), nil
	}
	return affectedRows(0), nil
}

func (e *seedExecutor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, sql.ErrNoRows
}

func (e *seedExecutor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type affectedRows int64

func (r affectedRows) LastInsertId() (int64, error) { return 0, nil }
func (r affectedRows) RowsAffected() (int64, error) { return int64(r), nil }

func TestApplySeedPlan(t *testing.T) {
	t.Run("writes every assignment in the plan", func(t *testing.T) {
		exec := &seedExecutor{known: map[string]bool{"p1": true, "p2": true}}
		plan := []brackets.SeedAssignment{
			{PlayerID: "p1", Seed: 1},
			{PlayerID: "p2", Seed: 1},
		}

		require.NoError(t, applySeedPlan(context.Background(), exec, "t1", plan))
		assert.Equal(t, []string{"p1", "p2"}, exec.executed)
	})

	t.Run("halts on the first unknown player", func(t *testing.T) {
		exec := &seedExecutor{known: map[string]bool{"p1": true, "p3": true}}
		plan := []brackets.SeedAssignment{
			{PlayerID: "p1", Seed: 2},
			{PlayerID: "p2", Seed: 2},
			{PlayerID: "p3", Seed: 2},
		}

		err := applySeedPlan(context.Background(), exec, "t1", plan)
		require.ErrorIs(t, err, ErrParticipantNotFound)
		// The surrounding transaction rolls back, so no write after the
		// failure point may ever run.
		assert.Equal(t, []string{"p1", "p2"}, exec.executed)
	})
}

func TestUpdateSeedsUsesCallerExecutor(t *testing.T) {
	exec := &seedExecutor{known: map[string]bool{"p1": true}}
	repo := NewPostgresParticipantRepository(nil)

	plan := []brackets.SeedAssignment{{PlayerID: "p1", Seed: 1}}
	require.NoError(t, repo.UpdateSeeds(context.Background(), exec, "t1", plan))
	assert.Equal(t, []string{"p1"}, exec.executed)
}
