package brackets

import (
	"testing"

	"github.com/courtside-club/courtside-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id, name string) *models.Participant {
	return &models.Participant{PlayerID: id, PlayerName: name}
}

func TestBuildBracketRoundGrouping(t *testing.T) {
	matches := []models.BracketMatch{
		{ID: "m3", RoundNumber: 2, MatchNumber: 1},
		{ID: "m2", RoundNumber: 1, MatchNumber: 2},
		{ID: "m1", RoundNumber: 1, MatchNumber: 1},
		{ID: "m4", RoundNumber: 3, MatchNumber: 1},
	}

	view := BuildBracket(matches)
	require.Len(t, view.Rounds, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{view.Rounds[0].Number, view.Rounds[1].Number, view.Rounds[2].Number})
	assert.Len(t, view.Rounds[0].Matches, 2)
	assert.Len(t, view.Rounds[1].Matches, 1)
	assert.Len(t, view.Rounds[2].Matches, 1)
	assert.Equal(t, "m1", view.Rounds[0].Matches[0].ID)
	assert.Equal(t, "m2", view.Rounds[0].Matches[1].ID)
}

func TestBuildBracketBracketPositionFallback(t *testing.T) {
	// Rows written before match_number carry only bracket_position.
	matches := []models.BracketMatch{
		{ID: "b", RoundNumber: 1, BracketPosition: 2},
		{ID: "a", RoundNumber: 1, BracketPosition: 1},
	}

	view := BuildBracket(matches)
	require.Len(t, view.Rounds, 1)
	assert.Equal(t, "a", view.Rounds[0].Matches[0].ID)
}

func TestBuildBracketDoesNotMutateInput(t *testing.T) {
	matches := []models.BracketMatch{
		{ID: "m2", RoundNumber: 1, MatchNumber: 2},
		{ID: "m1", RoundNumber: 1, MatchNumber: 1},
	}

	first := BuildBracket(matches)
	assert.Equal(t, "m2", matches[0].ID, "input order must be preserved")

	second := BuildBracket(matches)
	assert.Equal(t, first, second)
}

func TestBuildBracketChampion(t *testing.T) {
	winnerID := "p7"
	testCases := []struct {
		name     string
		matches  []models.BracketMatch
		champion *string
	}{
		{
			name: "score winner slot resolves",
			matches: []models.BracketMatch{
				{
					RoundNumber: 2, MatchNumber: 1,
					Player1: player("p7", "Greta"), Player2: player("p8", "Hank"),
					Status: models.MatchStatusCompleted,
					Score:  &models.Score{Winner: models.SlotPlayer1},
				},
				{RoundNumber: 1, MatchNumber: 1},
				{RoundNumber: 1, MatchNumber: 2},
			},
			champion: &winnerID,
		},
		{
			name: "winner id takes priority over score",
			matches: []models.BracketMatch{
				{
					RoundNumber: 1, MatchNumber: 1,
					Player1: player("p7", "Greta"), Player2: player("p8", "Hank"),
					Status:   models.MatchStatusConfirmed,
					WinnerID: &winnerID,
					Score:    &models.Score{Winner: models.SlotPlayer2},
				},
			},
			champion: &winnerID,
		},
		{
			name: "legacy winner column resolves",
			matches: []models.BracketMatch{
				{
					RoundNumber: 1, MatchNumber: 1,
					Player1: player("p7", "Greta"), Player2: player("p8", "Hank"),
					Status:  models.MatchStatusConfirmed,
					WinnerPlayerID: &winnerID,
				},
			},
			champion: &winnerID,
		},
		{
			name: "no winner resolvable",
			matches: []models.BracketMatch{
				{
					RoundNumber: 1, MatchNumber: 1,
					Player1: player("p7", "Greta"), Player2: player("p8", "Hank"),
					Status:  models.MatchStatusInProgress,
				},
			},
			champion: nil,
		},
		{
			name: "score winner ignored while match not completed",
			matches: []models.BracketMatch{
				{
					RoundNumber: 1, MatchNumber: 1,
					Player1: player("p7", "Greta"), Player2: player("p8", "Hank"),
					Status:  models.MatchStatusInProgress,
					Score:   &models.Score{Winner: models.SlotPlayer1},
				},
			},
			champion: nil,
		},
		{
			name: "final round with two matches has no champion",
			matches: []models.BracketMatch{
				{RoundNumber: 1, MatchNumber: 1, WinnerID: &winnerID},
				{RoundNumber: 1, MatchNumber: 2},
			},
			champion: nil,
		},
		{
			name:     "no matches",
			matches:  nil,
			champion: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			view := BuildBracket(tc.matches)
			if tc.champion == nil {
				assert.Nil(t, view.Champion)
				return
			}
			require.NotNil(t, view.Champion)
			assert.Equal(t, *tc.champion, view.Champion.PlayerID)
		})
	}
}

func TestResolveWinnerUnknownIDKeepsAttribution(t *testing.T) {
	stray := "p99"
	match := models.BracketMatch{
		Player1:  player("p1", "Anna"),
		Player2:  player("p2", "Boris"),
		WinnerID: &stray,
	}
	winner := ResolveWinner(match)
	require.NotNil(t, winner)
	assert.Equal(t, "p99", winner.PlayerID)
}
