package brackets

import (
	"sort"

	"github.com/courtside-club/courtside-server/models"
)

// Round is one column of the reconstructed bracket.
type Round struct {
	Number  int                   `json:"number"`
	Matches []models.BracketMatch `json:"matches"`
}

// BracketView is the read projection handed to presentation code.
type BracketView struct {
	Rounds   []Round             `json:"rounds"`
	Champion *models.Participant `json:"champion,omitempty"`
}

// BuildBracket groups a flat match list into ordered rounds and derives the
// champion. The stored round_number is authoritative: matches are grouped by
// it exactly as delivered, never re-derived from counts or positions. If the
// upstream data is wrong the bracket looks wrong, which beats guessing.
//
// Pure projection: the input is not mutated and identical input yields
// identical output.
func BuildBracket(matches []models.BracketMatch) BracketView {
	byRound := make(map[int][]models.BracketMatch)
	for _, m := range matches {
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
	}

	numbers := make([]int, 0, len(byRound))
	for n := range byRound {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	view := BracketView{Rounds: make([]Round, 0, len(numbers))}
	for _, n := range numbers {
		roundMatches := byRound[n]
		sort.SliceStable(roundMatches, func(i, j int) bool {
			return orderInRound(roundMatches[i]) < orderInRound(roundMatches[j])
		})
		view.Rounds = append(view.Rounds, Round{Number: n, Matches: roundMatches})
	}

	if len(view.Rounds) > 0 {
		final := view.Rounds[len(view.Rounds)-1]
		if len(final.Matches) == 1 {
			view.Champion = ResolveWinner(final.Matches[0])
		}
	}
	return view
}

// orderInRound orders by match_number with bracket_position as the fallback
// for rows written before match_number existed.
func orderInRound(m models.BracketMatch) int {
	if m.MatchNumber > 0 {
		return m.MatchNumber
	}
	return m.BracketPosition
}

// ResolveWinner resolves a match winner by priority: the winner_id column,
// then the legacy winner_player_id column, then, for completed matches, the
// score's winner slot mapped to the corresponding player. Nil when none
// resolve.
func ResolveWinner(m models.BracketMatch) *models.Participant {
	if m.WinnerID != nil && *m.WinnerID != "" {
		return participantByID(m, *m.WinnerID)
	}
	if m.WinnerPlayerID != nil && *m.WinnerPlayerID != "" {
		return participantByID(m, *m.WinnerPlayerID)
	}
	if m.Status == models.MatchStatusCompleted && m.Score != nil {
		switch m.Score.Winner {
		case models.SlotPlayer1:
			return m.Player1
		case models.SlotPlayer2:
			return m.Player2
		}
	}
	return nil
}

func participantByID(m models.BracketMatch, id string) *models.Participant {
	if m.Player1 != nil && m.Player1.PlayerID == id {
		return m.Player1
	}
	if m.Player2 != nil && m.Player2.PlayerID == id {
		return m.Player2
	}
	// The record names a winner that is in neither slot; keep the id so the
	// caller can still attribute the result.
	return &models.Participant{PlayerID: id}
}
