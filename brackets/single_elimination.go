package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/courtside-club/courtside-server/models"
)

// Unit is one bracket slot: a player in singles, a team in doubles.
type Unit struct {
	ID   string
	Name string
	Seed int
}

func (u Unit) participant() *models.Participant {
	return &models.Participant{PlayerID: u.ID, PlayerName: u.Name, Seed: u.Seed}
}

// UnitsFor derives the bracket units for a tournament. Doubles teams enter
// the bracket as a single slot under their composite team id.
func UnitsFor(t *models.Tournament) ([]Unit, error) {
	if t.EventType.IsDoubles() {
		teams, err := GroupIntoTeams(t.Participants)
		if err != nil {
			return nil, err
		}
		units := make([]Unit, len(teams))
		for i, team := range teams {
			units[i] = Unit{ID: team.TeamID, Name: team.TeamName, Seed: team.Seed}
		}
		return units, nil
	}

	units := make([]Unit, len(t.Participants))
	for i, p := range t.Participants {
		units[i] = Unit{ID: p.PlayerID, Name: p.PlayerName, Seed: p.Seed}
	}
	return units, nil
}

// seedSlots returns the canonical slot order for a bracket of the given
// power-of-two size, as 1-based seed ranks: size 8 -> [1 8 4 5 2 7 3 6].
// Adjacent pairs meet in round one, so seed 1 plays the lowest rank and the
// top two seeds can only meet in the final.
func seedSlots(size int) []int {
	slots := []int{1}
	for len(slots) < size {
		mirror := len(slots)*2 + 1
		next := make([]int, 0, len(slots)*2)
		for _, s := range slots {
			next = append(next, s, mirror-s)
		}
		slots = next
	}
	return slots
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size *= 2
	}
	return size
}

// GenerateFirstRound builds the round-one match set for a tournament.
// Seeded units take their bracket positions by seed; unseeded units fill the
// remaining ranks in registration order. Slots left over in a non-power-of-
// two field become byes: the present unit advances immediately via a
// completed match with no opponent.
func GenerateFirstRound(t *models.Tournament) ([]models.BracketMatch, error) {
	units, err := UnitsFor(t)
	if err != nil {
		return nil, err
	}
	if len(units) < 2 {
		return nil, errors.New("at least two bracket units are required")
	}

	ranked := make([]Unit, len(units))
	copy(ranked, units)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Seed, ranked[j].Seed
		switch {
		case a >= 1 && b >= 1:
			return a < b
		case a >= 1:
			return true
		default:
			return false
		}
	})

	size := nextPowerOfTwo(len(ranked))
	slots := seedSlots(size)

	matches := make([]models.BracketMatch, 0, size/2)
	for i := 0; i < size; i += 2 {
		var p1, p2 *Unit
		if rank := slots[i]; rank <= len(ranked) {
			p1 = &ranked[rank-1]
		}
		if rank := slots[i+1]; rank <= len(ranked) {
			p2 = &ranked[rank-1]
		}
		if p1 == nil && p2 == nil {
			return nil, fmt.Errorf("empty pairing at slots %d,%d for %d units", i, i+1, len(ranked))
		}
		if p1 == nil {
			p1, p2 = p2, nil
		}

		number := len(matches) + 1
		match := models.BracketMatch{
			TournamentID:    t.ID,
			RoundNumber:     1,
			MatchNumber:     number,
			BracketPosition: number,
			Player1:         p1.participant(),
			Status:          models.MatchStatusScheduled,
		}
		if p2 != nil {
			match.Player2 = p2.participant()
		} else {
			// Bye: the unit advances without playing.
			winnerID := p1.ID
			match.Status = models.MatchStatusCompleted
			match.WinnerID = &winnerID
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// NextRoundMatch is a generated pairing plus the ids of the two current-
// round matches whose winners feed it, for next_match_id backfill once the
// new match has an id.
type NextRoundMatch struct {
	Match          models.BracketMatch
	SourceMatchIDs [2]string
}

// PairNextRound pairs the winners of the current round in bracket order.
// Fails with the advisor's reason when the round is not ready.
func PairNextRound(matches []models.BracketMatch) ([]NextRoundMatch, error) {
	status := EvaluateNextRound(matches)
	if !status.CanGenerate {
		return nil, fmt.Errorf("cannot generate round %d: %s", status.NextRound, status.Reason)
	}

	view := BuildBracket(matches)
	current := view.Rounds[len(view.Rounds)-1]

	generated := make([]NextRoundMatch, 0, len(current.Matches)/2)
	for i := 0; i < len(current.Matches); i += 2 {
		left, right := current.Matches[i], current.Matches[i+1]
		leftWinner, rightWinner := ResolveWinner(left), ResolveWinner(right)

		number := len(generated) + 1
		match := models.BracketMatch{
			TournamentID:    left.TournamentID,
			RoundNumber:     status.NextRound,
			MatchNumber:     number,
			BracketPosition: number,
			Player1:         copyParticipant(leftWinner),
			Player2:         copyParticipant(rightWinner),
			Status:          models.MatchStatusScheduled,
		}
		generated = append(generated, NextRoundMatch{
			Match:          match,
			SourceMatchIDs: [2]string{left.ID, right.ID},
		})
	}
	return generated, nil
}

func copyParticipant(p *models.Participant) *models.Participant {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
