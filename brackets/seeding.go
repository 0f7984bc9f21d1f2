package brackets

import (
	"errors"
	"fmt"

	"github.com/courtside-club/courtside-server/models"
)

var (
	ErrUnknownPlayer  = errors.New("player is not registered in this tournament")
	ErrSeedOutOfRange = errors.New("seed value out of range")
	ErrSeedTaken      = errors.New("seed value already assigned")
)

// SeedAssignment is one participant seed write. Doubles produce one
// assignment per partner so both sides move in the same operation.
type SeedAssignment struct {
	PlayerID string `json:"player_id"`
	Seed     int    `json:"seed"`
}

// UnitCount returns the number of seeding units: teams for doubles events,
// individual participants otherwise.
func UnitCount(t *models.Tournament) (int, error) {
	if t.EventType.IsDoubles() {
		teams, err := GroupIntoTeams(t.Participants)
		if err != nil {
			return 0, err
		}
		return len(teams), nil
	}
	return len(t.Participants), nil
}

// IsSeedingComplete reports whether manual seeding forms a strict bijection
// onto {1..unitCount}: every unit seeded, no gaps, no duplicates. Partners
// share one seed and are counted once. Auto seeding is always complete, since
// assignment is delegated to the bracket generator.
func IsSeedingComplete(t *models.Tournament) bool {
	if t.Settings.SeedingMethod == models.SeedingAuto {
		return true
	}

	var unitCount int
	assigned := make(map[int]bool)

	if t.EventType.IsDoubles() {
		teams, err := GroupIntoTeams(t.Participants)
		if err != nil {
			return false
		}
		unitCount = len(teams)
		for _, team := range teams {
			if team.Seed >= 1 {
				assigned[team.Seed] = true
			}
		}
	} else {
		unitCount = len(t.Participants)
		for _, p := range t.Participants {
			if p.Seeded() {
				assigned[p.Seed] = true
			}
		}
	}

	if len(assigned) != unitCount {
		return false
	}
	for seed := 1; seed <= unitCount; seed++ {
		if !assigned[seed] {
			return false
		}
	}
	return true
}

// PlanSeedAssignment validates assigning seedValue to the unit containing
// targetPlayerID and returns the participant writes to perform. A seed of 0
// clears the unit. An empty plan with a nil error is a no-op: the unit
// already holds the requested value.
func PlanSeedAssignment(t *models.Tournament, targetPlayerID string, seedValue int) ([]SeedAssignment, error) {
	if t.EventType.IsDoubles() {
		return planTeamSeed(t, targetPlayerID, seedValue)
	}
	return planSingleSeed(t, targetPlayerID, seedValue)
}

func planSingleSeed(t *models.Tournament, playerID string, seedValue int) ([]SeedAssignment, error) {
	var target *models.Participant
	for i := range t.Participants {
		if t.Participants[i].PlayerID == playerID {
			target = &t.Participants[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	if seedValue == 0 {
		if !target.Seeded() {
			return nil, nil
		}
		return []SeedAssignment{{PlayerID: target.PlayerID, Seed: 0}}, nil
	}

	if seedValue < 1 || seedValue > len(t.Participants) {
		return nil, fmt.Errorf("%w: seed must be between 1 and %d", ErrSeedOutOfRange, len(t.Participants))
	}
	if target.Seed == seedValue {
		return nil, nil
	}
	for _, p := range t.Participants {
		if p.PlayerID != target.PlayerID && p.Seed == seedValue {
			return nil, fmt.Errorf("%w: seed %d is held by %s", ErrSeedTaken, seedValue, p.PlayerName)
		}
	}
	return []SeedAssignment{{PlayerID: target.PlayerID, Seed: seedValue}}, nil
}

func planTeamSeed(t *models.Tournament, playerID string, seedValue int) ([]SeedAssignment, error) {
	teams, err := GroupIntoTeams(t.Participants)
	if err != nil {
		return nil, err
	}

	var target *models.DoublesTeam
	for i := range teams {
		if teams[i].HasPlayer(playerID) {
			target = &teams[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	if seedValue == 0 {
		if target.Seed == 0 && !target.Player1.Seeded() && !target.Player2.Seeded() {
			return nil, nil
		}
		return teamAssignments(target, 0), nil
	}

	if seedValue < 1 || seedValue > len(teams) {
		return nil, fmt.Errorf("%w: seed must be between 1 and %d", ErrSeedOutOfRange, len(teams))
	}
	if target.Seed == seedValue {
		return nil, nil
	}
	for i := range teams {
		if teams[i].TeamID != target.TeamID && teams[i].Seed == seedValue {
			return nil, fmt.Errorf("%w: seed %d is held by %s", ErrSeedTaken, seedValue, teams[i].TeamName)
		}
	}
	return teamAssignments(target, seedValue), nil
}

// teamAssignments writes the same seed to both partners; the engine must
// never leave a pair with differing seeds.
func teamAssignments(team *models.DoublesTeam, seed int) []SeedAssignment {
	return []SeedAssignment{
		{PlayerID: team.Player1.PlayerID, Seed: seed},
		{PlayerID: team.Player2.PlayerID, Seed: seed},
	}
}
