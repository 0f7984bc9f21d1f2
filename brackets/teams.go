package brackets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/courtside-club/courtside-server/models"
)

// ErrUnpairedParticipants means a doubles participant list contains missing
// or one-sided partner links. This is a data-integrity fault in the stored
// records, distinct from an empty participant list.
var ErrUnpairedParticipants = errors.New("participants with missing or one-sided partner links")

// TeamID returns the stable composite identifier for a doubles pairing.
// The same two players always produce the same id regardless of order.
func TeamID(playerA, playerB string) string {
	if playerB < playerA {
		playerA, playerB = playerB, playerA
	}
	return playerA + "_" + playerB
}

// GroupIntoTeams pairs doubles participants into derived teams. Each
// participant naming a partner is combined with that partner exactly once;
// the partner is not emitted again as a standalone entry.
//
// Any participant that cannot be paired (no partner_id, partner not in the
// list, or a link that does not point back) makes the whole list invalid:
// the formable teams are still returned, together with
// ErrUnpairedParticipants naming the offending players.
func GroupIntoTeams(participants []models.Participant) ([]models.DoublesTeam, error) {
	byID := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		byID[p.PlayerID] = p
	}

	consumed := make(map[string]bool, len(participants))
	teams := make([]models.DoublesTeam, 0, len(participants)/2)
	var unpaired []string

	for _, p := range participants {
		if consumed[p.PlayerID] {
			continue
		}
		if p.PartnerID == nil || *p.PartnerID == "" {
			unpaired = append(unpaired, p.PlayerID)
			continue
		}
		partner, ok := byID[*p.PartnerID]
		if !ok || partner.PlayerID == p.PlayerID {
			unpaired = append(unpaired, p.PlayerID)
			continue
		}
		if partner.PartnerID == nil || *partner.PartnerID != p.PlayerID {
			// One-sided link. The partner will be reported on its own turn
			// if its link is broken too.
			unpaired = append(unpaired, p.PlayerID)
			continue
		}
		consumed[p.PlayerID] = true
		consumed[partner.PlayerID] = true
		teams = append(teams, newTeam(p, partner))
	}

	if len(unpaired) > 0 {
		sort.Strings(unpaired)
		return teams, fmt.Errorf("%w: %s", ErrUnpairedParticipants, strings.Join(unpaired, ", "))
	}
	return teams, nil
}

func newTeam(a, b models.Participant) models.DoublesTeam {
	if b.PlayerID < a.PlayerID {
		a, b = b, a
	}
	name := a.PlayerName + " / " + b.PlayerName
	if a.TeamName != nil && *a.TeamName != "" {
		name = *a.TeamName
	} else if b.TeamName != nil && *b.TeamName != "" {
		name = *b.TeamName
	}
	team := models.DoublesTeam{
		TeamID:   TeamID(a.PlayerID, b.PlayerID),
		Player1:  a,
		Player2:  b,
		TeamName: name,
	}
	// Partners share one seed; expose it only when both sides agree.
	if a.Seed == b.Seed {
		team.Seed = a.Seed
	}
	return team
}
