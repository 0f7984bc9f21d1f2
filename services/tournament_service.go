package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
	"github.com/courtside-club/courtside-server/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TournamentService is the read side: it assembles the derived views that
// presentation consumes. Nothing here mutates tournament state.
type TournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

// TournamentBundle is everything the detail view needs in one fetch.
type TournamentBundle struct {
	Tournament *models.Tournament    `json:"tournament"`
	Matches    []models.BracketMatch `json:"matches"`
	Bracket    brackets.BracketView  `json:"bracket"`
	Teams      []models.DoublesTeam  `json:"teams,omitempty"`
	TeamsFault string                `json:"teams_fault,omitempty"`
	Seeding    SeedingStatus         `json:"seeding"`
	Actions    []string              `json:"available_actions"`
}

// SeedingStatus is the seeding-complete flag plus the unit count the UI
// numbers its seed picker with.
type SeedingStatus struct {
	Complete  bool `json:"complete"`
	UnitCount int  `json:"unit_count"`
}

func (s *TournamentService) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	tournament.Participants = participants
	s.populatePosterURL(tournament)
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.populatePosterURL(&tournaments[i])
	}
	return tournaments, nil
}

// GetBundle loads the tournament and its matches in parallel and derives
// every view in one pass.
func (s *TournamentService) GetBundle(ctx context.Context, tournamentID string) (*TournamentBundle, error) {
	bundle := &TournamentBundle{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := s.GetTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		bundle.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		bundle.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament := bundle.Tournament
	bundle.Bracket = brackets.BuildBracket(bundle.Matches)
	bundle.Actions = AvailableActions(tournament)

	if tournament.EventType.IsDoubles() {
		teams, err := brackets.GroupIntoTeams(tournament.Participants)
		bundle.Teams = teams
		if err != nil {
			// Broken partner data must be visible, not an empty list.
			bundle.TeamsFault = err.Error()
		}
		bundle.Seeding = SeedingStatus{
			Complete:  brackets.IsSeedingComplete(tournament),
			UnitCount: len(teams),
		}
	} else {
		bundle.Seeding = SeedingStatus{
			Complete:  brackets.IsSeedingComplete(tournament),
			UnitCount: len(tournament.Participants),
		}
	}
	return bundle, nil
}

// AvailableActions maps a tournament status to the lifecycle operations an
// admin may invoke. The switch is exhaustive: a status missing here is a
// bug, not a fallthrough.
func AvailableActions(t *models.Tournament) []string {
	switch t.Status {
	case models.StatusDraft:
		return []string{"open_registration", "cancel", "delete"}
	case models.StatusRegistration:
		return []string{"add_participant", "remove_participant", "close_registration", "cancel", "delete"}
	case models.StatusBracketGeneration:
		return []string{"assign_seed", "start", "cancel", "delete"}
	case models.StatusInProgress:
		return []string{"submit_score", "confirm_result", "generate_next_round", "complete", "cancel", "delete"}
	case models.StatusCompleted, models.StatusCancelled:
		return []string{}
	default:
		return []string{}
	}
}

func (s *TournamentService) populatePosterURL(t *models.Tournament) {
	if t.PosterKey != nil && *t.PosterKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*t.PosterKey); url != "" {
			t.PosterURL = &url
		}
	}
}

// UploadPoster stores a tournament poster and records its key. The old
// object is removed best-effort after the switch.
func (s *TournamentService) UploadPoster(ctx context.Context, tournamentID, contentType string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", validationErr(ErrValidationFailed, "poster storage is not configured")
	}
	tournament, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return "", err
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return "", validationErr(ErrValidationFailed, "%v", err)
	}
	key := fmt.Sprintf("tournaments/%s/poster_%s%s", tournamentID, uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return "", fmt.Errorf("poster upload failed: %w", err)
	}
	if err := s.tournamentRepo.UpdatePosterKey(ctx, tournamentID, &result.Key); err != nil {
		return "", err
	}

	if old := tournament.PosterKey; old != nil && *old != "" && *old != result.Key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.Warn("failed to delete previous poster",
				slog.String("key", *old), slog.Any("error", err))
		}
	}
	return result.Location, nil
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("unsupported poster content type %q", contentType)
	}
}
