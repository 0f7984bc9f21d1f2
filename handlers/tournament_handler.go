package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/repositories"
	"github.com/courtside-club/courtside-server/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	lifecycle   *services.LifecycleService
	tournaments *services.TournamentService
}

func NewTournamentHandler(lifecycle *services.LifecycleService, tournaments *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{lifecycle: lifecycle, tournaments: tournaments}
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.lifecycle.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{
		ClubID: r.URL.Query().Get("club_id"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			badRequestResponse(w, r, errors.New("offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	tournaments, err := h.tournaments.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get returns the full detail bundle: record, matches, derived bracket,
// teams, seeding state and the actions valid right now.
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.tournaments.GetBundle(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bundle, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.DeleteTournament(r.Context(), chi.URLParam(r, "tournamentID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.lifecycle.OpenRegistration)
}

func (h *TournamentHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.lifecycle.CloseRegistration)
}

func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.lifecycle.StartTournament)
}

func (h *TournamentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.lifecycle.CompleteTournament)
}

func (h *TournamentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, h.lifecycle.CancelTournament)
}

// lifecycleAction runs a status transition and responds with the refreshed
// record, so the caller sees exactly what the store now holds.
func (h *TournamentHandler) lifecycleAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, tournamentID string) error) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if err := action(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithTournament(w, r, tournamentID, http.StatusOK)
}

func (h *TournamentHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var participant models.Participant
	if err := readJSON(w, r, &participant); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if participant.PlayerID == "" {
		badRequestResponse(w, r, errors.New("player_id is required"))
		return
	}

	tournamentID := chi.URLParam(r, "tournamentID")
	if err := h.lifecycle.AddParticipant(r.Context(), tournamentID, participant); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithTournament(w, r, tournamentID, http.StatusCreated)
}

func (h *TournamentHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	playerID := chi.URLParam(r, "playerID")
	if err := h.lifecycle.RemoveParticipant(r.Context(), tournamentID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithTournament(w, r, tournamentID, http.StatusOK)
}

func (h *TournamentHandler) AssignSeed(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
		Seed     int    `json:"seed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID == "" {
		badRequestResponse(w, r, errors.New("player_id is required"))
		return
	}

	tournamentID := chi.URLParam(r, "tournamentID")
	if err := h.lifecycle.AssignSeed(r.Context(), tournamentID, input.PlayerID, input.Seed); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithTournament(w, r, tournamentID, http.StatusOK)
}

func (h *TournamentHandler) GenerateNextRound(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if err := h.lifecycle.GenerateNextRound(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithTournament(w, r, tournamentID, http.StatusOK)
}

func (h *TournamentHandler) RoundStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.lifecycle.RoundStatus(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, status, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

const maxPosterSize = 10 << 20 // 10MB

func (h *TournamentHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPosterSize); err != nil {
		badRequestResponse(w, r, errors.New("request must be multipart form data with a poster file"))
		return
	}
	file, header, err := r.FormFile("poster")
	if err != nil {
		badRequestResponse(w, r, errors.New("poster file is required"))
		return
	}
	defer file.Close()

	tournamentID := chi.URLParam(r, "tournamentID")
	url, err := h.tournaments.UploadPoster(r.Context(), tournamentID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"poster_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) respondWithTournament(w http.ResponseWriter, r *http.Request, tournamentID string, status int) {
	tournament, err := h.tournaments.GetTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, status, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
