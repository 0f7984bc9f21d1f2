package handlers

import (
	"errors"
	"net/http"

	"github.com/courtside-club/courtside-server/models"
	"github.com/courtside-club/courtside-server/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matches *services.MatchService
}

func NewMatchHandler(matches *services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var score models.Score
	if err := readJSON(w, r, &score); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if score.Winner == "" {
		badRequestResponse(w, r, errors.New("winner is required"))
		return
	}

	matchID := chi.URLParam(r, "matchID")
	if err := h.matches.SubmitScore(r.Context(), matchID, score); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "score recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ConfirmResult(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if err := h.matches.ConfirmResult(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "result confirmed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
