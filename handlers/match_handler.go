package handlers

import (
	"net/http"
	"strconv"

	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var roundFilter *int
	if raw := r.URL.Query().Get("round"); raw != "" {
		round, parseErr := strconv.Atoi(raw)
		if parseErr != nil || round < 1 {
			badRequestResponse(w, r, parseErr)
			return
		}
		roundFilter = &round
	}
	var statusFilter *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		statusFilter = &status
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, roundFilter, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitResult(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SubmitIntentionalDraw(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitIntentionalDraw(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) End(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.EndMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
