package handlers

import (
	"net/http"

	"github.com/cardhall/tournament-engine/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(playerService services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
