package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/prediction-pool/live"
	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/services"
	"github.com/go-chi/chi/v5"
)

type KnockoutHandler struct {
	knockoutService services.KnockoutService
	hub             *live.Hub
}

func NewKnockoutHandler(knockoutService services.KnockoutService, hub *live.Hub) *KnockoutHandler {
	return &KnockoutHandler{
		knockoutService: knockoutService,
		hub:             hub,
	}
}

func phaseURLParam(r *http.Request) (models.TournamentPhase, error) {
	phase := models.TournamentPhase(chi.URLParam(r, "phase"))
	if !phase.IsKnockout() {
		return "", fmt.Errorf("unknown knockout phase %q", string(phase))
	}
	return phase, nil
}

func (h *KnockoutHandler) SavePhasePredictions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	poolID, err := intURLParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phase, err := phaseURLParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Matches []services.KnockoutMatchInput `json:"matches"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	saved, err := h.knockoutService.SavePhasePredictions(r.Context(), userID, poolID, phase, input.Matches)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(strconv.Itoa(poolID), live.Event{
			Type: live.EventKnockoutSaved,
			Payload: jsonResponse{
				"user_id": userID,
				"phase":   phase,
			},
		})
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"predictions": saved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *KnockoutHandler) GetPhasePredictions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	poolID, err := intURLParam(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	phase, err := phaseURLParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preds, err := h.knockoutService.GetPhasePredictions(r.Context(), userID, poolID, phase)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"predictions": preds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
