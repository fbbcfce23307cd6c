package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/prediction-pool/live"
	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
	hub               *live.Hub
}

func NewPredictionHandler(predictionService services.PredictionService, hub *live.Hub) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
		hub:               hub,
	}
}

// SaveGroupPredictions принимает счета шести матчей группы и возвращает
// пересчитанную таблицу (и рейтинг третьих мест, если групповой этап закрыт).
func (h *PredictionHandler) SaveGroupPredictions(w http.ResponseWriter, r *http.Request) {
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
	groupID, err := intURLParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Scores []services.GroupScoreInput `json:"scores"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.predictionService.SaveGroupPredictions(r.Context(), userID, poolID, groupID, input.Scores)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.broadcast(poolID, live.EventStandingsUpdated, jsonResponse{
		"user_id":  userID,
		"group_id": groupID,
	})
	if result.BestThirdPlaces != nil {
		h.broadcast(poolID, live.EventThirdsUpdated, jsonResponse{"user_id": userID})
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetManualGroupOrder принимает ручной порядок команд внутри кластеров
// равенства: map team_id -> позиция.
func (h *PredictionHandler) SetManualGroupOrder(w http.ResponseWriter, r *http.Request) {
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
	groupID, err := intURLParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Positions map[string]int `json:"positions"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	positions := make(map[int]int, len(input.Positions))
	for teamIDStr, position := range input.Positions {
		teamID, err := strconv.Atoi(teamIDStr)
		if err != nil || teamID <= 0 {
			badRequestResponse(w, r, err)
			return
		}
		positions[teamID] = position
	}

	result, err := h.predictionService.SetManualGroupOrder(r.Context(), userID, poolID, groupID, positions)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.broadcast(poolID, live.EventStandingsUpdated, jsonResponse{
		"user_id":  userID,
		"group_id": groupID,
	})

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) GetGroupStandings(w http.ResponseWriter, r *http.Request) {
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
	groupID, err := intURLParam(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.predictionService.GetGroupStandings(r.Context(), userID, poolID, groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) GetBestThirdPlaces(w http.ResponseWriter, r *http.Request) {
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

	thirds, err := h.predictionService.GetBestThirdPlaces(r.Context(), userID, poolID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"best_third_places": thirds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) broadcast(poolID int, eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastToRoom(strconv.Itoa(poolID), live.Event{
		Type:    eventType,
		Payload: payload,
	})
}
