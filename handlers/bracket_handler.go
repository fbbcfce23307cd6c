package handlers

import (
	"net/http"

	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// GetRoundOf32 возвращает матчи первого раунда плей-офф с командами,
// выведенными из групповых прогнозов текущего пользователя.
func (h *BracketHandler) GetRoundOf32(w http.ResponseWriter, r *http.Request) {
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

	matches, err := h.bracketService.ResolveRoundOf32(r.Context(), userID, poolID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
