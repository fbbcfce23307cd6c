package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rosterService services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

func (h *RosterHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.rosterService.ListGroups(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := intURLParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.rosterService.GetTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches отдает календарь: все матчи, матчи группы (?group_id=) или
// фазы (?phase=).
func (h *RosterHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var (
		matches []*models.Match
		err     error
	)

	switch {
	case r.URL.Query().Get("group_id") != "":
		groupID, parseErr := intQueryParam(r, "group_id")
		if parseErr != nil {
			badRequestResponse(w, r, parseErr)
			return
		}
		matches, err = h.rosterService.ListGroupMatches(r.Context(), groupID)
	case r.URL.Query().Get("phase") != "":
		matches, err = h.rosterService.ListPhaseMatches(r.Context(), models.TournamentPhase(r.URL.Query().Get("phase")))
	default:
		matches, err = h.rosterService.ListMatches(r.Context())
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadTeamCrest доступен только администратору (роль проверяет middleware).
func (h *RosterHandler) UploadTeamCrest(w http.ResponseWriter, r *http.Request) {
	teamID, err := intURLParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("crest")
	if err != nil {
		badRequestResponse(w, r, errors.New("crest file is required"))
		return
	}
	defer file.Close()

	team, err := h.rosterService.UploadTeamCrest(r.Context(), teamID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func intQueryParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}
