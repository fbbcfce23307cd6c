package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/prediction-pool/engine"
	"github.com/Dosada05/prediction-pool/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "phase locked wrapped by the knockout gate",
			err:        fmt.Errorf("%w: 2 of 16 matches are missing predictions", services.ErrPhaseLocked),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "groups incomplete",
			err:        services.ErrGroupsIncomplete,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "not a pool member",
			err:        services.ErrNotPoolMember,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid image format",
			err:        services.ErrInvalidImageFormat,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "prediction not found",
			err:        services.ErrPredictionNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "engine validation error with fields",
			err: &engine.ValidationError{
				Msg:    "submitted standings disagree with recomputation",
				Fields: map[string]string{"team_3.points": "expected 9, got 7"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "engine invariant violation",
			err:        fmt.Errorf("%w: fixture 77 has no upstream matches", engine.ErrInvariant),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(w, r, tc.err)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestMapServiceErrorToHTTPValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/", nil)
	mapServiceErrorToHTTP(w, r, &engine.ValidationError{
		Msg:    "submitted standings disagree with recomputation",
		Fields: map[string]string{"team_3.points": "expected 9, got 7"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "team_3.points") {
		t.Errorf("response body does not enumerate the mismatched field: %s", body)
	}
}
