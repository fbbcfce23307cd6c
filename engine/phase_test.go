package engine

import (
	"errors"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
)

func pensPtr(w models.PenaltiesWinner) *models.PenaltiesWinner { return &w }

func TestValidateMatchResultCascade(t *testing.T) {
	tests := []struct {
		name    string
		pred    models.MatchPrediction
		wantErr bool
	}{
		{"decisive regulation", models.MatchPrediction{HomeScore: 2, AwayScore: 1}, false},
		{"decisive regulation away", models.MatchPrediction{HomeScore: 0, AwayScore: 3}, false},
		{
			"decisive extra time",
			models.MatchPrediction{HomeScore: 2, AwayScore: 2, HomeScoreET: intPtr(3), AwayScoreET: intPtr(2)},
			false,
		},
		{
			"penalties after extra-time draw",
			models.MatchPrediction{
				HomeScore: 1, AwayScore: 1,
				HomeScoreET: intPtr(1), AwayScoreET: intPtr(1),
				PenaltiesWinner: pensPtr(models.PenaltiesWinnerAway),
			},
			false,
		},
		{
			"extra time after decisive regulation",
			models.MatchPrediction{HomeScore: 2, AwayScore: 1, HomeScoreET: intPtr(3), AwayScoreET: intPtr(1)},
			true,
		},
		{
			"penalties after decisive regulation",
			models.MatchPrediction{HomeScore: 2, AwayScore: 1, PenaltiesWinner: pensPtr(models.PenaltiesWinnerHome)},
			true,
		},
		{"draw without extra time", models.MatchPrediction{HomeScore: 1, AwayScore: 1}, true},
		{
			"half of extra time missing",
			models.MatchPrediction{HomeScore: 1, AwayScore: 1, HomeScoreET: intPtr(2)},
			true,
		},
		{
			"extra time below regulation",
			models.MatchPrediction{HomeScore: 2, AwayScore: 2, HomeScoreET: intPtr(1), AwayScoreET: intPtr(2)},
			true,
		},
		{
			"penalties after decisive extra time",
			models.MatchPrediction{
				HomeScore: 1, AwayScore: 1,
				HomeScoreET: intPtr(2), AwayScoreET: intPtr(1),
				PenaltiesWinner: pensPtr(models.PenaltiesWinnerHome),
			},
			true,
		},
		{
			"extra-time draw without penalties",
			models.MatchPrediction{HomeScore: 0, AwayScore: 0, HomeScoreET: intPtr(0), AwayScoreET: intPtr(0)},
			true,
		},
		{
			"invalid penalties winner",
			models.MatchPrediction{
				HomeScore: 1, AwayScore: 1,
				HomeScoreET: intPtr(1), AwayScoreET: intPtr(1),
				PenaltiesWinner: pensPtr("both"),
			},
			true,
		},
		{"negative regulation score", models.MatchPrediction{HomeScore: -1, AwayScore: 0}, true},
		{
			"negative extra-time score",
			models.MatchPrediction{HomeScore: 0, AwayScore: 0, HomeScoreET: intPtr(-1), AwayScoreET: intPtr(0)},
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMatchResult(&tc.pred)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				if !IsValidationError(err) {
					t.Fatalf("expected *ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDetermineWinnerPrecedence(t *testing.T) {
	match := &models.Match{HomeTeamID: intPtr(10), AwayTeamID: intPtr(20)}

	tests := []struct {
		name string
		pred models.MatchPrediction
		want *int
	}{
		{"regulation home", models.MatchPrediction{HomeScore: 2, AwayScore: 1}, intPtr(10)},
		{"regulation away", models.MatchPrediction{HomeScore: 0, AwayScore: 1}, intPtr(20)},
		{
			// Литеральный пример: 2-2, доп. время 3-2, без пенальти.
			"extra time home",
			models.MatchPrediction{HomeScore: 2, AwayScore: 2, HomeScoreET: intPtr(3), AwayScoreET: intPtr(2)},
			intPtr(10),
		},
		{
			// Литеральный пример: 1-1, доп. время 1-1, пенальти away.
			"penalties away",
			models.MatchPrediction{
				HomeScore: 1, AwayScore: 1,
				HomeScoreET: intPtr(1), AwayScoreET: intPtr(1),
				PenaltiesWinner: pensPtr(models.PenaltiesWinnerAway),
			},
			intPtr(20),
		},
		{
			// Победитель пенальти имеет приоритет над любыми счетами.
			"penalties take precedence",
			models.MatchPrediction{
				HomeScore: 1, AwayScore: 1,
				HomeScoreET: intPtr(3), AwayScoreET: intPtr(2),
				PenaltiesWinner: pensPtr(models.PenaltiesWinnerAway),
			},
			intPtr(20),
		},
		{"unresolved draw", models.MatchPrediction{HomeScore: 1, AwayScore: 1}, nil},
		{
			"unresolved extra-time draw",
			models.MatchPrediction{HomeScore: 1, AwayScore: 1, HomeScoreET: intPtr(2), AwayScoreET: intPtr(2)},
			nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetermineWinner(&tc.pred, match)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected no winner, got team %d", *got)
				}
				return
			}
			if got == nil || *got != *tc.want {
				t.Fatalf("got %v, want team %d", got, *tc.want)
			}
		})
	}
}

func TestDetermineWinnerUsesPredictedTeams(t *testing.T) {
	// Для плей-офф составы берутся из прогноза, матч их еще не знает.
	pred := &models.MatchPrediction{
		HomeTeamID: intPtr(7),
		AwayTeamID: intPtr(8),
		HomeScore:  0, AwayScore: 2,
	}
	fixture := &models.Match{Phase: models.PhaseRoundOf16}

	winner := DetermineWinner(pred, fixture)
	if winner == nil || *winner != 8 {
		t.Fatalf("got %v, want team 8", winner)
	}
}

// knockoutRound строит полную предыдущую фазу: count матчей с решающими
// прогнозами (победитель - home-команда матча).
func knockoutRound(phase models.TournamentPhase, count int) ([]*models.Match, map[int]*models.MatchPrediction) {
	matches := make([]*models.Match, 0, count)
	preds := make(map[int]*models.MatchPrediction, count)
	for i := 0; i < count; i++ {
		id := 500 + i
		match := &models.Match{
			ID:             id,
			SequenceNumber: 73 + i,
			Phase:          phase,
		}
		matches = append(matches, match)
		preds[id] = &models.MatchPrediction{
			MatchID:    id,
			HomeTeamID: intPtr(id*10 + 1),
			AwayTeamID: intPtr(id*10 + 2),
			HomeScore:  1, AwayScore: 0,
		}
	}
	return matches, preds
}

func TestValidatePhaseCanBePredicted(t *testing.T) {
	t.Run("round of 32 always allowed", func(t *testing.T) {
		if err := ValidatePhaseCanBePredicted(models.PhaseRoundOf32, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("group stage is not a knockout phase", func(t *testing.T) {
		err := ValidatePhaseCanBePredicted(models.PhaseGroup, nil, nil)
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("seven of eight predictions", func(t *testing.T) {
		matches, preds := knockoutRound(models.PhaseRoundOf16, 8)
		delete(preds, matches[7].ID)
		err := ValidatePhaseCanBePredicted(models.PhaseQuarterFinals, matches, preds)
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("eighth prediction completes the gate", func(t *testing.T) {
		matches, preds := knockoutRound(models.PhaseRoundOf16, 8)
		if err := ValidatePhaseCanBePredicted(models.PhaseQuarterFinals, matches, preds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unresolved draw blocks progression", func(t *testing.T) {
		matches, preds := knockoutRound(models.PhaseRoundOf16, 8)
		preds[matches[3].ID].AwayScore = preds[matches[3].ID].HomeScore
		err := ValidatePhaseCanBePredicted(models.PhaseQuarterFinals, matches, preds)
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("wrong match count", func(t *testing.T) {
		matches, preds := knockoutRound(models.PhaseRoundOf16, 7)
		err := ValidatePhaseCanBePredicted(models.PhaseQuarterFinals, matches, preds)
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestValidateMatchTeams(t *testing.T) {
	upstreamMatches := map[int]*models.Match{
		73: {ID: 600, SequenceNumber: 73, Phase: models.PhaseRoundOf32},
		74: {ID: 601, SequenceNumber: 74, Phase: models.PhaseRoundOf32},
	}
	upstreamPreds := map[int]*models.MatchPrediction{
		73: {MatchID: 600, HomeTeamID: intPtr(10), AwayTeamID: intPtr(11), HomeScore: 2, AwayScore: 0},
		74: {MatchID: 601, HomeTeamID: intPtr(20), AwayTeamID: intPtr(21), HomeScore: 0, AwayScore: 1},
	}
	fixture := &models.Match{
		ID:             700,
		SequenceNumber: 89,
		Phase:          models.PhaseRoundOf16,
		DependsOn:      []int{73, 74},
	}

	t.Run("round of 32 is a no-op", func(t *testing.T) {
		r32 := &models.Match{SequenceNumber: 73, Phase: models.PhaseRoundOf32}
		if err := ValidateMatchTeams(models.PhaseRoundOf32, r32, 1, 2, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("matching winners", func(t *testing.T) {
		if err := ValidateMatchTeams(models.PhaseRoundOf16, fixture, 10, 21, upstreamMatches, upstreamPreds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("wrong away team", func(t *testing.T) {
		err := ValidateMatchTeams(models.PhaseRoundOf16, fixture, 10, 20, upstreamMatches, upstreamPreds)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
		if _, ok := ve.Fields["away_team"]; !ok {
			t.Errorf("expected away_team in fields, got %v", ve.Fields)
		}
		if _, ok := ve.Fields["home_team"]; ok {
			t.Errorf("home_team should not be flagged: %v", ve.Fields)
		}
	})

	t.Run("missing upstream match", func(t *testing.T) {
		broken := &models.Match{SequenceNumber: 89, Phase: models.PhaseRoundOf16, DependsOn: []int{73, 99}}
		err := ValidateMatchTeams(models.PhaseRoundOf16, broken, 10, 21, upstreamMatches, upstreamPreds)
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("expected ErrInvariant, got %v", err)
		}
	})

	t.Run("missing upstream prediction", func(t *testing.T) {
		partial := map[int]*models.MatchPrediction{73: upstreamPreds[73]}
		err := ValidateMatchTeams(models.PhaseRoundOf16, fixture, 10, 21, upstreamMatches, partial)
		if err == nil || !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("single dependency is a template defect", func(t *testing.T) {
		broken := &models.Match{SequenceNumber: 89, Phase: models.PhaseRoundOf16, DependsOn: []int{73}}
		err := ValidateMatchTeams(models.PhaseRoundOf16, broken, 10, 21, upstreamMatches, upstreamPreds)
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("expected ErrInvariant, got %v", err)
		}
	})
}
