package engine

import (
	"testing"

	"github.com/Dosada05/prediction-pool/models"
)

// thirdRow строит строку третьего места группы groupID с заданными очками
// и разницей мячей.
func thirdRow(groupID, points, goalsFor, goalsAgainst int) *models.GroupStandingPrediction {
	return &models.GroupStandingPrediction{
		GroupID:        groupID,
		TeamID:         groupID*10 + 3,
		Points:         points,
		Played:         3,
		GoalsFor:       goalsFor,
		GoalsAgainst:   goalsAgainst,
		GoalDifference: goalsFor - goalsAgainst,
		Position:       3,
	}
}

func TestRankBestThirdPlacesSelectsTopEight(t *testing.T) {
	rows := make([]*models.GroupStandingPrediction, 0, GroupCount)
	for g := 1; g <= GroupCount; g++ {
		// Группа 1 - сильнейшее третье место, группа 12 - слабейшее.
		rows = append(rows, thirdRow(g, GroupCount-g+1, GroupCount-g+4, 3))
	}

	best, err := RankBestThirdPlaces(rows)
	if err != nil {
		t.Fatalf("RankBestThirdPlaces: %v", err)
	}
	if len(best) != BestThirdPlaceCount {
		t.Fatalf("got %d rows, want %d", len(best), BestThirdPlaceCount)
	}

	for i, third := range best {
		if third.RankingPosition != i+1 {
			t.Errorf("row %d: ranking position %d, want %d", i, third.RankingPosition, i+1)
		}
		if third.RankingPosition > BestThirdPlaceCount {
			t.Errorf("row %d: ranking position %d exceeds %d", i, third.RankingPosition, BestThirdPlaceCount)
		}
		if third.GroupID != i+1 {
			t.Errorf("row %d: group %d, want %d", i, third.GroupID, i+1)
		}
		if third.TiebreakRequired {
			t.Errorf("row %d: unexpected tie-break flag", i)
		}
	}
}

func TestRankBestThirdPlacesTieCluster(t *testing.T) {
	rows := make([]*models.GroupStandingPrediction, 0, GroupCount)
	for g := 1; g <= GroupCount; g++ {
		points := 9 - g
		if g == 3 || g == 4 {
			// Группы 3 и 4 делят позицию: одинаковые очки, разница, забитые.
			rows = append(rows, thirdRow(g, 7, 5, 2))
			continue
		}
		rows = append(rows, thirdRow(g, points, g, 4))
	}

	best, err := RankBestThirdPlaces(rows)
	if err != nil {
		t.Fatalf("RankBestThirdPlaces: %v", err)
	}

	var clustered []*models.BestThirdPlacePrediction
	for _, third := range best {
		if third.GroupID == 3 || third.GroupID == 4 {
			clustered = append(clustered, third)
		}
	}
	if len(clustered) != 2 {
		t.Fatalf("expected both tied groups in the top 8, got %d", len(clustered))
	}
	for _, third := range clustered {
		if !third.TiebreakRequired || third.TiebreakGroup == nil {
			t.Errorf("group %d: missing tie-break metadata", third.GroupID)
		}
	}
	if *clustered[0].TiebreakGroup != *clustered[1].TiebreakGroup {
		t.Errorf("tied groups carry different cluster ids: %d vs %d",
			*clustered[0].TiebreakGroup, *clustered[1].TiebreakGroup)
	}
}

func TestRankBestThirdPlacesValidation(t *testing.T) {
	base := func() []*models.GroupStandingPrediction {
		rows := make([]*models.GroupStandingPrediction, 0, GroupCount)
		for g := 1; g <= GroupCount; g++ {
			rows = append(rows, thirdRow(g, g, g, 0))
		}
		return rows
	}

	tests := []struct {
		name   string
		mutate func(rows []*models.GroupStandingPrediction) []*models.GroupStandingPrediction
	}{
		{"eleven rows", func(rows []*models.GroupStandingPrediction) []*models.GroupStandingPrediction {
			return rows[:GroupCount-1]
		}},
		{"thirteen rows", func(rows []*models.GroupStandingPrediction) []*models.GroupStandingPrediction {
			return append(rows, thirdRow(13, 1, 1, 1))
		}},
		{"not a third place", func(rows []*models.GroupStandingPrediction) []*models.GroupStandingPrediction {
			rows[0].Position = 2
			return rows
		}},
		{"duplicate group", func(rows []*models.GroupStandingPrediction) []*models.GroupStandingPrediction {
			rows[1].GroupID = rows[0].GroupID
			return rows
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RankBestThirdPlaces(tc.mutate(base()))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !IsValidationError(err) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
		})
	}
}

// Ручной порядок в группе может сделать третьей другую команду: ранжирование
// принимает строку, чья эффективная позиция равна трем.
func TestRankBestThirdPlacesHonorsManualPosition(t *testing.T) {
	rows := make([]*models.GroupStandingPrediction, 0, GroupCount)
	for g := 1; g <= GroupCount; g++ {
		row := thirdRow(g, g, g, 0)
		if g == 1 {
			// Расчетная позиция 2, вручную опущена на третью.
			row.Position = 2
			row.ManualPosition = intPtr(3)
		}
		rows = append(rows, row)
	}

	if _, err := RankBestThirdPlaces(rows); err != nil {
		t.Fatalf("manual third place rejected: %v", err)
	}
}
