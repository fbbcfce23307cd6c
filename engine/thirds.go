package engine

import (
	"sort"

	"github.com/Dosada05/prediction-pool/models"
)

// RankBestThirdPlaces ранжирует третьи места всех 12 групп между собой и
// отбирает 8 лучших. Критерии и детекция tie-кластеров те же, что внутри
// группы, только применяются между группами. Строки с рангом 9-12
// отбрасываются.
func RankBestThirdPlaces(rows []*models.GroupStandingPrediction) ([]*models.BestThirdPlacePrediction, error) {
	if len(rows) != GroupCount {
		return nil, newValidationError("best-thirds ranking requires exactly %d third-place rows, got %d",
			GroupCount, len(rows))
	}

	groupSeen := make(map[int]bool, GroupCount)
	for _, row := range rows {
		if row == nil {
			return nil, newValidationError("third-place rows contain a nil row")
		}
		if row.EffectivePosition() != 3 {
			return nil, newValidationError("team %d of group %d is not a third-place row (position %d)",
				row.TeamID, row.GroupID, row.EffectivePosition())
		}
		if groupSeen[row.GroupID] {
			return nil, newValidationError("group %d supplied more than one third-place row", row.GroupID)
		}
		groupSeen[row.GroupID] = true
	}

	ranked := make([]*models.GroupStandingPrediction, len(rows))
	copy(ranked, rows)
	sort.Slice(ranked, func(i, j int) bool {
		ki, kj := standingKey(ranked[i]), standingKey(ranked[j])
		if !ki.equal(kj) {
			return ki.less(kj)
		}
		return ranked[i].GroupID < ranked[j].GroupID
	})

	keys := make([]sortKey, len(ranked))
	for i, row := range ranked {
		keys[i] = standingKey(row)
	}
	clusters := tieClusters(keys, 1)

	best := make([]*models.BestThirdPlacePrediction, 0, BestThirdPlaceCount)
	for i, row := range ranked[:BestThirdPlaceCount] {
		third := &models.BestThirdPlacePrediction{
			PredictionID:    row.PredictionID,
			GroupID:         row.GroupID,
			TeamID:          row.TeamID,
			Points:          row.Points,
			Played:          row.Played,
			Wins:            row.Wins,
			Draws:           row.Draws,
			Losses:          row.Losses,
			GoalsFor:        row.GoalsFor,
			GoalsAgainst:    row.GoalsAgainst,
			GoalDifference:  row.GoalDifference,
			RankingPosition: i + 1,
		}
		if clusters[i] > 0 {
			c := clusters[i]
			third.TiebreakRequired = true
			third.TiebreakGroup = &c
		}
		best = append(best, third)
	}

	return best, nil
}
