package engine

import (
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

// ValidatePhaseCanBePredicted - ворота линейного автомата фаз плей-офф:
// ROUND_OF_32 -> ROUND_OF_16 -> QUARTER_FINALS -> SEMI_FINALS -> FINAL,
// строго вперед. Фаза открывается, только когда предыдущая полностью и
// однозначно разрешена: у нее ровно ожидаемое число матчей, на каждый есть
// сохраненный прогноз и каждый прогноз дает определенного победителя.
// prevMatches и prevPredictions (ключ - ID матча) относятся к предыдущей
// фазе; для ROUND_OF_32 оба игнорируются.
func ValidatePhaseCanBePredicted(
	phase models.TournamentPhase,
	prevMatches []*models.Match,
	prevPredictions map[int]*models.MatchPrediction,
) error {
	if !phase.IsKnockout() {
		return newValidationError("%s is not a knockout phase", phase)
	}

	prev, ok := phase.Previous()
	if !ok {
		// Составы R32 выводятся из группового этапа, прогнозы принимаются всегда.
		return nil
	}

	expected := prev.ExpectedMatchCount()
	if len(prevMatches) != expected {
		return newValidationError("%s cannot be predicted: %s has %d matches, want %d",
			phase, prev, len(prevMatches), expected)
	}
	if len(prevPredictions) != expected {
		return newValidationError("%s cannot be predicted: %s has %d of %d predictions saved",
			phase, prev, len(prevPredictions), expected)
	}

	for _, match := range prevMatches {
		pred, ok := prevPredictions[match.ID]
		if !ok || pred == nil {
			return newValidationError("%s cannot be predicted: no prediction for %s match %d",
				phase, prev, match.SequenceNumber)
		}
		if winner := DetermineWinner(pred, match); winner == nil {
			return newValidationError("%s cannot be predicted: %s match %d has no decisive winner",
				phase, prev, match.SequenceNumber)
		}
	}

	return nil
}

// ValidateMatchTeams проверяет, что присланная пара команд матча плей-офф
// совпадает с победителями двух матчей-источников из прогнозов того же
// пользователя. Для ROUND_OF_32 составы уже зафиксированы резолвером сетки
// и проверка не нужна. upstreamMatches и upstreamPredictions индексированы
// по sequence number матча-источника.
func ValidateMatchTeams(
	phase models.TournamentPhase,
	match *models.Match,
	homeTeamID, awayTeamID int,
	upstreamMatches map[int]*models.Match,
	upstreamPredictions map[int]*models.MatchPrediction,
) error {
	if !phase.IsKnockout() {
		return newValidationError("%s is not a knockout phase", phase)
	}
	if phase == models.PhaseRoundOf32 {
		return nil
	}

	if len(match.DependsOn) != 2 {
		return invariantErrorf("match %d must depend on exactly 2 matches, has %d",
			match.SequenceNumber, len(match.DependsOn))
	}

	mismatch := newValidationError("match %d teams do not follow from previous round", match.SequenceNumber)
	sides := []struct {
		field     string
		submitted int
		upstream  int
	}{
		{"home_team", homeTeamID, match.DependsOn[0]},
		{"away_team", awayTeamID, match.DependsOn[1]},
	}

	for _, side := range sides {
		upMatch, ok := upstreamMatches[side.upstream]
		if !ok || upMatch == nil {
			return invariantErrorf("match %d depends on unknown match %d", match.SequenceNumber, side.upstream)
		}
		upPred, ok := upstreamPredictions[side.upstream]
		if !ok || upPred == nil {
			return newValidationError("match %d: no prediction saved for source match %d",
				match.SequenceNumber, side.upstream)
		}
		winner := DetermineWinner(upPred, upMatch)
		if winner == nil {
			return newValidationError("match %d: source match %d has no decisive winner",
				match.SequenceNumber, side.upstream)
		}
		if *winner != side.submitted {
			mismatch.addField(side.field,
				fmt.Sprintf("expected winner of match %d (team %d), got team %d",
					side.upstream, *winner, side.submitted))
		}
	}

	if len(mismatch.Fields) > 0 {
		return mismatch
	}
	return nil
}

// ValidateMatchResult проверяет физическую согласованность счета матча
// плей-офф: основное время -> дополнительное -> пенальти.
//
//   - счета неотрицательны;
//   - решающий результат в основное время исключает дополнительное время и
//     пенальти;
//   - ничья в основное время требует счета дополнительного времени, причем
//     каждый не меньше соответствующего счета основного;
//   - решающее дополнительное время исключает пенальти;
//   - ничья и в дополнительное время требует победителя пенальти,
//     ровно "home" или "away".
func ValidateMatchResult(p *models.MatchPrediction) error {
	if p.HomeScore < 0 || p.AwayScore < 0 {
		return newValidationError("scores must be non-negative")
	}

	if p.HomeScore != p.AwayScore {
		if p.HomeScoreET != nil || p.AwayScoreET != nil {
			return newValidationError("extra time is not allowed when regulation time is decisive")
		}
		if p.PenaltiesWinner != nil {
			return newValidationError("penalties winner is not allowed when regulation time is decisive")
		}
		return nil
	}

	if p.HomeScoreET == nil || p.AwayScoreET == nil {
		return newValidationError("extra-time scores are required when regulation time is a draw")
	}
	if *p.HomeScoreET < 0 || *p.AwayScoreET < 0 {
		return newValidationError("scores must be non-negative")
	}
	if *p.HomeScoreET < p.HomeScore || *p.AwayScoreET < p.AwayScore {
		return newValidationError("extra-time scores cannot be lower than regulation scores")
	}

	if *p.HomeScoreET != *p.AwayScoreET {
		if p.PenaltiesWinner != nil {
			return newValidationError("penalties winner is not allowed when extra time is decisive")
		}
		return nil
	}

	if p.PenaltiesWinner == nil {
		return newValidationError("penalties winner is required when extra time is a draw")
	}
	if *p.PenaltiesWinner != models.PenaltiesWinnerHome && *p.PenaltiesWinner != models.PenaltiesWinnerAway {
		return newValidationError("penalties winner must be %q or %q",
			models.PenaltiesWinnerHome, models.PenaltiesWinnerAway)
	}
	return nil
}

// DetermineWinner возвращает ID команды-победителя по прогнозу. Приоритет:
// победитель пенальти -> дополнительное время (если решающее) -> основное
// время (если решающее) -> nil. nil достижим только при несогласованных
// данных: валидатор результата обязан требовать решающий исход до
// сохранения.
func DetermineWinner(p *models.MatchPrediction, match *models.Match) *int {
	if p == nil {
		return nil
	}

	home, away := matchSides(p, match)
	if home == nil || away == nil {
		return nil
	}

	if p.PenaltiesWinner != nil {
		if *p.PenaltiesWinner == models.PenaltiesWinnerHome {
			return home
		}
		return away
	}

	if p.HomeScoreET != nil && p.AwayScoreET != nil {
		if *p.HomeScoreET > *p.AwayScoreET {
			return home
		}
		if *p.HomeScoreET < *p.AwayScoreET {
			return away
		}
		return nil
	}

	if p.HomeScore > p.AwayScore {
		return home
	}
	if p.HomeScore < p.AwayScore {
		return away
	}
	return nil
}

// matchSides: для плей-офф участники берутся из прогноза (они зависят от
// прогнозов предыдущих раундов того же пользователя), для группового этапа
// - из самого матча.
func matchSides(p *models.MatchPrediction, match *models.Match) (home, away *int) {
	home, away = p.HomeTeamID, p.AwayTeamID
	if match != nil {
		if home == nil {
			home = match.HomeTeamID
		}
		if away == nil {
			away = match.AwayTeamID
		}
	}
	return home, away
}
