package models

import "time"

// GroupStandingPrediction - строка расчетной таблицы группы для одного
// прогноза. Строки никогда не патчатся по полям: при изменении прогнозов
// группы весь набор из четырех строк пересчитывается и заменяется целиком.
//
// Инварианты: Points == 3*Wins + Draws; GoalDifference == GoalsFor - GoalsAgainst;
// TiebreakRequired без TiebreakGroup невалидно.
type GroupStandingPrediction struct {
	ID           int `json:"id" db:"id"`
	PredictionID int `json:"prediction_id" db:"prediction_id"`
	GroupID      int `json:"group_id" db:"group_id"`
	TeamID       int `json:"team_id" db:"team_id"`

	Points         int `json:"points" db:"points"`
	Played         int `json:"played" db:"played"`
	Wins           int `json:"wins" db:"wins"`
	Draws          int `json:"draws" db:"draws"`
	Losses         int `json:"losses" db:"losses"`
	GoalsFor       int `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int `json:"goals_against" db:"goals_against"`
	GoalDifference int `json:"goal_difference" db:"goal_difference"`

	Position int `json:"position" db:"position"` // 1-4, computed

	// Tie-break metadata: команды с одинаковыми (очки, разница, забитые)
	// образуют кластер и требуют внешнего (ручного) разрешения.
	TiebreakRequired bool `json:"tiebreak_required" db:"tiebreak_required"`
	TiebreakGroup    *int `json:"tiebreak_group,omitempty" db:"tiebreak_group"`
	ManualPosition   *int `json:"manual_position,omitempty" db:"manual_position"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Optional linked data, populated by service
	Team *Team `json:"team,omitempty" db:"-"`
}

// EffectivePosition - позиция с учетом ручного порядка: потребители обязаны
// предпочитать ManualPosition расчетной позиции, когда он задан.
func (s *GroupStandingPrediction) EffectivePosition() int {
	if s.ManualPosition != nil {
		return *s.ManualPosition
	}
	return s.Position
}

// BestThirdPlacePrediction - одна из восьми лучших команд, занявших третьи
// места в своих группах. Набор заменяется целиком при пересчете.
type BestThirdPlacePrediction struct {
	ID           int `json:"id" db:"id"`
	PredictionID int `json:"prediction_id" db:"prediction_id"`
	GroupID      int `json:"group_id" db:"group_id"`
	TeamID       int `json:"team_id" db:"team_id"`

	Points         int `json:"points" db:"points"`
	Played         int `json:"played" db:"played"`
	Wins           int `json:"wins" db:"wins"`
	Draws          int `json:"draws" db:"draws"`
	Losses         int `json:"losses" db:"losses"`
	GoalsFor       int `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int `json:"goals_against" db:"goals_against"`
	GoalDifference int `json:"goal_difference" db:"goal_difference"`

	RankingPosition int `json:"ranking_position" db:"ranking_position"` // 1-8

	TiebreakRequired bool `json:"tiebreak_required" db:"tiebreak_required"`
	TiebreakGroup    *int `json:"tiebreak_group,omitempty" db:"tiebreak_group"`
	ManualPosition   *int `json:"manual_position,omitempty" db:"manual_position"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Optional linked data, populated by service
	Team *Team `json:"team,omitempty" db:"-"`
}
