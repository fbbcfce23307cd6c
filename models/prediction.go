package models

import "time"

type PenaltiesWinner string

const (
	PenaltiesWinnerHome PenaltiesWinner = "home"
	PenaltiesWinnerAway PenaltiesWinner = "away"
)

// Prediction - корень агрегата: все прогнозы одного пользователя в рамках
// одного пула.
type Prediction struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	PoolID    int       `json:"pool_id" db:"pool_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MatchPrediction - прогноз пользователя на один матч. Счет основного
// времени есть всегда; дополнительное время заполняется только если основное
// время закончилось вничью (и матч - плей-офф), победитель по пенальти -
// только если ничья и в дополнительное время.
type MatchPrediction struct {
	ID           int `json:"id" db:"id"`
	PredictionID int `json:"prediction_id" db:"prediction_id"`
	MatchID      int `json:"match_id" db:"match_id"`

	// Для матчей плей-офф пользователь прогнозирует и участников: состав
	// пары зависит от его собственных прогнозов предыдущих раундов.
	// Для группового этапа команды берутся из самого матча, поля пустые.
	HomeTeamID *int `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID *int `json:"away_team_id,omitempty" db:"away_team_id"`

	HomeScore int `json:"home_score" db:"home_score"`
	AwayScore int `json:"away_score" db:"away_score"`

	HomeScoreET *int `json:"home_score_et,omitempty" db:"home_score_et"`
	AwayScoreET *int `json:"away_score_et,omitempty" db:"away_score_et"`

	PenaltiesWinner *PenaltiesWinner `json:"penalties_winner,omitempty" db:"penalties_winner"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
