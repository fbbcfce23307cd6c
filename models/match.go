package models

// Match описывает одну из 104 игр турнира. Для группового этапа команды
// известны заранее; для плей-офф до резолвинга сетки вместо команд хранятся
// плейсхолдеры ("Group A winners") и номера матчей-источников.
type Match struct {
	ID             int             `json:"id" db:"id"`
	SequenceNumber int             `json:"sequence_number" db:"sequence_number"` // 1-104
	Phase          TournamentPhase `json:"phase" db:"phase"`
	GroupID        *int            `json:"group_id,omitempty" db:"group_id"` // only for group-stage matches

	HomeTeamID *int `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID *int `json:"away_team_id,omitempty" db:"away_team_id"`

	HomePlaceholder *string `json:"home_placeholder,omitempty" db:"home_placeholder"`
	AwayPlaceholder *string `json:"away_placeholder,omitempty" db:"away_placeholder"`

	// Номера (sequence_number) двух матчей предыдущей фазы, победители
	// которых встречаются в этом матче. Пусто для группового этапа и R32.
	DependsOn []int `json:"depends_on,omitempty" db:"-"`

	// Optional linked data, populated by service
	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}

// IsGroupStage сообщает, относится ли матч к групповому этапу.
func (m *Match) IsGroupStage() bool {
	return m.Phase == PhaseGroup
}
