package models

type Confederation string

const (
	ConfederationAFC      Confederation = "AFC"
	ConfederationCAF      Confederation = "CAF"
	ConfederationConcacaf Confederation = "CONCACAF"
	ConfederationConmebol Confederation = "CONMEBOL"
	ConfederationOFC      Confederation = "OFC"
	ConfederationUEFA     Confederation = "UEFA"
)

// Team - неизменяемые справочные данные, загружаются один раз на турнир.
type Team struct {
	ID            int           `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	FifaCode      string        `json:"fifa_code" db:"fifa_code"` // 3-letter federation code
	Confederation Confederation `json:"confederation" db:"confederation"`
	GroupID       int           `json:"group_id" db:"group_id"`
	CrestKey      *string       `json:"-" db:"crest_key"`
	CrestURL      *string       `json:"crest_url,omitempty" db:"-"` // populated by service from CrestKey
}
