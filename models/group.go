package models

// Group владеет ровно четырьмя командами. Буквы A-L.
type Group struct {
	ID     int    `json:"id" db:"id"`
	Letter string `json:"letter" db:"letter"`

	// Optional linked data, populated by service
	Teams []Team `json:"teams,omitempty" db:"-"`
}
