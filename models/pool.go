package models

import "time"

// Pool - именованный пул прогнозов, к которому присоединяются пользователи.
// Один Prediction на пару (user, pool).
type Pool struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   int       `json:"owner_id" db:"owner_id"`
	InviteKey string    `json:"-" db:"invite_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
