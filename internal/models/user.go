package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a tenant account. Identity management is external; this core
// only reads the address payment notifications go to.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
