package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is the end customer a project is billed to.
type Client struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
