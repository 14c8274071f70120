// internal/models/user.go
package models

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	ChatID       int64     `json:"chat_id"`
	Name         string    `json:"name"`
	IsRegistered bool      `json:"is_registered"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FlowState is the per-user position inside the onboarding flow.
// PetTypeID is only meaningful while the user is naming a pet;
// an empty Step must never carry one.
type FlowState struct {
	Step      string `json:"step"`
	PetTypeID int64  `json:"pet_type_id,omitempty"`
}
