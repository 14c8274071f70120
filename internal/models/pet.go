// internal/models/pet.go
package models

import (
	"time"
)

// PetType is a catalog entry. The catalog is seeded at startup and
// read-only afterwards.
type PetType struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	BaseStats   map[string]int `json:"base_stats"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Pet struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PetTypeID  int64     `json:"pet_type_id"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	Happiness  int       `json:"happiness"`
	Hunger     int       `json:"hunger"`
	Energy     int       `json:"energy"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
