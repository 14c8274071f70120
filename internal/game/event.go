// Package game holds the onboarding conversation core: identity
// resolution, the per-user flow store, the step engine and the
// dispatcher that ties them together. The Telegram transport feeds it
// normalized Events and delivers the Replies it produces.
package game

import (
	"context"
	"strings"

	"telepets-bot/internal/models"
)

// Event is a normalized inbound update. Exactly one of Text/Command
// or CallbackData is meaningful depending on what the user did.
type Event struct {
	TelegramID   int64
	ChatID       int64
	Name         string
	Text         string
	Command      string
	CallbackData string
}

type Button struct {
	Label string
	Data  string
}

// Reply is an outbound message, optionally with inline buttons laid
// out in rows.
type Reply struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Gateway is the persistence surface the core is allowed to touch.
// Implemented by db.PostgresDB; tests swap in an in-memory fake.
type Gateway interface {
	FindUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	SetUserRegistered(ctx context.Context, userID int64) error
	ListPetTypes(ctx context.Context) ([]models.PetType, error)
	FindPetTypeByID(ctx context.Context, id int64) (*models.PetType, error)
	FindPetByUser(ctx context.Context, userID int64) (*models.Pet, error)
	InsertPet(ctx context.Context, pet *models.Pet) error
}

// Callback payloads follow the "<action>:<argument>" convention, e.g.
// "register:yes" or "select_pet:2".
func parseCallback(data string) (action, arg string) {
	action, arg, _ = strings.Cut(data, ":")
	return action, arg
}
