package game

import (
	"context"
	"errors"
	"fmt"

	"telepets-bot/internal/db"
	"telepets-bot/internal/models"
	"telepets-bot/pkg/logger"
)

// Resolver maps an inbound event's sender to a user row, creating it
// on first contact.
type Resolver struct {
	gateway Gateway
	logger  *logger.Logger
}

func NewResolver(gateway Gateway, logger *logger.Logger) *Resolver {
	return &Resolver{gateway: gateway, logger: logger}
}

// Resolve returns the user for a telegram identity, inserting an
// unregistered row on first sight. Two near-simultaneous first
// contacts race on the insert; the loser gets a uniqueness conflict
// and re-reads the winning row instead of erroring.
func (r *Resolver) Resolve(ctx context.Context, telegramID, chatID int64, name string) (*models.User, error) {
	user, err := r.gateway.FindUserByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("resolve user %d: %w", telegramID, err)
	}

	user = &models.User{
		TelegramID: telegramID,
		ChatID:     chatID,
		Name:       name,
	}

	err = r.gateway.InsertUser(ctx, user)
	if errors.Is(err, db.ErrAlreadyExists) {
		r.logger.Infow("lost first-contact race, re-reading user", "telegram_id", telegramID)
		user, err = r.gateway.FindUserByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, fmt.Errorf("re-read user %d after insert race: %w", telegramID, err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert user %d: %w", telegramID, err)
	}

	r.logger.Infow("created user on first contact", "telegram_id", telegramID, "user_id", user.ID)
	return user, nil
}
