package bot

import (
	"context"
	"errors"
	"fmt"

	"telepets-bot/internal/db"
	"telepets-bot/internal/game"
	"telepets-bot/internal/models"
	"telepets-bot/pkg/logger"
)

// Commands implements game.CommandHandler for registered users.
type Commands struct {
	db     *db.PostgresDB
	logger *logger.Logger
}

func NewCommands(database *db.PostgresDB, logger *logger.Logger) *Commands {
	return &Commands{db: database, logger: logger}
}

// Home greets a returning user on /start.
func (c *Commands) Home(ctx context.Context, user *models.User) (game.Reply, error) {
	text := fmt.Sprintf("👋 Welcome back, %s!\n\n"+
		"Your TelePets adventure continues! Check on your pet with /mypet or see /help for all commands.",
		user.Name)
	return game.Reply{ChatID: user.ChatID, Text: text}, nil
}

// ShowPet renders the user's pet status for /mypet.
func (c *Commands) ShowPet(ctx context.Context, user *models.User) (game.Reply, error) {
	pet, petType, err := c.db.FindPetWithTypeByUser(ctx, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		return game.Reply{
			ChatID: user.ChatID,
			Text:   "You don't have a pet yet! Complete your registration to get your first companion.",
		}, nil
	}
	if err != nil {
		return game.Reply{}, fmt.Errorf("show pet for user %d: %w", user.ID, err)
	}

	text := fmt.Sprintf("%s %s (%s)\n\n"+
		"Level: %d\nExperience: %d\nHappiness: %d/100\nHunger: %d/100\nEnergy: %d/100",
		game.PetEmoji(petType.Name), pet.Name, petType.Name,
		pet.Level, pet.Experience, pet.Happiness, pet.Hunger, pet.Energy)
	return game.Reply{ChatID: user.ChatID, Text: text}, nil
}

// Help lists the available commands.
func (c *Commands) Help(ctx context.Context, user *models.User) (game.Reply, error) {
	text := "🎮 TelePets Commands:\n\n" +
		"/start - Begin your adventure\n" +
		"/mypet - Check your pet's status\n" +
		"/help - Show this help message\n\n" +
		"More features coming soon! 🚀"
	return game.Reply{ChatID: user.ChatID, Text: text}, nil
}
