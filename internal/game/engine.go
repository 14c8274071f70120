package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"telepets-bot/internal/db"
	"telepets-bot/internal/models"
	"telepets-bot/pkg/logger"
)

// Flow steps, in the order a user walks them. A user with no entry in
// the FlowStore (or StepNone) has no active flow.
const (
	StepNone            = ""
	StepAwaitingConsent = "awaiting_consent"
	StepChoosingPetType = "choosing_pet_type"
	StepNamingPet       = "naming_pet"
)

// Callback actions understood by the engine.
const (
	actionRegister  = "register"
	actionSelectPet = "select_pet"
)

const (
	maxPetNameLen = 20

	msgWelcome = "🎮 Welcome to TelePets!\n\n" +
		"To start your pet-raising adventure, you need to complete registration. " +
		"Are you ready to begin? Choose an option below:"
	msgDeclined      = "No worries! Type /start when you're ready to begin your TelePets adventure."
	msgUseButtons    = "Please choose one of the options below:"
	msgNoPetTypes    = "No starter pets available at the moment. Please try again later."
	msgPetTypeGone   = "That pet is no longer available. Please pick another one:"
	msgAlreadyHasPet = "You already have a pet! Use /mypet to see your companion."
	msgBadPetName    = "Pet name must be between 1 and 20 characters. Please try again:"
)

// Engine walks one user through the onboarding flow one event at a
// time. Step takes the current flow state and returns the next one;
// it never persists flow state itself, so a storage failure leaves the
// user exactly where they were.
type Engine struct {
	gateway Gateway
	logger  *logger.Logger
}

func NewEngine(gateway Gateway, logger *logger.Logger) *Engine {
	return &Engine{gateway: gateway, logger: logger}
}

func consentButtons() [][]Button {
	return [][]Button{
		{{Label: "✅ Yes, let's start!", Data: "register:yes"}},
		{{Label: "❌ Maybe later", Data: "register:no"}},
	}
}

// Begin starts a fresh flow with the consent prompt.
func (e *Engine) Begin(ctx context.Context, user *models.User) (models.FlowState, []Reply, error) {
	reply := Reply{
		ChatID:  user.ChatID,
		Text:    msgWelcome,
		Buttons: consentButtons(),
	}
	return models.FlowState{Step: StepAwaitingConsent}, []Reply{reply}, nil
}

// Step applies one event to the user's active flow. The returned
// state replaces the stored one; StepNone means the flow terminated.
func (e *Engine) Step(ctx context.Context, user *models.User, state models.FlowState, ev Event) (models.FlowState, []Reply, error) {
	switch state.Step {
	case StepAwaitingConsent:
		return e.stepConsent(ctx, user, state, ev)
	case StepChoosingPetType:
		return e.stepChoosePetType(ctx, user, state, ev)
	case StepNamingPet:
		return e.stepNamePet(ctx, user, state, ev)
	default:
		// Unknown step, e.g. state left over from an older build.
		// Drop the flow; the next event re-enters onboarding.
		e.logger.Warnw("clearing flow with unknown step", "user_id", user.ID, "step", state.Step)
		return models.FlowState{}, nil, nil
	}
}

func (e *Engine) stepConsent(ctx context.Context, user *models.User, state models.FlowState, ev Event) (models.FlowState, []Reply, error) {
	action, arg := parseCallback(ev.CallbackData)
	if action != actionRegister {
		reply := Reply{
			ChatID:  user.ChatID,
			Text:    msgUseButtons,
			Buttons: consentButtons(),
		}
		return state, []Reply{reply}, nil
	}

	if arg == "no" {
		return models.FlowState{}, []Reply{{ChatID: user.ChatID, Text: msgDeclined}}, nil
	}
	if arg != "yes" {
		reply := Reply{
			ChatID:  user.ChatID,
			Text:    msgUseButtons,
			Buttons: consentButtons(),
		}
		return state, []Reply{reply}, nil
	}

	return e.enterChoosePetType(ctx, user)
}

// enterChoosePetType lists the catalog, guarding first against a user
// who already completed a previous flow.
func (e *Engine) enterChoosePetType(ctx context.Context, user *models.User) (models.FlowState, []Reply, error) {
	done, replies, err := e.resolveExistingPet(ctx, user)
	if err != nil {
		return models.FlowState{Step: StepChoosingPetType}, nil, err
	}
	if done {
		return models.FlowState{}, replies, nil
	}

	types, err := e.gateway.ListPetTypes(ctx)
	if err != nil {
		return models.FlowState{Step: StepChoosingPetType}, nil, fmt.Errorf("list pet types: %w", err)
	}
	if len(types) == 0 {
		return models.FlowState{Step: StepChoosingPetType}, []Reply{{ChatID: user.ChatID, Text: msgNoPetTypes}}, nil
	}

	return models.FlowState{Step: StepChoosingPetType}, []Reply{catalogReply(user.ChatID, types)}, nil
}

func (e *Engine) stepChoosePetType(ctx context.Context, user *models.User, state models.FlowState, ev Event) (models.FlowState, []Reply, error) {
	// A stale flow may survive a completed run; never offer a second pet.
	done, replies, err := e.resolveExistingPet(ctx, user)
	if err != nil {
		return state, nil, err
	}
	if done {
		return models.FlowState{}, replies, nil
	}

	action, arg := parseCallback(ev.CallbackData)
	if action != actionSelectPet {
		return state, []Reply{{ChatID: user.ChatID, Text: "Please pick a pet using the buttons above."}}, nil
	}

	petTypeID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return state, []Reply{{ChatID: user.ChatID, Text: "Invalid pet selection. Please use the buttons above."}}, nil
	}

	petType, err := e.gateway.FindPetTypeByID(ctx, petTypeID)
	if errors.Is(err, db.ErrNotFound) {
		// Catalog changed mid-flow; list it again.
		return e.relistCatalog(ctx, user, state)
	}
	if err != nil {
		return state, nil, fmt.Errorf("find pet type %d: %w", petTypeID, err)
	}

	reply := Reply{
		ChatID: user.ChatID,
		Text: fmt.Sprintf("You chose a %s! 🎉\n\n"+
			"Now, what would you like to name your new companion?\n\n"+
			"Reply with your pet's name:", petType.Name),
	}
	return models.FlowState{Step: StepNamingPet, PetTypeID: petType.ID}, []Reply{reply}, nil
}

func (e *Engine) relistCatalog(ctx context.Context, user *models.User, state models.FlowState) (models.FlowState, []Reply, error) {
	types, err := e.gateway.ListPetTypes(ctx)
	if err != nil {
		return state, nil, fmt.Errorf("list pet types: %w", err)
	}
	replies := []Reply{{ChatID: user.ChatID, Text: msgPetTypeGone}}
	if len(types) > 0 {
		replies = append(replies, catalogReply(user.ChatID, types))
	}
	return state, replies, nil
}

func (e *Engine) stepNamePet(ctx context.Context, user *models.User, state models.FlowState, ev Event) (models.FlowState, []Reply, error) {
	if ev.CallbackData != "" {
		// Stray button press while we wait for a name.
		return state, []Reply{{ChatID: user.ChatID, Text: "Reply with your pet's name:"}}, nil
	}

	name := strings.TrimSpace(ev.Text)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxPetNameLen {
		return state, []Reply{{ChatID: user.ChatID, Text: msgBadPetName}}, nil
	}

	petType, err := e.gateway.FindPetTypeByID(ctx, state.PetTypeID)
	if errors.Is(err, db.ErrNotFound) {
		// Selection went stale between naming prompts; send the user
		// back to pick again.
		return e.relistCatalog(ctx, user, models.FlowState{Step: StepChoosingPetType})
	}
	if err != nil {
		return state, nil, fmt.Errorf("find pet type %d: %w", state.PetTypeID, err)
	}

	pet := &models.Pet{
		UserID:    user.ID,
		PetTypeID: petType.ID,
		Name:      name,
	}

	err = e.gateway.InsertPet(ctx, pet)
	if errors.Is(err, db.ErrPetExists) {
		// Duplicate delivery of the naming input; the earlier commit
		// already won. Finish quietly without a second insert.
		return e.finishRegistration(ctx, user, Reply{ChatID: user.ChatID, Text: msgAlreadyHasPet})
	}
	if err != nil {
		return state, nil, fmt.Errorf("insert pet: %w", err)
	}

	e.logger.Infow("pet created",
		"user_id", user.ID,
		"pet_id", pet.ID,
		"pet_type", petType.Name,
		"name", pet.Name)

	congrats := Reply{
		ChatID: user.ChatID,
		Text: fmt.Sprintf("🎉 Congratulations! You now have a %s named %s!\n\n"+
			"%s is ready for adventure!\n\n"+
			"Level: %d\nExperience: %d\nHappiness: %d/100\nHunger: %d/100\nEnergy: %d/100\n\n"+
			"Use /mypet to check on your companion anytime!",
			petType.Name, pet.Name, pet.Name,
			pet.Level, pet.Experience, pet.Happiness, pet.Hunger, pet.Energy),
	}
	return e.finishRegistration(ctx, user, congrats)
}

// resolveExistingPet checks the at-most-one-pet guard. When the user
// already owns a pet the flow resolves to its terminal state: cleared,
// with registration healed if a prior run crashed before setting it.
func (e *Engine) resolveExistingPet(ctx context.Context, user *models.User) (bool, []Reply, error) {
	_, err := e.gateway.FindPetByUser(ctx, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("find pet by user %d: %w", user.ID, err)
	}

	reply := Reply{ChatID: user.ChatID, Text: msgAlreadyHasPet}
	_, replies, err := e.finishRegistration(ctx, user, reply)
	return true, replies, err
}

func (e *Engine) finishRegistration(ctx context.Context, user *models.User, reply Reply) (models.FlowState, []Reply, error) {
	if !user.IsRegistered {
		if err := e.gateway.SetUserRegistered(ctx, user.ID); err != nil {
			return models.FlowState{}, []Reply{reply}, fmt.Errorf("set user registered: %w", err)
		}
		user.IsRegistered = true
	}
	return models.FlowState{}, []Reply{reply}, nil
}

func catalogReply(chatID int64, types []models.PetType) Reply {
	var sb strings.Builder
	sb.WriteString("🐾 Choose your starter pet!\n\nEach pet has unique characteristics:\n")
	var buttons [][]Button
	for _, t := range types {
		sb.WriteString(fmt.Sprintf("\n%s %s: %s\n", PetEmoji(t.Name), t.Name, t.Description))
		sb.WriteString(fmt.Sprintf("Stats: %s\n", formatStats(t.BaseStats)))
		buttons = append(buttons, []Button{{
			Label: fmt.Sprintf("%s %s", PetEmoji(t.Name), t.Name),
			Data:  fmt.Sprintf("%s:%d", actionSelectPet, t.ID),
		}})
	}
	return Reply{ChatID: chatID, Text: sb.String(), Buttons: buttons}
}

func formatStats(stats map[string]int) string {
	if len(stats) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, stats[k]))
	}
	return strings.Join(parts, ", ")
}

// PetEmoji maps a pet type name to its emoji.
func PetEmoji(typeName string) string {
	switch strings.ToLower(typeName) {
	case "cat":
		return "🐱"
	case "dog":
		return "🐶"
	case "bird":
		return "🐦"
	default:
		return "🐾"
	}
}
