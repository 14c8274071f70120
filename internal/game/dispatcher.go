package game

import (
	"context"
	"sync"

	"telepets-bot/internal/models"
	"telepets-bot/pkg/logger"
)

const msgTryAgainLater = "Sorry, something went wrong. Please try again later."

// CommandHandler renders the command surfaces available to registered
// users. Implemented by the transport layer.
type CommandHandler interface {
	Home(ctx context.Context, user *models.User) (Reply, error)
	ShowPet(ctx context.Context, user *models.User) (Reply, error)
	Help(ctx context.Context, user *models.User) (Reply, error)
}

// Dispatcher routes each inbound event: to the step engine while a
// flow is active, to command handlers for registered users, or onto
// the onboarding on-ramp for everyone else. Events for the same user
// are processed strictly in arrival order; distinct users run in
// parallel.
type Dispatcher struct {
	resolver *Resolver
	store    *FlowStore
	engine   *Engine
	commands CommandHandler
	logger   *logger.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewDispatcher(resolver *Resolver, store *FlowStore, engine *Engine, commands CommandHandler, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		store:    store,
		engine:   engine,
		commands: commands,
		logger:   logger,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Handle processes one inbound event and returns the replies to send.
// Storage failures are absorbed here: the user gets a single generic
// apology and the flow state is left untouched, so their next message
// retries the same step.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []Reply {
	lock := d.userLock(ev.TelegramID)
	lock.Lock()
	defer lock.Unlock()

	replies, err := d.dispatch(ctx, ev)
	if err != nil {
		d.logger.Errorw("failed to handle event",
			"telegram_id", ev.TelegramID,
			"error", err)
		return []Reply{{ChatID: ev.ChatID, Text: msgTryAgainLater}}
	}
	return replies
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) ([]Reply, error) {
	user, err := d.resolver.Resolve(ctx, ev.TelegramID, ev.ChatID, ev.Name)
	if err != nil {
		return nil, err
	}

	// Active flow wins over everything else.
	if state, ok := d.store.Get(user.ID); ok && state.Step != StepNone {
		next, replies, err := d.engine.Step(ctx, user, state, ev)
		if err != nil {
			return nil, err
		}
		d.persist(user.ID, next)
		return replies, nil
	}

	// Command surface, gated on completed registration.
	if user.IsRegistered {
		switch ev.Command {
		case "start":
			return d.command(ctx, user, d.commands.Home)
		case "mypet":
			return d.command(ctx, user, d.commands.ShowPet)
		case "help":
			return d.command(ctx, user, d.commands.Help)
		}
	}

	// Automatic on-ramp: any event from an unregistered user with no
	// active flow starts onboarding, start command or not.
	if !user.IsRegistered {
		next, replies, err := d.engine.Begin(ctx, user)
		if err != nil {
			return nil, err
		}
		d.persist(user.ID, next)
		return replies, nil
	}

	// Registered, no flow, no recognized command: ignore quietly.
	return nil, nil
}

func (d *Dispatcher) command(ctx context.Context, user *models.User, handler func(context.Context, *models.User) (Reply, error)) ([]Reply, error) {
	reply, err := handler(ctx, user)
	if err != nil {
		return nil, err
	}
	return []Reply{reply}, nil
}

func (d *Dispatcher) persist(userID int64, state models.FlowState) {
	if state.Step == StepNone {
		d.store.Clear(userID)
		return
	}
	d.store.Set(userID, state)
}

// userLock returns the mutex serializing one user's events. Locks are
// never evicted; the map grows with the number of distinct users seen
// by this process.
func (d *Dispatcher) userLock(telegramID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[telegramID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[telegramID] = lock
	}
	return lock
}
