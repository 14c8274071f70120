package game

import (
	"context"
	"sort"
	"sync"

	"telepets-bot/internal/db"
	"telepets-bot/internal/models"
)

// fakeGateway is an in-memory Gateway with the same sentinel-error
// behavior as the Postgres implementation, plus per-operation failure
// injection for the transient-storage paths.
type fakeGateway struct {
	mu         sync.Mutex
	users      map[int64]*models.User // by telegram id
	nextUserID int64
	petTypes   map[int64]models.PetType
	pets       map[int64]*models.Pet // by user id
	nextPetID  int64

	failures         map[string]error
	insertPetCalls   int
	beforeInsertUser func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:    make(map[int64]*models.User),
		petTypes: make(map[int64]models.PetType),
		pets:     make(map[int64]*models.Pet),
		failures: make(map[string]error),
	}
}

func (g *fakeGateway) seedCatalog() {
	g.petTypes[1] = models.PetType{ID: 1, Name: "Cat", Description: "A playful and agile companion", BaseStats: map[string]int{"agility": 8}}
	g.petTypes[2] = models.PetType{ID: 2, Name: "Dog", Description: "A loyal and energetic friend", BaseStats: map[string]int{"strength": 7}}
	g.petTypes[3] = models.PetType{ID: 3, Name: "Bird", Description: "A colorful and intelligent pet", BaseStats: map[string]int{"intellect": 8}}
}

func (g *fakeGateway) failWith(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

func (g *fakeGateway) clearFailure(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failures, op)
}

func (g *fakeGateway) injected(op string) error {
	return g.failures[op]
}

func (g *fakeGateway) FindUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("FindUserByTelegramID"); err != nil {
		return nil, err
	}
	user, ok := g.users[telegramID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (g *fakeGateway) InsertUser(ctx context.Context, user *models.User) error {
	if g.beforeInsertUser != nil {
		g.beforeInsertUser()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("InsertUser"); err != nil {
		return err
	}
	if _, ok := g.users[user.TelegramID]; ok {
		return db.ErrAlreadyExists
	}
	g.nextUserID++
	user.ID = g.nextUserID
	user.IsRegistered = false
	copied := *user
	g.users[user.TelegramID] = &copied
	return nil
}

func (g *fakeGateway) SetUserRegistered(ctx context.Context, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("SetUserRegistered"); err != nil {
		return err
	}
	for _, user := range g.users {
		if user.ID == userID {
			user.IsRegistered = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (g *fakeGateway) ListPetTypes(ctx context.Context) ([]models.PetType, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("ListPetTypes"); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(g.petTypes))
	for id := range g.petTypes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	types := make([]models.PetType, 0, len(ids))
	for _, id := range ids {
		types = append(types, g.petTypes[id])
	}
	return types, nil
}

func (g *fakeGateway) FindPetTypeByID(ctx context.Context, id int64) (*models.PetType, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("FindPetTypeByID"); err != nil {
		return nil, err
	}
	t, ok := g.petTypes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &t, nil
}

func (g *fakeGateway) FindPetByUser(ctx context.Context, userID int64) (*models.Pet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.injected("FindPetByUser"); err != nil {
		return nil, err
	}
	pet, ok := g.pets[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *pet
	return &copied, nil
}

func (g *fakeGateway) InsertPet(ctx context.Context, pet *models.Pet) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.insertPetCalls++
	if err := g.injected("InsertPet"); err != nil {
		return err
	}
	if _, ok := g.pets[pet.UserID]; ok {
		return db.ErrPetExists
	}
	g.nextPetID++
	pet.ID = g.nextPetID
	pet.Level = 1
	pet.Experience = 0
	pet.Happiness = 100
	pet.Hunger = 100
	pet.Energy = 100
	copied := *pet
	g.pets[pet.UserID] = &copied
	return nil
}

func (g *fakeGateway) petCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pets)
}

func (g *fakeGateway) userByTelegramID(telegramID int64) models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.users[telegramID]
}

func (g *fakeGateway) addUser(telegramID, chatID int64, name string, registered bool) *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextUserID++
	user := &models.User{
		ID:           g.nextUserID,
		TelegramID:   telegramID,
		ChatID:       chatID,
		Name:         name,
		IsRegistered: registered,
	}
	g.users[telegramID] = user
	copied := *user
	return &copied
}

func (g *fakeGateway) addPet(userID, petTypeID int64, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextPetID++
	g.pets[userID] = &models.Pet{
		ID: g.nextPetID, UserID: userID, PetTypeID: petTypeID, Name: name,
		Level: 1, Experience: 0, Happiness: 100, Hunger: 100, Energy: 100,
	}
}
