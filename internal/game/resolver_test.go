package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telepets-bot/pkg/logger"
)

func TestResolveCreatesUserOnFirstContact(t *testing.T) {
	gw := newFakeGateway()
	r := NewResolver(gw, logger.Nop())

	user, err := r.Resolve(context.Background(), 100, 200, "Alice")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(100), user.TelegramID)
	assert.Equal(t, int64(200), user.ChatID)
	assert.Equal(t, "Alice", user.Name)
	assert.False(t, user.IsRegistered)
}

func TestResolveReturnsExistingUser(t *testing.T) {
	gw := newFakeGateway()
	existing := gw.addUser(100, 200, "Alice", true)
	r := NewResolver(gw, logger.Nop())

	user, err := r.Resolve(context.Background(), 100, 200, "Alice")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.True(t, user.IsRegistered)
}

func TestResolveSurvivesFirstContactRace(t *testing.T) {
	gw := newFakeGateway()
	r := NewResolver(gw, logger.Nop())

	// Between our not-found read and our insert, a concurrent event
	// for the same identity wins the insert.
	gw.beforeInsertUser = func() {
		gw.beforeInsertUser = nil
		gw.addUser(100, 200, "Alice", false)
	}

	user, err := r.Resolve(context.Background(), 100, 200, "Alice")
	require.NoError(t, err)

	// The winning row is returned, and only one row exists.
	winner := gw.userByTelegramID(100)
	assert.Equal(t, winner.ID, user.ID)
}

func TestResolvePropagatesStorageErrors(t *testing.T) {
	gw := newFakeGateway()
	r := NewResolver(gw, logger.Nop())
	gw.failWith("FindUserByTelegramID", errors.New("connection refused"))

	_, err := r.Resolve(context.Background(), 100, 200, "Alice")
	assert.Error(t, err)
}
