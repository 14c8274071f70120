package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telepets-bot/internal/models"
)

func TestFlowStoreRoundTrip(t *testing.T) {
	store := NewFlowStore()

	_, ok := store.Get(1)
	assert.False(t, ok)

	store.Set(1, models.FlowState{Step: StepNamingPet, PetTypeID: 2})

	state, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, StepNamingPet, state.Step)
	assert.Equal(t, int64(2), state.PetTypeID)

	store.Clear(1)
	_, ok = store.Get(1)
	assert.False(t, ok)
}

func TestFlowStoreIsPerUser(t *testing.T) {
	store := NewFlowStore()

	store.Set(1, models.FlowState{Step: StepAwaitingConsent})
	store.Set(2, models.FlowState{Step: StepChoosingPetType})
	store.Clear(1)

	_, ok := store.Get(1)
	assert.False(t, ok)

	state, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, StepChoosingPetType, state.Step)
}
