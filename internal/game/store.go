package game

import (
	"sync"

	"telepets-bot/internal/models"
)

// FlowStore keeps each user's position in the onboarding flow. It is
// in-process and volatile: a restart drops all flows, which only means
// affected users start over from the consent prompt. The mutex guards
// the map itself; ordering of reads and writes for one user is the
// Dispatcher's job.
type FlowStore struct {
	mu     sync.RWMutex
	states map[int64]models.FlowState
}

func NewFlowStore() *FlowStore {
	return &FlowStore{states: make(map[int64]models.FlowState)}
}

func (s *FlowStore) Get(userID int64) (models.FlowState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	return state, ok
}

func (s *FlowStore) Set(userID int64, state models.FlowState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = state
}

func (s *FlowStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
}
