package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// CurrentTransactionStore keeps each merchant's in-flight transaction id in a map.
type CurrentTransactionStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]uuid.UUID
}

// NewCurrentTransactionStore creates an empty slot map.
func NewCurrentTransactionStore() *CurrentTransactionStore {
	return &CurrentTransactionStore{slots: make(map[uuid.UUID]uuid.UUID)}
}

func (s *CurrentTransactionStore) Get(_ context.Context, merchantID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[merchantID], nil
}

func (s *CurrentTransactionStore) Set(_ context.Context, merchantID, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[merchantID] = txID
	return nil
}

func (s *CurrentTransactionStore) Clear(_ context.Context, merchantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, merchantID)
	return nil
}
