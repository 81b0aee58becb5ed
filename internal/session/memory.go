package session

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

type key struct {
	customerID uint64
	hotelID    uint64
	roomNumber string
}

type entry struct {
	sel       model.Selection
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is not reachable.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[key]entry
	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.  now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{m: make(map[key]entry), now: now}
}

func (s *MemoryStore) Save(_ context.Context, sel model.Selection, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key{sel.CustomerID, sel.HotelID, sel.RoomNumber}] = entry{sel: sel, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, customerID, hotelID uint64, roomNumber string) (model.Selection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{customerID, hotelID, roomNumber}
	e, ok := s.m[k]
	if !ok {
		return model.Selection{}, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.m, k)
		return model.Selection{}, false, nil
	}
	return e.sel, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, customerID, hotelID uint64, roomNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key{customerID, hotelID, roomNumber})
	return nil
}
