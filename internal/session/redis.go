// Package session keeps checkout selections between the date submission and
// the payment confirmation.  A selection is keyed by customer, hotel and
// room, so a customer can hold selections for several rooms at once and
// concurrent customers never see each other's state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RedisStore stores selections as JSON values with a Redis TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a RedisStore.  An empty prefix defaults to "checkout".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "checkout"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(customerID, hotelID uint64, roomNumber string) string {
	return fmt.Sprintf("%s:%d:%d:%s", s.prefix, customerID, hotelID, roomNumber)
}

// Save overwrites any previous selection of the same room by the customer.
func (s *RedisStore) Save(ctx context.Context, sel model.Selection, ttl time.Duration) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(sel.CustomerID, sel.HotelID, sel.RoomNumber), b, ttl).Err()
}

// Load returns found=false when the selection is missing or expired.
func (s *RedisStore) Load(ctx context.Context, customerID, hotelID uint64, roomNumber string) (model.Selection, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(customerID, hotelID, roomNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Selection{}, false, nil
	}
	if err != nil {
		return model.Selection{}, false, err
	}
	var sel model.Selection
	if err := json.Unmarshal(b, &sel); err != nil {
		return model.Selection{}, false, fmt.Errorf("decode selection: %w", err)
	}
	return sel, true, nil
}

// Delete is a no-op when nothing is stored.
func (s *RedisStore) Delete(ctx context.Context, customerID, hotelID uint64, roomNumber string) error {
	return s.rdb.Del(ctx, s.key(customerID, hotelID, roomNumber)).Err()
}
