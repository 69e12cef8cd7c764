package live

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OccupancyUpdate is one frame of the dashboard stream: a challenge and its
// committed registration count at some point at or before now. Display data
// only; the registration transaction never consults it.
type OccupancyUpdate struct {
	ChallengeID string `json:"challenge_id"`
	Title       string `json:"title"`
	Occupancy   int    `json:"occupancy"`
	Capacity    int    `json:"capacity"`
	Full        bool   `json:"full"`
}

// SnapshotStore holds the latest known occupancy per challenge.
type SnapshotStore interface {
	Set(ctx context.Context, update OccupancyUpdate) error
	Get(ctx context.Context, challengeID string) (OccupancyUpdate, bool, error)
	All(ctx context.Context) ([]OccupancyUpdate, error)
}

// MemorySnapshotStore is the in-process store used by a single-instance
// deployment and by tests.
type MemorySnapshotStore struct {
	mu      sync.RWMutex
	entries map[string]OccupancyUpdate
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{entries: make(map[string]OccupancyUpdate)}
}

func (s *MemorySnapshotStore) Set(_ context.Context, update OccupancyUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[update.ChallengeID] = update
	return nil
}

func (s *MemorySnapshotStore) Get(_ context.Context, challengeID string) (OccupancyUpdate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	update, ok := s.entries[challengeID]
	return update, ok, nil
}

func (s *MemorySnapshotStore) All(_ context.Context) ([]OccupancyUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OccupancyUpdate, 0, len(s.entries))
	for _, update := range s.entries {
		out = append(out, update)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

// RedisSnapshotStore shares the snapshot between instances. Entries expire
// so a stale instance cannot serve counts forever after losing the stream.
type RedisSnapshotStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisSnapshotOption func(*RedisSnapshotStore)

func WithSnapshotPrefix(prefix string) RedisSnapshotOption {
	return func(s *RedisSnapshotStore) { s.prefix = prefix }
}

func WithSnapshotTTL(d time.Duration) RedisSnapshotOption {
	return func(s *RedisSnapshotStore) { s.ttl = d }
}

func NewRedisSnapshotStore(rdb *redis.Client, opts ...RedisSnapshotOption) *RedisSnapshotStore {
	s := &RedisSnapshotStore{
		rdb:    rdb,
		prefix: "occupancy:snapshot",
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSnapshotStore) key() string {
	return s.prefix
}

func (s *RedisSnapshotStore) Set(ctx context.Context, update OccupancyUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key(), update.ChallengeID, payload)
	pipe.Expire(ctx, s.key(), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSnapshotStore) Get(ctx context.Context, challengeID string) (OccupancyUpdate, bool, error) {
	raw, err := s.rdb.HGet(ctx, s.key(), challengeID).Bytes()
	if err == redis.Nil {
		return OccupancyUpdate{}, false, nil
	}
	if err != nil {
		return OccupancyUpdate{}, false, err
	}
	var update OccupancyUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return OccupancyUpdate{}, false, err
	}
	return update, true, nil
}

func (s *RedisSnapshotStore) All(ctx context.Context) ([]OccupancyUpdate, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]OccupancyUpdate, 0, len(raw))
	for _, v := range raw {
		var update OccupancyUpdate
		if err := json.Unmarshal([]byte(v), &update); err != nil {
			continue
		}
		out = append(out, update)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}
