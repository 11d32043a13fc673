package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Connect returns nil when addr is empty or Redis does not answer; every
// Store method treats a nil client as "cache disabled".
func Connect(ctx context.Context, addr string, log *logrus.Logger) *redis.Client {
	if addr == "" {
		log.Info("REDIS_ADDRESS not set, status cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, status cache disabled")
		_ = client.Close()
		return nil
	}
	log.WithField("addr", addr).Info("connected to redis")
	return client
}

// Store keeps advisory JSON snapshots. It is never the source of truth.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil && s.ttl > 0
}

// generationTTL outlives any snapshot so a counter never resets while a
// snapshot keyed by its old value is still alive.
const generationTTL = 30 * 24 * time.Hour

// DayStatusGenKey holds the write generation of one project-day.
func DayStatusGenKey(projectID uint, reportDate time.Time) string {
	return fmt.Sprintf("status:gen:%d:%s", projectID, reportDate.Format("2006-01-02"))
}

// DayStatusKey names a snapshot taken at generation gen. A snapshot stored
// after a concurrent write lands under a generation nobody reads any more.
func DayStatusKey(projectID uint, reportDate time.Time, gen int64) string {
	return fmt.Sprintf("status:day:%d:%s:%d", projectID, reportDate.Format("2006-01-02"), gen)
}

// Generation returns the counter stored at key, 0 when unset.
func (s *Store) Generation(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	gen, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Bump advances the counter at key, retiring every snapshot keyed by the
// previous value.
func (s *Store) Bump(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, generationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetObject(ctx context.Context, key string, obj any) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
