package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestDayStatusKeys(t *testing.T) {
	d := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	if got := DayStatusKey(12, d, 3); got != "status:day:12:2025-01-06:3" {
		t.Errorf("DayStatusKey = %q", got)
	}
	if got := DayStatusGenKey(12, d); got != "status:gen:12:2025-01-06" {
		t.Errorf("DayStatusGenKey = %q", got)
	}
}

func TestStore_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, s := range []*Store{nil, NewStore(nil, time.Minute)} {
		if s.Enabled() {
			t.Fatal("store without client must be disabled")
		}
		if err := s.SetObject(ctx, "k", map[string]int{"a": 1}); err != nil {
			t.Errorf("SetObject error = %v, want nil", err)
		}
		var dest map[string]int
		found, err := s.GetObject(ctx, "k", &dest)
		if err != nil || found {
			t.Errorf("GetObject = %v, %v, want false, nil", found, err)
		}
		if err := s.Remove(ctx, "k"); err != nil {
			t.Errorf("Remove error = %v, want nil", err)
		}
		if err := s.Bump(ctx, "g"); err != nil {
			t.Errorf("Bump error = %v, want nil", err)
		}
		if gen, err := s.Generation(ctx, "g"); gen != 0 || err != nil {
			t.Errorf("Generation = %d, %v, want 0, nil", gen, err)
		}
	}
}

type snapshot struct {
	Status   string          `json:"status"`
	Quantity decimal.Decimal `json:"quantity"`
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	var got snapshot
	found, err := s.GetObject(ctx, "status:day:1:2025-01-06:0", &got)
	if err != nil || found {
		t.Fatalf("GetObject on empty cache = %v, %v, want false, nil", found, err)
	}

	want := snapshot{Status: "in_progress", Quantity: decimal.RequireFromString("15.5")}
	if err := s.SetObject(ctx, "status:day:1:2025-01-06:0", want); err != nil {
		t.Fatalf("SetObject error = %v, want nil", err)
	}
	found, err = s.GetObject(ctx, "status:day:1:2025-01-06:0", &got)
	if err != nil || !found {
		t.Fatalf("GetObject = %v, %v, want true, nil", found, err)
	}
	if got.Status != want.Status || !got.Quantity.Equal(want.Quantity) {
		t.Errorf("GetObject = %+v, want %+v", got, want)
	}

	if ttl := mr.TTL("status:day:1:2025-01-06:0"); ttl != time.Minute {
		t.Errorf("TTL = %s, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	found, _ = s.GetObject(ctx, "status:day:1:2025-01-06:0", &got)
	if found {
		t.Error("snapshot survived its TTL")
	}

	_ = s.SetObject(ctx, "k", want)
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove error = %v, want nil", err)
	}
	if mr.Exists("k") {
		t.Error("Remove left the key behind")
	}
}

func TestStore_Generation(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	key := DayStatusGenKey(4, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))

	if gen, err := s.Generation(ctx, key); gen != 0 || err != nil {
		t.Fatalf("Generation before writes = %d, %v, want 0, nil", gen, err)
	}
	for i := 1; i <= 2; i++ {
		if err := s.Bump(ctx, key); err != nil {
			t.Fatalf("Bump error = %v, want nil", err)
		}
		if gen, _ := s.Generation(ctx, key); gen != int64(i) {
			t.Errorf("Generation after %d bumps = %d", i, gen)
		}
	}
	if ttl := mr.TTL(key); ttl != generationTTL {
		t.Errorf("generation TTL = %s, want %s", ttl, generationTTL)
	}
}
