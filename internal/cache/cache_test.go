package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, expiry time.Duration) *Cache {
	t.Helper()
	c, err := New(expiry, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestKey_OrderIrrelevant(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"pair", []string{"A", "B"}, []string{"B", "A"}},
		{"triple", []string{"x", "y", "z"}, []string{"z", "x", "y"}},
		{"duplicates", []string{"A", "A", "B"}, []string{"B", "A", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Key(tt.a) != Key(tt.b) {
				t.Errorf("keys differ: %q vs %q", Key(tt.a), Key(tt.b))
			}
		})
	}
}

func TestKey_DistinctSets(t *testing.T) {
	if Key([]string{"A"}) == Key([]string{"B"}) {
		t.Error("different fact sets must not collide")
	}
	// Duplicates are preserved, so multiplicity matters.
	if Key([]string{"A"}) == Key([]string{"A", "A"}) {
		t.Error("duplicate count must be part of the key")
	}
}

func TestKey_DoesNotMutateInput(t *testing.T) {
	facts := []string{"b", "a"}
	Key(facts)
	if facts[0] != "b" || facts[1] != "a" {
		t.Errorf("input reordered: %v", facts)
	}
}

func TestGetPut(t *testing.T) {
	c := newTestCache(t, time.Minute)

	if _, ok := c.Get([]string{"f1"}); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put([]string{"f1", "f2"}, "active", 0.9)

	entry, ok := c.Get([]string{"f2", "f1"}) // permuted order hits the same key
	if !ok {
		t.Fatal("expected hit")
	}
	if entry.State != "active" || entry.Confidence != 0.9 {
		t.Errorf("got %+v", entry)
	}
}

func TestLazyExpiry(t *testing.T) {
	c := newTestCache(t, 5*time.Minute)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Put([]string{"f1"}, "idle", 0.8)

	// Just before expiry: still a hit.
	c.SetClock(func() time.Time { return now.Add(5*time.Minute - time.Second) })
	if _, ok := c.Get([]string{"f1"}); !ok {
		t.Fatal("expected hit before expiry")
	}

	// At expiry: a miss, but the entry stays resident.
	c.SetClock(func() time.Time { return now.Add(5 * time.Minute) })
	if _, ok := c.Get([]string{"f1"}); ok {
		t.Fatal("expected miss at expiry")
	}
	if c.Len() != 1 {
		t.Errorf("expired entry should remain resident, len=%d", c.Len())
	}

	// Overwrite refreshes the timestamp and revives the key.
	c.Put([]string{"f1"}, "idle", 0.85)
	if _, ok := c.Get([]string{"f1"}); !ok {
		t.Fatal("expected hit after overwrite")
	}
}

func TestOverwrite(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Put([]string{"f1"}, "idle", 0.5)
	c.Put([]string{"f1"}, "active", 0.9)

	entry, ok := c.Get([]string{"f1"})
	if !ok {
		t.Fatal("expected hit")
	}
	if entry.State != "active" || entry.Confidence != 0.9 {
		t.Errorf("overwrite not applied: %+v", entry)
	}
	if c.Len() != 1 {
		t.Errorf("len: got %d, want 1", c.Len())
	}
}

func TestPurge(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Put([]string{"f1"}, "idle", 0.5)
	c.Put([]string{"f2"}, "active", 0.6)

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("len after purge: got %d", c.Len())
	}
	if _, ok := c.Get([]string{"f1"}); ok {
		t.Fatal("unexpected hit after purge")
	}
}

func TestCapacityBound(t *testing.T) {
	c, err := New(time.Minute, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put([]string{"f1"}, "a", 0.5)
	c.Put([]string{"f2"}, "b", 0.5)
	c.Put([]string{"f3"}, "c", 0.5)

	if c.Len() != 2 {
		t.Errorf("len: got %d, want 2", c.Len())
	}
	// Oldest key was evicted.
	if _, ok := c.Get([]string{"f1"}); ok {
		t.Error("f1 should have been evicted")
	}
	if _, ok := c.Get([]string{"f3"}); !ok {
		t.Error("f3 should be resident")
	}
}
