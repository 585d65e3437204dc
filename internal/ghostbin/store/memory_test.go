package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_CreateIfAbsent_NoOverwrite(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	created, err := m.CreateIfAbsent(ctx, "paste:a", "v1", time.Minute)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	created, err = m.CreateIfAbsent(ctx, "paste:a", "v2", time.Minute)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatalf("expected second create to report exists")
	}
	got, found, err := m.Get(ctx, "paste:a")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got != "v1" {
		t.Fatalf("value overwritten: got %q want %q", got, "v1")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	if _, err := m.CreateIfAbsent(ctx, "k", "v", 30*time.Second); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Still alive just before the deadline.
	now = now.Add(29 * time.Second)
	if _, found, _ := m.Get(ctx, "k"); !found {
		t.Fatalf("expected key alive at 29s")
	}

	// Gone at the deadline; the slot is reusable.
	now = now.Add(time.Second)
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatalf("expected key expired at 30s")
	}
	created, err := m.CreateIfAbsent(ctx, "k", "v2", time.Minute)
	if err != nil || !created {
		t.Fatalf("create after expiry: created=%v err=%v", created, err)
	}
}

func TestMemoryStore_UpdatePreservingTTL(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	if _, err := m.CreateIfAbsent(ctx, "k", "v1", time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(20 * time.Second)
	if err := m.UpdatePreservingTTL(ctx, "k", "v2"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, found, _ := m.Get(ctx, "k")
	if !found || got != "v2" {
		t.Fatalf("get after update: found=%v got=%q", found, got)
	}
	ttl, ok := m.TTL("k")
	if !ok {
		t.Fatalf("ttl: key missing")
	}
	if ttl != 40*time.Second {
		t.Fatalf("ttl not preserved: got %v want %v", ttl, 40*time.Second)
	}
}

func TestMemoryStore_SetTTL(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	if _, err := m.CreateIfAbsent(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SetTTL(ctx, "k", 90*time.Second); err != nil {
		t.Fatalf("set ttl: %v", err)
	}
	ttl, ok := m.TTL("k")
	if !ok || ttl != 90*time.Second {
		t.Fatalf("ttl: ok=%v got=%v", ok, ttl)
	}

	// EXPIRE on a missing key is a no-op.
	if err := m.SetTTL(ctx, "missing", time.Second); err != nil {
		t.Fatalf("set ttl on missing key: %v", err)
	}
	if _, ok := m.TTL("missing"); ok {
		t.Fatalf("set ttl must not create keys")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if _, err := m.CreateIfAbsent(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatalf("expected key gone after delete")
	}
	// Deleting an absent key is not an error.
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestMemoryStore_ContextCanceled(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.CreateIfAbsent(ctx, "k", "v", time.Minute); err == nil {
		t.Fatalf("expected context error from CreateIfAbsent")
	}
	if _, _, err := m.Get(ctx, "k"); err == nil {
		t.Fatalf("expected context error from Get")
	}
}

func TestKeyHelpers(t *testing.T) {
	if got, want := PasteKey("abc"), "paste:abc"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got, want := SaltKey("deadbeef"), "pow:salt:deadbeef"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
