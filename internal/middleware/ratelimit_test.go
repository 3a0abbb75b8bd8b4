package middleware

import (
	"testing"
	"time"
)

func TestLimiterStoreAllowsBurst(t *testing.T) {
	store := NewLimiterStore(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !store.Allow("1.2.3.4:/api/v1/bookings") {
			t.Fatalf("request %d within burst must be allowed", i+1)
		}
	}
	if store.Allow("1.2.3.4:/api/v1/bookings") {
		t.Fatalf("request over burst must be rejected")
	}
}

func TestLimiterStoreKeysAreIndependent(t *testing.T) {
	store := NewLimiterStore(1, time.Minute)
	if !store.Allow("1.2.3.4:/api/v1/bookings") {
		t.Fatalf("first client must be allowed")
	}
	if !store.Allow("5.6.7.8:/api/v1/bookings") {
		t.Fatalf("other client must have its own bucket")
	}
}

func TestLimiterStoreSweep(t *testing.T) {
	store := NewLimiterStore(1, time.Minute)
	store.Allow("1.2.3.4:/api/v1/bookings")
	store.Sweep(0)
	store.mu.Lock()
	n := len(store.clients)
	store.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected swept store, got %d clients", n)
	}
}
