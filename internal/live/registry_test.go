package live

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry(slog.Default())

	entry := r.Register("user1", "Mozilla/5.0")
	if entry.ConnectionID == "" {
		t.Error("expected connection id to be set")
	}
	if entry.UserID != "user1" {
		t.Errorf("expected UserID user1, got %q", entry.UserID)
	}

	got := r.Lookup("user1")
	if got != entry {
		t.Error("expected Lookup to return the registered entry")
	}
	if ua := r.UserAgent("user1"); ua != "Mozilla/5.0" {
		t.Errorf("expected user agent to be recorded, got %q", ua)
	}

	if r.Lookup("user2") != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestRegistry_RegisterDisplacesOldConnection(t *testing.T) {
	r := NewRegistry(slog.Default())

	first := r.Register("user1", "device-a")
	second := r.Register("user1", "device-b")

	if first.ConnectionID == second.ConnectionID {
		t.Error("expected distinct connection ids")
	}
	if r.Lookup("user1") != second {
		t.Error("expected the newer connection to win")
	}

	// The displaced connection gets the forced-logout event, then its
	// channel closes.
	ev, open := <-first.Events()
	if !open {
		t.Fatal("expected an event before close")
	}
	if ev.Name != EventForceLogout {
		t.Errorf("expected %s event, got %s", EventForceLogout, ev.Name)
	}
	if _, open := <-first.Events(); open {
		t.Error("expected channel closed after displacement")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(slog.Default())

	entry := r.Register("user1", "device-a")
	r.Unregister(entry.ConnectionID)

	if r.Lookup("user1") != nil {
		t.Error("expected entry removed after Unregister")
	}

	// Unknown connection ids are ignored.
	r.Unregister("conn_bogus")
}

func TestRegistry_UnregisterStaleConnectionKeepsNewer(t *testing.T) {
	r := NewRegistry(slog.Default())

	first := r.Register("user1", "device-a")
	second := r.Register("user1", "device-b")

	// The displaced stream handler cleans up late; the newer entry stays.
	r.Unregister(first.ConnectionID)

	if r.Lookup("user1") != second {
		t.Error("expected newer connection to survive stale unregister")
	}
}

func TestRegistry_ForceLogout(t *testing.T) {
	r := NewRegistry(slog.Default())

	entry := r.Register("user1", "device-a")

	if !r.ForceLogout("user1", "taken over") {
		t.Fatal("expected ForceLogout to report delivery")
	}
	if r.Lookup("user1") != nil {
		t.Error("expected entry removed after forced logout")
	}

	ev, open := <-entry.Events()
	if !open {
		t.Fatal("expected an event before close")
	}
	if ev.Name != EventForceLogout || ev.Message != "taken over" {
		t.Errorf("unexpected event %+v", ev)
	}

	if r.ForceLogout("user1", "again") {
		t.Error("expected ForceLogout to report no connection the second time")
	}
}

func TestRegistry_ForceLogoutWithFullBufferDoesNotBlock(t *testing.T) {
	r := NewRegistry(slog.Default())

	entry := r.Register("user1", "device-a")
	for i := 0; i < cap(entry.events); i++ {
		entry.events <- Event{Name: "filler"}
	}

	// Must return immediately even though nothing drains the channel.
	if !r.ForceLogout("user1", "taken over") {
		t.Fatal("expected ForceLogout to report delivery")
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Register(fmt.Sprintf("user%d", n%4), "device")
		}(i)
	}
	wg.Wait()

	// One winner per user; everyone else was displaced with a closed channel.
	for i := 0; i < 4; i++ {
		user := fmt.Sprintf("user%d", i)
		if r.Lookup(user) == nil {
			t.Errorf("expected a live entry for %s", user)
		}
		if !r.ForceLogout(user, "done") {
			t.Errorf("expected forced logout delivered for %s", user)
		}
		if r.Lookup(user) != nil {
			t.Errorf("expected %s removed after forced logout", user)
		}
	}
}
