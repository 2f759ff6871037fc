package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tubetop.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var v string
	ok, err := s.Get("never-set", &v)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("missing key should report ok=false")
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	s := newTestStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := s.Set("k", payload{Name: "tubetop", Count: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	ok, err := s.Get("k", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "tubetop" || got.Count != 3 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("k", []string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", []string{"c"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got []string
	if _, err := s.Get("k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("second Set must replace the value, got %v", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var v string
	if ok, _ := s.Get("k", &v); ok {
		t.Error("deleted key should be absent")
	}

	if err := s.Delete("k"); err != nil {
		t.Errorf("deleting an absent key should be a no-op, got %v", err)
	}
}

func TestSubscribeNotifiedOnSet(t *testing.T) {
	s := newTestStore(t)

	fired := 0
	s.Subscribe("watched", func() { fired++ })

	if err := s.Set("watched", []string{"a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("other", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if fired != 1 {
		t.Errorf("subscriber fired %d times, want 1 (only its own key)", fired)
	}

	if err := s.Delete("watched"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fired != 2 {
		t.Errorf("subscriber should also fire on Delete, fired %d times", fired)
	}
}

func TestCredential(t *testing.T) {
	s := newTestStore(t)

	if got := s.Credential(); got != "" {
		t.Errorf("unset credential should be empty, got %q", got)
	}

	if err := s.SetCredential("secret"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if got := s.Credential(); got != "secret" {
		t.Errorf("Credential() = %q", got)
	}

	if err := s.SetCredential(""); err != nil {
		t.Fatalf("clear credential: %v", err)
	}
	if got := s.Credential(); got != "" {
		t.Errorf("cleared credential should be empty, got %q", got)
	}
}

func TestIDSetAddIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	set := NewIDSet(s, KeyWatched)

	if err := set.Add("v1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := set.Add("v1"); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if err := set.Add("v2"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ids, err := set.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ids) != 2 || ids[0] != "v1" || ids[1] != "v2" {
		t.Errorf("expected [v1 v2] in insertion order, got %v", ids)
	}
	if !set.Has("v1") || set.Has("v3") {
		t.Error("Has membership wrong")
	}
}

func TestIDSetToggle(t *testing.T) {
	s := newTestStore(t)
	set := NewIDSet(s, KeyLater)

	in, err := set.Toggle("v1")
	if err != nil || !in {
		t.Fatalf("first toggle should add: in=%v err=%v", in, err)
	}
	in, err = set.Toggle("v1")
	if err != nil || in {
		t.Fatalf("second toggle should remove: in=%v err=%v", in, err)
	}
	if set.Has("v1") {
		t.Error("v1 should be gone after the second toggle")
	}
}

func TestIDSetClearAndLookup(t *testing.T) {
	s := newTestStore(t)
	set := NewIDSet(s, KeyHidden)

	for _, id := range []string{"a", "b", "c"} {
		if err := set.Add(id); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	has := set.Lookup()
	if !has("b") || has("z") {
		t.Error("Lookup predicate wrong")
	}

	if err := set.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	ids, err := set.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("set should be empty after Clear, got %v", ids)
	}

	// Lookup is a snapshot: it still sees the pre-Clear membership.
	if !has("b") {
		t.Error("existing Lookup snapshot should be unaffected by Clear")
	}
}
