package channels

import (
	"path/filepath"
	"testing"

	"tubetop/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tubetop.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ch(id string) Channel {
	return Channel{ID: id, Title: "title " + id, UploadsPlaylistID: "UU" + id}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	r, err := Load(newTestStore(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ok, err := r.Add(ch("c1"))
	if err != nil || !ok {
		t.Fatalf("first Add: ok=%v err=%v", ok, err)
	}

	ok, err = r.Add(Channel{ID: "c1", Title: "different title"})
	if err != nil {
		t.Fatalf("duplicate Add: %v", err)
	}
	if ok {
		t.Error("adding an already-registered id must be rejected")
	}
	if r.Len() != 1 {
		t.Errorf("registry grew on rejected add: len=%d", r.Len())
	}
}

func TestRemove(t *testing.T) {
	r, _ := Load(newTestStore(t))
	r.Add(ch("c1"))
	r.Add(ch("c2"))

	if err := r.Remove("c1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if r.Contains("c1") {
		t.Error("removed channel still registered")
	}
	if !r.Contains("c2") {
		t.Error("unrelated channel removed")
	}

	if err := r.Remove("absent"); err != nil {
		t.Errorf("removing an absent id should be a no-op, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	r, _ := Load(newTestStore(t))
	r.Add(ch("a"))
	r.Add(ch("b"))
	r.Add(ch("c"))

	if err := r.Reorder(2, 0); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	got := r.All()
	if got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("expected [c a b], got %v", got)
	}

	// Out-of-range moves leave the order alone.
	if err := r.Reorder(0, 5); err != nil {
		t.Fatalf("Reorder out of range: %v", err)
	}
	if after := r.All(); after[0].ID != "c" {
		t.Errorf("out-of-range reorder changed the list: %v", after)
	}
}

func TestPersistenceAcrossLoads(t *testing.T) {
	s := newTestStore(t)

	r1, _ := Load(s)
	r1.Add(ch("c1"))
	r1.Add(ch("c2"))
	r1.Reorder(1, 0)

	r2, err := Load(s)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := r2.All()
	if len(got) != 2 || got[0].ID != "c2" || got[1].ID != "c1" {
		t.Errorf("persisted order lost: %v", got)
	}
	if got[0].UploadsPlaylistID != "UUc2" {
		t.Errorf("uploads playlist not persisted: %+v", got[0])
	}
}

func TestAllReturnsCopy(t *testing.T) {
	r, _ := Load(newTestStore(t))
	r.Add(ch("c1"))

	list := r.All()
	list[0].ID = "mutated"
	if r.All()[0].ID != "c1" {
		t.Error("All must return a copy, not the backing slice")
	}
}
