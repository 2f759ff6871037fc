// Package channels maintains the user-ordered list of registered channels.
//
// Position in the list is significant: it defines interleave priority in the
// aggregated feed. The registry guarantees no other ordering.
package channels

import (
	"sync"

	"tubetop/internal/store"
)

// Channel is a registered content source.
type Channel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	UploadsPlaylistID string `json:"uploads_playlist_id,omitempty"`
}

// Registry is the ordered channel set, persisted on every mutation.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	store *store.Store
	list  []Channel
}

// Load reads the persisted channel list into a new Registry.
func Load(s *store.Store) (*Registry, error) {
	r := &Registry{store: s}
	if _, err := s.Get(store.KeyChannels, &r.list); err != nil {
		return nil, err
	}
	return r, nil
}

// All returns a copy of the channel list in registry order.
func (r *Registry) All() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, len(r.list))
	copy(out, r.list)
	return out
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Contains reports whether a channel with the given id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.list {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Add appends ch to the registry. A channel whose id is already registered
// is rejected: the registry is unchanged and Add returns false.
func (r *Registry) Add(ch Channel) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.list {
		if c.ID == ch.ID {
			return false, nil
		}
	}

	r.list = append(r.list, ch)
	return true, r.persist()
}

// Remove deletes the channel with the given id. Absent ids are a no-op.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.list {
		if c.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return r.persist()
		}
	}
	return nil
}

// Reorder moves the channel at from to position to, shifting the channels in
// between. Out-of-range indices make the call a no-op.
func (r *Registry) Reorder(from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from < 0 || from >= len(r.list) || to < 0 || to >= len(r.list) || from == to {
		return nil
	}

	ch := r.list[from]
	r.list = append(r.list[:from], r.list[from+1:]...)
	r.list = append(r.list[:to], append([]Channel{ch}, r.list[to:]...)...)
	return r.persist()
}

// persist writes the full list. Caller must hold r.mu.
func (r *Registry) persist() error {
	out := make([]Channel, len(r.list))
	copy(out, r.list)
	return r.store.Set(store.KeyChannels, out)
}
