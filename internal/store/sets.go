package store

// IDSet is a persisted set of video ids living under one kv key.
// The zero value is not usable; construct with NewIDSet.
//
// Watched and hidden sets are append-only: ids are never removed one at a
// time, only wiped wholesale via Clear (used for the hidden set). The later
// set additionally supports Toggle.
type IDSet struct {
	store *Store
	key   string
}

// NewIDSet binds an IDSet to a kv key.
func NewIDSet(s *Store, key string) *IDSet {
	return &IDSet{store: s, key: key}
}

// All returns the set's ids in insertion order.
func (s *IDSet) All() ([]string, error) {
	var ids []string
	if _, err := s.store.Get(s.key, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Has reports whether id is in the set.
func (s *IDSet) Has(id string) bool {
	ids, err := s.All()
	if err != nil {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add inserts id. Adding an id already present is a no-op.
func (s *IDSet) Add(id string) error {
	ids, err := s.All()
	if err != nil {
		return err
	}
	for _, v := range ids {
		if v == id {
			return nil
		}
	}
	return s.store.Set(s.key, append(ids, id))
}

// Toggle adds id if absent and removes it if present.
// Returns true when the id is in the set after the call.
func (s *IDSet) Toggle(id string) (bool, error) {
	ids, err := s.All()
	if err != nil {
		return false, err
	}
	for i, v := range ids {
		if v == id {
			return false, s.store.Set(s.key, append(ids[:i:i], ids[i+1:]...))
		}
	}
	return true, s.store.Set(s.key, append(ids, id))
}

// Clear empties the set.
func (s *IDSet) Clear() error {
	return s.store.Set(s.key, []string{})
}

// Lookup returns a membership predicate snapshot of the set.
// Cheaper than calling Has per item when filtering a whole feed.
func (s *IDSet) Lookup() func(id string) bool {
	ids, err := s.All()
	if err != nil {
		return func(string) bool { return false }
	}
	m := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		m[v] = struct{}{}
	}
	return func(id string) bool {
		_, ok := m[id]
		return ok
	}
}
