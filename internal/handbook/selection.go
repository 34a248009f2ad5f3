package handbook

import "sync"

// Selection is the set of reminder ids marked for bulk delete, kept in selection order
type Selection struct {
	mu  sync.Mutex
	ids []string
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{}
}

// Toggle selects id if unselected and deselects it otherwise. It returns the new state.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// Set replaces the selection, dropping duplicates
func (s *Selection) Set(ids []string) {
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	s.mu.Lock()
	s.ids = next
	s.mu.Unlock()
}

// Deselect removes id if present
func (s *Selection) Deselect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

// IDs returns a copy of the selected ids
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.mu.Lock()
	s.ids = nil
	s.mu.Unlock()
}
