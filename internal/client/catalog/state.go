// Package catalog mirrors the remote book list locally and derives the
// searchable view shown to the user.
package catalog

import (
	"strings"
	"sync"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// State holds the last received snapshot and the current search query.
// The filtered view is recomputed whenever either changes.
type State struct {
	mu       sync.RWMutex
	snapshot []models.Book
	query    string
	view     []models.Book
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// OnListResult replaces the snapshot wholesale with records in server order.
// A repeated id keeps its first occurrence.
func (s *State) OnListResult(records []models.Book) {
	seen := make(map[int64]struct{}, len(records))
	snapshot := make([]models.Book, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		snapshot = append(snapshot, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.view = filter(s.snapshot, s.query)
}

// SetSearchQuery updates the search string.
func (s *State) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.view = filter(s.snapshot, q)
}

// Query returns the current search string.
func (s *State) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Snapshot returns a copy of the last received list.
func (s *State) Snapshot() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Book(nil), s.snapshot...)
}

// Filtered returns a copy of the records whose name contains the query,
// ignoring case.
func (s *State) Filtered() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Book(nil), s.view...)
}

// Find returns the snapshot record with the given id.
func (s *State) Find(id int64) (models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.snapshot {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}

func filter(books []models.Book, q string) []models.Book {
	if q == "" {
		return append([]models.Book(nil), books...)
	}
	needle := strings.ToLower(q)
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Name), needle) {
			out = append(out, b)
		}
	}
	return out
}
