// Package library keeps each user's shelf of books and their reading progress.
package library

import (
	"slices"
	"sync"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/watch"
)

// Snapshot is an immutable point-in-time view of a library. Version increases by
// one with every published change.
type Snapshot struct {
	Version uint64
	Books   []models.LibraryBook
}

// State owns one user's library. All mutations go through its methods and each
// one publishes a fresh Snapshot; readers never see a partially applied change.
type State struct {
	mu      sync.Mutex
	books   []models.LibraryBook
	version uint64
	hub     *watch.Hub[Snapshot]
}

func NewState() *State {
	s := &State{hub: watch.NewHub[Snapshot]()}
	s.publishLocked()
	return s
}

// AddBook adds a catalog book with no reading progress. A book whose ID is already
// on the shelf is ignored. It reports whether the book was added.
func (s *State) AddBook(b models.CatalogBook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(b.ID) >= 0 {
		return false
	}
	s.books = append(s.books, models.LibraryBook{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		CoverURL:   b.CoverURL,
		TotalPages: TotalPages(b),
	})
	s.publishLocked()
	return true
}

// UpdateProgress sets the current page of a book and recomputes its progress.
// It returns the updated entry, or false if the book is not on the shelf.
func (s *State) UpdateProgress(id string, currentPage int) (models.LibraryBook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.LibraryBook{}, false
	}
	b := s.books[i]
	b.CurrentPage = currentPage
	b.Progress = Progress(currentPage, b.TotalPages)
	s.books[i] = b
	s.publishLocked()
	return b, true
}

// RemoveBook drops every entry with the given ID and reports whether any existed.
func (s *State) RemoveBook(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.books)
	s.books = slices.DeleteFunc(s.books, func(b models.LibraryBook) bool { return b.ID == id })
	if len(s.books) == n {
		return false
	}
	s.publishLocked()
	return true
}

func (s *State) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Load replaces the library with previously persisted books, dropping duplicate IDs
// and recomputing progress.
func (s *State) Load(books []models.LibraryBook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(books))
	out := make([]models.LibraryBook, 0, len(books))
	for _, b := range books {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		b.Progress = Progress(b.CurrentPage, b.TotalPages)
		out = append(out, b)
	}
	s.books = out
	s.publishLocked()
}

// Snapshot returns the current library.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe streams snapshots, starting with the current one.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	return s.hub.Subscribe()
}

func (s *State) indexLocked(id string) int {
	return slices.IndexFunc(s.books, func(b models.LibraryBook) bool { return b.ID == id })
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Books: append(make([]models.LibraryBook, 0, len(s.books)), s.books...)}
}

func (s *State) publishLocked() {
	s.version++
	s.hub.Publish(s.snapshotLocked())
}
