package library

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotInCatalog is returned when a book to add cannot be found in the catalog.
var ErrNotInCatalog = errors.New("book not found in catalog")

// Catalog looks books up by catalog identifier. A miss or a failed lookup both
// report false.
type Catalog interface {
	Lookup(ctx context.Context, id string) (models.CatalogBook, bool)
}

// Store persists libraries. Every method is keyed by user.
type Store interface {
	LibraryBooks(ctx context.Context, userID primitive.ObjectID) ([]models.LibraryBook, error)
	InsertLibraryBook(ctx context.Context, userID primitive.ObjectID, book models.LibraryBook) error
	UpdateLibraryProgress(ctx context.Context, userID primitive.ObjectID, bookID string, currentPage int, at time.Time) error
	DeleteLibraryBook(ctx context.Context, userID primitive.ObjectID, bookID string) error
}

// Service is the per-process entry point to users' libraries. The in-memory State
// is authoritative; store writes mirror it and their failures are only logged.
type Service struct {
	sessions *Sessions
	catalog  Catalog
	store    Store // nil keeps libraries in memory only
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(sessions *Sessions, catalog Catalog, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: sessions,
		catalog:  catalog,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// State returns the user's library, loading it from the store on first use.
func (s *Service) State(ctx context.Context, userID primitive.ObjectID) *State {
	return s.sessions.Get(userID, func(st *State) {
		if s.store == nil {
			return
		}
		// the first caller's cancellation must not leave the session empty
		books, err := s.store.LibraryBooks(context.WithoutCancel(ctx), userID)
		if err != nil {
			s.logger.Error("library_load_failed", "user_id", userID.Hex(), "error", err)
			return
		}
		st.Load(books)
	})
}

func (s *Service) List(ctx context.Context, userID primitive.ObjectID) Snapshot {
	return s.State(ctx, userID).Snapshot()
}

// AddByID looks the book up in the catalog and adds it. Adding a book that is
// already on the shelf is not an error. ISBNs are keyed by their ISBN-13 so every
// spelling of one book shares a single entry.
func (s *Service) AddByID(ctx context.Context, userID primitive.ObjectID, id string) (models.LibraryBook, error) {
	id = utils.CanonicalBookID(id)
	st := s.State(ctx, userID)
	if st.Contains(id) {
		return s.find(st, id), nil
	}
	if s.catalog == nil {
		return models.LibraryBook{}, ErrNotInCatalog
	}
	book, ok := s.catalog.Lookup(ctx, id)
	if !ok {
		return models.LibraryBook{}, ErrNotInCatalog
	}
	// catalog records may carry a different identifier form; key by the one asked for
	book.ID = id
	return s.Add(ctx, userID, book), nil
}

// Add puts a catalog book on the user's shelf and returns the shelf entry.
func (s *Service) Add(ctx context.Context, userID primitive.ObjectID, book models.CatalogBook) models.LibraryBook {
	book.ID = utils.CanonicalBookID(book.ID)
	st := s.State(ctx, userID)
	added := st.AddBook(book)
	entry := s.find(st, book.ID)
	if added && s.store != nil {
		entry.AddedAt = s.now()
		if err := s.store.InsertLibraryBook(ctx, userID, entry); err != nil {
			s.logger.Error("library_insert_failed", "user_id", userID.Hex(), "book_id", book.ID, "error", err)
		}
	}
	return entry
}

// UpdateProgress records the page the user is on. It reports false when the book
// is not on the shelf.
func (s *Service) UpdateProgress(ctx context.Context, userID primitive.ObjectID, id string, currentPage int) (models.LibraryBook, bool) {
	id = utils.CanonicalBookID(id)
	b, ok := s.State(ctx, userID).UpdateProgress(id, currentPage)
	if !ok {
		return b, false
	}
	if s.store != nil {
		at := s.now()
		if err := s.store.UpdateLibraryProgress(ctx, userID, id, b.CurrentPage, at); err != nil {
			s.logger.Error("library_progress_failed", "user_id", userID.Hex(), "book_id", id, "error", err)
		}
		b.LastReadAt = at
	}
	return b, true
}

func (s *Service) Remove(ctx context.Context, userID primitive.ObjectID, id string) bool {
	id = utils.CanonicalBookID(id)
	if !s.State(ctx, userID).RemoveBook(id) {
		return false
	}
	if s.store != nil {
		if err := s.store.DeleteLibraryBook(ctx, userID, id); err != nil {
			s.logger.Error("library_delete_failed", "user_id", userID.Hex(), "book_id", id, "error", err)
		}
	}
	return true
}

func (s *Service) Contains(ctx context.Context, userID primitive.ObjectID, id string) bool {
	return s.State(ctx, userID).Contains(utils.CanonicalBookID(id))
}

// Forget drops the user's in-memory library; the next access reloads it.
func (s *Service) Forget(userID primitive.ObjectID) {
	s.sessions.Drop(userID)
}

func (s *Service) find(st *State, id string) models.LibraryBook {
	for _, b := range st.Snapshot().Books {
		if b.ID == id {
			return b
		}
	}
	return models.LibraryBook{}
}
