package friends

import (
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registry keeps one Manager per signed-in user.
type Registry struct {
	store   Store
	avatars AvatarURLs
	logger  *slog.Logger

	mu       sync.Mutex
	managers map[primitive.ObjectID]*Manager
}

func NewRegistry(store Store, avatars AvatarURLs, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		avatars:  avatars,
		logger:   logger,
		managers: make(map[primitive.ObjectID]*Manager),
	}
}

// For returns the user's Manager. A zero id yields an anonymous Manager that is
// not cached; its mutations report ErrLoginRequired.
func (r *Registry) For(userID primitive.ObjectID) *Manager {
	if userID.IsZero() {
		return NewManager(r.store, Anonymous, r.avatars, r.logger)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[userID]
	if !ok {
		m = NewManager(r.store, User(userID), r.avatars, r.logger)
		r.managers[userID] = m
	}
	return m
}

func (r *Registry) Forget(userID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, userID)
}
