// Package friends maintains a user's friend list on the document store and keeps
// an observable, display-ready copy of it.
package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/watch"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyNickname = errors.New("nickname is required")

// Store is the document store behind the friend graph. Friend-id changes must be
// atomic set operations so concurrent writers cannot lose each other's updates.
type Store interface {
	FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// UserByID returns nil, nil when no such user exists.
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UsersByNickname(ctx context.Context, nickname string, limit int64) ([]models.User, error)
	// AddFriendID reports false when friendID was already in the list.
	AddFriendID(ctx context.Context, userID, friendID primitive.ObjectID) (bool, error)
	// RemoveFriendID reports false when friendID was not in the list.
	RemoveFriendID(ctx context.Context, userID, friendID primitive.ObjectID) (bool, error)
}

// AvatarURLs turns a stored avatar key into a URL a client can fetch.
type AvatarURLs interface {
	AvatarURL(ctx context.Context, key string) (string, error)
}

const defaultFanout = 8

// Manager owns one user's friend list. Use a Registry to get one per user.
type Manager struct {
	store    Store
	identity Identity
	avatars  AvatarURLs
	logger   *slog.Logger
	fanout   int

	mu sync.Mutex // serialises AddFriend and RemoveFriend

	loads atomic.Uint64 // numbers each LoadFriends call as it starts

	cacheMu sync.RWMutex
	friends []models.Friend
	shown   uint64 // load number behind friends
	hub     *watch.Hub[[]models.Friend]
}

// NewManager builds a Manager. avatars and logger may be nil.
func NewManager(store Store, identity Identity, avatars AvatarURLs, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		identity: identity,
		avatars:  avatars,
		logger:   logger,
		fanout:   defaultFanout,
		hub:      watch.NewHub[[]models.Friend](),
	}
}

// Friends returns the most recently loaded friend list.
func (m *Manager) Friends() []models.Friend {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	return slices.Clone(m.friends)
}

// Subscribe streams every published friend list.
func (m *Manager) Subscribe() (<-chan []models.Friend, func()) {
	return m.hub.Subscribe()
}

// LoadFriends reloads the friend list from the store and publishes it. Friends
// whose profile cannot be fetched are left out. If the list itself cannot be read
// an empty list is published; calling again retries. A load that finishes after a
// later-started one publishes nothing and returns the newer list.
func (m *Manager) LoadFriends(ctx context.Context) []models.Friend {
	seq := m.loads.Add(1)
	uid, ok := m.identity.CurrentUserID()
	if !ok {
		return m.publish(seq, nil)
	}
	ids, err := m.store.FriendIDs(ctx, uid)
	if err != nil {
		m.logger.Error("friends_load_failed", "user_id", uid.Hex(), "error", err)
		return m.publish(seq, nil)
	}
	if len(ids) == 0 {
		return m.publish(seq, nil)
	}

	loaded := make([]*models.Friend, len(ids))
	var g errgroup.Group
	g.SetLimit(m.fanout)
	for i, id := range ids {
		g.Go(func() error {
			u, err := m.store.UserByID(ctx, id)
			if err != nil {
				m.logger.Warn("friend_profile_failed", "user_id", uid.Hex(), "friend_id", id.Hex(), "error", err)
				return nil
			}
			if u == nil {
				m.logger.Warn("friend_profile_missing", "user_id", uid.Hex(), "friend_id", id.Hex())
				return nil
			}
			f := m.toFriend(ctx, u)
			loaded[i] = &f
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Friend, 0, len(loaded))
	for _, f := range loaded {
		if f != nil {
			out = append(out, *f)
		}
	}
	return m.publish(seq, out)
}

// AddFriend looks up a user by exact nickname and adds them to the friend list.
// Nicknames are unique in the store; if several users still match, the first wins.
func (m *Manager) AddFriend(ctx context.Context, nickname string) Result {
	uid, ok := m.identity.CurrentUserID()
	if !ok {
		return errorResult(ErrLoginRequired)
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return errorResult(ErrEmptyNickname)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	matches, err := m.store.UsersByNickname(ctx, nickname, 1)
	if err != nil {
		return errorResult(fmt.Errorf("search nickname: %w", err))
	}
	if len(matches) == 0 {
		return Result{Kind: UserNotFound, Message: fmt.Sprintf("no user with nickname %q", nickname)}
	}
	target := matches[0]
	if target.ID == uid {
		return Result{Kind: SelfFriend, Message: "cannot add yourself as a friend"}
	}

	added, err := m.store.AddFriendID(ctx, uid, target.ID)
	if err != nil {
		return errorResult(fmt.Errorf("add friend: %w", err))
	}
	if !added {
		return Result{Kind: AlreadyFriend, Message: fmt.Sprintf("%s is already a friend", target.Nickname)}
	}
	m.logger.Info("friend_added", "user_id", uid.Hex(), "friend_id", target.ID.Hex())

	res := Result{Kind: Success, Message: fmt.Sprintf("%s added", target.Nickname)}
	for _, f := range m.LoadFriends(ctx) {
		if f.ID == target.ID.Hex() {
			res.Friend = &f
			break
		}
	}
	return res
}

// RemoveFriend removes id from the friend list.
func (m *Manager) RemoveFriend(ctx context.Context, id primitive.ObjectID) Result {
	uid, ok := m.identity.CurrentUserID()
	if !ok {
		return errorResult(ErrLoginRequired)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.store.RemoveFriendID(ctx, uid, id)
	if err != nil {
		m.logger.Error("friend_remove_failed", "user_id", uid.Hex(), "friend_id", id.Hex(), "error", err)
		return errorResult(fmt.Errorf("remove friend: %w", err))
	}
	if !removed {
		return Result{Kind: NotFriend, Message: "not in friend list"}
	}
	m.logger.Info("friend_removed", "user_id", uid.Hex(), "friend_id", id.Hex())
	m.LoadFriends(ctx)
	return Result{Kind: Success, Message: "friend removed"}
}

func (m *Manager) toFriend(ctx context.Context, u *models.User) models.Friend {
	f := models.Friend{
		ID:          u.ID.Hex(),
		Nickname:    u.Nickname,
		DisplayName: u.DisplayName,
		Presence:    models.PresencePlaceholder,
	}
	if u.AvatarKey != "" && m.avatars != nil {
		url, err := m.avatars.AvatarURL(ctx, u.AvatarKey)
		if err != nil {
			m.logger.Warn("friend_avatar_failed", "friend_id", f.ID, "error", err)
		} else {
			f.AvatarURL = url
		}
	}
	return f
}

func (m *Manager) publish(seq uint64, list []models.Friend) []models.Friend {
	if list == nil {
		list = []models.Friend{}
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if seq < m.shown {
		m.logger.Debug("friends_load_superseded", "load", seq, "shown", m.shown)
		return slices.Clone(m.friends)
	}
	m.shown = seq
	m.friends = list
	m.hub.Publish(slices.Clone(list))
	return slices.Clone(list)
}
