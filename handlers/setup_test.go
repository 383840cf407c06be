package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/shelfmates/friends"
	"github.com/kevinaaaquil/shelfmates/library"
	"github.com/kevinaaaquil/shelfmates/middleware"
	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

type stubCatalog struct {
	books []models.CatalogBook
}

func (c stubCatalog) Search(_ context.Context, _ string, limit int) []models.CatalogBook {
	if limit < len(c.books) {
		return c.books[:limit]
	}
	return c.books
}

func (c stubCatalog) Lookup(_ context.Context, id string) (models.CatalogBook, bool) {
	for _, b := range c.books {
		if b.ID == id {
			return b, true
		}
	}
	return models.CatalogBook{}, false
}

// userStore is an in-memory user collection serving auth, profile and friend routes.
type userStore struct {
	mock.Mock
	mu    sync.Mutex
	users []*models.User
}

func (s *userStore) add(nickname string) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: primitive.NewObjectID(), Nickname: nickname, Email: nickname + "@example.com"}
	s.users = append(s.users, u)
	return u.ID
}

func (s *userStore) find(id primitive.ObjectID) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *userStore) FriendIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.find(userID).Friends), nil
}

func (s *userStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.find(id); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *userStore) UsersByNickname(_ context.Context, nickname string, limit int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Nickname == nickname && int64(len(out)) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *userStore) AddFriendID(_ context.Context, userID, friendID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(userID)
	if slices.Contains(u.Friends, friendID) {
		return false, nil
	}
	u.Friends = append(u.Friends, friendID)
	return true, nil
}

func (s *userStore) RemoveFriendID(_ context.Context, userID, friendID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(userID)
	n := len(u.Friends)
	u.Friends = slices.DeleteFunc(u.Friends, func(id primitive.ObjectID) bool { return id == friendID })
	return len(u.Friends) != n, nil
}

func (s *userStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, nickname, displayName *string) error {
	return s.Called(ctx, id, nickname, displayName).Error(0)
}

func (s *userStore) SetAvatarKey(ctx context.Context, id primitive.ObjectID, key string) (string, error) {
	args := s.Called(ctx, id, key)
	return args.String(0), args.Error(1)
}

type testServer struct {
	handler http.Handler
	users   *userStore
	library *library.Service
	auth    *AuthHandler
	profile *ProfileHandler
}

func newTestServer(t *testing.T, catalog stubCatalog) *testServer {
	t.Helper()
	users := &userStore{}
	lib := library.NewService(library.NewSessions(), catalog, nil, nil)
	registry := friends.NewRegistry(users, nil, nil)
	auth := &AuthHandler{DB: &MockAccountStore{}, JWTSecret: testSecret, Sessions: []SessionCache{lib, registry}}
	profile := &ProfileHandler{DB: users, MaxBytes: 1 << 20}
	h := NewRouter(Routes{
		JWTSecret:   testSecret,
		CORSOrigins: []string{"*"},
		Auth:        auth,
		Catalog:     &CatalogHandler{Catalog: catalog},
		Library:     &LibraryHandler{Library: lib},
		Friends:     &FriendsHandler{Friends: registry},
		Profile:     profile,
	})
	return &testServer{handler: h, users: users, library: lib, auth: auth, profile: profile}
}

func (s *testServer) do(t *testing.T, method, path string, user primitive.ObjectID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if !user.IsZero() {
		token, err := middleware.NewToken(testSecret, user, "", time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
