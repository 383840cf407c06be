package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountStore) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func newAuthServer(t *testing.T) (*testServer, *MockAccountStore) {
	t.Helper()
	srv := newTestServer(t, testCatalog)
	accounts := &MockAccountStore{}
	srv.auth.DB = accounts
	return srv, accounts
}

func TestSignup_Success(t *testing.T) {
	srv, accounts := newAuthServer(t)
	id := primitive.NewObjectID()
	accounts.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "alice@example.com" && u.Nickname == "alice" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")) == nil
	})).Return(id, nil)

	w := srv.do(t, http.MethodPost, "/api/auth/signup", primitive.NilObjectID, SignupRequest{
		Email:    " Alice@Example.com ",
		Password: "password123",
		Nickname: " alice ",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[LoginResponse](t, w)
	assert.Equal(t, id.Hex(), resp.UserID)
	assert.Equal(t, "alice", resp.Nickname)
	assert.NotEmpty(t, resp.Token)
	accounts.AssertExpectations(t)
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  SignupRequest
	}{
		{"bad email", SignupRequest{Email: "nope", Password: "password123", Nickname: "a"}},
		{"short password", SignupRequest{Email: "a@example.com", Password: "short", Nickname: "a"}},
		{"missing nickname", SignupRequest{Email: "a@example.com", Password: "password123", Nickname: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, accounts := newAuthServer(t)
			w := srv.do(t, http.MethodPost, "/api/auth/signup", primitive.NilObjectID, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			accounts.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_DuplicateIsConflict(t *testing.T) {
	srv, accounts := newAuthServer(t)
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	accounts.On("CreateUser", mock.Anything, mock.Anything).Return(primitive.NilObjectID, dup)

	w := srv.do(t, http.MethodPost, "/api/auth/signup", primitive.NilObjectID, SignupRequest{
		Email: "a@example.com", Password: "password123", Nickname: "a",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", Nickname: "a", Password: string(hash)}

	tests := []struct {
		name     string
		password string
		found    *models.User
		err      error
		status   int
	}{
		{"success", "password123", user, nil, http.StatusOK},
		{"wrong password", "password999", user, nil, http.StatusUnauthorized},
		{"unknown email", "password123", nil, nil, http.StatusUnauthorized},
		{"store error", "password123", nil, errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, accounts := newAuthServer(t)
			accounts.On("UserByEmail", mock.Anything, "a@example.com").Return(tt.found, tt.err)

			w := srv.do(t, http.MethodPost, "/api/auth/login", primitive.NilObjectID, LoginRequest{Email: "A@example.com", Password: tt.password})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, user.ID.Hex(), decode[LoginResponse](t, w).UserID)
			}
		})
	}
}

func TestLogout_DropsCachedState(t *testing.T) {
	srv, _ := newAuthServer(t)
	user := primitive.NewObjectID()
	srv.do(t, http.MethodPost, "/api/library", user, AddBookRequest{ID: "978-1"})
	first := srv.library.State(t.Context(), user)

	w := srv.do(t, http.MethodPost, "/api/auth/logout", user, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.NotSame(t, first, srv.library.State(t.Context(), user))
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/api/auth/logout", primitive.NilObjectID, nil).Code)
}
