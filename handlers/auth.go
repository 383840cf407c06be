package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/kevinaaaquil/shelfmates/middleware"
	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the part of the user store that auth needs.
type AccountStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

// SessionCache is per-user in-memory state that is dropped on logout.
type SessionCache interface {
	Forget(userID primitive.ObjectID)
}

type AuthHandler struct {
	DB        AccountStore
	JWTSecret string
	Sessions  []SessionCache
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

const minPasswordLen = 8

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, `{"error":"valid email required"}`, http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLen {
		http.Error(w, `{"error":"password must be at least 8 characters"}`, http.StatusBadRequest)
		return
	}
	if req.Nickname == "" {
		http.Error(w, `{"error":"nickname required"}`, http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error":"signup failed"}`, http.StatusInternalServerError)
		return
	}
	user := &models.User{
		Email:       req.Email,
		Password:    string(hash),
		Nickname:    req.Nickname,
		DisplayName: strings.TrimSpace(req.DisplayName),
		CreatedAt:   time.Now(),
	}
	id, err := h.DB.CreateUser(r.Context(), user)
	if store.IsDuplicateKey(err) {
		http.Error(w, `{"error":"email or nickname already in use"}`, http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"signup failed"}`, http.StatusInternalServerError)
		return
	}
	h.respondWithToken(w, http.StatusCreated, id, user.Nickname)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, http.StatusOK, user.ID, user.Nickname)
}

// Logout drops the caller's cached library and friend list. Tokens are stateless
// and stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	for _, s := range h.Sessions {
		s.Forget(userID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, userID primitive.ObjectID, nickname string) {
	token, err := middleware.NewToken(h.JWTSecret, userID, nickname, time.Now())
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, LoginResponse{Token: token, UserID: userID.Hex(), Nickname: nickname})
}
