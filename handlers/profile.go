package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/shelfmates/middleware"
	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/kevinaaaquil/shelfmates/service"
	"github.com/kevinaaaquil/shelfmates/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileStore interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, nickname, displayName *string) error
	SetAvatarKey(ctx context.Context, id primitive.ObjectID, key string) (string, error)
}

type AvatarStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	AvatarURL(ctx context.Context, key string) (string, error)
}

type ProfileHandler struct {
	DB       ProfileStore
	Avatars  AvatarStorage // nil disables avatar uploads
	MaxBytes int64
}

type ProfileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	FriendCount int    `json:"friendCount"`
}

type UpdateProfileRequest struct {
	Nickname    *string `json:"nickname"`
	DisplayName *string `json:"displayName"`
}

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Nickname != nil {
		n := strings.TrimSpace(*req.Nickname)
		if n == "" {
			http.Error(w, `{"error":"nickname cannot be empty"}`, http.StatusBadRequest)
			return
		}
		req.Nickname = &n
	}
	if req.DisplayName != nil {
		d := strings.TrimSpace(*req.DisplayName)
		req.DisplayName = &d
	}
	err := h.DB.UpdateProfile(r.Context(), userID, req.Nickname, req.DisplayName)
	switch {
	case store.IsDuplicateKey(err):
		http.Error(w, `{"error":"nickname already in use"}`, http.StatusConflict)
		return
	case errors.Is(err, store.ErrUserNotFound):
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, `{"error":"failed to update profile"}`, http.StatusInternalServerError)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if h.Avatars == nil {
		http.Error(w, `{"error":"upload not configured (missing S3)"}`, http.StatusServiceUnavailable)
		return
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, `{"error":"failed to parse multipart form"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"missing file"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	if !avatarTypes[contentType] {
		http.Error(w, `{"error":"only jpeg, png and webp images are allowed"}`, http.StatusBadRequest)
		return
	}

	key := service.AvatarKey(userID.Hex(), header.Filename)
	if err := h.Avatars.Upload(r.Context(), key, file, contentType); err != nil {
		slog.Error("avatar_upload_failed", "user_id", userID.Hex(), "error", err)
		http.Error(w, `{"error":"failed to upload to storage"}`, http.StatusInternalServerError)
		return
	}
	previous, err := h.DB.SetAvatarKey(r.Context(), userID, key)
	if err != nil {
		_ = h.Avatars.Delete(r.Context(), key)
		http.Error(w, `{"error":"failed to save avatar"}`, http.StatusInternalServerError)
		return
	}
	if previous != "" {
		if err := h.Avatars.Delete(r.Context(), previous); err != nil {
			slog.Warn("avatar_delete_failed", "user_id", userID.Hex(), "key", previous, "error", err)
		}
	}
	h.writeProfile(w, r, userID)
}

func (h *ProfileHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	user, err := h.DB.UserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error":"failed to load profile"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	resp := ProfileResponse{
		ID:          user.ID.Hex(),
		Email:       user.Email,
		Nickname:    user.Nickname,
		DisplayName: user.DisplayName,
		FriendCount: len(user.Friends),
	}
	if user.AvatarKey != "" && h.Avatars != nil {
		if url, err := h.Avatars.AvatarURL(r.Context(), user.AvatarKey); err == nil {
			resp.AvatarURL = url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
