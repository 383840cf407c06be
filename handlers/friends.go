package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/shelfmates/friends"
	"github.com/kevinaaaquil/shelfmates/middleware"
	"github.com/kevinaaaquil/shelfmates/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendsHandler struct {
	Friends *friends.Registry
}

type AddFriendRequest struct {
	Nickname string `json:"nickname"`
}

// FriendResultResponse lets clients pick a toast message from Result.
type FriendResultResponse struct {
	Result  friends.Kind   `json:"result"`
	Message string         `json:"message"`
	Friend  *models.Friend `json:"friend,omitempty"`
}

func (h *FriendsHandler) manager(r *http.Request) *friends.Manager {
	userID, _ := middleware.UserIDFromContext(r.Context())
	return h.Friends.For(userID)
}

// List reloads the friend list from the store.
func (h *FriendsHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, h.manager(r).LoadFriends(r.Context()))
}

func (h *FriendsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	res := h.manager(r).AddFriend(r.Context(), req.Nickname)
	status := resultStatus(res)
	if res.Kind == friends.Success {
		status = http.StatusCreated
	}
	writeResult(w, status, res)
}

func (h *FriendsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	res := h.manager(r).RemoveFriend(r.Context(), id)
	writeResult(w, resultStatus(res), res)
}

func resultStatus(res friends.Result) int {
	switch res.Kind {
	case friends.Success:
		return http.StatusOK
	case friends.UserNotFound, friends.NotFriend:
		return http.StatusNotFound
	case friends.AlreadyFriend:
		return http.StatusConflict
	case friends.SelfFriend:
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(res.Err, friends.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(res.Err, friends.ErrEmptyNickname):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeResult(w http.ResponseWriter, status int, res friends.Result) {
	msg := res.Message
	if status == http.StatusInternalServerError {
		// store errors can carry driver details
		msg = "friend update failed"
	}
	writeJSON(w, status, FriendResultResponse{Result: res.Kind, Message: msg, Friend: res.Friend})
}
