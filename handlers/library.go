package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/shelfmates/library"
	"github.com/kevinaaaquil/shelfmates/middleware"
	"github.com/kevinaaaquil/shelfmates/models"
)

type LibraryHandler struct {
	Library *library.Service
}

type LibraryResponse struct {
	Version uint64               `json:"version"`
	Books   []models.LibraryBook `json:"books"`
}

type AddBookRequest struct {
	ID string `json:"id"`
}

// maxCurrentPage bounds the page number a client may report.
const maxCurrentPage = 1 << 20

type UpdateProgressRequest struct {
	CurrentPage *int `json:"currentPage"`
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	snap := h.Library.List(r.Context(), userID)
	writeJSON(w, http.StatusOK, LibraryResponse{Version: snap.Version, Books: snap.Books})
}

func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, `{"error":"book id required"}`, http.StatusBadRequest)
		return
	}
	book, err := h.Library.AddByID(r.Context(), userID, req.ID)
	if errors.Is(err, library.ErrNotInCatalog) {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"failed to add book"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *LibraryHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.CurrentPage == nil || *req.CurrentPage < 0 || *req.CurrentPage > maxCurrentPage {
		http.Error(w, `{"error":"currentPage must be an integer between 0 and 1048576"}`, http.StatusBadRequest)
		return
	}
	book, ok := h.Library.UpdateProgress(r.Context(), userID, chi.URLParam(r, "id"), *req.CurrentPage)
	if !ok {
		http.Error(w, `{"error":"book not in library"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Remove is idempotent: removing a book that is not on the shelf also returns 204.
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.Library.Remove(r.Context(), userID, chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LibraryHandler) Contains(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inLibrary": h.Library.Contains(r.Context(), userID, chi.URLParam(r, "id"))})
}
