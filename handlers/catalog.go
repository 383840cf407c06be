package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/shelfmates/models"
)

type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) []models.CatalogBook
	Lookup(ctx context.Context, id string) (models.CatalogBook, bool)
}

type CatalogHandler struct {
	Catalog CatalogSearcher
}

const defaultSearchLimit = 20

// Search never fails on catalog errors; it returns an empty list instead.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, `{"error":"query parameter q required"}`, http.StatusBadRequest)
		return
	}
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	books := h.Catalog.Search(r.Context(), q, limit)
	if books == nil {
		books = []models.CatalogBook{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, ok := h.Catalog.Lookup(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, book)
}
