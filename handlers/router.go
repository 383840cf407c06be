package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/shelfmates/middleware"
)

type Routes struct {
	JWTSecret   string
	CORSOrigins []string
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Library     *LibraryHandler
	Friends     *FriendsHandler
	Profile     *ProfileHandler
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(rt.CORSOrigins))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", rt.Auth.Signup)
		r.Post("/auth/login", rt.Auth.Login)
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(rt.JWTSecret))
			r.Post("/auth/logout", rt.Auth.Logout)

			r.Get("/catalog/search", rt.Catalog.Search)
			r.Get("/catalog/{id}", rt.Catalog.Get)

			r.Get("/library", rt.Library.List)
			r.Post("/library", rt.Library.Add)
			r.Get("/library/{id}/exists", rt.Library.Contains)
			r.Patch("/library/{id}", rt.Library.UpdateProgress)
			r.Delete("/library/{id}", rt.Library.Remove)

			r.Get("/friends", rt.Friends.List)
			r.Post("/friends", rt.Friends.Add)
			r.Delete("/friends/{id}", rt.Friends.Remove)

			r.Get("/me", rt.Profile.Get)
			r.Patch("/me", rt.Profile.Update)
			r.Post("/me/avatar", rt.Profile.UploadAvatar)
		})
	})
	return r
}
