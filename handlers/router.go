package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)

	// Static file server
	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	// Action handlers
	mux.Post("/post", MakeHandler(app, HandlePost))

	// File serving
	mux.Get("/files/{fileID}", MakeHandler(app, HandleFile))
	mux.Get("/files/{fileID}/thumb", MakeHandler(app, HandleThumbnail))

	// Admin handlers
	mux.Route("/admin", func(r chi.Router) {
		r.Get("/login", MakeHandler(app, HandleAdminLoginPage))
		r.Post("/login", MakeHandler(app, HandleAdminLogin))
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(app))
			r.Get("/", MakeHandler(app, HandleAdminPage))
			r.Post("/delete-file", MakeHandler(app, HandleAdminDeleteFile))
		})
	})

	// Page-serving routes
	mux.Get("/", MakeHandler(app, HandleHome))
	mux.Get("/{boardID}", MakeHandler(app, HandleBoardPage))
	mux.Get("/{boardID}/catalog", MakeHandler(app, HandleCatalogPage))
	mux.Get("/{boardID}/thread/{postID}", MakeHandler(app, HandleThread))

	return mux
}
