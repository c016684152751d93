package ui

import (
	"html/template"

	"tandem/internal/auth"
	"tandem/internal/blob"
	"tandem/internal/config"
	"tandem/internal/store"
	"tandem/internal/watch"
)

// Handler serves server-rendered HTML pages.
type Handler struct {
	cfg         *config.Config
	store       *store.Store
	authService *auth.Service
	hub         *watch.Hub
	blobs       *blob.Store
	templates   map[string]*template.Template
	kv          *BrowserKV
}

func NewHandler(cfg *config.Config, st *store.Store, authService *auth.Service, hub *watch.Hub, blobs *blob.Store) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       st,
		authService: authService,
		hub:         hub,
		blobs:       blobs,
		templates:   templates,
		kv:          NewBrowserKV(cfg),
	}
}
