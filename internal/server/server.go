// Package server is the admin HTTP surface: a post list, the edit screen
// with its meta boxes, the save endpoint and a read-only meta API.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/assets"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/render/template"
	"github.com/goliatone/go-metabox/pkg/render/template/gotemplate"
	"github.com/goliatone/go-metabox/pkg/restschema"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
)

//go:embed templates/*.html
var pageFiles embed.FS

// MaxBodyBytes caps the size of a save request.
const MaxBodyBytes = 1 << 20

// Options wires a Server.
type Options struct {
	Host  *metabox.Host
	Store storage.Store
	// User is the account every request runs as.
	User   security.User
	Logger *zap.Logger
	// Pages overrides the page templates. Defaults to the embedded set.
	Pages template.TemplateRenderer
	// ShutdownGrace bounds graceful shutdown in Run. Defaults to 5s.
	ShutdownGrace time.Duration
}

// Server serves the admin screens.
type Server struct {
	host    *metabox.Host
	store   storage.Store
	user    security.User
	logger  *zap.Logger
	pages   template.TemplateRenderer
	grace   time.Duration
	openapi []byte
	router  chi.Router
}

// New validates opts, builds the meta API document and mounts the routes.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Host == nil || opts.Store == nil {
		return nil, errors.New("server: host and store are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 5 * time.Second
	}
	if opts.Pages == nil {
		sub, err := fs.Sub(pageFiles, "templates")
		if err != nil {
			return nil, fmt.Errorf("server: page templates: %w", err)
		}
		pages, err := gotemplate.New(gotemplate.WithFS(sub))
		if err != nil {
			return nil, fmt.Errorf("server: page templates: %w", err)
		}
		opts.Pages = pages
	}

	doc, err := restschema.Build(ctx, opts.Host.Registry(), restschema.Info{Title: "Post meta", ServerURL: "/api"})
	if err != nil {
		return nil, err
	}
	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("server: encode openapi: %w", err)
	}

	s := &Server{
		host:    opts.Host,
		store:   opts.Store,
		user:    opts.User,
		logger:  opts.Logger,
		pages:   opts.Pages,
		grace:   opts.ShutdownGrace,
		openapi: spec,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(recoverer(s.logger))

	r.Handle("/assets/*", http.StripPrefix(metabox.DefaultAssetBase+"/", http.FileServerFS(assets.FS())))

	r.Group(func(r chi.Router) {
		r.Use(withUser(s.user))

		r.Get("/", s.listPosts)
		r.Get("/posts/{id}/edit", s.editPost)
		r.Post("/posts/{id}", s.savePost)

		r.Route("/api", func(r chi.Router) {
			r.Get("/openapi.json", s.openAPI)
			r.Get("/posts/{id}/meta", s.postMeta)
			r.Get("/posts/{id}/meta/{key}", s.postMetaKey)
		})
	})
	return r
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
