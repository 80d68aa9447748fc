// Package server exposes stored mind maps over HTTP.
//
// # Endpoints
//
//	GET    /api/maps               list summaries, newest first
//	GET    /api/maps?id=<id>       {"map": <map>}
//	POST   /api/maps               save {"id"?, "title", "map"}; answers {"id", "title", "updatedAt"}
//	DELETE /api/maps/{id}          {"success": true}
//	GET    /api/maps/{id}/layout   computed layout of the map
//	POST   /api/maps/{id}/ops      apply one edit; answers {"id"?, "updatedAt"}
//	GET    /api/version            build information
//
// Errors are answered as {"error": "<message>"} with a status derived from
// the error code (see [merrors.HTTPStatus]).
//
// # Sessions
//
// Maps touched by the layout and ops endpoints are held in an
// [editor.Session], which debounces saves back to the store. A POST or
// DELETE of the same map retires its session first so a pending autosave
// cannot overwrite the new state. [Server.Close] flushes every session.
//
// # Authentication
//
// When [Config.PasswordHash] is set, every /api route requires HTTP Basic
// credentials matching [Config.Username] and the bcrypt hash.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/store"
)

// DefaultAddr is the listen address used when [Config.Addr] is empty.
const DefaultAddr = ":5000"

// DefaultUsername is the Basic auth user when [Config.Username] is empty.
const DefaultUsername = "admin"

// MaxBodySize bounds request bodies.
const MaxBodySize = 32 << 20

const shutdownTimeout = 10 * time.Second

// Config configures a [Server].
type Config struct {
	Addr         string `toml:"addr"`
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
	// AutosaveDelay overrides each map's autosave setting when positive.
	AutosaveDelay time.Duration `toml:"-"`
}

// Server serves the maps API.
type Server struct {
	cfg    Config
	store  store.Store
	logger *log.Logger
	router chi.Router

	mu       sync.Mutex
	sessions map[string]*editor.Session
	retired  map[string]uint64 // bumped by retire; a load that spans one is redone
}

// New creates a server backed by st.
func New(st store.Store, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	s := &Server{
		cfg:      cfg,
		store:    st,
		logger:   logger,
		sessions: make(map[string]*editor.Session),
		retired:  make(map[string]uint64),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Use(middleware.NoCache)
		r.Get("/version", s.handleVersion)
		r.Route("/maps", func(r chi.Router) {
			r.Get("/", s.handleGetMaps)
			r.Post("/", s.handleSaveMap)
			r.Delete("/{id}", s.handleDeleteMap)
			r.Get("/{id}/layout", s.handleLayout)
			r.Post("/{id}/ops", s.handleOp)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
		})
	})
	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
// and flushes all sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Serving maps API", "addr", s.cfg.Addr, "auth", s.cfg.PasswordHash != "")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Join(err, s.Close(context.Background()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down")
	err := srv.Shutdown(shutdownCtx)
	return errors.Join(err, s.Close(shutdownCtx))
}

// Close flushes and drops every open session.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*editor.Session)
	s.mu.Unlock()

	var errs []error
	for id, sess := range sessions {
		if err := sess.Close(ctx); err != nil {
			s.logger.Error("Flush failed", "map", id, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// session returns the open session of a map, loading it on first use.
// The store is read without holding s.mu. If another request opened the
// session meanwhile, that one wins; if the map was retired meanwhile, the
// load is repeated.
func (s *Server) session(ctx context.Context, id string) (*editor.Session, error) {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		epoch := s.retired[id]
		s.mu.Unlock()
		if ok {
			return sess, nil
		}

		m, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		if s.retired[id] != epoch {
			s.mu.Unlock()
			continue
		}
		sess = editor.New(m, editor.Options{
			Logger:        s.logger.With("map", id),
			Saver:         s.store,
			AutosaveDelay: s.cfg.AutosaveDelay,
		})
		s.sessions[id] = sess
		s.mu.Unlock()
		return sess, nil
	}
}

// peek returns a snapshot of the open session of id, if any.
func (s *Server) peek(id string) (*mindmap.Map, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return sess.Snapshot(), true
}

// retire closes the session of id. With flush unset, pending edits are
// dropped.
func (s *Server) retire(ctx context.Context, id string, flush bool) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.retired[id]++
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if !flush {
		sess.Discard()
		return nil
	}
	return sess.Close(ctx)
}
