// Package server exposes a diagram engine over HTTP.
//
// Routes:
//
//	GET    /health                 liveness
//	GET    /version                build information
//	GET    /diagram                the whole diagram as a document
//	PATCH  /diagram                canvas properties
//	GET    /diagram/subtree/{id}   the part reachable from a node
//	GET    /frame                  nodes, edges, routes, selection and title
//	POST   /nodes                  create a node
//	PATCH  /nodes/{id}             move, restyle or edit a node
//	DELETE /nodes/{id}             delete a node and its edges
//	POST   /nodes/{id}/collapse    toggle collapse
//	POST   /edges                  connect two nodes
//	PATCH  /edges/{id}             restyle an edge
//	DELETE /edges/{id}             delete an edge
//	POST   /undo, /redo            history navigation
//	POST   /import?mode=replace    replace (default) or merge a document
//	GET    /routes                 computed edge routes
//	GET    /render.svg             Graphviz rendering
//
// Every handler runs its engine work inside one [engine.Locked] critical
// section, so the server can share the engine with an autosaver.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/driftboard/pkg/engine"
)

// MaxBodyBytes caps request bodies, imported documents included.
const MaxBodyBytes = 8 << 20

// Server serves one engine.
type Server struct {
	eng    *engine.Locked
	logger *log.Logger
	router chi.Router
}

// New creates a server over eng. A nil logger discards output.
func New(eng *engine.Locked, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{eng: eng, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(limitBody(MaxBodyBytes))

	r.Get("/health", s.health)
	r.Get("/version", s.version)

	r.Route("/diagram", func(r chi.Router) {
		r.Get("/", s.getDiagram)
		r.Patch("/", s.patchDiagram)
		r.Get("/subtree/{id}", s.getSubtree)
	})
	r.Get("/frame", s.getFrame)

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.createNode)
		r.Patch("/{id}", s.patchNode)
		r.Delete("/{id}", s.deleteNode)
		r.Post("/{id}/collapse", s.toggleCollapse)
	})
	r.Route("/edges", func(r chi.Router) {
		r.Post("/", s.createEdge)
		r.Patch("/{id}", s.patchEdge)
		r.Delete("/{id}", s.deleteEdge)
	})

	r.Post("/undo", s.undo)
	r.Post("/redo", s.redo)
	r.Post("/import", s.importDocument)
	r.Get("/routes", s.getRoutes)
	r.Get("/render.svg", s.renderSVG)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
