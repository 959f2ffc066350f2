// Copyright (c) 2025, the autotag contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api wires the HTTP surface of the tagging service.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/data-mint-research/autotag2/internal/api/handlers"
	"github.com/data-mint-research/autotag2/internal/domain"
	"github.com/data-mint-research/autotag2/internal/services/batch"
)

// Dependencies holds everything the server needs.
type Dependencies struct {
	Config       *domain.Config
	BatchService *batch.Service
}

// Server is the HTTP server for the tagging API.
type Server struct {
	cfg     *domain.Config
	service *batch.Service
}

// NewServer creates a Server from its dependencies.
func NewServer(deps *Dependencies) *Server {
	return &Server{
		cfg:     deps.Config,
		service: deps.BatchService,
	}
}

// Handler builds the router. Routes are mounted under the configured base
// URL so the service can live behind a reverse proxy subfolder.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	if compress, err := httpcompression.DefaultAdapter(); err == nil {
		r.Use(compress)
	} else {
		log.Warn().Err(err).Msg("api: response compression disabled")
	}

	base := strings.TrimSuffix(s.cfg.BaseURL, "/")
	if base == "" {
		s.routes(r)
	} else {
		r.Route(base, func(r chi.Router) {
			s.routes(r)
		})
	}

	return r
}

func (s *Server) routes(r chi.Router) {
	ph := handlers.NewProcessHandler(s.service)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/process/image", ph.ProcessImage)
	r.Post("/process/folder", ph.ProcessFolder)
	r.Get("/status", ph.Status)

	if s.cfg.PprofEnabled {
		r.Route("/debug/pprof", func(r chi.Router) {
			r.Get("/", pprof.Index)
			r.Get("/cmdline", pprof.Cmdline)
			r.Get("/profile", pprof.Profile)
			r.Get("/symbol", pprof.Symbol)
			r.Get("/trace", pprof.Trace)
			r.Get("/{name}", func(w http.ResponseWriter, req *http.Request) {
				pprof.Handler(chi.URLParam(req, "name")).ServeHTTP(w, req)
			})
		})
	}
}

// ListenAndServe runs the server until ctx is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("api: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
