// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements the public-facing HTTP server for the paste
// service. It maps transport requests onto the PoW authority and the paste
// lifecycle through the admission limiters, and translates the error
// taxonomy to HTTP status codes. Internal failure details never leave the
// process; they are logged and collapsed to a generic 500 body.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ghostbin/internal/ghostbin/core"
	"ghostbin/internal/ghostbin/limiter"
	"ghostbin/internal/ghostbin/pow"
	"ghostbin/internal/ghostbin/telemetry/requests"
)

// Config assembles a Server. Zero limiter caps fall back to the defaults.
type Config struct {
	Service                 *core.Service
	PoW                     *pow.Authority
	Logger                  *slog.Logger
	FrontendURL             string
	MaxConcurrentReads      int64
	MaxConcurrentChallenges int64
}

// Server handles the HTTP requests for the paste service.
type Server struct {
	service     *core.Service
	pow         *pow.Authority
	log         *slog.Logger
	frontendURL string
	reads       *limiter.Limiter
	challenges  *limiter.Limiter
}

// NewServer creates and configures a new API server.
func NewServer(cfg Config) *Server {
	readCap := cfg.MaxConcurrentReads
	if readCap <= 0 {
		readCap = limiter.DefaultMaxConcurrentReads
	}
	challengeCap := cfg.MaxConcurrentChallenges
	if challengeCap <= 0 {
		challengeCap = limiter.DefaultMaxConcurrentChallenges
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		service:     cfg.Service,
		pow:         cfg.PoW,
		log:         log,
		frontendURL: cfg.FrontendURL,
		reads:       limiter.New(readCap),
		challenges:  limiter.New(challengeCap),
	}
}

// Handler builds the routing tree: the versioned API surface plus the
// liveness and metrics endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors(s.frontendURL))
	r.Use(maxBody)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/challenge", s.handleChallenge)
		r.Post("/paste", s.handleCreate)
		r.Get("/paste/{id}", s.handleGet)
		r.Get("/paste/{id}/metadata", s.handleMetadata)
		r.Delete("/paste/{id}", s.handleDelete)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe starts the HTTP server on addr with conservative
// timeouts. Callers that need graceful shutdown build their own
// http.Server around Handler instead.
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.log.Info("paste API server listening", "addr", addr)
	return httpServer.ListenAndServe()
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	const route = "challenge"
	if !s.challenges.TryAcquire() {
		requests.ObserveAdmissionRejected("challenge")
		s.writeError(w, route, core.ErrTooManyRequests)
		return
	}
	defer s.challenges.Release()

	challenge, err := s.pow.Challenge()
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusOK, challenge)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	const route = "create_paste"

	sol, err := pow.SolutionFromHeader(r.Header)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	if err := s.pow.Verify(r.Context(), sol); err != nil {
		if core.KindOf(err) == core.KindUnauthorized {
			requests.ObservePoWRejection(core.MessageOf(err))
		}
		s.writeError(w, route, err)
		return
	}

	var req core.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, route, core.BadRequest("Request body too large"))
			return
		}
		s.writeError(w, route, core.BadRequest("Invalid request body"))
		return
	}

	paste, err := s.service.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusCreated, map[string]string{"id": paste.ID})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	const route = "get_paste"
	if !s.reads.TryAcquire() {
		requests.ObserveAdmissionRejected("read")
		s.writeError(w, route, core.ErrTooManyRequests)
		return
	}
	defer s.reads.Release()

	paste, err := s.service.Read(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusOK, paste)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	const route = "paste_metadata"
	meta, err := s.service.Metadata(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	s.writeJSON(w, route, http.StatusOK, meta)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	const route = "delete_paste"
	token := r.Header.Get("X-Burn-Token")
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id"), token); err != nil {
		s.writeError(w, route, err)
		return
	}
	requests.ObserveHTTP(route, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch core.KindOf(err) {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindBadRequest:
		return http.StatusBadRequest
	case core.KindConflict:
		return http.StatusConflict
	case core.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, route string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		// The cause stays in local diagnostics; the client gets the
		// generic message only.
		s.log.Error("internal error", "route", route, "err", err)
	}
	s.writeJSON(w, route, status, map[string]string{"error": core.MessageOf(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, body any) {
	requests.ObserveHTTP(route, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", "route", route, "err", err)
	}
}
