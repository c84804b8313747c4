package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/liamcoop/formulas/generation"
	"github.com/liamcoop/formulas/internal/logger"
)

const serviceName = "Formula Generation Service"

// maxBodyBytes bounds request bodies on the generation endpoint.
const maxBodyBytes = 1 << 20

type Server struct {
	svc            *generation.Service
	credentialEnv  string
	requestTimeout time.Duration
	allowedOrigins []string
	router         *chi.Mux
}

// ServerOptions carries the HTTP-level settings of a Server.
type ServerOptions struct {
	CredentialEnv  string // named in the 503 message
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func NewServer(svc *generation.Service, opts ServerOptions) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.CredentialEnv == "" {
		opts.CredentialEnv = "OPENAI_API_KEY"
	}

	s := &Server{
		svc:            svc,
		credentialEnv:  opts.CredentialEnv,
		requestTimeout: opts.RequestTimeout,
		allowedOrigins: opts.AllowedOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(s.corsOptions()))
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/api/generate-formula", s.handleGenerateFormula)

	s.router = r
}

// corsOptions allows credentialed requests. A "*" origin list echoes the
// caller's Origin, since browsers refuse a literal "*" with credentials.
func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(s.allowedOrigins, "*") {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = s.allowedOrigins
	}
	return opts
}

// model is null in responses while no generator is configured.
func (s *Server) model() *string {
	if !s.svc.Configured() {
		return nil
	}
	m := s.svc.Model()
	return &m
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ServiceResponse{
		Service:       serviceName,
		Status:        "running",
		LLMConfigured: s.svc.Configured(),
		Model:         s.model(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		LLMConfigured: s.svc.Configured(),
		Model:         s.model(),
	})
}

func (s *Server) handleGenerateFormula(w http.ResponseWriter, r *http.Request) {
	var req GenerateFormulaRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	res, err := s.svc.Generate(r.Context(), req.toGeneration())
	if err != nil {
		var upErr *generation.UpstreamError
		switch {
		case errors.Is(err, generation.ErrEmptyPrompt):
			respondError(w, http.StatusBadRequest, "Prompt cannot be empty", nil)
		case errors.Is(err, generation.ErrNotConfigured):
			respondError(w, http.StatusServiceUnavailable,
				fmt.Sprintf("LLM not configured. Please set %s environment variable.", s.credentialEnv), nil)
		case errors.As(err, &upErr):
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating formula: %v", upErr.Err), upErr.Err)
		default:
			respondError(w, http.StatusInternalServerError, "Error generating formula", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, newGenerateFormulaResponse(res))
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "status", status, "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= 500:
		logger.ErrorHttp5xx(status)
	case status >= 400:
		logger.WarnHttp4xx(status)
	}

	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}
