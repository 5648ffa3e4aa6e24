// Package http exposes the household ledger over a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"jellybank/internal/cache"
	"jellybank/internal/core"
	"jellybank/internal/services"
)

// Service boundaries the server routes to. The concrete services in
// internal/services satisfy these; tests plug in stubs.
type (
	GrantService interface {
		Grant(ctx context.Context, actor core.Profile, in services.GrantInput) (*services.GrantResult, error)
	}
	RewardService interface {
		Claim(ctx context.Context, actor core.Profile, in services.ClaimInput) (*services.ClaimResult, error)
	}
	ChallengeService interface {
		Select(ctx context.Context, actor core.Profile, in services.SelectInput) (*services.SelectResult, error)
	}
	ExchangeService interface {
		Exchange(ctx context.Context, actor core.Profile, in services.ExchangeInput) (*services.ExchangeResult, error)
	}
	AllowanceService interface {
		Request(ctx context.Context, actor core.Profile, in services.RequestInput) (*core.AllowanceRequest, error)
		Settle(ctx context.Context, actor core.Profile, in services.SettleInput) (*services.SettleResult, error)
		ProofURL(ctx context.Context, actor core.Profile, in services.ProofURLInput) (*services.ProofURLResult, error)
	}
	HolidayService interface {
		Sync(ctx context.Context, actor core.Profile, in services.SyncInput) (*services.SyncResult, error)
	}

	// AuthStore resolves API tokens to member profiles.
	AuthStore interface {
		GetProfileByToken(ctx context.Context, token string) (core.Profile, error)
	}
)

type Services struct {
	Grants     GrantService
	Rewards    RewardService
	Challenges ChallengeService
	Exchanges  ExchangeService
	Allowance  AllowanceService
	Holidays   HolidayService
}

type Server struct {
	http.Server

	svc          Services
	auth         AuthStore
	rateLimiter  *rateLimiter
	profileCache *cache.LRU[core.Profile]
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc Services, auth AuthStore, requestsPerMinute int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:          svc,
		auth:         auth,
		rateLimiter:  newRateLimiter(requestsPerMinute),
		profileCache: cache.NewLRU[core.Profile](256, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/grants", s.withMiddleware(s.handleGrant))
	mux.HandleFunc("POST /api/claims", s.withMiddleware(s.handleClaim))
	mux.HandleFunc("POST /api/challenges", s.withMiddleware(s.handleSelectChallenges))
	mux.HandleFunc("POST /api/exchanges", s.withMiddleware(s.handleExchange))
	mux.HandleFunc("POST /api/allowance-requests", s.withMiddleware(s.handleAllowanceRequest))
	mux.HandleFunc("POST /api/settlements", s.withMiddleware(s.handleSettle))
	mux.HandleFunc("POST /api/proof-urls", s.withMiddleware(s.handleProofURL))
	mux.HandleFunc("POST /api/holidays/sync", s.withMiddleware(s.handleHolidaySync))

	return s
}

// withMiddleware adds request tracing, security headers, rate limiting,
// and bearer-token authentication.
func (s *Server) withMiddleware(next func(http.ResponseWriter, *http.Request, core.Profile)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, r, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{
					"code":    "RateLimited",
					"message": "rate limit exceeded, try again later",
				},
			})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		actor, err := s.authenticate(r)
		if err != nil {
			writeError(rw, r, err)
		} else {
			next(rw, r, actor)
		}

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// authenticate resolves the bearer token to a member profile, serving
// repeat lookups from the LRU cache.
func (s *Server) authenticate(r *http.Request) (core.Profile, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return core.Profile{}, core.E(core.KindUnauthenticated, core.CodeUnauthenticated, "missing bearer token")
	}
	token = strings.TrimSpace(token)

	if p, ok := s.profileCache.Get(token); ok {
		return p, nil
	}

	p, err := s.auth.GetProfileByToken(r.Context(), token)
	if err != nil {
		return core.Profile{}, core.E(core.KindUnauthenticated, core.CodeUnauthenticated, "invalid bearer token")
	}
	s.profileCache.Set(token, p)
	return p, nil
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
