package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"zonuko/internal/logger"
	"zonuko/internal/models"
	"zonuko/internal/security"
)

// ChildHandlerFunc is a handler that has already resolved the calling child.
type ChildHandlerFunc func(w http.ResponseWriter, r *http.Request, child *models.Child)

// ChildLookup loads a child by id. A missing child is nil, nil.
type ChildLookup interface {
	GetChild(ctx context.Context, childID int64) (*models.Child, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens   *security.ChildTokens
	children ChildLookup
	limiter  *security.RateLimiter
	log      *logger.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil to
// disable rate limiting.
func NewMiddleware(tokens *security.ChildTokens, children ChildLookup, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return &Middleware{
		tokens:   tokens,
		children: children,
		limiter:  limiter,
		log:      log.With("component", "Middleware"),
	}
}

// RequireChild resolves the bearer token to a child and passes it on
func (m *Middleware) RequireChild(next ChildHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := security.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="zonuko"`)
			respondWithError(w, nil, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		childID, err := m.tokens.Verify(raw)
		if err != nil {
			m.log.Debug("Rejected child token", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="zonuko", error="invalid_token"`)
			respondWithError(w, nil, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		child, err := m.children.GetChild(r.Context(), childID)
		if err != nil {
			respondWithError(w, m.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to load child", err)
			return
		}
		if child == nil {
			respondWithError(w, nil, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		next(w, r, child)
	}
}

// RateLimit limits write requests per child
func (m *Middleware) RateLimit(next ChildHandlerFunc) ChildHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, child *models.Child) {
		if m.limiter == nil {
			next(w, r, child)
			return
		}

		key := "child:" + strconv.FormatInt(child.ID, 10)
		if !m.limiter.Allow(key) {
			retry := int(math.Ceil(m.limiter.RetryAfter(key).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, retry)))
			m.log.Warn("Rate limit exceeded", "child_id", child.ID, "path", r.URL.Path)
			respondWithError(w, nil, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r, child)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs each request with its status, duration and request id. The
// id is taken from X-Request-ID when present and echoed back.
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = security.NewRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
		)
	})
}
