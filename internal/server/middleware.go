package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"auctions/internal/auctionerrors"
	auth "auctions/internal/authService"
	"auctions/services/auction/helpers"
	"auctions/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader    = "X-Request-ID"
	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// RequestLoggerMiddleware tags the request with an id and logs it with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if len(requestID) > maxRequestIDLength {
		requestID = requestID[:maxRequestIDLength]
	}
	if requestID == "" {
		requestID = utils.GenerateID()
	}
	c.Set(requestIDKey, requestID)
	c.Header(requestIDHeader, requestID)

	c.Next() // process request

	fields := map[string]any{
		"request_id": requestID,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"client_ip":  c.ClientIP(),
	}
	if userID := helpers.CurrentUserID(c); userID != "" {
		fields["user_id"] = userID
	}
	utils.Info("HTTP Request", fields)
}

// TokenVerifier resolves a session token to the caller
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticator reads the session token from the Authorization header or the
// session cookie
type Authenticator struct {
	verifier TokenVerifier
}

func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// RequireAuth rejects requests without a valid session
func (a *Authenticator) RequireAuth(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		a.reject(c, fmt.Errorf("%w - no session token", auctionerrors.ErrUnauthenticated))
		return
	}
	identity, err := a.verifier.Verify(token)
	if err != nil {
		a.reject(c, err)
		return
	}
	helpers.SetIdentity(c, identity)
	c.Next()
}

// OptionalAuth attaches the caller when a valid session is presented and
// treats everything else as anonymous
func (a *Authenticator) OptionalAuth(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if identity, err := a.verifier.Verify(token); err == nil {
			helpers.SetIdentity(c, identity)
		}
	}
	c.Next()
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	helpers.HandleServiceError(c, err, nil)
	c.Abort()
	utils.Warn("RequireAuth: unauthenticated request", map[string]any{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(helpers.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RateLimiter keeps one token bucket per caller, keyed by user id when the
// request is authenticated and by client IP otherwise
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	now := rl.now()
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Handler must run after the auth middleware so the user id is known
func (rl *RateLimiter) Handler(c *gin.Context) {
	key := helpers.CurrentUserID(c)
	if key == "" {
		key = "ip:" + c.ClientIP()
	}

	if !rl.allow(key) {
		c.Header("Retry-After", "1")
		helpers.HandleServiceError(c, auctionerrors.ErrRateLimited, nil)
		c.Abort()
		utils.Warn("RateLimiter: request rejected", map[string]any{
			"key":    key,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		return
	}
	c.Next()
}

// Cleanup drops buckets that have been idle longer than idleTTL
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
