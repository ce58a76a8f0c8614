package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/okian/gameweek/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle IP entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute

	authRealm = `Basic realm="gameweek"`
)

var errBadCredentials = errors.New("incorrect username or password")

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an IP-based rate limiter that prunes stale entries inline.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns a rate.Limiter for the given IP, pruning stale entries when the
// map exceeds cleanupThreshold.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.ips) > cleanupThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, exists := i.ips[ip]
	if !exists {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = time.Now()

	return e.limiter
}

// Len returns the number of tracked IPs.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

type userKey struct{}

// authenticator checks HTTP basic credentials against the admin account.
// Only failed attempts draw from the per-IP bucket; once it is empty every
// credentialed request from that IP is refused until it refills.
type authenticator struct {
	username string
	password string
	limiter  *IPRateLimiter
}

func (a *authenticator) valid(user, pass string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(a.username))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(a.password))
	return u&p == 1
}

// check authenticates r against the admin account, spending a token of the
// caller's bucket on a wrong password.
func (a *authenticator) check(r *http.Request) (string, error) {
	const op = "api.auth"
	user, pass, ok := r.BasicAuth()
	if !ok {
		return "", NewKind(op, ErrUnauthorized)
	}

	lim := a.limiter.GetLimiter(clientIP(r))
	if lim.Tokens() < 1 {
		metrics.RecordAuthThrottled()
		return "", NewKind(op, ErrThrottled)
	}
	if !a.valid(user, pass) {
		lim.Allow()
		metrics.RecordAuthFailure()
		return "", WrapKind(op, ErrUnauthorized, errBadCredentials)
	}
	return user, nil
}

// currentUser returns the admin name when r carries valid credentials and
// its client is not throttled. It draws from the same bucket as require.
func (a *authenticator) currentUser(r *http.Request) string {
	user, err := a.check(r)
	if err != nil {
		return ""
	}
	return user
}

func (a *authenticator) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.check(r)
		switch {
		case errors.Is(err, ErrThrottled):
			writeError(w, err)
			return
		case err != nil:
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", authRealm)
	writeError(w, err)
}

// clientIP is the socket peer. Forwarding headers are client-controlled and
// never pick the rate limit bucket.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleLogin triggers the browser credential prompt and returns home.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogoutClear answers 401 under a fresh realm so browsers drop cached
// credentials.
func handleLogoutClear(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="Logout-%d"`, time.Now().Unix()))
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("Credentials cleared"))
}
