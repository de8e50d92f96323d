package api

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// sessionJar is a cookie jar that mirrors the backend's cookies into a
// CookieStore so a signed-in session survives restarts
type sessionJar struct {
	base   *url.URL
	store  domain.CookieStore
	logger *slog.Logger

	mu    sync.Mutex
	jar   *cookiejar.Jar
	known map[string]*http.Cookie // by name, with full attributes for persistence
}

func newSessionJar(base *url.URL, store domain.CookieStore, logger *slog.Logger) (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &sessionJar{
		base:   base,
		store:  store,
		logger: logger,
		jar:    jar,
		known:  make(map[string]*http.Cookie),
	}

	if store != nil {
		saved, err := store.LoadCookies()
		if err != nil {
			logger.Warn("ignoring saved session", "error", err)
		}
		for _, c := range saved {
			j.known[c.Name] = c
		}
		if len(saved) > 0 {
			jar.SetCookies(base, saved)
		}
	}
	return j, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	now := time.Now()

	j.mu.Lock()
	j.jar.SetCookies(u, cookies)
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.known, c.Name)
			continue
		}
		cp := *c
		j.known[c.Name] = &cp
	}
	snapshot := make([]*http.Cookie, 0, len(j.known))
	for _, c := range j.known {
		snapshot = append(snapshot, c)
	}
	j.mu.Unlock()

	if j.store != nil {
		if err := j.store.SaveCookies(snapshot); err != nil {
			j.logger.Warn("failed to persist session cookies", "error", err)
		}
	}
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	jar := j.jar
	j.mu.Unlock()
	return jar.Cookies(u)
}

// reset forgets every cookie, in memory and on disk
func (j *sessionJar) reset() {
	jar, _ := cookiejar.New(nil)

	j.mu.Lock()
	j.jar = jar
	j.known = make(map[string]*http.Cookie)
	j.mu.Unlock()

	if j.store != nil {
		if err := j.store.ClearCookies(); err != nil {
			j.logger.Warn("failed to clear session cookies", "error", err)
		}
	}
}

// cookie returns the named cookie sent to the server root
func (j *sessionJar) cookie(name string) (*http.Cookie, bool) {
	for _, c := range j.Cookies(j.base) {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// SessionExpiry reads the exp claim of the access token cookie. The token is
// not verified; only the server can do that.
func (c *Client) SessionExpiry() (time.Time, bool) {
	cookie, ok := c.jar.cookie(c.accessCookie)
	if !ok || cookie.Value == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(cookie.Value, &claims); err != nil {
		c.logger.Debug("access token is not a readable jwt", "error", err)
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// HasSession reports whether any session cookie is held
func (c *Client) HasSession() bool {
	return len(c.jar.Cookies(c.baseURL)) > 0
}

func (c *Client) tokenExpired() bool {
	exp, ok := c.SessionExpiry()
	return ok && !c.now().Before(exp)
}
