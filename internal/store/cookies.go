package store

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

const cookiesKey = "cookies"

// storedCookie is the persisted subset of http.Cookie
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// CookieStore persists backend session cookies in the session bucket
type CookieStore struct {
	store *Store

	mu  sync.Mutex
	mem []*http.Cookie
}

func NewCookieStore(store *Store) *CookieStore {
	return &CookieStore{store: store}
}

func (s *CookieStore) LoadCookies() ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem != nil {
		return cloneCookies(s.mem), nil
	}

	data, err := s.store.read(bucketSession, cookiesKey)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	s.mem = cookies
	return cloneCookies(cookies), nil
}

// SaveCookies replaces the stored set. MaxAge is converted to an absolute expiry.
func (s *CookieStore) SaveCookies(cookies []*http.Cookie) error {
	now := time.Now()
	stored := make([]storedCookie, 0, len(cookies))
	kept := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && expires.Before(now)) {
			continue
		}
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
		cp := *c
		cp.Expires = expires
		cp.MaxAge = 0
		kept = append(kept, &cp)
	}

	s.mu.Lock()
	s.mem = kept
	s.mu.Unlock()

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.store.write(bucketSession, cookiesKey, data)
}

func (s *CookieStore) ClearCookies() error {
	s.mu.Lock()
	s.mem = []*http.Cookie{}
	s.mu.Unlock()
	return s.store.remove(bucketSession, cookiesKey)
}

func cloneCookies(in []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, len(in))
	for i, c := range in {
		cp := *c
		out[i] = &cp
	}
	return out
}

var _ domain.CookieStore = (*CookieStore)(nil)
