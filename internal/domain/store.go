package domain

import (
	"encoding/json"
	"net/http"
)

// Cache is a TTL key/value store shared by every feature that memoizes API reads.
// Set always replaces the entry for a key.
type Cache interface {
	Get(key string) (json.RawMessage, bool)
	GetJSON(key string, dest any) bool
	Set(key string, value any) error
	Delete(key string)
	DeletePrefix(prefix string)
	Clear()
}

// TargetStore remembers where reading stopped for each manga
type TargetStore interface {
	SaveTarget(target NavTarget) error
	LoadTarget(mangaID int) (NavTarget, bool)
}

// CookieStore persists the backend session cookies across runs
type CookieStore interface {
	LoadCookies() ([]*http.Cookie, error)
	SaveCookies(cookies []*http.Cookie) error
	ClearCookies() error
}
