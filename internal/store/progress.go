package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// ProgressStore keeps the last navigation target per manga
type ProgressStore struct {
	store  *Store
	now    func() time.Time
	logger *slog.Logger

	mu  sync.RWMutex
	mem map[int]domain.NavTarget // promoted on access
}

func NewProgressStore(store *Store, logger *slog.Logger) *ProgressStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressStore{
		store:  store,
		now:    time.Now,
		logger: logger,
		mem:    make(map[int]domain.NavTarget),
	}
}

// SaveTarget records target as the resume point of its manga
func (p *ProgressStore) SaveTarget(target domain.NavTarget) error {
	target.UpdatedAt = p.now()

	p.mu.Lock()
	p.mem[target.MangaID] = target
	p.mu.Unlock()

	data, err := json.Marshal(target)
	if err != nil {
		return err
	}
	return p.store.write(bucketProgress, strconv.Itoa(target.MangaID), data)
}

// LoadTarget returns the stored resume point of a manga
func (p *ProgressStore) LoadTarget(mangaID int) (domain.NavTarget, bool) {
	p.mu.RLock()
	if t, ok := p.mem[mangaID]; ok {
		p.mu.RUnlock()
		return t, true
	}
	p.mu.RUnlock()

	data, err := p.store.read(bucketProgress, strconv.Itoa(mangaID))
	if err != nil || data == nil {
		return domain.NavTarget{}, false
	}

	var t domain.NavTarget
	if err := json.Unmarshal(data, &t); err != nil {
		p.logger.Warn("ignoring unreadable progress", "mangaID", mangaID, "error", err)
		return domain.NavTarget{}, false
	}

	p.mu.Lock()
	p.mem[mangaID] = t
	p.mu.Unlock()
	return t, true
}

// Recent returns stored targets, most recently read first
func (p *ProgressStore) Recent(limit int) []domain.NavTarget {
	byManga := make(map[int]domain.NavTarget)

	stored, err := p.store.readAll(bucketProgress)
	if err != nil {
		p.logger.Warn("failed to read progress", "error", err)
	}
	for key, data := range stored {
		var t domain.NavTarget
		if err := json.Unmarshal(data, &t); err != nil {
			p.logger.Debug("skipping unreadable progress", "key", key, "error", err)
			continue
		}
		byManga[t.MangaID] = t
	}

	p.mu.RLock()
	for id, t := range p.mem {
		byManga[id] = t
	}
	p.mu.RUnlock()

	out := make([]domain.NavTarget, 0, len(byManga))
	for _, t := range byManga {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].MangaID < out[j].MangaID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var _ domain.TargetStore = (*ProgressStore)(nil)
