package library

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

const (
	DefaultPageSize = 20
	searchPageSize  = 100
)

// Service serves the catalogue through the session cache
type Service struct {
	repo   domain.MangaRepository
	cache  domain.Cache
	logger *slog.Logger
}

// NewService creates a new library service.
func NewService(repo domain.MangaRepository, cache domain.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func normalizeFilter(f domain.MangaFilter) domain.MangaFilter {
	if f.Section == "" {
		f.Section = domain.SectionAll
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// ListMangas returns one page of a catalogue section, cache first
func (s *Service) ListMangas(ctx context.Context, filter domain.MangaFilter) ([]domain.Manga, error) {
	filter = normalizeFilter(filter)
	key := domain.MangaListKey(filter)

	var mangas []domain.Manga
	if s.cache.GetJSON(key, &mangas) {
		s.logger.Debug("manga list from cache", "key", key, "count", len(mangas))
		return mangas, nil
	}

	mangas, err := s.repo.ListMangas(ctx, filter)
	if err != nil {
		s.logger.Error("failed to fetch mangas", "error", err, "section", filter.Section, "page", filter.Page)
		return nil, err
	}
	if err := s.cache.Set(key, mangas); err != nil {
		s.logger.Error("failed to cache mangas", "error", err, "key", key)
	}
	s.logger.Debug("fetched mangas", "count", len(mangas), "section", filter.Section)
	return mangas, nil
}

// GetMangaDetails returns a manga with chapters and translators, cache first.
// The cache key is shared with the reader.
func (s *Service) GetMangaDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	key := domain.MangaKey(mangaID)

	var details domain.MangaDetails
	if s.cache.GetJSON(key, &details) {
		return &details, nil
	}

	fetched, err := s.repo.GetMangaDetails(ctx, mangaID)
	if err != nil {
		s.logger.Error("failed to fetch manga", "error", err, "mangaID", mangaID)
		return nil, err
	}
	if err := s.cache.Set(key, fetched); err != nil {
		s.logger.Error("failed to cache manga", "error", err, "mangaID", mangaID)
	}
	return fetched, nil
}

// Search ranks the catalogue by fuzzy title match
func (s *Service) Search(ctx context.Context, query string) ([]domain.Manga, error) {
	if query == "" {
		return nil, nil
	}

	catalogue, err := s.ListMangas(ctx, domain.MangaFilter{
		Section:  domain.SectionAll,
		Page:     1,
		PageSize: searchPageSize,
	})
	if err != nil {
		return nil, err
	}

	results := RankMangas(query, catalogue)
	s.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

// Rate submits a 1-5 rating for the signed-in user
func (s *Service) Rate(ctx context.Context, mangaID, userID, value int) error {
	if userID <= 0 {
		return domain.ErrNotSignedIn
	}
	if value < 1 || value > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", domain.ErrInvalidInput, value)
	}

	if err := s.repo.RateManga(ctx, mangaID, userID, value); err != nil {
		s.logger.Error("failed to rate manga", "error", err, "mangaID", mangaID, "value", value)
		return err
	}

	s.Invalidate(mangaID)
	s.logger.Info("rated manga", "mangaID", mangaID, "value", value)
	return nil
}

// Invalidate drops the cached details of a manga and every listing that may
// show its rating
func (s *Service) Invalidate(mangaID int) {
	s.cache.Delete(domain.MangaKey(mangaID))
	s.cache.DeletePrefix(domain.PrefixMangaList)
}
