package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// ChapterSort selects the order of an admin chapter listing
type ChapterSort string

const (
	SortByNumber ChapterSort = "number"
	SortByTitle  ChapterSort = "title"
	SortByDate   ChapterSort = "date"
	SortByID     ChapterSort = "id"
)

// ParseChapterSort converts a flag value to a ChapterSort
func ParseChapterSort(s string) (ChapterSort, error) {
	switch ChapterSort(strings.ToLower(s)) {
	case "", SortByNumber:
		return SortByNumber, nil
	case SortByTitle:
		return SortByTitle, nil
	case SortByDate:
		return SortByDate, nil
	case SortByID:
		return SortByID, nil
	}
	return "", fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, s)
}

// Service validates admin input, forwards it to the backend and drops the
// cached entries each write makes stale.
type Service struct {
	repo   domain.AdminRepository
	cache  domain.Cache
	logger *slog.Logger
}

// NewService creates a new admin service.
func NewService(repo domain.AdminRepository, cache domain.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// === Manga ===

func validateManga(draft domain.MangaDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return invalid("title is required")
	}
	for _, id := range draft.GenreIDs {
		if id <= 0 {
			return invalid("genre id %d is not valid", id)
		}
	}
	return nil
}

func (s *Service) CreateManga(ctx context.Context, draft domain.MangaDraft) error {
	if draft.TeamID <= 0 {
		return invalid("translator team is required")
	}
	if err := validateManga(draft); err != nil {
		return err
	}

	if err := s.repo.CreateManga(ctx, draft); err != nil {
		s.logger.Error("failed to create manga", "error", err, "title", draft.Title)
		return err
	}
	s.cache.DeletePrefix(domain.PrefixMangaList)
	s.logger.Info("created manga", "title", draft.Title, "teamID", draft.TeamID)
	return nil
}

func (s *Service) UpdateManga(ctx context.Context, draft domain.MangaDraft) error {
	if draft.ID <= 0 {
		return invalid("manga id is required")
	}
	if err := validateManga(draft); err != nil {
		return err
	}

	if err := s.repo.UpdateManga(ctx, draft); err != nil {
		s.logger.Error("failed to update manga", "error", err, "mangaID", draft.ID)
		return err
	}
	s.invalidateManga(draft.ID)
	s.logger.Info("updated manga", "mangaID", draft.ID)
	return nil
}

func (s *Service) DeleteManga(ctx context.Context, mangaID int) error {
	if mangaID <= 0 {
		return invalid("manga id is required")
	}

	if err := s.repo.DeleteManga(ctx, mangaID); err != nil {
		s.logger.Error("failed to delete manga", "error", err, "mangaID", mangaID)
		return err
	}
	s.invalidateManga(mangaID)
	s.logger.Info("deleted manga", "mangaID", mangaID)
	return nil
}

func (s *Service) UploadCover(ctx context.Context, mangaID int, cover domain.Upload) error {
	if mangaID <= 0 {
		return invalid("manga id is required")
	}
	if cover.Reader == nil {
		return invalid("cover file is required")
	}

	if err := s.repo.UploadMangaCover(ctx, mangaID, cover); err != nil {
		s.logger.Error("failed to upload cover", "error", err, "mangaID", mangaID)
		return err
	}
	s.invalidateManga(mangaID)
	return nil
}

func (s *Service) invalidateManga(mangaID int) {
	s.cache.Delete(domain.MangaKey(mangaID))
	s.cache.DeletePrefix(domain.PrefixMangaList)
}

// === Chapters ===

// ListChapters returns one team's chapters of a manga ordered by the field
func (s *Service) ListChapters(ctx context.Context, mangaID, translatorID int, by ChapterSort) ([]domain.Chapter, error) {
	if mangaID <= 0 || translatorID <= 0 {
		return nil, invalid("manga and translator ids are required")
	}

	chapters, err := s.repo.ListChapters(ctx, mangaID, translatorID)
	if err != nil {
		s.logger.Error("failed to list chapters", "error", err, "mangaID", mangaID, "translatorID", translatorID)
		return nil, err
	}
	SortChapters(chapters, by)
	return chapters, nil
}

// SortChapters orders chapters in place; ties fall back to chapter number
func SortChapters(chapters []domain.Chapter, by ChapterSort) {
	domain.SortChapters(chapters)
	switch by {
	case SortByTitle:
		sort.SliceStable(chapters, func(i, j int) bool {
			return strings.ToLower(chapters[i].Title) < strings.ToLower(chapters[j].Title)
		})
	case SortByDate:
		sort.SliceStable(chapters, func(i, j int) bool {
			return chapters[i].PublicationDate.Before(chapters[j].PublicationDate)
		})
	case SortByID:
		sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].ID < chapters[j].ID })
	}
}

func (s *Service) CreateChapter(ctx context.Context, draft domain.ChapterDraft) error {
	if draft.MangaID <= 0 || draft.TranslatorID <= 0 {
		return invalid("manga and translator ids are required")
	}
	if draft.Number <= 0 {
		return invalid("chapter number must be positive")
	}

	if err := s.repo.CreateChapter(ctx, draft); err != nil {
		s.logger.Error("failed to create chapter", "error", err, "mangaID", draft.MangaID, "number", draft.Number)
		return err
	}
	s.invalidateManga(draft.MangaID)
	s.logger.Info("created chapter", "mangaID", draft.MangaID, "number", draft.Number)
	return nil
}

// UpdateChapter changes number and title. MangaID is optional and only
// narrows cache invalidation.
func (s *Service) UpdateChapter(ctx context.Context, draft domain.ChapterDraft) error {
	if draft.ID <= 0 {
		return invalid("chapter id is required")
	}
	if draft.Number <= 0 {
		return invalid("chapter number must be positive")
	}

	if err := s.repo.UpdateChapter(ctx, draft); err != nil {
		s.logger.Error("failed to update chapter", "error", err, "chapterID", draft.ID)
		return err
	}
	s.invalidateChapter(draft.MangaID, draft.ID)
	return nil
}

func (s *Service) DeleteChapter(ctx context.Context, mangaID, chapterID int) error {
	if chapterID <= 0 {
		return invalid("chapter id is required")
	}

	if err := s.repo.DeleteChapter(ctx, chapterID); err != nil {
		s.logger.Error("failed to delete chapter", "error", err, "chapterID", chapterID)
		return err
	}
	s.invalidateChapter(mangaID, chapterID)
	s.logger.Info("deleted chapter", "chapterID", chapterID)
	return nil
}

func (s *Service) invalidateChapter(mangaID, chapterID int) {
	s.cache.Delete(domain.PagesKey(chapterID))
	if mangaID > 0 {
		s.cache.Delete(domain.MangaKey(mangaID))
	} else {
		s.cache.DeletePrefix(domain.PrefixManga)
	}
	s.cache.DeletePrefix(domain.PrefixMangaList)
}

// === Pages ===

// UploadPages replaces the pages of a chapter with the files in order
func (s *Service) UploadPages(ctx context.Context, upload domain.PagesUpload) error {
	if upload.MangaID <= 0 || upload.TranslatorID <= 0 || upload.ChapterID <= 0 {
		return invalid("manga, translator and chapter ids are required")
	}
	if len(upload.Files) == 0 {
		return invalid("at least one page file is required")
	}
	for i, f := range upload.Files {
		if f.Reader == nil {
			return invalid("page %d has no content", i+1)
		}
	}

	if err := s.repo.UploadPages(ctx, upload); err != nil {
		s.logger.Error("failed to upload pages", "error", err, "chapterID", upload.ChapterID, "count", len(upload.Files))
		return err
	}
	s.invalidateChapter(upload.MangaID, upload.ChapterID)
	s.logger.Info("uploaded pages", "chapterID", upload.ChapterID, "count", len(upload.Files))
	return nil
}

// === Genres ===

// ListGenres returns all genres, cache first
func (s *Service) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var genres []domain.Genre
	if s.cache.GetJSON(domain.KeyGenres, &genres) {
		return genres, nil
	}

	genres, err := s.repo.ListGenres(ctx)
	if err != nil {
		s.logger.Error("failed to list genres", "error", err)
		return nil, err
	}
	sort.SliceStable(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	if err := s.cache.Set(domain.KeyGenres, genres); err != nil {
		s.logger.Error("failed to cache genres", "error", err)
	}
	return genres, nil
}

func (s *Service) CreateGenre(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("genre name is required")
	}

	if err := s.repo.CreateGenre(ctx, name); err != nil {
		s.logger.Error("failed to create genre", "error", err, "name", name)
		return err
	}
	s.cache.Delete(domain.KeyGenres)
	return nil
}

func (s *Service) UpdateGenre(ctx context.Context, genre domain.Genre) error {
	genre.Name = strings.TrimSpace(genre.Name)
	if genre.ID <= 0 {
		return invalid("genre id is required")
	}
	if genre.Name == "" {
		return invalid("genre name is required")
	}

	if err := s.repo.UpdateGenre(ctx, genre); err != nil {
		s.logger.Error("failed to update genre", "error", err, "genreID", genre.ID)
		return err
	}
	s.invalidateGenres()
	return nil
}

func (s *Service) DeleteGenre(ctx context.Context, genreID int) error {
	if genreID <= 0 {
		return invalid("genre id is required")
	}

	if err := s.repo.DeleteGenre(ctx, genreID); err != nil {
		s.logger.Error("failed to delete genre", "error", err, "genreID", genreID)
		return err
	}
	s.invalidateGenres()
	return nil
}

// invalidateGenres also drops manga records since they embed genre names
func (s *Service) invalidateGenres() {
	s.cache.Delete(domain.KeyGenres)
	s.cache.DeletePrefix(domain.PrefixManga)
	s.cache.DeletePrefix(domain.PrefixMangaList)
}
