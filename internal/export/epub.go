package export

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
)

// ProgressFunc reports pages written so far out of total
type ProgressFunc func(done, total int)

// Exporter compiles chapters into an EPUB file
type Exporter struct {
	source  domain.ChapterSource
	cache   domain.Cache
	fetcher *render.Fetcher
	logger  *slog.Logger
}

// NewExporter creates a new exporter.
func NewExporter(source domain.ChapterSource, cache domain.Cache, fetcher *render.Fetcher, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, cache: cache, fetcher: fetcher, logger: logger}
}

// Export writes the chapters of a manga to outPath, one section per chapter
// in chapter-number order. With no chapter ids every chapter of the default
// translator is exported. An empty outPath derives the name from the title.
// It returns the written path.
func (x *Exporter) Export(ctx context.Context, mangaID int, chapterIDs []int, outPath string, progress ProgressFunc) (string, error) {
	// Exporting must not move the reading position, so no target store
	nav := reader.NewNavigator(x.source, x.cache, nil, x.logger)
	if _, err := nav.Open(ctx, mangaID, &domain.NavTarget{MangaID: mangaID}); err != nil {
		return "", err
	}
	snap := nav.Snapshot()

	chapters, err := pickChapters(snap.Chapters, nav.AllChapters(), chapterIDs)
	if err != nil {
		return "", err
	}

	// Page lists first so progress has a total
	pages := make(map[int][]domain.Page, len(chapters))
	total := 0
	for _, ch := range chapters {
		if err := nav.Load(ctx, ch.ID); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", ch.Label(), err)
		}
		pages[ch.ID] = nav.Snapshot().Pages
		total += len(pages[ch.ID])
	}
	if total == 0 {
		return "", fmt.Errorf("%w: selected chapters have no pages", domain.ErrInvalidInput)
	}

	book, err := epub.NewEpub(snap.Manga.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	if snap.Manga.Author != "" {
		book.SetAuthor(snap.Manga.Author)
	}
	if snap.Manga.Description != "" {
		book.SetDescription(snap.Manga.Description)
	}
	book.SetLang("en")

	tmp, err := os.MkdirTemp("", "tomodachi-epub-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	done := 0
	for _, ch := range chapters {
		if len(pages[ch.ID]) == 0 {
			x.logger.Warn("skipping chapter without pages", "chapterID", ch.ID)
			continue
		}

		var body strings.Builder
		fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(ch.Label()))

		for _, p := range pages[ch.ID] {
			internalPath, err := x.addPage(ctx, book, tmp, p)
			if err != nil {
				return "", fmt.Errorf("failed to add page %d of %s: %w", p.Number, ch.Label(), err)
			}
			fmt.Fprintf(&body,
				`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>`+"\n",
				internalPath, p.Number,
			)
			done++
			if progress != nil {
				progress(done, total)
			}
		}

		if _, err := book.AddSection(body.String(), ch.Label(), "", ""); err != nil {
			return "", fmt.Errorf("failed to add section: %w", err)
		}
	}

	if outPath == "" {
		outPath = sanitizeFilename(snap.Manga.Title) + ".epub"
	}
	if err := book.Write(outPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}

	x.logger.Info("exported epub", "mangaID", mangaID, "chapters", len(chapters), "pages", total, "path", outPath)
	return outPath, nil
}

// addPage downloads a page into dir and registers it with the book
func (x *Exporter) addPage(ctx context.Context, book *epub.Epub, dir string, p domain.Page) (string, error) {
	data, err := x.fetcher.Download(ctx, p.ImageURL)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("c%d-p%03d%s", p.ChapterID, p.Number, data.Extension())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data.Content, 0o644); err != nil {
		return "", err
	}
	return book.AddImage(path, name)
}

// pickChapters resolves ids against all chapters of the manga, ordered by
// chapter number. No ids selects the visible set.
func pickChapters(visible, all []domain.Chapter, ids []int) ([]domain.Chapter, error) {
	if len(ids) == 0 {
		if len(visible) == 0 {
			return nil, fmt.Errorf("%w: manga has no chapters", domain.ErrInvalidInput)
		}
		return visible, nil
	}

	out := make([]domain.Chapter, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		found := false
		for _, c := range all {
			if c.ID == id {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: chapter %d", domain.ErrNotFound, id)
		}
	}
	domain.SortChapters(out)
	return out, nil
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	result := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)
	result = strings.Trim(strings.TrimSpace(result), ".")
	if result == "" {
		return "manga"
	}
	return result
}
