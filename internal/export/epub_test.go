package export

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
	"github.com/ripper-jc/tomodachi-hub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	details *domain.MangaDetails
	pages   map[int][]domain.Page
}

func (f *fakeSource) GetMangaDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	if f.details.ID != mangaID {
		return nil, domain.ErrNotFound
	}
	d := *f.details
	return &d, nil
}

func (f *fakeSource) GetChapterPages(ctx context.Context, chapterID int) ([]domain.Page, error) {
	pages, ok := f.pages[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pages, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setup(t *testing.T) (*Exporter, *fakeSource) {
	t.Helper()
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)

	page := func(ch, n int) domain.Page {
		return domain.Page{ID: ch*10 + n, ChapterID: ch, Number: n, ImageURL: srv.URL + "/" + strings.Repeat("p", n) + ".png"}
	}
	src := &fakeSource{
		details: &domain.MangaDetails{
			Manga:       domain.Manga{ID: 7, Title: "Dorohedoro: Vol/1", Author: "Q Hayashida"},
			Translators: []domain.Translator{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
			Chapters: []domain.Chapter{
				{ID: 12, MangaID: 7, Number: 2, TranslatorID: 1},
				{ID: 11, MangaID: 7, Number: 1, TranslatorID: 1, Title: "Caiman"},
				{ID: 21, MangaID: 7, Number: 1, TranslatorID: 2},
			},
		},
		pages: map[int][]domain.Page{
			11: {page(11, 1), page(11, 2)},
			12: {page(12, 1)},
			21: {},
		},
	}

	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	cache := store.NewSessionCache(st, time.Minute, nil)

	return NewExporter(src, cache, render.NewFetcher(srv.Client()), nil), src
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func countSuffix(names []string, suffix string) int {
	n := 0
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			n++
		}
	}
	return n
}

func TestExportDefaultTranslator(t *testing.T) {
	x, _ := setup(t)
	out := filepath.Join(t.TempDir(), "book.epub")

	var calls [][2]int
	path, err := x.Export(context.Background(), 7, nil, out, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)

	names := zipNames(t, path)
	assert.Contains(t, names, "mimetype")
	assert.Equal(t, 1, countSuffix(names, "c11-p001.png"))
	assert.Equal(t, 1, countSuffix(names, "c11-p002.png"))
	assert.Equal(t, 1, countSuffix(names, "c12-p001.png"))
}

func TestExportSelectedChapters(t *testing.T) {
	x, _ := setup(t)
	out := filepath.Join(t.TempDir(), "one.epub")

	_, err := x.Export(context.Background(), 7, []int{12}, out, nil)
	require.NoError(t, err)

	names := zipNames(t, out)
	assert.Equal(t, 0, countSuffix(names, "c11-p001.png"))
	assert.Equal(t, 1, countSuffix(names, "c12-p001.png"))
}

func TestExportRepeatedChapterIDs(t *testing.T) {
	x, _ := setup(t)
	out := filepath.Join(t.TempDir(), "twice.epub")

	var total int
	_, err := x.Export(context.Background(), 7, []int{12, 11, 12}, out, func(done, n int) { total = n })
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	names := zipNames(t, out)
	assert.Equal(t, 1, countSuffix(names, "c11-p001.png"))
	assert.Equal(t, 1, countSuffix(names, "c12-p001.png"))
}

func TestExportErrors(t *testing.T) {
	x, src := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := x.Export(ctx, 8, nil, filepath.Join(dir, "a.epub"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = x.Export(ctx, 7, []int{99}, filepath.Join(dir, "b.epub"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = x.Export(ctx, 7, []int{21}, filepath.Join(dir, "c.epub"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	broken := strings.Replace(src.pages[11][0].ImageURL, "/p.png", "/missing.png", 1)
	src.pages[12] = []domain.Page{{ID: 1, ChapterID: 12, Number: 1, ImageURL: broken}}
	_, err = x.Export(ctx, 7, []int{12}, filepath.Join(dir, "d.epub"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Dorohedoro_ Vol_1", sanitizeFilename("Dorohedoro: Vol/1"))
	assert.Equal(t, "manga", sanitizeFilename(" .. "))
	assert.Equal(t, "Berserk", sanitizeFilename("Berserk"))
}
