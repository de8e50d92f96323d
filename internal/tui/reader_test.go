package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
	"github.com/ripper-jc/tomodachi-hub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	details *domain.MangaDetails
	pages   map[int][]domain.Page
	pageErr map[int]error
}

func (f *fakeSource) GetMangaDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	if f.details.ID != mangaID {
		return nil, domain.ErrNotFound
	}
	d := *f.details
	return &d, nil
}

func (f *fakeSource) GetChapterPages(ctx context.Context, chapterID int) ([]domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pageErr[chapterID]; err != nil {
		return nil, err
	}
	return f.pages[chapterID], nil
}

type fakeRenderer struct {
	mu     sync.Mutex
	art    map[string]string
	failed map[string]error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{art: make(map[string]string), failed: make(map[string]error)}
}

func (f *fakeRenderer) Render(ctx context.Context, url string, opts render.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failed[url]; err != nil {
		return "", err
	}
	f.art[url] = "ART " + url
	return f.art[url], nil
}

func (f *fakeRenderer) Cached(url string, opts render.Options) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	art, ok := f.art[url]
	return art, ok
}

func pagesOf(chapterID, n int) []domain.Page {
	pages := make([]domain.Page, n)
	for i := range pages {
		pages[i] = domain.Page{
			ID:        chapterID*10 + i,
			ChapterID: chapterID,
			Number:    i + 1,
			ImageURL:  fmt.Sprintf("img/%d/%d.png", chapterID, i+1),
		}
	}
	return pages
}

func newSource() *fakeSource {
	return &fakeSource{
		details: &domain.MangaDetails{
			Manga: domain.Manga{ID: 1, Title: "Yotsuba&!"},
			Translators: []domain.Translator{
				{ID: 10, Name: "Alpha"},
				{ID: 20, Name: "Beta"},
			},
			Chapters: []domain.Chapter{
				{ID: 101, MangaID: 1, Number: 1, TranslatorID: 10, Title: "Moving"},
				{ID: 102, MangaID: 1, Number: 2, TranslatorID: 10},
				{ID: 201, MangaID: 1, Number: 1, TranslatorID: 20},
			},
		},
		pages: map[int][]domain.Page{
			101: pagesOf(101, 2),
			102: pagesOf(102, 3),
			201: pagesOf(201, 1),
		},
		pageErr: make(map[int]error),
	}
}

func newCache(t *testing.T) *store.SessionCache {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return store.NewSessionCache(st, time.Minute, nil)
}

type harness struct {
	t        *testing.T
	src      *fakeSource
	renderer *fakeRenderer
	screen   *ReaderScreen
	statuses []string
	closed   bool
}

func newHarness(t *testing.T, settings domain.ReaderSettings, target *domain.NavTarget) *harness {
	t.Helper()
	h := &harness{t: t, src: newSource(), renderer: newFakeRenderer()}
	nav := reader.NewNavigator(h.src, newCache(t), nil, nil)
	h.screen = NewReaderScreen(nav, h.renderer, settings, 1, target)
	h.screen.SetSize(80, 24)
	h.run(h.screen.Init())
	return h
}

// run executes cmd and every command it produces, feeding messages back
// into the screen
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for n := 0; len(queue) > 0; n++ {
		require.Less(h.t, n, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case StatusMsg:
			h.statuses = append(h.statuses, msg.Message)
		case CloseReaderMsg:
			h.closed = true
		default:
			queue = append(queue, h.screen.Update(msg))
		}
	}
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		h.run(h.screen.Update(msg))
	}
}

func (h *harness) snap() reader.Snapshot {
	return h.screen.Navigator().Snapshot()
}

var horizontal = domain.ReaderSettings{Mode: domain.ModeHorizontal, ShowPageNumbers: true}

func TestReaderOpensTarget(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101})

	snap := h.snap()
	require.Equal(t, reader.StateReady, snap.State)
	assert.Equal(t, 1, snap.Session.PageIndex)

	view := h.screen.View()
	assert.Contains(t, view, "Yotsuba&!")
	assert.Contains(t, view, "Ch. 1: Moving")
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "1/2")
	assert.Contains(t, view, "ART img/101/1.png")
	assert.NotContains(t, view, "img/101/2.png")
}

func TestReaderPageKeysRollOver(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101})

	h.press("l")
	assert.Equal(t, 2, h.snap().Session.PageIndex)

	// last page of chapter 1 rolls into chapter 2
	h.press(" ")
	snap := h.snap()
	assert.Equal(t, 102, snap.Session.ChapterID)
	assert.Equal(t, 1, snap.Session.PageIndex)
	assert.Contains(t, h.screen.View(), "ART img/102/1.png")

	// and back to the last page of chapter 1
	h.press("h")
	snap = h.snap()
	assert.Equal(t, 101, snap.Session.ChapterID)
	assert.Equal(t, 2, snap.Session.PageIndex)

	h.press("]")
	assert.Equal(t, 102, h.snap().Session.ChapterID)
	h.press("G")
	assert.Equal(t, 3, h.snap().Session.PageIndex)
	h.press("g")
	assert.Equal(t, 1, h.snap().Session.PageIndex)
	h.press("[")
	assert.Equal(t, 101, h.snap().Session.ChapterID)
}

func TestReaderVerticalFillsViewport(t *testing.T) {
	h := newHarness(t, domain.ReaderSettings{Mode: domain.ModeVertical}, &domain.NavTarget{MangaID: 1, ChapterID: 102})

	view := h.screen.View()
	assert.Contains(t, view, "ART img/102/1.png")
	assert.Contains(t, view, "ART img/102/2.png")
	assert.Contains(t, view, "ART img/102/3.png")

	h.press("m")
	assert.Equal(t, domain.ModeHorizontal, h.screen.Settings().Mode)
	view = h.screen.View()
	assert.Contains(t, view, "ART img/102/1.png")
	assert.NotContains(t, view, "img/102/2.png")
}

func TestReaderWithoutTargetOpensSheet(t *testing.T) {
	h := newHarness(t, horizontal, nil)

	assert.Equal(t, reader.StateIdle, h.snap().State)
	require.True(t, h.screen.sheetOpen)
	assert.Contains(t, h.screen.View(), "Chapters · Alpha")

	h.press("j", "enter")
	assert.False(t, h.screen.sheetOpen)
	snap := h.snap()
	assert.Equal(t, reader.StateReady, snap.State)
	assert.Equal(t, 102, snap.Session.ChapterID)
}

func TestReaderSheetTranslatorSwitch(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101})

	h.press("c")
	require.True(t, h.screen.sheetOpen)
	h.press("t")
	assert.Contains(t, h.screen.View(), "Chapters · Beta")
	// current chapter stays put until a new one is picked
	assert.Equal(t, 101, h.snap().Session.ChapterID)

	h.press("enter")
	snap := h.snap()
	assert.Equal(t, 201, snap.Session.ChapterID)
	assert.Equal(t, 20, snap.Session.TranslatorID)
	assert.Contains(t, h.screen.View(), "Beta")

	h.press("c", "esc")
	assert.False(t, h.screen.sheetOpen)
}

func TestReaderErrorAndRetry(t *testing.T) {
	h := newHarness(t, horizontal, nil)
	h.src.pageErr[101] = fmt.Errorf("%w: boom", domain.ErrNetworkFailure)

	h.press("enter")
	snap := h.snap()
	require.Equal(t, reader.StateError, snap.State)
	assert.True(t, errors.Is(snap.Err, domain.ErrNetworkFailure))
	view := h.screen.View()
	assert.Contains(t, view, "Press r to retry")
	assert.Contains(t, view, "r retry")

	delete(h.src.pageErr, 101)
	h.press("r")
	assert.Equal(t, reader.StateReady, h.snap().State)
}

func TestReaderEmptyChapter(t *testing.T) {
	h := newHarness(t, horizontal, nil)
	h.src.pages[101] = []domain.Page{}

	h.press("enter")
	assert.Equal(t, reader.StateEmpty, h.snap().State)
	assert.Contains(t, h.screen.View(), "No pages")

	// chapter navigation still works from an empty chapter
	h.press("]")
	assert.Equal(t, 102, h.snap().Session.ChapterID)
}

func TestReaderRenderFailure(t *testing.T) {
	h := newHarness(t, horizontal, nil)
	h.renderer.failed["img/101/1.png"] = errors.New("decode failed")

	h.press("enter")
	assert.Contains(t, h.screen.View(), "Page 1: decode failed")

	delete(h.renderer.failed, "img/101/1.png")
	h.press("r")
	assert.Contains(t, h.screen.View(), "ART img/101/1.png")
}

func TestReaderIgnoresForeignResults(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101})

	other := reader.NewNavigator(h.src, newCache(t), nil, nil)
	h.screen.Update(PagesFetchedMsg{
		Nav:    other,
		Result: reader.PageResult{Request: reader.PageRequest{ChapterID: 101, Token: 1}, Err: errors.New("late")},
	})
	assert.Equal(t, reader.StateReady, h.snap().State)
}

func TestReaderBackCloses(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101})
	h.press("q")
	assert.True(t, h.closed)
}

func TestReaderOpenFailure(t *testing.T) {
	h := &harness{t: t, src: newSource(), renderer: newFakeRenderer()}
	nav := reader.NewNavigator(h.src, newCache(t), nil, nil)
	h.screen = NewReaderScreen(nav, h.renderer, horizontal, 99, nil)
	h.screen.SetSize(80, 24)
	h.run(h.screen.Init())

	require.Len(t, h.statuses, 1)
	assert.Contains(t, h.statuses[0], "opening manga")
	assert.Equal(t, reader.StateError, h.snap().State)
}

type fakeLauncher struct {
	urls []string
	err  error
}

func (f *fakeLauncher) Launch(url string) error {
	f.urls = append(f.urls, url)
	return f.err
}

func TestReaderOpensPageInViewer(t *testing.T) {
	h := newHarness(t, horizontal, &domain.NavTarget{MangaID: 1, ChapterID: 101, Page: 2})
	// without a launcher the key does nothing
	h.press("o")
	assert.Empty(t, h.statuses)

	l := &fakeLauncher{}
	h.screen.SetLauncher(l)
	h.press("o")
	assert.Equal(t, []string{"img/101/2.png"}, l.urls)
	require.Len(t, h.statuses, 1)
	assert.Equal(t, "Opened page 2 in viewer", h.statuses[0])

	l.err = errors.New("no viewer")
	h.press("o")
	require.Len(t, h.statuses, 2)
	assert.Equal(t, "no viewer", h.statuses[1])
}
