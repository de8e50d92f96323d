package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu          sync.Mutex
	details     *domain.MangaDetails
	detailsErr  error
	pages       map[int][]domain.Page
	pageErr     map[int]error
	detailCalls int
	pageCalls   map[int]int
}

func (f *fakeSource) GetMangaDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	d := *f.details
	return &d, nil
}

func (f *fakeSource) GetChapterPages(ctx context.Context, chapterID int) ([]domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls[chapterID]++
	if err := f.pageErr[chapterID]; err != nil {
		return nil, err
	}
	pages, ok := f.pages[chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pages, nil
}

func makePages(chapterID, n int) []domain.Page {
	pages := make([]domain.Page, n)
	for i := range pages {
		pages[i] = domain.Page{
			ID:        chapterID*100 + i + 1,
			ChapterID: chapterID,
			Number:    i + 1,
			ImageURL:  fmt.Sprintf("https://img.example.com/%d/%d.png", chapterID, i+1),
		}
	}
	return pages
}

// Team 10 has chapters 1, 2, 3; team 20 has 1 and 3 (the latter empty);
// team 30 has nothing.
func newFakeSource() *fakeSource {
	return &fakeSource{
		details: &domain.MangaDetails{
			Manga: domain.Manga{ID: 1, Title: "Blame!"},
			Translators: []domain.Translator{
				{ID: 10, Name: "Alpha"},
				{ID: 20, Name: "Beta"},
				{ID: 30, Name: "Gamma"},
			},
			Chapters: []domain.Chapter{
				{ID: 103, MangaID: 1, Number: 3, TranslatorID: 10},
				{ID: 101, MangaID: 1, Number: 1, TranslatorID: 10},
				{ID: 102, MangaID: 1, Number: 2, TranslatorID: 10},
				{ID: 201, MangaID: 1, Number: 1, TranslatorID: 20},
				{ID: 203, MangaID: 1, Number: 3, TranslatorID: 20},
			},
		},
		pages: map[int][]domain.Page{
			101: makePages(101, 2),
			102: makePages(102, 3),
			103: makePages(103, 1),
			201: makePages(201, 2),
			203: {},
		},
		pageErr:   map[int]error{},
		pageCalls: map[int]int{},
	}
}

type fixture struct {
	nav      *Navigator
	source   *fakeSource
	cache    *store.SessionCache
	progress *store.ProgressStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		source:   newFakeSource(),
		cache:    store.NewSessionCache(st, time.Minute, nil),
		progress: store.NewProgressStore(st, nil),
	}
	f.nav = NewNavigator(f.source, f.cache, f.progress, nil)
	return f
}

func (f *fixture) open(t *testing.T) {
	t.Helper()
	req, err := f.nav.Open(context.Background(), 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.nav.Run(context.Background(), req))
}

func (f *fixture) load(t *testing.T, chapterID int) {
	t.Helper()
	require.NoError(t, f.nav.Load(context.Background(), chapterID))
}

func (f *fixture) run(t *testing.T, req *PageRequest) {
	t.Helper()
	require.NoError(t, f.nav.Run(context.Background(), req))
}

func TestOpen_NoTarget(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 10, snap.Session.TranslatorID)
	assert.Nil(t, snap.Chapter)
	assert.Equal(t, "Blame!", snap.Manga.Title)
	require.Len(t, snap.Chapters, 3)
	assert.Equal(t, []int{101, 102, 103}, []int{snap.Chapters[0].ID, snap.Chapters[1].ID, snap.Chapters[2].ID})
	assert.Equal(t, Actions{NextChapter: true}, snap.Actions)
}

func TestOpen_UsesCachedDetails(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	other := NewNavigator(f.source, f.cache, nil, nil)
	_, err := other.Open(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.source.detailCalls)
	assert.Equal(t, "Blame!", other.Snapshot().Manga.Title)
}

func TestOpen_DetailsFailure(t *testing.T) {
	f := newFixture(t)
	f.source.detailsErr = domain.ErrNetworkFailure

	_, err := f.nav.Open(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.ErrorIs(t, snap.Err, domain.ErrNetworkFailure)
	assert.Equal(t, Actions{}, snap.Actions)
}

func TestOpen_TargetSeedsChapterAndTranslator(t *testing.T) {
	f := newFixture(t)
	req, err := f.nav.Open(context.Background(), 1, &domain.NavTarget{MangaID: 1, ChapterID: 201, Page: 2})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, 2, req.Landing)
	f.run(t, req)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, Session{MangaID: 1, ChapterID: 201, TranslatorID: 20, PageIndex: 2}, snap.Session)
	assert.Equal(t, "Beta", snap.Translator.Name)
}

func TestOpen_TargetPageIsClamped(t *testing.T) {
	f := newFixture(t)
	req, err := f.nav.Open(context.Background(), 1, &domain.NavTarget{MangaID: 1, ChapterID: 101, Page: 40})
	require.NoError(t, err)
	f.run(t, req)

	assert.Equal(t, 2, f.nav.Snapshot().Session.PageIndex)
}

func TestOpen_TargetLastPage(t *testing.T) {
	f := newFixture(t)
	req, err := f.nav.Open(context.Background(), 1, &domain.NavTarget{MangaID: 1, ChapterID: 102, Page: LastPage})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, LastPage, req.Landing)
	f.run(t, req)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 3, snap.PageCount)
	assert.Equal(t, 3, snap.Session.PageIndex)
}

func TestOpen_NegativeTargetPageStartsAtFirst(t *testing.T) {
	f := newFixture(t)
	req, err := f.nav.Open(context.Background(), 1, &domain.NavTarget{MangaID: 1, ChapterID: 102, Page: -5})
	require.NoError(t, err)
	f.run(t, req)

	assert.Equal(t, 1, f.nav.Snapshot().Session.PageIndex)
}

func TestOpen_UnknownTargetChapterIsIgnored(t *testing.T) {
	f := newFixture(t)
	req, err := f.nav.Open(context.Background(), 1, &domain.NavTarget{MangaID: 1, ChapterID: 999})
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Equal(t, StateIdle, f.nav.Snapshot().State)
}

func TestOpen_ResumesStoredPosition(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)
	require.NoError(t, f.nav.GoToPage(2))

	target, ok := f.progress.LoadTarget(1)
	require.True(t, ok)
	assert.Equal(t, 102, target.ChapterID)
	assert.Equal(t, 2, target.Page)

	resumed := NewNavigator(f.source, f.cache, f.progress, nil)
	req, err := resumed.Open(context.Background(), 1, nil)
	require.NoError(t, err)
	require.NoError(t, resumed.Run(context.Background(), req))

	snap := resumed.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 102, snap.Session.ChapterID)
	assert.Equal(t, 2, snap.Session.PageIndex)
}

func TestLoad_ReadyAndCached(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 1, snap.Session.PageIndex)
	assert.Equal(t, 3, snap.PageCount)
	require.NotNil(t, snap.Page)
	assert.Equal(t, 1, snap.Page.Number)

	var cached []domain.Page
	assert.True(t, f.cache.GetJSON(domain.PagesKey(102), &cached))
	assert.Len(t, cached, 3)
}

func TestSelectChapter_CacheHitCommitsImmediately(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 101)
	f.load(t, 102)

	req, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Equal(t, StateReady, f.nav.Snapshot().State)
	assert.Equal(t, 1, f.source.pageCalls[101])
}

func TestSelectChapter_AlreadyLoadingIsNoop(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	first, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, StateLoading, f.nav.Snapshot().State)
}

func TestSelectChapter_Unknown(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)
	before := f.nav.Snapshot()

	req, err := f.nav.SelectChapter(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, req)
	assert.Equal(t, before, f.nav.Snapshot())
}

func TestSelectChapter_OtherTeamSwitchesTranslator(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 201)

	snap := f.nav.Snapshot()
	assert.Equal(t, 20, snap.Session.TranslatorID)
	assert.Len(t, snap.Chapters, 2)
}

func TestNextPage_RollsToNextChapter(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)
	require.NoError(t, f.nav.GoToPage(3))

	req := f.nav.NextPage()
	require.NotNil(t, req)
	assert.Equal(t, FirstPage, req.Landing)
	f.run(t, req)

	snap := f.nav.Snapshot()
	assert.Equal(t, 103, snap.Session.ChapterID)
	assert.Equal(t, 1, snap.Session.PageIndex)
}

func TestPrevPage_RollsToLastPageOfPreviousChapter(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 103)

	req := f.nav.PrevPage()
	require.NotNil(t, req)
	assert.Equal(t, LastPage, req.Landing)
	f.run(t, req)

	snap := f.nav.Snapshot()
	assert.Equal(t, 102, snap.Session.ChapterID)
	assert.Equal(t, 3, snap.Session.PageIndex)
}

func TestPageMovesWithinChapter(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)

	assert.Nil(t, f.nav.NextPage())
	assert.Equal(t, 2, f.nav.Snapshot().Session.PageIndex)
	assert.Nil(t, f.nav.PrevPage())
	assert.Equal(t, 1, f.nav.Snapshot().Session.PageIndex)

	target, ok := f.progress.LoadTarget(1)
	require.True(t, ok)
	assert.Equal(t, 1, target.Page)
}

func TestBoundariesAreNoops(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	f.load(t, 103)
	assert.Nil(t, f.nav.NextPage())
	assert.Nil(t, f.nav.NextChapter())
	snap := f.nav.Snapshot()
	assert.Equal(t, 103, snap.Session.ChapterID)
	assert.Equal(t, 1, snap.Session.PageIndex)
	assert.False(t, snap.Actions.NextPage)
	assert.False(t, snap.Actions.NextChapter)
	assert.True(t, snap.Actions.PrevPage)

	f.load(t, 101)
	assert.Nil(t, f.nav.PrevPage())
	assert.Nil(t, f.nav.PrevChapter())
	assert.Equal(t, 101, f.nav.Snapshot().Session.ChapterID)
	assert.False(t, f.nav.Snapshot().Actions.PrevPage)
}

func TestTranslatorWithoutChapters(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	require.NoError(t, f.nav.SelectTranslator(30))

	assert.Nil(t, f.nav.NextPage())
	assert.Nil(t, f.nav.PrevPage())
	assert.Nil(t, f.nav.NextChapter())
	assert.Nil(t, f.nav.PrevChapter())

	snap := f.nav.Snapshot()
	assert.Equal(t, 0, snap.Session.PageIndex)
	assert.Empty(t, snap.Chapters)
	assert.Equal(t, Actions{}, snap.Actions)
}

func TestTranslatorWithoutChapters_KeepsLoadedPage(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 101)
	require.NoError(t, f.nav.GoToPage(2))
	require.NoError(t, f.nav.SelectTranslator(30))

	assert.Nil(t, f.nav.NextPage())
	snap := f.nav.Snapshot()
	assert.Equal(t, 101, snap.Session.ChapterID)
	assert.Equal(t, 2, snap.Session.PageIndex)
}

func TestSelectTranslator_Unknown(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	err := f.nav.SelectTranslator(77)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 10, f.nav.Snapshot().Session.TranslatorID)
}

func TestSelectTranslator_StaleChapterNavigatesByNumber(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)
	require.NoError(t, f.nav.SelectTranslator(20))

	snap := f.nav.Snapshot()
	assert.Equal(t, 102, snap.Session.ChapterID)
	assert.True(t, snap.Actions.NextChapter)
	assert.True(t, snap.Actions.PrevChapter)

	req := f.nav.NextChapter()
	require.NotNil(t, req)
	assert.Equal(t, 203, req.ChapterID)
	f.run(t, req)
	assert.Equal(t, StateEmpty, f.nav.Snapshot().State)
}

func TestSelectTranslator_StaleChapterPrev(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 102)
	require.NoError(t, f.nav.SelectTranslator(20))

	req := f.nav.PrevChapter()
	require.NotNil(t, req)
	assert.Equal(t, 201, req.ChapterID)
}

func TestCycleTranslator(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	var seen []int
	for range 4 {
		require.NoError(t, f.nav.CycleTranslator())
		seen = append(seen, f.nav.Snapshot().Session.TranslatorID)
	}
	assert.Equal(t, []int{20, 30, 10, 20}, seen)
}

func TestEmptyChapter(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.load(t, 203)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Equal(t, 0, snap.Session.PageIndex)
	assert.Nil(t, snap.Page)
	assert.False(t, snap.Actions.NextPage)
	assert.False(t, snap.Actions.PrevPage)
	assert.True(t, snap.Actions.PrevChapter)

	assert.Nil(t, f.nav.NextPage())
	assert.ErrorIs(t, f.nav.GoToPage(1), domain.ErrPageOutOfRange)

	req := f.nav.PrevChapter()
	require.NotNil(t, req)
	assert.Equal(t, 201, req.ChapterID)
}

func TestStaleResultFromOtherChapterIsDropped(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	req1, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	req2, err := f.nav.SelectChapter(102)
	require.NoError(t, err)

	assert.False(t, f.nav.Commit(f.nav.Fetch(context.Background(), *req1)))
	snap := f.nav.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, 102, snap.Session.ChapterID)

	assert.True(t, f.nav.Commit(f.nav.Fetch(context.Background(), *req2)))
	assert.Equal(t, 3, f.nav.Snapshot().PageCount)
}

func TestStaleTokenForSameChapterIsDropped(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	old, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	_, err = f.nav.SelectChapter(102)
	require.NoError(t, err)
	latest, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Greater(t, latest.Token, old.Token)

	assert.False(t, f.nav.Commit(PageResult{Request: *old, Pages: makePages(101, 9)}))
	assert.True(t, f.nav.Commit(f.nav.Fetch(context.Background(), *latest)))
	assert.Equal(t, 2, f.nav.Snapshot().PageCount)
}

func TestCommitAfterReadyIsDropped(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	req, err := f.nav.SelectChapter(101)
	require.NoError(t, err)
	res := f.nav.Fetch(context.Background(), *req)
	require.True(t, f.nav.Commit(res))
	require.NoError(t, f.nav.GoToPage(2))

	assert.False(t, f.nav.Commit(res))
	assert.Equal(t, 2, f.nav.Snapshot().Session.PageIndex)
}

func TestFetchFailureThenRetry(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.source.pageErr[102] = domain.ErrNetworkFailure

	err := f.nav.Load(context.Background(), 102)
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	snap := f.nav.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.True(t, errors.Is(snap.Err, domain.ErrNetworkFailure))
	assert.True(t, snap.Actions.PrevChapter)

	f.source.pageErr[102] = nil
	req := f.nav.Retry()
	require.NotNil(t, req)
	f.run(t, req)
	assert.Equal(t, StateReady, f.nav.Snapshot().State)
	assert.Nil(t, f.nav.Retry())
}

func TestGoToPage(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	assert.ErrorIs(t, f.nav.GoToPage(1), domain.ErrPageOutOfRange)

	f.load(t, 102)
	assert.ErrorIs(t, f.nav.GoToPage(0), domain.ErrPageOutOfRange)
	assert.ErrorIs(t, f.nav.GoToPage(4), domain.ErrPageOutOfRange)
	assert.Equal(t, 1, f.nav.Snapshot().Session.PageIndex)

	require.NoError(t, f.nav.GoToPage(3))
	assert.Equal(t, 3, f.nav.Snapshot().Page.Number)
}

func TestNextChapterFromIdleOpensFirst(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	assert.Nil(t, f.nav.PrevChapter())
	req := f.nav.NextChapter()
	require.NotNil(t, req)
	assert.Equal(t, 101, req.ChapterID)
}

func TestChapterChangeWritesTarget(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	_, err := f.nav.SelectChapter(102)
	require.NoError(t, err)

	target, ok := f.progress.LoadTarget(1)
	require.True(t, ok)
	assert.Equal(t, 102, target.ChapterID)
}
