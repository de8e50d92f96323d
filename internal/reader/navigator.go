package reader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// State is the lifecycle state of the current chapter
type State int

const (
	// StateIdle means the manga is resolved but no chapter is selected yet
	StateIdle State = iota
	StateLoading
	StateReady
	StateEmpty
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Landing positions for a chapter change. Positive values are page numbers.
const (
	FirstPage = 1
	LastPage  = -1
)

// Session is the reading position. PageIndex is 1-based and 0 while no
// pages are loaded.
type Session struct {
	MangaID      int
	ChapterID    int
	TranslatorID int
	PageIndex    int
}

// PageRequest is a page fetch the caller must run with Fetch and hand back to
// Commit. Token identifies the request so stale answers can be dropped.
type PageRequest struct {
	ChapterID int
	Token     uint64
	Landing   int
}

// PageResult is the outcome of a PageRequest
type PageResult struct {
	Request PageRequest
	Pages   []domain.Page
	Err     error
}

// Actions reports which navigation moves currently do something
type Actions struct {
	PrevPage    bool
	NextPage    bool
	PrevChapter bool
	NextChapter bool
}

// Snapshot is a copy of the navigator state for rendering
type Snapshot struct {
	State       State
	Session     Session
	Manga       domain.Manga
	Translators []domain.Translator
	Translator  *domain.Translator
	Chapters    []domain.Chapter // visible chapters of the current translator
	Chapter     *domain.Chapter
	Pages       []domain.Page
	Page        *domain.Page
	PageCount   int
	Err         error
	Actions     Actions
}

// Navigator is the reading-session controller for one manga. It resolves
// chapters and pages through the cache first and keeps the session invariants:
// the page index stays inside the loaded chapter and only the latest fetch
// for the current chapter may change state.
type Navigator struct {
	source  domain.ChapterSource
	cache   domain.Cache
	targets domain.TargetStore
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	session   Session
	details   *domain.MangaDetails
	pages     []domain.Page
	err       error
	landing   int
	lastToken uint64
	tokens    map[int]uint64 // latest token issued per chapter
}

// NewNavigator creates a navigator. targets may be nil to disable resume.
func NewNavigator(source domain.ChapterSource, cache domain.Cache, targets domain.TargetStore, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		source:  source,
		cache:   cache,
		targets: targets,
		logger:  logger,
		state:   StateLoading,
		tokens:  make(map[int]uint64),
	}
}

// Open resolves the manga and seeds the session from target, or from the
// stored position when target is nil. A returned request must be fetched and
// committed to finish loading the seeded chapter.
func (n *Navigator) Open(ctx context.Context, mangaID int, target *domain.NavTarget) (*PageRequest, error) {
	n.mu.Lock()
	n.state = StateLoading
	n.session = Session{MangaID: mangaID}
	n.details = nil
	n.pages = nil
	n.err = nil
	n.mu.Unlock()

	details, err := n.resolveDetails(ctx, mangaID)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.session.MangaID != mangaID {
		// another Open won the race
		return nil, nil
	}
	if err != nil {
		n.logger.Error("failed to resolve manga", "error", err, "mangaID", mangaID)
		n.state = StateError
		n.err = err
		return nil, err
	}
	n.details = details
	n.state = StateIdle

	if target == nil && n.targets != nil {
		if stored, ok := n.targets.LoadTarget(mangaID); ok {
			target = &stored
		}
	}

	if target != nil && target.ChapterID != 0 {
		if ch, ok := details.FindChapter(target.ChapterID); ok {
			landing := target.Page
			if landing < FirstPage && landing != LastPage {
				landing = FirstPage
			}
			return n.selectLocked(ch, landing), nil
		}
		n.logger.Warn("stored chapter no longer exists", "mangaID", mangaID, "chapterID", target.ChapterID)
	}

	n.session.TranslatorID = defaultTranslator(details)
	return nil, nil
}

func (n *Navigator) resolveDetails(ctx context.Context, mangaID int) (*domain.MangaDetails, error) {
	key := domain.MangaKey(mangaID)

	var cached domain.MangaDetails
	if n.cache.GetJSON(key, &cached) {
		return &cached, nil
	}

	details, err := n.source.GetMangaDetails(ctx, mangaID)
	if err != nil {
		return nil, err
	}
	if err := n.cache.Set(key, details); err != nil {
		n.logger.Error("failed to cache manga", "error", err, "mangaID", mangaID)
	}
	return details, nil
}

// defaultTranslator picks the first listed team that has chapters
func defaultTranslator(details *domain.MangaDetails) int {
	for _, t := range details.Translators {
		if len(details.ChaptersBy(t.ID)) > 0 {
			return t.ID
		}
	}
	if len(details.Chapters) > 0 {
		return details.Chapters[0].TranslatorID
	}
	if len(details.Translators) > 0 {
		return details.Translators[0].ID
	}
	return 0
}

// SelectChapter makes chapterID current and lands on its first page
func (n *Navigator) SelectChapter(chapterID int) (*PageRequest, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.details == nil {
		return nil, fmt.Errorf("%w: manga is not loaded", domain.ErrNotFound)
	}
	ch, ok := n.details.FindChapter(chapterID)
	if !ok {
		return nil, fmt.Errorf("%w: chapter %d", domain.ErrNotFound, chapterID)
	}
	return n.selectLocked(ch, FirstPage), nil
}

func (n *Navigator) selectLocked(ch domain.Chapter, landing int) *PageRequest {
	if n.session.ChapterID == ch.ID && n.state == StateLoading {
		return nil
	}

	n.session.ChapterID = ch.ID
	n.session.TranslatorID = ch.TranslatorID
	n.session.PageIndex = 0
	n.pages = nil
	n.err = nil
	n.landing = landing
	n.state = StateLoading
	n.saveTargetLocked()

	var pages []domain.Page
	if n.cache.GetJSON(domain.PagesKey(ch.ID), &pages) {
		n.applyLocked(pages, landing)
		return nil
	}

	n.lastToken++
	n.tokens[ch.ID] = n.lastToken
	return &PageRequest{ChapterID: ch.ID, Token: n.lastToken, Landing: landing}
}

func (n *Navigator) applyLocked(pages []domain.Page, landing int) {
	n.pages = pages
	if len(pages) == 0 {
		n.state = StateEmpty
		n.session.PageIndex = 0
		n.saveTargetLocked()
		return
	}

	n.state = StateReady
	switch {
	case landing == LastPage, landing > len(pages):
		n.session.PageIndex = len(pages)
	case landing < FirstPage:
		n.session.PageIndex = FirstPage
	default:
		n.session.PageIndex = landing
	}
	n.saveTargetLocked()
}

// Fetch loads the pages of a request. It does not touch navigator state.
func (n *Navigator) Fetch(ctx context.Context, req PageRequest) PageResult {
	pages, err := n.source.GetChapterPages(ctx, req.ChapterID)
	if err != nil {
		return PageResult{Request: req, Err: fmt.Errorf("load chapter %d: %w", req.ChapterID, err)}
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	return PageResult{Request: req, Pages: pages}
}

// Commit applies a fetch result. It reports false when the result is stale:
// a newer request was issued for the chapter or another chapter is current.
func (n *Navigator) Commit(res PageResult) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	req := res.Request
	if n.tokens[req.ChapterID] != req.Token || n.session.ChapterID != req.ChapterID || n.state != StateLoading {
		n.logger.Debug("dropping stale page result", "chapterID", req.ChapterID, "token", req.Token)
		return false
	}

	if res.Err != nil {
		n.logger.Error("failed to load pages", "error", res.Err, "chapterID", req.ChapterID)
		n.state = StateError
		n.err = res.Err
		return true
	}

	if err := n.cache.Set(domain.PagesKey(req.ChapterID), res.Pages); err != nil {
		n.logger.Error("failed to cache pages", "error", err, "chapterID", req.ChapterID)
	}
	n.applyLocked(res.Pages, req.Landing)
	return true
}

// Load selects a chapter and fetches its pages synchronously
func (n *Navigator) Load(ctx context.Context, chapterID int) error {
	req, err := n.SelectChapter(chapterID)
	if err != nil {
		return err
	}
	return n.Run(ctx, req)
}

// Run fetches and commits req; a nil request is a no-op
func (n *Navigator) Run(ctx context.Context, req *PageRequest) error {
	if req == nil {
		return nil
	}
	res := n.Fetch(ctx, *req)
	n.Commit(res)
	return res.Err
}

// Retry reissues the fetch of the current chapter after an error
func (n *Navigator) Retry() *PageRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateError || n.details == nil || n.session.ChapterID == 0 {
		return nil
	}
	ch, ok := n.details.FindChapter(n.session.ChapterID)
	if !ok {
		return nil
	}
	return n.selectLocked(ch, n.landing)
}

// SelectTranslator switches the visible chapter set. The current chapter and
// page are kept even when they belong to another team.
func (n *Navigator) SelectTranslator(translatorID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.details == nil {
		return fmt.Errorf("%w: manga is not loaded", domain.ErrNotFound)
	}
	if _, ok := n.details.FindTranslator(translatorID); !ok {
		return fmt.Errorf("%w: translator %d", domain.ErrNotFound, translatorID)
	}
	n.session.TranslatorID = translatorID
	return nil
}

// CycleTranslator moves to the next translator team, wrapping around
func (n *Navigator) CycleTranslator() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.details == nil || len(n.details.Translators) == 0 {
		return fmt.Errorf("%w: no translators", domain.ErrNotFound)
	}
	list := n.details.Translators
	next := list[0].ID
	for i, t := range list {
		if t.ID == n.session.TranslatorID {
			next = list[(i+1)%len(list)].ID
			break
		}
	}
	n.session.TranslatorID = next
	return nil
}

// NextPage advances one page, rolling over to the first page of the next
// chapter at the end of the current one
func (n *Navigator) NextPage() *PageRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateReady {
		return nil
	}
	if n.session.PageIndex < len(n.pages) {
		n.session.PageIndex++
		n.saveTargetLocked()
		return nil
	}
	ch, ok := n.adjacentLocked(1)
	if !ok {
		return nil
	}
	return n.selectLocked(ch, FirstPage)
}

// PrevPage goes back one page, rolling over to the last page of the previous
// chapter at the start of the current one
func (n *Navigator) PrevPage() *PageRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateReady {
		return nil
	}
	if n.session.PageIndex > FirstPage {
		n.session.PageIndex--
		n.saveTargetLocked()
		return nil
	}
	ch, ok := n.adjacentLocked(-1)
	if !ok {
		return nil
	}
	return n.selectLocked(ch, LastPage)
}

// NextChapter jumps to the first page of the next chapter. Without a current
// chapter it opens the first visible one.
func (n *Navigator) NextChapter() *PageRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.adjacentLocked(1)
	if !ok {
		return nil
	}
	return n.selectLocked(ch, FirstPage)
}

// PrevChapter jumps to the first page of the previous chapter
func (n *Navigator) PrevChapter() *PageRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.adjacentLocked(-1)
	if !ok {
		return nil
	}
	return n.selectLocked(ch, FirstPage)
}

// GoToPage jumps to page number page of the loaded chapter
func (n *Navigator) GoToPage(page int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateReady {
		return fmt.Errorf("%w: no pages loaded", domain.ErrPageOutOfRange)
	}
	if page < FirstPage || page > len(n.pages) {
		return fmt.Errorf("%w: page %d of %d", domain.ErrPageOutOfRange, page, len(n.pages))
	}
	n.session.PageIndex = page
	n.saveTargetLocked()
	return nil
}

// AllChapters returns every chapter of the manga across translators
func (n *Navigator) AllChapters() []domain.Chapter {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.details == nil {
		return nil
	}
	out := append([]domain.Chapter(nil), n.details.Chapters...)
	domain.SortChapters(out)
	return out
}

func (n *Navigator) visibleLocked() []domain.Chapter {
	if n.details == nil {
		return nil
	}
	return n.details.ChaptersBy(n.session.TranslatorID)
}

// adjacentLocked finds the neighbour of the current chapter in the visible
// list. A current chapter outside that list, left by SelectTranslator, is
// placed by chapter number.
func (n *Navigator) adjacentLocked(dir int) (domain.Chapter, bool) {
	list := n.visibleLocked()
	if len(list) == 0 {
		return domain.Chapter{}, false
	}

	if n.session.ChapterID == 0 {
		if dir > 0 {
			return list[0], true
		}
		return domain.Chapter{}, false
	}

	for i, c := range list {
		if c.ID != n.session.ChapterID {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(list) {
			return domain.Chapter{}, false
		}
		return list[j], true
	}

	current, ok := n.details.FindChapter(n.session.ChapterID)
	if !ok {
		return domain.Chapter{}, false
	}
	if dir > 0 {
		for _, c := range list {
			if c.Number > current.Number {
				return c, true
			}
		}
		return domain.Chapter{}, false
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Number < current.Number {
			return list[i], true
		}
	}
	return domain.Chapter{}, false
}

func (n *Navigator) saveTargetLocked() {
	if n.targets == nil || n.session.ChapterID == 0 {
		return
	}
	err := n.targets.SaveTarget(domain.NavTarget{
		MangaID:   n.session.MangaID,
		ChapterID: n.session.ChapterID,
		Page:      n.session.PageIndex,
	})
	if err != nil {
		n.logger.Warn("failed to save reading position", "error", err, "mangaID", n.session.MangaID)
	}
}

// Snapshot returns a copy of the current state
func (n *Navigator) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	snap := Snapshot{
		State:     n.state,
		Session:   n.session,
		Err:       n.err,
		PageCount: len(n.pages),
		Pages:     append([]domain.Page(nil), n.pages...),
	}
	if n.details == nil {
		return snap
	}

	snap.Manga = n.details.Manga
	snap.Translators = append([]domain.Translator(nil), n.details.Translators...)
	snap.Chapters = n.visibleLocked()
	if t, ok := n.details.FindTranslator(n.session.TranslatorID); ok {
		snap.Translator = &t
	}
	if ch, ok := n.details.FindChapter(n.session.ChapterID); ok {
		snap.Chapter = &ch
	}
	if n.state == StateReady && n.session.PageIndex >= FirstPage {
		p := n.pages[n.session.PageIndex-1]
		snap.Page = &p
	}

	_, hasPrev := n.adjacentLocked(-1)
	_, hasNext := n.adjacentLocked(1)
	snap.Actions = Actions{PrevChapter: hasPrev, NextChapter: hasNext}
	if n.state == StateReady {
		snap.Actions.PrevPage = n.session.PageIndex > FirstPage || hasPrev
		snap.Actions.NextPage = n.session.PageIndex < len(n.pages) || hasNext
	}
	return snap
}
