package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/components"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
)

// Header and footer take one line each
const readerChrome = 2

// ReaderScreen shows one manga page by page
type ReaderScreen struct {
	nav      *reader.Navigator
	renderer PageRenderer
	launcher Launcher
	settings domain.ReaderSettings

	mangaID int
	target  *domain.NavTarget

	sheet     *components.List
	sheetOpen bool

	pending   map[string]bool  // page URLs being rendered
	renderErr map[string]error // page URLs that failed to render
	status    string
	spinner   string

	width  int
	height int
}

// NewReaderScreen creates a reader for mangaID. A nil target resumes from
// the stored position.
func NewReaderScreen(nav *reader.Navigator, renderer PageRenderer, settings domain.ReaderSettings, mangaID int, target *domain.NavTarget) *ReaderScreen {
	sheet := components.NewList("Chapters")
	sheet.SetEmptyText("No chapters from this translator")
	return &ReaderScreen{
		nav:       nav,
		renderer:  renderer,
		settings:  settings.Normalize(),
		mangaID:   mangaID,
		target:    target,
		sheet:     sheet,
		pending:   make(map[string]bool),
		renderErr: make(map[string]error),
	}
}

// Init opens the manga
func (r *ReaderScreen) Init() tea.Cmd {
	return OpenMangaCmd(r.nav, r.mangaID, r.target)
}

// Navigator returns the reading-session controller behind the screen
func (r *ReaderScreen) Navigator() *reader.Navigator {
	return r.nav
}

// SetLauncher enables opening the current page in an external viewer
func (r *ReaderScreen) SetLauncher(l Launcher) {
	r.launcher = l
}

// Settings returns the current reader settings
func (r *ReaderScreen) Settings() domain.ReaderSettings {
	return r.settings
}

// SetSize sets the screen size
func (r *ReaderScreen) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.sheet.SetSize(min(width-4, 60), max(height-6, 3))
}

// SetSpinner sets the current spinner frame
func (r *ReaderScreen) SetSpinner(frame string) {
	r.spinner = frame
}

// Filtering reports whether the chapter sheet filter owns the keyboard
func (r *ReaderScreen) Filtering() bool {
	return r.sheetOpen && r.sheet.IsFilterTyping()
}

func (r *ReaderScreen) bodyHeight() int {
	return max(r.height-readerChrome, 1)
}

func (r *ReaderScreen) renderOptions() render.Options {
	return render.OptionsFor(r.settings, r.width, r.bodyHeight())
}

// Update handles messages for the reader screen
func (r *ReaderScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case MangaOpenedMsg:
		if msg.Nav != r.nav {
			return nil
		}
		if msg.Err != nil {
			return statusCmd("opening manga: "+msg.Err.Error(), true)
		}
		r.refreshSheet()
		if msg.Request == nil && r.nav.Snapshot().State == reader.StateIdle {
			r.openSheet()
		}
		return r.after(msg.Request)

	case PagesFetchedMsg:
		if msg.Nav != r.nav {
			return nil
		}
		r.nav.Commit(msg.Result)
		return r.renderVisible()

	case PageRenderedMsg:
		delete(r.pending, msg.URL)
		if msg.Err != nil {
			r.renderErr[msg.URL] = msg.Err
			return nil
		}
		delete(r.renderErr, msg.URL)
		return r.renderVisible()

	case tea.WindowSizeMsg:
		return r.renderVisible()

	case tea.KeyMsg:
		r.status = ""
		if r.sheetOpen {
			return r.updateSheet(msg)
		}
		return r.handleKey(msg)
	}

	if r.sheetOpen {
		return r.sheet.Update(msg)
	}
	return nil
}

func (r *ReaderScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, Keys.Back):
		return func() tea.Msg { return CloseReaderMsg{} }

	case key.Matches(msg, Keys.NextPage):
		return r.after(r.nav.NextPage())

	case key.Matches(msg, Keys.PrevPage):
		return r.after(r.nav.PrevPage())

	case key.Matches(msg, Keys.NextChapter):
		return r.after(r.nav.NextChapter())

	case key.Matches(msg, Keys.PrevChapter):
		return r.after(r.nav.PrevChapter())

	case key.Matches(msg, Keys.FirstPage):
		_ = r.nav.GoToPage(reader.FirstPage)
		return r.renderVisible()

	case key.Matches(msg, Keys.LastPage):
		_ = r.nav.GoToPage(r.nav.Snapshot().PageCount)
		return r.renderVisible()

	case key.Matches(msg, Keys.Chapters):
		r.openSheet()
		return nil

	case key.Matches(msg, Keys.Translator):
		if err := r.nav.CycleTranslator(); err != nil {
			r.status = err.Error()
			return nil
		}
		r.refreshSheet()
		if t := r.nav.Snapshot().Translator; t != nil {
			r.status = "Translator: " + t.Name
		}
		return nil

	case key.Matches(msg, Keys.Mode):
		r.settings = r.settings.ToggleMode()
		r.status = "Reading mode: " + string(r.settings.Mode)
		return r.renderVisible()

	case key.Matches(msg, Keys.OpenPage):
		if r.launcher == nil {
			return nil
		}
		if snap := r.nav.Snapshot(); snap.Page != nil {
			return LaunchPageCmd(r.launcher, *snap.Page)
		}
		return nil

	case key.Matches(msg, Keys.Retry):
		if snap := r.nav.Snapshot(); snap.Page != nil {
			delete(r.renderErr, snap.Page.ImageURL)
		}
		return r.after(r.nav.Retry())
	}
	return nil
}

func (r *ReaderScreen) updateSheet(msg tea.KeyMsg) tea.Cmd {
	if !r.sheet.IsFilterTyping() {
		switch {
		case key.Matches(msg, Keys.Enter):
			item := r.sheet.Selected()
			if item == nil {
				return nil
			}
			req, err := r.nav.SelectChapter(item.GetID())
			if err != nil {
				r.status = err.Error()
				return nil
			}
			r.sheetOpen = false
			return r.after(req)

		case key.Matches(msg, Keys.Chapters), key.Matches(msg, Keys.Back) && !r.sheet.IsFiltering():
			r.sheetOpen = false
			return nil

		case key.Matches(msg, Keys.Translator):
			if err := r.nav.CycleTranslator(); err != nil {
				r.status = err.Error()
				return nil
			}
			r.refreshSheet()
			return nil
		}
	}
	return r.sheet.Update(msg)
}

// after issues the fetch for req, if any, and renders what became visible
func (r *ReaderScreen) after(req *reader.PageRequest) tea.Cmd {
	return tea.Batch(FetchPagesCmd(r.nav, req), r.renderVisible())
}

func (r *ReaderScreen) openSheet() {
	r.refreshSheet()
	r.sheetOpen = true
}

func (r *ReaderScreen) refreshSheet() {
	snap := r.nav.Snapshot()
	items := make([]domain.ListItem, len(snap.Chapters))
	for i, c := range snap.Chapters {
		items[i] = c
	}
	title := "Chapters"
	if snap.Translator != nil {
		title = "Chapters · " + snap.Translator.Name
	}
	r.sheet.SetTitle(title)
	r.sheet.SetItems(items)
	r.sheet.SetMarked(snap.Session.ChapterID)
	r.sheet.Select(snap.Session.ChapterID)
}

// visiblePages returns the pages the body shows, starting at the current
// page. Vertical mode keeps adding rendered pages until the viewport is full;
// horizontal mode shows exactly one page.
func (r *ReaderScreen) visiblePages(snap reader.Snapshot) []domain.Page {
	if snap.State != reader.StateReady || snap.Page == nil {
		return nil
	}
	start := snap.Session.PageIndex - 1
	if r.settings.Mode == domain.ModeHorizontal {
		return snap.Pages[start : start+1]
	}

	opts := r.renderOptions()
	remaining := r.bodyHeight()
	var out []domain.Page
	for _, p := range snap.Pages[start:] {
		out = append(out, p)
		art, ok := r.renderer.Cached(p.ImageURL, opts)
		if !ok {
			break
		}
		remaining -= lipgloss.Height(art) + 1
		if remaining <= 0 {
			break
		}
	}
	return out
}

// renderVisible requests renders for visible pages that are not cached yet
func (r *ReaderScreen) renderVisible() tea.Cmd {
	if r.width == 0 || r.height == 0 {
		return nil
	}

	opts := r.renderOptions()
	var cmds []tea.Cmd
	for _, p := range r.visiblePages(r.nav.Snapshot()) {
		if _, ok := r.renderer.Cached(p.ImageURL, opts); ok {
			continue
		}
		if r.pending[p.ImageURL] || r.renderErr[p.ImageURL] != nil {
			continue
		}
		r.pending[p.ImageURL] = true
		cmds = append(cmds, RenderPageCmd(r.renderer, p.ImageURL, opts))
	}
	return tea.Batch(cmds...)
}

// View renders the reader screen
func (r *ReaderScreen) View() string {
	snap := r.nav.Snapshot()

	body := r.renderBody(snap)
	if r.sheetOpen {
		body = lipgloss.Place(r.width, r.bodyHeight(), lipgloss.Center, lipgloss.Center,
			styles.SheetStyle.Render(r.sheet.View()))
	}

	return r.renderHeader(snap) + "\n" + body + "\n" + r.renderFooter(snap)
}

func (r *ReaderScreen) renderHeader(snap reader.Snapshot) string {
	parts := []string{styles.TitleStyle.Render(snap.Manga.Title)}
	if snap.Manga.Title == "" {
		parts[0] = styles.TitleStyle.Render(fmt.Sprintf("Manga %d", r.mangaID))
	}
	if snap.Chapter != nil {
		parts = append(parts, snap.Chapter.Label())
	}
	if snap.Translator != nil {
		parts = append(parts, styles.AccentStyle.Render(snap.Translator.Name))
	}
	line := strings.Join(parts, styles.DimStyle.Render(" · "))
	return styles.HeaderStyle.Width(max(r.width, 1)).Render(styles.Truncate(line, max(r.width-2, 1)))
}

func (r *ReaderScreen) renderFooter(snap reader.Snapshot) string {
	var left string
	switch {
	case r.status != "":
		left = styles.AccentStyle.Render(r.status)
	case snap.State == reader.StateReady && r.settings.ShowPageNumbers:
		left = fmt.Sprintf("%d/%d", snap.Session.PageIndex, snap.PageCount)
	}

	hints := []string{"←/→ page", "[/] chapter", "c chapters", "t translator", "m " + string(r.settings.Mode), "q back"}
	if snap.State == reader.StateError {
		hints = append([]string{"r retry"}, hints...)
	}
	right := styles.DimStyle.Render(strings.Join(hints, "  "))

	gap := max(r.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.FooterStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (r *ReaderScreen) renderBody(snap reader.Snapshot) string {
	height := r.bodyHeight()
	center := func(s string) string {
		return lipgloss.Place(r.width, height, lipgloss.Center, lipgloss.Center, s)
	}

	switch snap.State {
	case reader.StateIdle:
		return center(styles.DimStyle.Render("Press c to pick a chapter"))
	case reader.StateLoading:
		return center(styles.SpinnerStyle.Render(r.spinner) + " Loading...")
	case reader.StateError:
		msg := "Something went wrong"
		if snap.Err != nil {
			msg = snap.Err.Error()
		}
		return center(styles.ErrorStyle.Render(msg) + "\n\n" + styles.DimStyle.Render("Press r to retry"))
	case reader.StateEmpty:
		return center(styles.DimStyle.Render("No pages"))
	}

	opts := r.renderOptions()
	var blocks []string
	for _, p := range r.visiblePages(snap) {
		art, ok := r.renderer.Cached(p.ImageURL, opts)
		switch {
		case ok:
			blocks = append(blocks, lipgloss.PlaceHorizontal(r.width, lipgloss.Center, art))
		case r.renderErr[p.ImageURL] != nil:
			blocks = append(blocks, lipgloss.PlaceHorizontal(r.width, lipgloss.Center,
				styles.ErrorStyle.Render(fmt.Sprintf("Page %d: %v", p.Number, r.renderErr[p.ImageURL]))+
					styles.DimStyle.Render("  (r to retry)")))
		default:
			blocks = append(blocks, lipgloss.PlaceHorizontal(r.width, lipgloss.Center,
				styles.SpinnerStyle.Render(r.spinner)+fmt.Sprintf(" Page %d", p.Number)))
		}
	}

	lines := strings.Split(strings.Join(blocks, "\n\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
