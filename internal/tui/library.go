package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/components"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
)

// librarySections are the tabs of the library screen, in order
var librarySections = []domain.MangaSection{
	domain.SectionNew,
	domain.SectionUpdated,
	domain.SectionPopular,
}

func sectionTitle(s domain.MangaSection) string {
	switch s {
	case domain.SectionNew:
		return "New"
	case domain.SectionUpdated:
		return "Updated"
	case domain.SectionPopular:
		return "Popular"
	default:
		return "All"
	}
}

// LibraryScreen lists the catalogue with one tab per section
type LibraryScreen struct {
	catalogue Catalogue
	pageSize  int

	active int
	lists  map[domain.MangaSection]*components.List
	loaded map[domain.MangaSection]bool

	width  int
	height int
}

// NewLibraryScreen creates the library screen opened on section
func NewLibraryScreen(catalogue Catalogue, section domain.MangaSection, pageSize int) *LibraryScreen {
	s := &LibraryScreen{
		catalogue: catalogue,
		pageSize:  pageSize,
		lists:     make(map[domain.MangaSection]*components.List),
		loaded:    make(map[domain.MangaSection]bool),
	}
	for i, sec := range librarySections {
		l := components.NewList(sectionTitle(sec))
		l.SetEmptyText("No manga")
		s.lists[sec] = l
		if sec == section {
			s.active = i
		}
	}
	return s
}

// Init loads the active section
func (s *LibraryScreen) Init() tea.Cmd {
	return s.load(false)
}

// Section returns the active section
func (s *LibraryScreen) Section() domain.MangaSection {
	return librarySections[s.active]
}

func (s *LibraryScreen) list() *components.List {
	return s.lists[s.Section()]
}

func (s *LibraryScreen) load(force bool) tea.Cmd {
	sec := s.Section()
	if s.loaded[sec] && !force {
		return nil
	}
	s.lists[sec].SetLoading(true)
	return LoadMangasCmd(s.catalogue, sec, s.pageSize)
}

// SetSize sets the screen size
func (s *LibraryScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	// tabs line + blank line
	for _, l := range s.lists {
		l.SetSize(width, max(height-2, 1))
	}
}

// SetSpinner forwards the spinner frame to loading lists
func (s *LibraryScreen) SetSpinner(frame string) {
	for _, l := range s.lists {
		l.SetSpinner(frame)
	}
}

// Filtering reports whether the filter input owns the keyboard
func (s *LibraryScreen) Filtering() bool {
	return s.list().IsFilterTyping()
}

// Update handles messages for the library screen
func (s *LibraryScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case MangasLoadedMsg:
		l, ok := s.lists[msg.Section]
		if !ok {
			return nil
		}
		l.SetLoading(false)
		if msg.Err != nil {
			l.SetItems(nil)
			l.SetEmptyText("Failed to load: " + msg.Err.Error())
			return statusCmd("loading "+strings.ToLower(sectionTitle(msg.Section))+": "+msg.Err.Error(), true)
		}
		items := make([]domain.ListItem, len(msg.Mangas))
		for i, m := range msg.Mangas {
			items[i] = m
		}
		l.SetEmptyText("No manga")
		l.SetItems(items)
		s.loaded[msg.Section] = true
		return nil

	case tea.KeyMsg:
		l := s.list()
		if l.IsFilterTyping() {
			return l.Update(msg)
		}

		switch {
		case key.Matches(msg, Keys.Enter):
			if m, ok := l.Selected().(domain.Manga); ok {
				return func() tea.Msg { return OpenReaderMsg{Manga: m} }
			}
			return nil
		case key.Matches(msg, Keys.NextTab):
			s.active = (s.active + 1) % len(librarySections)
			return s.load(false)
		case key.Matches(msg, Keys.PrevTab):
			s.active = (s.active + len(librarySections) - 1) % len(librarySections)
			return s.load(false)
		case key.Matches(msg, Keys.Refresh):
			return s.load(true)
		}
		return l.Update(msg)
	}

	return s.list().Update(msg)
}

// View renders the library screen
func (s *LibraryScreen) View() string {
	tabs := make([]string, len(librarySections))
	for i, sec := range librarySections {
		style := styles.InactiveTabStyle
		if i == s.active {
			style = styles.ActiveTabStyle
		}
		tabs[i] = style.Render(sectionTitle(sec))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n" + s.list().View()
}
