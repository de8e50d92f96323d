package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
)

// ApplicationState represents the active screen
type ApplicationState int

const (
	StateLibrary ApplicationState = iota
	StateReader
	StateHelp
)

// Deps are the services the TUI drives
type Deps struct {
	Catalogue Catalogue
	Source    domain.ChapterSource
	Cache     domain.Cache
	Targets   domain.TargetStore
	Renderer  PageRenderer
	Launcher  Launcher
	Settings  domain.ReaderSettings
	PageSize  int
	Section   domain.MangaSection
	Logger    *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State     ApplicationState
	prevState ApplicationState
	Ready     bool

	deps Deps

	Library *LibraryScreen
	Reader  *ReaderScreen

	// standalone readers quit instead of returning to the library
	standalone bool

	spinner spinner.Model

	Width  int
	Height int

	StatusMsg   string
	StatusIsErr bool
}

func newModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 20
	}
	if deps.Section == "" {
		deps.Section = domain.SectionPopular
	}
	return Model{
		deps: deps,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(styles.SpinnerStyle),
		),
	}
}

// NewLibraryModel creates the app opened on the library screen
func NewLibraryModel(deps Deps) Model {
	m := newModel(deps)
	m.State = StateLibrary
	m.Library = NewLibraryScreen(deps.Catalogue, m.deps.Section, m.deps.PageSize)
	return m
}

// NewReaderModel creates the app opened straight into the reader. A nil
// target resumes from the stored position.
func NewReaderModel(deps Deps, mangaID int, target *domain.NavTarget) Model {
	m := newModel(deps)
	m.State = StateReader
	m.standalone = true
	m.Reader = m.newReader(mangaID, target)
	return m
}

func (m Model) newReader(mangaID int, target *domain.NavTarget) *ReaderScreen {
	nav := reader.NewNavigator(m.deps.Source, m.deps.Cache, m.deps.Targets, m.deps.Logger)
	r := NewReaderScreen(nav, m.deps.Renderer, m.deps.Settings, mangaID, target)
	if m.deps.Launcher != nil {
		r.SetLauncher(m.deps.Launcher)
	}
	if m.Ready {
		r.SetSize(m.Width, m.contentHeight())
	}
	return r
}

// Run starts the program and blocks until it exits. The final model is
// returned so callers can persist what changed.
func Run(m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// Settings returns the reader settings in effect, including toggles made
// in an open reader
func (m Model) Settings() domain.ReaderSettings {
	if m.Reader != nil {
		return m.Reader.Settings()
	}
	return m.deps.Settings
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	switch {
	case m.Reader != nil:
		cmds = append(cmds, m.Reader.Init())
	case m.Library != nil:
		cmds = append(cmds, m.Library.Init())
	}
	return tea.Batch(cmds...)
}

// contentHeight leaves one line for the status bar
func (m Model) contentHeight() int {
	return max(m.Height-1, 1)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		if m.Library != nil {
			m.Library.SetSize(m.Width, m.contentHeight())
		}
		if m.Reader != nil {
			m.Reader.SetSize(m.Width, m.contentHeight())
			return m, m.Reader.Update(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		frame := m.spinner.View()
		if m.Library != nil {
			m.Library.SetSpinner(frame)
		}
		if m.Reader != nil {
			m.Reader.SetSpinner(frame)
		}
		return m, cmd

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		if msg.IsError {
			m.deps.Logger.Error("tui error", "message", msg.Message)
		}
		return m, ClearStatusCmd(4 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case ErrMsg:
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, ClearStatusCmd(4 * time.Second)

	case OpenReaderMsg:
		m.Reader = m.newReader(msg.Manga.ID, nil)
		m.State = StateReader
		return m, m.Reader.Init()

	case CloseReaderMsg:
		if m.standalone || m.Library == nil {
			return m, tea.Quit
		}
		m.deps.Settings = m.Reader.Settings()
		m.Reader = nil
		m.State = StateLibrary
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, m.forward(msg)
}

// forward routes a message to every live screen. Async results carry enough
// identity for screens to ignore what is not theirs.
func (m Model) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if m.Library != nil {
		cmds = append(cmds, m.Library.Update(msg))
	}
	if m.Reader != nil {
		cmds = append(cmds, m.Reader.Update(msg))
	}
	return tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Quit) {
		return m, tea.Quit
	}

	if m.State == StateHelp {
		m.State = m.prevState
		return m, nil
	}

	typing := (m.State == StateLibrary && m.Library.Filtering()) ||
		(m.State == StateReader && m.Reader.Filtering())
	if !typing && key.Matches(msg, Keys.Help) {
		m.prevState = m.State
		m.State = StateHelp
		return m, nil
	}

	switch m.State {
	case StateLibrary:
		if !typing && key.Matches(msg, Keys.Back) && !m.Library.list().IsFiltering() {
			return m, tea.Quit
		}
		return m, m.Library.Update(msg)
	case StateReader:
		return m, m.Reader.Update(msg)
	}
	return m, nil
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var content string
	switch m.State {
	case StateHelp:
		content = m.renderHelp()
	case StateReader:
		content = m.Reader.View()
	default:
		content = m.Library.View()
	}

	content = lipgloss.NewStyle().Height(m.contentHeight()).MaxHeight(m.contentHeight()).Render(content)
	return content + "\n" + m.renderStatusBar()
}

func (m Model) renderStatusBar() string {
	if m.StatusMsg == "" {
		return styles.DimStyle.Render("? help")
	}
	style := styles.SuccessStyle
	if m.StatusIsErr {
		style = styles.ErrorStyle
	}
	return style.Render(styles.Truncate(m.StatusMsg, max(m.Width, 1)))
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
LIBRARY                         READER
  j/k        Up/down              →/l/space  Next page
  g/G        First/last item      ←/h        Previous page
  tab/S-tab  Switch section       ]/[        Next/previous chapter
  /          Filter               g/G        First/last page
  enter      Read                 c          Chapter list
  r          Refresh              t          Next translator
  q          Quit                 m          Vertical/horizontal
                                  o          Open in viewer
                                  r          Retry
                                  q          Back

Press any key to return...
`

	return lipgloss.Place(m.Width, m.contentHeight(),
		lipgloss.Center, lipgloss.Center,
		styles.SheetStyle.Render(help))
}
