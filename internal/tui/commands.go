package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
)

// Command factories for async operations

// Catalogue lists manga for the library screen
type Catalogue interface {
	ListMangas(ctx context.Context, filter domain.MangaFilter) ([]domain.Manga, error)
}

// PageRenderer turns page URLs into terminal art
type PageRenderer interface {
	Render(ctx context.Context, url string, opts render.Options) (string, error)
	Cached(url string, opts render.Options) (string, bool)
}

// Launcher opens a page image outside the terminal
type Launcher interface {
	Launch(url string) error
}

// LoadMangasCmd loads the first page of a catalogue section
func LoadMangasCmd(svc Catalogue, section domain.MangaSection, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		mangas, err := svc.ListMangas(ctx, domain.MangaFilter{Section: section, Page: 1, PageSize: pageSize})
		return MangasLoadedMsg{Section: section, Mangas: mangas, Err: err}
	}
}

// OpenMangaCmd resolves a manga and seeds the reading session
func OpenMangaCmd(nav *reader.Navigator, mangaID int, target *domain.NavTarget) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		req, err := nav.Open(ctx, mangaID, target)
		return MangaOpenedMsg{Nav: nav, Request: req, Err: err}
	}
}

// FetchPagesCmd runs a page request off the UI goroutine. The result is
// committed by the reader when it arrives.
func FetchPagesCmd(nav *reader.Navigator, req *reader.PageRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	r := *req
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return PagesFetchedMsg{Nav: nav, Result: nav.Fetch(ctx, r)}
	}
}

// RenderPageCmd downloads and renders one page image
func RenderPageCmd(renderer PageRenderer, url string, opts render.Options) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		_, err := renderer.Render(ctx, url, opts)
		return PageRenderedMsg{URL: url, Opts: opts, Err: err}
	}
}

// LaunchPageCmd opens a page in the external viewer
func LaunchPageCmd(launcher Launcher, page domain.Page) tea.Cmd {
	return func() tea.Msg {
		if err := launcher.Launch(page.ImageURL); err != nil {
			return StatusMsg{Message: err.Error(), IsError: true}
		}
		return StatusMsg{Message: fmt.Sprintf("Opened page %d in viewer", page.Number)}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// statusCmd emits a StatusMsg for the app to show
func statusCmd(message string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Message: message, IsError: isErr}
	}
}
