package tui

import (
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/reader"
	"github.com/ripper-jc/tomodachi-hub/internal/render"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// MangasLoadedMsg signals that a catalogue section has been loaded
type MangasLoadedMsg struct {
	Section domain.MangaSection
	Mangas  []domain.Manga
	Err     error
}

// OpenReaderMsg asks the app to open a manga in the reader
type OpenReaderMsg struct {
	Manga domain.Manga
}

// CloseReaderMsg asks the app to leave the reader
type CloseReaderMsg struct{}

// MangaOpenedMsg carries the outcome of Navigator.Open. Nav identifies the
// reader that issued it.
type MangaOpenedMsg struct {
	Nav     *reader.Navigator
	Request *reader.PageRequest
	Err     error
}

// PagesFetchedMsg carries a page fetch back to the navigator that issued it
type PagesFetchedMsg struct {
	Nav    *reader.Navigator
	Result reader.PageResult
}

// PageRenderedMsg signals that a page image has been rendered (or failed)
type PageRenderedMsg struct {
	URL  string
	Opts render.Options
	Err  error
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
