package main

import (
	"context"
	"fmt"

	"github.com/ripper-jc/tomodachi-hub/internal/adapter"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalogue",
	Long:  "Open the library screen with the new, updated and popular sections",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

var (
	readChapter int
	readPage    int
)

var readCmd = &cobra.Command{
	Use:   "read [manga-id]",
	Short: "Read a manga",
	Long:  "Open the reader on a manga. Without --chapter the last stored position is resumed.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		target, err := readTarget(mangaID, readChapter, readPage)
		if err != nil {
			return err
		}
		return runTUI(a, tui.NewReaderModel(a.tuiDeps(), mangaID, target))
	}),
}

func init() {
	readCmd.Flags().IntVar(&readChapter, "chapter", 0, "chapter id to open")
	readCmd.Flags().IntVar(&readPage, "page", 0, "page number within the chapter (-1 for the last page)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		return runTUI(a, tui.NewLibraryModel(a.tuiDeps()))
	})(cmd, args)
}

// readTarget builds the navigation target from flags. A nil target lets the
// reader resume from the stored position.
func readTarget(mangaID, chapterID, page int) (*domain.NavTarget, error) {
	if chapterID == 0 {
		if page != 0 {
			return nil, fmt.Errorf("%w: --page needs --chapter", domain.ErrInvalidInput)
		}
		return nil, nil
	}
	if chapterID < 0 {
		return nil, fmt.Errorf("%w: chapter id must be positive", domain.ErrInvalidInput)
	}
	if page == 0 {
		page = 1
	}
	if page < -1 {
		return nil, fmt.Errorf("%w: page must be positive or -1", domain.ErrInvalidInput)
	}
	return &domain.NavTarget{MangaID: mangaID, ChapterID: chapterID, Page: page}, nil
}

func (a *app) tuiDeps() tui.Deps {
	return tui.Deps{
		Catalogue: a.library,
		Source:    a.client,
		Cache:     a.cache,
		Targets:   a.targets,
		Renderer:  a.renderer,
		Launcher:  adapter.NewLauncher(a.cfg.Viewer.Command, a.cfg.Viewer.Args, a.logger),
		Settings:  a.cfg.Reader,
		PageSize:  a.cfg.UI.PageSize,
		Section:   domain.MangaSection(a.cfg.UI.DefaultSection),
		Logger:    a.logger,
	}
}

// runTUI runs the program and keeps reader setting changes for next time
func runTUI(a *app, m tui.Model) error {
	a.logger.Info("starting TUI")
	final, err := tui.Run(m)
	if err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if settings := final.Settings(); settings != a.cfg.Reader {
		if err := adapter.SaveReaderSettings(adapter.ConfigFilePath(), settings); err != nil {
			a.logger.Error("failed to save reader settings", "error", err)
		}
	}
	a.logger.Info("shutting down")
	return nil
}
