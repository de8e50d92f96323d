package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	exportChapters string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export [manga-id]",
	Short: "Save chapters as an EPUB",
	Long:  "Download the pages of the selected chapters and pack them into an EPUB. Without --chapters every chapter of the current translator is exported.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		chapterIDs, err := parseIDList("chapter id", exportChapters)
		if err != nil {
			return err
		}

		path, err := a.exporter.Export(ctx, mangaID, chapterIDs, exportOut, progressPrinter())
		fmt.Print(clearLine())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Println(styles.SuccessStyle.Render("Saved " + path))
		return nil
	}),
}

func init() {
	exportCmd.Flags().StringVar(&exportChapters, "chapters", "", "chapter ids, comma separated")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default is the manga title)")
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clearLine() string {
	if !isTerminal() {
		return ""
	}
	return "\r\033[K"
}

// progressPrinter redraws one progress line per page on a terminal
func progressPrinter() func(done, total int) {
	if !isTerminal() {
		return nil
	}
	return func(done, total int) {
		percent := float64(done) * 100 / float64(max(total, 1))
		fmt.Printf("\r%s %d/%d pages", styles.RenderProgressBar(percent, 30), done, total)
	}
}
