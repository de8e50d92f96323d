package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalogue by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		results, err := a.library.Search(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		headerStyle := lipgloss.NewStyle().Foreground(styles.Sakura).Bold(true).Align(lipgloss.Center)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)

		t := ltable.New().
			Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == ltable.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("ID", "Title", "Type", "Rating")

		for _, m := range results {
			t.Row(fmt.Sprintf("%d", m.ID), styles.Truncate(m.Title, 50), m.Type.String(), m.FormattedRating())
		}

		fmt.Println(t)
		return nil
	}),
}

var infoCmd = &cobra.Command{
	Use:   "info [manga-id]",
	Short: "Show a manga with its translators and chapters",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		details, err := a.library.GetMangaDetails(ctx, mangaID)
		if err != nil {
			return err
		}
		fmt.Println(renderDetails(details))

		if target, ok := a.targets.LoadTarget(mangaID); ok {
			if ch, found := details.FindChapter(target.ChapterID); found {
				fmt.Printf("\n%s %s, page %d\n", styles.DimStyle.Render("Last read:"), ch.Label(), target.Page)
			}
		}
		return nil
	}),
}

func renderDetails(d *domain.MangaDetails) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(d.Title))
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", styles.DimStyle.Render(fmt.Sprintf("%-10s", label)), value)
	}
	field("Type", d.Type.String())
	field("Author", d.Author)
	field("Artist", d.Artist)
	field("Publisher", d.Publisher)
	field("Genres", d.GenreNames())
	field("Rating", d.FormattedRating())

	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(80).Render(d.Description))
		b.WriteString("\n")
	}

	chapters := append([]domain.Chapter(nil), d.Chapters...)
	domain.SortChapters(chapters)
	for _, tr := range d.Translators {
		var own []domain.Chapter
		for _, ch := range chapters {
			if ch.TranslatorID == tr.ID {
				own = append(own, ch)
			}
		}
		fmt.Fprintf(&b, "\n%s %s\n", styles.AccentStyle.Render(tr.Name), styles.DimStyle.Render(fmt.Sprintf("(%d chapters)", len(own))))
		for _, ch := range own {
			fmt.Fprintf(&b, "  %-8d %s\n", ch.ID, ch.Label())
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var rateCmd = &cobra.Command{
	Use:   "rate [manga-id] [1-5]",
	Short: "Rate a manga",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		value, err := parseID("rating", args[1])
		if err != nil {
			return err
		}

		user, err := a.session.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("rating needs a signed-in account, run 'tomodachi login': %w", err)
		}
		if err := a.library.Rate(ctx, mangaID, user.ID, value); err != nil {
			return err
		}
		fmt.Println(styles.SuccessStyle.Render(fmt.Sprintf("Rated manga %d with %d", mangaID, value)))
		return nil
	}),
}
