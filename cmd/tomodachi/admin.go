package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/ripper-jc/tomodachi-hub/internal/admin"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Translator and admin tasks",
	Long:  "Create, edit and delete manga, chapters, pages and genres. Needs a signed-in translator or admin account.",
}

var adminMangaCmd = &cobra.Command{Use: "manga", Short: "Manage manga"}
var adminChapterCmd = &cobra.Command{Use: "chapter", Short: "Manage chapters"}
var adminPagesCmd = &cobra.Command{Use: "pages", Short: "Manage chapter pages"}
var adminGenreCmd = &cobra.Command{Use: "genre", Short: "Manage genres"}

func done(format string, args ...any) {
	fmt.Println(styles.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// === Manga ===

var mangaFlags struct {
	team        int
	title       string
	author      string
	artist      string
	publisher   string
	description string
	kind        string
	genres      []int
	cover       string
}

func addMangaFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&mangaFlags.title, "title", "", "title")
	f.StringVar(&mangaFlags.author, "author", "", "author")
	f.StringVar(&mangaFlags.artist, "artist", "", "artist")
	f.StringVar(&mangaFlags.publisher, "publisher", "", "publisher")
	f.StringVar(&mangaFlags.description, "description", "", "description")
	f.StringVar(&mangaFlags.kind, "type", "manga", "manga, manhwa or manhua")
	f.IntSliceVar(&mangaFlags.genres, "genres", nil, "genre ids, comma separated")
}

var adminMangaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a manga for a translator team",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseMangaType(mangaFlags.kind)
		if err != nil {
			return err
		}
		draft := domain.MangaDraft{
			TeamID:      mangaFlags.team,
			Title:       mangaFlags.title,
			Author:      mangaFlags.author,
			Artist:      mangaFlags.artist,
			Publisher:   mangaFlags.publisher,
			Description: mangaFlags.description,
			Type:        kind,
			GenreIDs:    mangaFlags.genres,
		}

		if mangaFlags.cover != "" {
			files, err := admin.OpenImages([]string{mangaFlags.cover})
			if err != nil {
				return err
			}
			defer files.Close()
			draft.Cover = &files.Uploads[0]
		}

		if err := a.admin.CreateManga(ctx, draft); err != nil {
			return err
		}
		done("Created %q", draft.Title)
		return nil
	}),
}

var adminMangaUpdateCmd = &cobra.Command{
	Use:   "update [manga-id]",
	Short: "Edit a manga; fields without a flag keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		current, err := a.library.GetMangaDetails(ctx, mangaID)
		if err != nil {
			return err
		}

		draft, err := mergeMangaDraft(current.Manga, func(name string) bool { return cmd.Flags().Changed(name) })
		if err != nil {
			return err
		}
		if err := a.admin.UpdateManga(ctx, draft); err != nil {
			return err
		}
		done("Updated manga %d", mangaID)
		return nil
	}),
}

// mergeMangaDraft starts from the stored manga and applies the flags that
// were set on the command line
func mergeMangaDraft(m domain.Manga, changed func(string) bool) (domain.MangaDraft, error) {
	draft := domain.MangaDraft{
		ID:          m.ID,
		Title:       m.Title,
		Author:      m.Author,
		Artist:      m.Artist,
		Publisher:   m.Publisher,
		Description: m.Description,
		Type:        m.Type,
	}
	for _, g := range m.Genres {
		draft.GenreIDs = append(draft.GenreIDs, g.ID)
	}

	if changed("title") {
		draft.Title = mangaFlags.title
	}
	if changed("author") {
		draft.Author = mangaFlags.author
	}
	if changed("artist") {
		draft.Artist = mangaFlags.artist
	}
	if changed("publisher") {
		draft.Publisher = mangaFlags.publisher
	}
	if changed("description") {
		draft.Description = mangaFlags.description
	}
	if changed("genres") {
		draft.GenreIDs = mangaFlags.genres
	}
	if changed("type") {
		kind, err := domain.ParseMangaType(mangaFlags.kind)
		if err != nil {
			return draft, err
		}
		draft.Type = kind
	}
	return draft, nil
}

var adminMangaDeleteCmd = &cobra.Command{
	Use:   "delete [manga-id]",
	Short: "Delete a manga",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		if err := a.admin.DeleteManga(ctx, mangaID); err != nil {
			return err
		}
		done("Deleted manga %d", mangaID)
		return nil
	}),
}

var adminMangaCoverCmd = &cobra.Command{
	Use:   "cover [manga-id] [image]",
	Short: "Replace the cover image of a manga",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		files, err := admin.OpenImages(args[1:])
		if err != nil {
			return err
		}
		defer files.Close()

		if err := a.admin.UploadCover(ctx, mangaID, files.Uploads[0]); err != nil {
			return err
		}
		done("Uploaded cover for manga %d", mangaID)
		return nil
	}),
}

// === Chapters ===

var chapterFlags struct {
	manga  int
	team   int
	number float64
	title  string
	date   string
	sort   string
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must look like 2006-01-02, got %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}

var adminChapterListCmd = &cobra.Command{
	Use:   "list [manga-id]",
	Short: "List a team's chapters of a manga",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		mangaID, err := parseID("manga id", args[0])
		if err != nil {
			return err
		}
		by, err := admin.ParseChapterSort(chapterFlags.sort)
		if err != nil {
			return err
		}
		chapters, err := a.admin.ListChapters(ctx, mangaID, chapterFlags.team, by)
		if err != nil {
			return err
		}

		if len(chapters) == 0 {
			fmt.Println("No chapters.")
			return nil
		}

		columns := []table.Column{
			{Title: "ID", Width: 8},
			{Title: "Number", Width: 8},
			{Title: "Title", Width: 40},
			{Title: "Published", Width: 12},
		}
		rows := make([]table.Row, 0, len(chapters))
		for _, ch := range chapters {
			published := "-"
			if !ch.PublicationDate.IsZero() {
				published = ch.PublicationDate.Format(time.DateOnly)
			}
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", ch.ID),
				formatNumber(ch.Number),
				styles.Truncate(ch.Title, 38),
				published,
			})
		}
		fmt.Println(renderTable(columns, rows))
		return nil
	}),
}

var adminChapterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a chapter for a team",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		published, err := parseDate(chapterFlags.date)
		if err != nil {
			return err
		}
		draft := domain.ChapterDraft{
			MangaID:         chapterFlags.manga,
			TranslatorID:    chapterFlags.team,
			Number:          chapterFlags.number,
			Title:           chapterFlags.title,
			PublicationDate: published,
		}
		if err := a.admin.CreateChapter(ctx, draft); err != nil {
			return err
		}
		done("Created chapter %s", formatNumber(draft.Number))
		return nil
	}),
}

var adminChapterUpdateCmd = &cobra.Command{
	Use:   "update [chapter-id]",
	Short: "Change a chapter's number and title",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		chapterID, err := parseID("chapter id", args[0])
		if err != nil {
			return err
		}
		draft := domain.ChapterDraft{
			ID:      chapterID,
			MangaID: chapterFlags.manga,
			Number:  chapterFlags.number,
			Title:   chapterFlags.title,
		}
		if err := a.admin.UpdateChapter(ctx, draft); err != nil {
			return err
		}
		done("Updated chapter %d", chapterID)
		return nil
	}),
}

var adminChapterDeleteCmd = &cobra.Command{
	Use:   "delete [chapter-id]",
	Short: "Delete a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		chapterID, err := parseID("chapter id", args[0])
		if err != nil {
			return err
		}
		if err := a.admin.DeleteChapter(ctx, chapterFlags.manga, chapterID); err != nil {
			return err
		}
		done("Deleted chapter %d", chapterID)
		return nil
	}),
}

// === Pages ===

var adminPagesUploadCmd = &cobra.Command{
	Use:   "upload [image...]",
	Short: "Replace a chapter's pages with images in the given order",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		files, err := admin.OpenImages(args)
		if err != nil {
			return err
		}
		defer files.Close()

		upload := domain.PagesUpload{
			MangaID:      chapterFlags.manga,
			TranslatorID: chapterFlags.team,
			ChapterID:    pagesChapter,
			Files:        files.Uploads,
		}
		if err := a.admin.UploadPages(ctx, upload); err != nil {
			return err
		}
		done("Uploaded %d pages to chapter %d", len(files.Uploads), pagesChapter)
		return nil
	}),
}

var pagesChapter int

// === Genres ===

var adminGenreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List genres",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		genres, err := a.admin.ListGenres(ctx)
		if err != nil {
			return err
		}
		if len(genres) == 0 {
			fmt.Println("No genres.")
			return nil
		}

		columns := []table.Column{{Title: "ID", Width: 6}, {Title: "Name", Width: 30}}
		rows := make([]table.Row, len(genres))
		for i, g := range genres {
			rows[i] = table.Row{fmt.Sprintf("%d", g.ID), g.Name}
		}
		fmt.Println(renderTable(columns, rows))
		return nil
	}),
}

var adminGenreCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a genre",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.admin.CreateGenre(ctx, args[0]); err != nil {
			return err
		}
		done("Created genre %q", args[0])
		return nil
	}),
}

var adminGenreUpdateCmd = &cobra.Command{
	Use:   "update [genre-id] [name]",
	Short: "Rename a genre",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		genreID, err := parseID("genre id", args[0])
		if err != nil {
			return err
		}
		if err := a.admin.UpdateGenre(ctx, domain.Genre{ID: genreID, Name: args[1]}); err != nil {
			return err
		}
		done("Renamed genre %d to %q", genreID, args[1])
		return nil
	}),
}

var adminGenreDeleteCmd = &cobra.Command{
	Use:   "delete [genre-id]",
	Short: "Delete a genre",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		genreID, err := parseID("genre id", args[0])
		if err != nil {
			return err
		}
		if err := a.admin.DeleteGenre(ctx, genreID); err != nil {
			return err
		}
		done("Deleted genre %d", genreID)
		return nil
	}),
}

func init() {
	addMangaFlags(adminMangaCreateCmd)
	adminMangaCreateCmd.Flags().IntVar(&mangaFlags.team, "team", 0, "translator team id")
	adminMangaCreateCmd.Flags().StringVar(&mangaFlags.cover, "cover", "", "cover image file")
	addMangaFlags(adminMangaUpdateCmd)
	adminMangaCmd.AddCommand(adminMangaCreateCmd, adminMangaUpdateCmd, adminMangaDeleteCmd, adminMangaCoverCmd)

	adminChapterListCmd.Flags().IntVar(&chapterFlags.team, "team", 0, "translator team id")
	adminChapterListCmd.Flags().StringVar(&chapterFlags.sort, "sort", "number", "number, title, date or id")

	adminChapterCreateCmd.Flags().IntVar(&chapterFlags.manga, "manga", 0, "manga id")
	adminChapterCreateCmd.Flags().IntVar(&chapterFlags.team, "team", 0, "translator team id")
	adminChapterCreateCmd.Flags().Float64Var(&chapterFlags.number, "number", 0, "chapter number")
	adminChapterCreateCmd.Flags().StringVar(&chapterFlags.title, "title", "", "chapter title")
	adminChapterCreateCmd.Flags().StringVar(&chapterFlags.date, "date", "", "publication date, defaults to today")

	adminChapterUpdateCmd.Flags().IntVar(&chapterFlags.manga, "manga", 0, "manga id, narrows cache invalidation")
	adminChapterUpdateCmd.Flags().Float64Var(&chapterFlags.number, "number", 0, "chapter number")
	adminChapterUpdateCmd.Flags().StringVar(&chapterFlags.title, "title", "", "chapter title")

	adminChapterDeleteCmd.Flags().IntVar(&chapterFlags.manga, "manga", 0, "manga id, narrows cache invalidation")
	adminChapterCmd.AddCommand(adminChapterListCmd, adminChapterCreateCmd, adminChapterUpdateCmd, adminChapterDeleteCmd)

	adminPagesUploadCmd.Flags().IntVar(&chapterFlags.manga, "manga", 0, "manga id")
	adminPagesUploadCmd.Flags().IntVar(&chapterFlags.team, "team", 0, "translator team id")
	adminPagesUploadCmd.Flags().IntVar(&pagesChapter, "chapter", 0, "chapter id")
	adminPagesCmd.AddCommand(adminPagesUploadCmd)

	adminGenreCmd.AddCommand(adminGenreListCmd, adminGenreCreateCmd, adminGenreUpdateCmd, adminGenreDeleteCmd)

	adminCmd.AddCommand(adminMangaCmd, adminChapterCmd, adminPagesCmd, adminGenreCmd)
}
