package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// form accumulates a multipart body in memory so it can be replayed
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) file(name string, up domain.Upload) {
	if f.err != nil {
		return
	}
	part, err := f.w.CreateFormFile(name, filepath.Base(up.Name))
	if err != nil {
		f.err = err
		return
	}
	_, f.err = io.Copy(part, up.Reader)
}

func (f *form) finish() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return f.buf.Bytes(), f.w.FormDataContentType(), nil
}

// mutate issues a write and checks the acknowledgement
func (c *Client) mutate(ctx context.Context, method, path string, body []byte, contentType string) error {
	resp, err := c.do(ctx, request{method: method, path: path, body: body, contentType: contentType})
	if err != nil {
		return err
	}
	return decodeAck(resp)
}

func (c *Client) mutateJSON(ctx context.Context, method, path string, payload any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = data
	}
	return c.mutate(ctx, method, path, body, contentJSON)
}

// === Manga ===

func (c *Client) CreateManga(ctx context.Context, draft domain.MangaDraft) error {
	f := newForm()
	f.field("Title", draft.Title)
	f.field("Author", draft.Author)
	f.field("Description", draft.Description)
	f.field("Type", strconv.Itoa(int(draft.Type)))
	for _, id := range draft.GenreIDs {
		f.field("GenreIds", strconv.Itoa(id))
	}
	f.field("Publisher", draft.Publisher)
	f.field("Artist", draft.Artist)
	if draft.Cover != nil {
		f.file("File", *draft.Cover)
	}
	body, contentType, err := f.finish()
	if err != nil {
		return fmt.Errorf("build manga form: %w", err)
	}
	return c.mutate(ctx, http.MethodPost, fmt.Sprintf("/api/translators/%d/mangas", draft.TeamID), body, contentType)
}

func (c *Client) UpdateManga(ctx context.Context, draft domain.MangaDraft) error {
	return c.mutateJSON(ctx, http.MethodPut, "/api/translators/mangas", map[string]any{
		"id":          draft.ID,
		"title":       draft.Title,
		"author":      draft.Author,
		"description": draft.Description,
		"type":        int(draft.Type),
		"publisher":   draft.Publisher,
		"artist":      draft.Artist,
	})
}

func (c *Client) DeleteManga(ctx context.Context, mangaID int) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/api/translators/mangas/%d", mangaID), nil, "")
}

func (c *Client) UploadMangaCover(ctx context.Context, mangaID int, cover domain.Upload) error {
	f := newForm()
	f.file("File", cover)
	body, contentType, err := f.finish()
	if err != nil {
		return fmt.Errorf("build cover form: %w", err)
	}
	return c.mutate(ctx, http.MethodPost, fmt.Sprintf("/api/translators/%d/upload-photo", mangaID), body, contentType)
}

// === Chapters ===

func (c *Client) ListChapters(ctx context.Context, mangaID, translatorID int) ([]domain.Chapter, error) {
	path := fmt.Sprintf("/api/app/mangas/%d/translator-manga-teams/%d/chapters", mangaID, translatorID)
	body, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	dtos, err := decodeValue[[]chapterDTO](body)
	if err != nil {
		return nil, err
	}
	return mapChapters(dtos, mangaID, translatorID)
}

func (c *Client) CreateChapter(ctx context.Context, draft domain.ChapterDraft) error {
	published := draft.PublicationDate
	if published.IsZero() {
		published = time.Now()
	}
	return c.mutateJSON(ctx, http.MethodPost, "/api/translators/mangas/chapters", map[string]any{
		"mangaId":               draft.MangaID,
		"chapterNumber":         draft.Number,
		"translatorMangaTeamId": draft.TranslatorID,
		"title":                 draft.Title,
		"publicationDate":       published.UTC().Format(time.RFC3339),
	})
}

func (c *Client) UpdateChapter(ctx context.Context, draft domain.ChapterDraft) error {
	return c.mutateJSON(ctx, http.MethodPut, "/api/translators/mangas/chapters", map[string]any{
		"id":            draft.ID,
		"chapterNumber": draft.Number,
		"title":         draft.Title,
	})
}

func (c *Client) DeleteChapter(ctx context.Context, chapterID int) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/api/translators/mangas/chapters/%d", chapterID), nil, "")
}

// === Pages ===

// UploadPages sends the files as pages 1..n in the given order
func (c *Client) UploadPages(ctx context.Context, upload domain.PagesUpload) error {
	f := newForm()
	f.field("MangaId", strconv.Itoa(upload.MangaID))
	f.field("TranslatorId", strconv.Itoa(upload.TranslatorID))
	f.field("ChapterId", strconv.Itoa(upload.ChapterID))
	for i, file := range upload.Files {
		f.field(fmt.Sprintf("Pages[%d].pageNumber", i), strconv.Itoa(i+1))
		f.file(fmt.Sprintf("Pages[%d].file", i), file)
	}
	body, contentType, err := f.finish()
	if err != nil {
		return fmt.Errorf("build pages form: %w", err)
	}
	return c.mutate(ctx, http.MethodPost, "/api/translators/mangas/chapters/pages", body, contentType)
}

// === Genres ===

func (c *Client) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/api/genres"})
	if err != nil {
		return nil, err
	}
	dtos, err := decodeValue[[]genreDTO](body)
	if err != nil {
		return nil, err
	}
	return mapGenres(dtos)
}

func (c *Client) CreateGenre(ctx context.Context, name string) error {
	return c.mutateJSON(ctx, http.MethodPost, "/api/genres", map[string]string{"name": name})
}

func (c *Client) UpdateGenre(ctx context.Context, genre domain.Genre) error {
	return c.mutateJSON(ctx, http.MethodPut, "/api/genres", map[string]any{"id": genre.ID, "name": genre.Name})
}

// DeleteGenre sends the id in the body, as the endpoint expects
func (c *Client) DeleteGenre(ctx context.Context, genreID int) error {
	return c.mutateJSON(ctx, http.MethodDelete, "/api/genres", map[string]int{"id": genreID})
}

var _ domain.AdminRepository = (*Client)(nil)
