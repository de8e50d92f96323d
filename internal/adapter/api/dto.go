package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// envelope is the wrapper every backend answer uses
type envelope[T any] struct {
	Value    T        `json:"value"`
	Status   int      `json:"status"`
	Success  *bool    `json:"success"`
	Errors   []string `json:"errors"`
	Messages []string `json:"messages"`
}

// decodeValue unwraps an envelope and checks the success flag
func decodeValue[T any](body []byte) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if env.Success == nil {
		var zero T
		return zero, fmt.Errorf("%w: missing success flag", domain.ErrMalformedResponse)
	}
	if !*env.Success {
		var zero T
		return zero, &domain.APIError{
			Status:   env.Status,
			Messages: append(env.Errors, env.Messages...),
			Err:      domain.ErrNetworkFailure,
		}
	}
	return env.Value, nil
}

// decodeAck accepts an empty body, a bare value or a successful envelope
func decodeAck(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil {
		return nil
	}
	if !*env.Success {
		return &domain.APIError{
			Status:   env.Status,
			Messages: append(env.Errors, env.Messages...),
			Err:      domain.ErrNetworkFailure,
		}
	}
	return nil
}

// envelopeMessages extracts server messages from an error body, if any
func envelopeMessages(body []byte) []string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	return append(env.Errors, env.Messages...)
}

type genreDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (d genreDTO) validate() error {
	if d.ID <= 0 || d.Name == "" {
		return fmt.Errorf("%w: genre needs id and name", domain.ErrMalformedResponse)
	}
	return nil
}

type mangaDTO struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Artist      string     `json:"artist"`
	Publisher   string     `json:"publisher"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	Type        int        `json:"type"`
	MangaGenres []genreDTO `json:"mangaGenres"`
	AvgRating   float64    `json:"avgRating"`
	CountRating int        `json:"countRating"`
}

func (d mangaDTO) validate(requireID bool) error {
	if requireID && d.ID <= 0 {
		return fmt.Errorf("%w: manga without id", domain.ErrMalformedResponse)
	}
	if d.Title == "" {
		return fmt.Errorf("%w: manga %d without title", domain.ErrMalformedResponse, d.ID)
	}
	for _, g := range d.MangaGenres {
		if err := g.validate(); err != nil {
			return err
		}
	}
	return nil
}

type chapterDTO struct {
	ChapterID             int     `json:"chapterId"`
	ID                    int     `json:"id"` // admin listing uses id
	MangaID               int     `json:"mangaId"`
	ChapterNumber         float64 `json:"chapterNumber"`
	TranslatorMangaTeamID int     `json:"translatorMangaTeamId"`
	Title                 string  `json:"title"`
	PublicationDate       string  `json:"publicationDate"`
}

func (d chapterDTO) id() int {
	if d.ChapterID > 0 {
		return d.ChapterID
	}
	return d.ID
}

func (d chapterDTO) validate() error {
	if d.id() <= 0 {
		return fmt.Errorf("%w: chapter without id", domain.ErrMalformedResponse)
	}
	if d.ChapterNumber < 0 {
		return fmt.Errorf("%w: chapter %d has negative number", domain.ErrMalformedResponse, d.id())
	}
	return nil
}

type translatorDTO struct {
	TranslatorMangaTeamID int     `json:"translatorMangaTeamId"`
	Name                  string  `json:"name"`
	Description           *string `json:"description"`
	MainPhotoID           *string `json:"mainPhotoId"`
}

func (d translatorDTO) validate() error {
	if d.TranslatorMangaTeamID <= 0 {
		return fmt.Errorf("%w: translator without id", domain.ErrMalformedResponse)
	}
	return nil
}

type mangaDetailsDTO struct {
	mangaDTO
	Chapters    []chapterDTO    `json:"chapters"`
	Translators []translatorDTO `json:"translators"`
}

type pageDTO struct {
	ID         int    `json:"id"`
	ChapterID  int    `json:"chapterId"`
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
	URL        string `json:"url"`
}

type pagesDTO struct {
	Pages *[]pageDTO `json:"pages"`
}

type userDTO struct {
	ID       int      `json:"id"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// === Mapping ===

func mapGenres(dtos []genreDTO) ([]domain.Genre, error) {
	genres := make([]domain.Genre, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			return nil, err
		}
		genres = append(genres, domain.Genre{ID: d.ID, Name: d.Name})
	}
	return genres, nil
}

func mapManga(d mangaDTO) domain.Manga {
	genres := make([]domain.Genre, len(d.MangaGenres))
	for i, g := range d.MangaGenres {
		genres[i] = domain.Genre{ID: g.ID, Name: g.Name}
	}
	return domain.Manga{
		ID:          d.ID,
		Title:       d.Title,
		Author:      d.Author,
		Artist:      d.Artist,
		Publisher:   d.Publisher,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Type:        domain.MangaType(d.Type),
		Genres:      genres,
		AvgRating:   d.AvgRating,
		CountRating: d.CountRating,
	}
}

func mapMangas(dtos []mangaDTO) ([]domain.Manga, error) {
	mangas := make([]domain.Manga, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(true); err != nil {
			return nil, err
		}
		mangas = append(mangas, mapManga(d))
	}
	return mangas, nil
}

// mapChapters converts chapters, filling manga and team ids the endpoint
// implies but may omit
func mapChapters(dtos []chapterDTO, mangaID, teamID int) ([]domain.Chapter, error) {
	chapters := make([]domain.Chapter, 0, len(dtos))
	seen := make(map[int]bool, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if seen[d.id()] {
			return nil, fmt.Errorf("%w: duplicate chapter %d", domain.ErrMalformedResponse, d.id())
		}
		seen[d.id()] = true

		ch := domain.Chapter{
			ID:              d.id(),
			MangaID:         d.MangaID,
			Number:          d.ChapterNumber,
			TranslatorID:    d.TranslatorMangaTeamID,
			Title:           d.Title,
			PublicationDate: parseDate(d.PublicationDate),
		}
		if ch.MangaID == 0 {
			ch.MangaID = mangaID
		}
		if ch.TranslatorID == 0 {
			ch.TranslatorID = teamID
		}
		if ch.TranslatorID <= 0 {
			return nil, fmt.Errorf("%w: chapter %d without translator team", domain.ErrMalformedResponse, ch.ID)
		}
		chapters = append(chapters, ch)
	}
	domain.SortChapters(chapters)
	return chapters, nil
}

// mapMangaDetails validates and converts a details answer. The endpoint does
// not echo the id, so the requested one is used.
func mapMangaDetails(d mangaDetailsDTO, mangaID int) (*domain.MangaDetails, error) {
	if err := d.mangaDTO.validate(false); err != nil {
		return nil, err
	}
	chapters, err := mapChapters(d.Chapters, mangaID, 0)
	if err != nil {
		return nil, err
	}

	translators := make([]domain.Translator, 0, len(d.Translators))
	for _, t := range d.Translators {
		if err := t.validate(); err != nil {
			return nil, err
		}
		tr := domain.Translator{ID: t.TranslatorMangaTeamID, Name: t.Name}
		if t.Description != nil {
			tr.Description = *t.Description
		}
		if t.MainPhotoID != nil {
			tr.MainPhotoID = *t.MainPhotoID
		}
		translators = append(translators, tr)
	}

	details := &domain.MangaDetails{
		Manga:       mapManga(d.mangaDTO),
		Chapters:    chapters,
		Translators: translators,
	}
	details.ID = mangaID
	return details, nil
}

// mapPages validates a page list: every page needs an image, numbers must be
// 1..n without gaps or duplicates. Pages are returned in reading order.
func mapPages(d pagesDTO, chapterID int) ([]domain.Page, error) {
	if d.Pages == nil {
		return nil, fmt.Errorf("%w: missing pages", domain.ErrMalformedResponse)
	}

	pages := make([]domain.Page, 0, len(*d.Pages))
	for _, p := range *d.Pages {
		img := p.ImageURL
		if img == "" {
			img = p.URL
		}
		if img == "" {
			return nil, fmt.Errorf("%w: page %d without image", domain.ErrMalformedResponse, p.PageNumber)
		}
		if p.ChapterID != 0 && p.ChapterID != chapterID {
			return nil, fmt.Errorf("%w: page %d belongs to chapter %d", domain.ErrMalformedResponse, p.PageNumber, p.ChapterID)
		}
		pages = append(pages, domain.Page{
			ID:        p.ID,
			ChapterID: chapterID,
			Number:    p.PageNumber,
			ImageURL:  img,
		})
	}

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	for i, p := range pages {
		if p.Number != i+1 {
			return nil, fmt.Errorf("%w: page numbers are not contiguous at %d", domain.ErrMalformedResponse, p.Number)
		}
	}
	return pages, nil
}

func mapUser(d userDTO) (*domain.User, error) {
	if d.ID <= 0 && d.UserName == "" {
		return nil, fmt.Errorf("%w: user without id", domain.ErrMalformedResponse)
	}
	return &domain.User{ID: d.ID, UserName: d.UserName, Email: d.Email, Roles: d.Roles}, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts the timestamp shapes the backend emits; unknown shapes are zero
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
