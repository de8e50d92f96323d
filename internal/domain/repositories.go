package domain

import (
	"context"
	"io"
	"time"
)

// ChapterSource resolves what the reader needs to display a manga
type ChapterSource interface {
	// GetMangaDetails returns the manga with its chapters and translator teams
	GetMangaDetails(ctx context.Context, mangaID int) (*MangaDetails, error)

	// GetChapterPages returns the pages of a chapter ordered by page number
	GetChapterPages(ctx context.Context, chapterID int) ([]Page, error)
}

// MangaRepository provides read access to the catalogue plus ratings
type MangaRepository interface {
	ChapterSource

	// ListMangas returns one page of a catalogue section
	ListMangas(ctx context.Context, filter MangaFilter) ([]Manga, error)

	// RateManga submits a 1-5 rating on behalf of a user
	RateManga(ctx context.Context, mangaID, userID, value int) error
}

// Upload is a file sent as a multipart part
type Upload struct {
	Name   string
	Reader io.Reader
}

// MangaDraft carries the editable manga fields
type MangaDraft struct {
	ID          int
	TeamID      int
	Title       string
	Author      string
	Artist      string
	Publisher   string
	Description string
	Type        MangaType
	GenreIDs    []int
	Cover       *Upload
}

// ChapterDraft carries the editable chapter fields
type ChapterDraft struct {
	ID              int
	MangaID         int
	TranslatorID    int
	Number          float64
	Title           string
	PublicationDate time.Time
}

// PagesUpload is a batch of page images for one chapter, in reading order
type PagesUpload struct {
	MangaID      int
	TranslatorID int
	ChapterID    int
	Files        []Upload
}

// AdminRepository issues translator/admin mutations
type AdminRepository interface {
	CreateManga(ctx context.Context, draft MangaDraft) error
	UpdateManga(ctx context.Context, draft MangaDraft) error
	DeleteManga(ctx context.Context, mangaID int) error
	UploadMangaCover(ctx context.Context, mangaID int, cover Upload) error

	ListChapters(ctx context.Context, mangaID, translatorID int) ([]Chapter, error)
	CreateChapter(ctx context.Context, draft ChapterDraft) error
	UpdateChapter(ctx context.Context, draft ChapterDraft) error
	DeleteChapter(ctx context.Context, chapterID int) error

	UploadPages(ctx context.Context, upload PagesUpload) error

	ListGenres(ctx context.Context) ([]Genre, error)
	CreateGenre(ctx context.Context, name string) error
	UpdateGenre(ctx context.Context, genre Genre) error
	DeleteGenre(ctx context.Context, genreID int) error
}

// SignUpRequest is the registration form
type SignUpRequest struct {
	Email          string
	Username       string
	Password       string
	RepeatPassword string
}

// AuthRepository manages the cookie session with the backend
type AuthRepository interface {
	SignIn(ctx context.Context, login, password string) error
	SignUp(ctx context.Context, req SignUpRequest) error
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*User, error)

	// SessionExpiry returns the access token expiry when one is held
	SessionExpiry() (time.Time, bool)
}
