package domain

import "time"

// NavTarget is the resumable reading position of a manga.
// ChapterID 0 means no chapter has been chosen yet; Page 0 means first page.
type NavTarget struct {
	MangaID   int       `json:"mangaId"`
	ChapterID int       `json:"chapterId"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updatedAt"`
}
