package domain

import "fmt"

// Cache key prefixes
const (
	// PrefixManga is the prefix for manga detail caches (manga:{mangaID})
	PrefixManga = "manga:"

	// PrefixPages is the prefix for chapter page list caches (pages:{chapterID})
	PrefixPages = "pages:"

	// PrefixMangaList is the prefix for catalogue listings (mangas:{section}:{page}:{size})
	PrefixMangaList = "mangas:"

	// KeyGenres is the cache key for the genre list
	KeyGenres = "genres"
)

func MangaKey(mangaID int) string {
	return fmt.Sprintf("%s%d", PrefixManga, mangaID)
}

func PagesKey(chapterID int) string {
	return fmt.Sprintf("%s%d", PrefixPages, chapterID)
}

func MangaListKey(f MangaFilter) string {
	return fmt.Sprintf("%s%s:%d:%d", PrefixMangaList, f.Section, f.Page, f.PageSize)
}
