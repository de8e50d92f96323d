package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MangaType is the publication format of a manga
type MangaType int

const (
	MangaTypeUnknown MangaType = iota
	MangaTypeManga
	MangaTypeManhwa
	MangaTypeManhua
)

// String returns the display name of the manga type
func (t MangaType) String() string {
	switch t {
	case MangaTypeManga:
		return "Manga"
	case MangaTypeManhwa:
		return "Manhwa"
	case MangaTypeManhua:
		return "Manhua"
	default:
		return "Unknown"
	}
}

// ParseMangaType converts a display name back to a MangaType (case-insensitive)
func ParseMangaType(s string) (MangaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manga":
		return MangaTypeManga, nil
	case "manhwa":
		return MangaTypeManhwa, nil
	case "manhua":
		return MangaTypeManhua, nil
	case "", "unknown":
		return MangaTypeUnknown, nil
	}
	return MangaTypeUnknown, fmt.Errorf("%w: unknown manga type %q", ErrInvalidInput, s)
}

// PublicationStatus is shared by MangaStatus and TranslationStatus on the backend
type PublicationStatus int

const (
	StatusUnknown PublicationStatus = iota
	StatusOngoing
	StatusCompleted
	StatusDropped
	StatusHiatus
)

// String returns the display name of the status
func (s PublicationStatus) String() string {
	switch s {
	case StatusOngoing:
		return "Ongoing"
	case StatusCompleted:
		return "Completed"
	case StatusDropped:
		return "Dropped"
	case StatusHiatus:
		return "Hiatus"
	default:
		return "Unknown"
	}
}

// Genre is a catalogue tag
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Manga is a catalogue entry as returned by list endpoints
type Manga struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Artist      string    `json:"artist"`
	Publisher   string    `json:"publisher"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Type        MangaType `json:"type"`
	Genres      []Genre   `json:"mangaGenres"`
	AvgRating   float64   `json:"avgRating"`
	CountRating int       `json:"countRating"`
}

// GenreNames returns the genre names joined for display
func (m Manga) GenreNames() string {
	names := make([]string, len(m.Genres))
	for i, g := range m.Genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

// FormattedRating returns the rating as "4.2 (120)" or "unrated"
func (m Manga) FormattedRating() string {
	if m.CountRating == 0 {
		return "unrated"
	}
	return fmt.Sprintf("%.1f (%d)", m.AvgRating, m.CountRating)
}

// Translator is a team producing an independent set of chapter releases
type Translator struct {
	ID          int    `json:"translatorMangaTeamId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MainPhotoID string `json:"mainPhotoId"`
}

// Chapter is one release of a translator team. Key: ID.
type Chapter struct {
	ID              int       `json:"chapterId"`
	MangaID         int       `json:"mangaId"`
	Number          float64   `json:"chapterNumber"`
	TranslatorID    int       `json:"translatorMangaTeamId"`
	Title           string    `json:"title"`
	PublicationDate time.Time `json:"publicationDate"`
}

// Label returns "Ch. 12: Title" or "Ch. 12" when untitled
func (c Chapter) Label() string {
	num := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", c.Number), "0"), ".")
	if c.Title == "" {
		return "Ch. " + num
	}
	return fmt.Sprintf("Ch. %s: %s", num, c.Title)
}

// Page is a single image of a chapter. Key: (ChapterID, Number); Number is 1-based.
type Page struct {
	ID        int    `json:"id"`
	ChapterID int    `json:"chapterId"`
	Number    int    `json:"pageNumber"`
	ImageURL  string `json:"imageUrl"`
}

// MangaDetails is the full manga record with its chapters and translator teams
type MangaDetails struct {
	Manga
	Chapters    []Chapter    `json:"chapters"`
	Translators []Translator `json:"translators"`
}

// FindChapter returns the chapter with the given id
func (d *MangaDetails) FindChapter(id int) (Chapter, bool) {
	for _, c := range d.Chapters {
		if c.ID == id {
			return c, true
		}
	}
	return Chapter{}, false
}

// FindTranslator returns the translator team with the given id
func (d *MangaDetails) FindTranslator(id int) (Translator, bool) {
	for _, t := range d.Translators {
		if t.ID == id {
			return t, true
		}
	}
	return Translator{}, false
}

// ChaptersBy returns the chapters of one translator ordered by chapter number
func (d *MangaDetails) ChaptersBy(translatorID int) []Chapter {
	var out []Chapter
	for _, c := range d.Chapters {
		if c.TranslatorID == translatorID {
			out = append(out, c)
		}
	}
	SortChapters(out)
	return out
}

// SortChapters orders chapters by number ascending, ties broken by id
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].Number != chapters[j].Number {
			return chapters[i].Number < chapters[j].Number
		}
		return chapters[i].ID < chapters[j].ID
	})
}

// User is the signed-in account
type User struct {
	ID       int      `json:"id"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the user carries the role (case-insensitive)
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// MangaSection selects one of the catalogue listings
type MangaSection string

const (
	SectionAll     MangaSection = "all"
	SectionNew     MangaSection = "new"
	SectionUpdated MangaSection = "updated"
	SectionPopular MangaSection = "popular"
)

// MangaFilter is the query for catalogue listings
type MangaFilter struct {
	Section  MangaSection
	Page     int
	PageSize int
}
