package domain

import "fmt"

// ListItem is implemented by anything the TUI shows in a filterable list.
type ListItem interface {
	// GetID returns the unique identifier for this item
	GetID() int

	// GetTitle returns the display title, also used as the filter text
	GetTitle() string

	// GetDescription returns secondary info for display
	GetDescription() string
}

func (m Manga) GetID() int       { return m.ID }
func (m Manga) GetTitle() string { return m.Title }

func (m Manga) GetDescription() string {
	return fmt.Sprintf("%s · %s · %s", m.Type, m.Author, m.FormattedRating())
}

func (c Chapter) GetID() int       { return c.ID }
func (c Chapter) GetTitle() string { return c.Label() }

func (c Chapter) GetDescription() string {
	if c.PublicationDate.IsZero() {
		return ""
	}
	return c.PublicationDate.Format("2006-01-02")
}

func (g Genre) GetID() int             { return g.ID }
func (g Genre) GetTitle() string       { return g.Name }
func (g Genre) GetDescription() string { return "" }
