package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/ripper-jc/tomodachi-hub/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for lists
const (
	// title line plus the "↑ more" and "↓ more" lines
	chromeLines = 3
	minRowWidth = 10
	markerChar  = "▸"
)

// List is a scrollable, fuzzy-filterable list of domain items
type List struct {
	items []domain.ListItem

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	title   string
	loading bool
	spinner string
	marked  int // id drawn with the marker, 0 = none
	empty   string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into items
}

// NewList creates a new list with the given title
func NewList(title string) *List {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	l := &List{
		title:       title,
		filterInput: ti,
		empty:       "No items",
	}
	l.recalcMaxVisible()
	return l
}

// Update handles navigation and filter keys. Enter is left to the owner.
func (l *List) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if l.IsFilterTyping() {
			var cmd tea.Cmd
			l.filterInput, cmd = l.filterInput.Update(msg)
			return cmd
		}
		return nil
	}

	// Typing mode
	if l.IsFilterTyping() {
		switch {
		case key.Matches(keyMsg, ListKeys.Escape):
			l.clearFilter()
			return nil
		case key.Matches(keyMsg, ListKeys.Enter):
			// Accept the filter and go back to navigating the matches
			l.filterInput.Blur()
			return nil
		case keyMsg.String() == "backspace" && l.filterInput.Value() == "":
			l.clearFilter()
			return nil
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	if l.filterActive && key.Matches(keyMsg, ListKeys.Escape) {
		l.clearFilter()
		return nil
	}
	if key.Matches(keyMsg, ListKeys.Filter) {
		l.ToggleFilter()
		return textinput.Blink
	}

	count := l.ItemCount()
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(keyMsg, ListKeys.Down):
		if l.cursor < count-1 {
			l.cursor++
		}
	case key.Matches(keyMsg, ListKeys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(keyMsg, ListKeys.Home):
		l.cursor = 0
	case key.Matches(keyMsg, ListKeys.End):
		l.cursor = count - 1
	case key.Matches(keyMsg, ListKeys.HalfDown):
		l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
	case key.Matches(keyMsg, ListKeys.HalfUp):
		l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
	}
	l.ensureVisible()
	return nil
}

// View renders the list into width x height cells
func (l *List) View() string {
	width := max(l.width, minRowWidth)
	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, width))

	if l.loading {
		return titleLine + "\n \n" + styles.DimStyle.Render(l.spinner+" Loading...")
	}

	count := l.ItemCount()
	if count == 0 {
		msg := l.empty
		if l.filterActive && l.filterQuery != "" {
			msg = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg)
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.items[l.mapIndex(i)], i == l.cursor, width))
	}

	// Always reserve the indicator lines so the layout does not shift
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

func (l *List) renderRow(item domain.ListItem, selected bool, width int) string {
	marker := "  "
	markerFg := styles.Sakura
	if item.GetID() == l.marked && l.marked != 0 {
		marker = markerChar + " "
	}

	desc := item.GetDescription()
	// marker(2) + margins(2) + gap(2)
	avail := width - 6
	if desc != "" && lipgloss.Width(desc) < avail/2 {
		avail -= lipgloss.Width(desc)
	} else {
		desc = ""
	}
	title := styles.Truncate(item.GetTitle(), max(avail, 5))

	parts := []styles.RowPart{
		{Text: marker, Foreground: &markerFg},
		{Text: title},
	}
	if desc != "" {
		dim := styles.DimGray
		gap := max(width-4-lipgloss.Width(marker)-lipgloss.Width(title)-lipgloss.Width(desc), 2)
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", gap) + desc, Foreground: &dim})
	}
	return styles.RenderListRow(parts, selected, width)
}

func (l *List) renderFilterBar() string {
	bar := l.filterInput.View()
	if l.filterQuery != "" {
		bar += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.ItemCount(), len(l.items)))
	}
	return bar
}

// SetItems replaces the list contents and resets selection and filter
func (l *List) SetItems(items []domain.ListItem) {
	l.items = items
	l.loading = false
	l.cursor = 0
	l.offset = 0
	l.clearFilter()
}

// Items returns all items regardless of the filter
func (l *List) Items() []domain.ListItem {
	return l.items
}

// SetSize sets the area the list renders into
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// SetTitle sets the title line
func (l *List) SetTitle(title string) {
	l.title = title
}

// SetEmptyText sets what is shown when there are no items
func (l *List) SetEmptyText(text string) {
	l.empty = text
}

// SetLoading toggles the loading line
func (l *List) SetLoading(loading bool) {
	l.loading = loading
}

// IsLoading reports whether the loading line is shown
func (l *List) IsLoading() bool {
	return l.loading
}

// SetSpinner sets the current spinner frame
func (l *List) SetSpinner(frame string) {
	l.spinner = frame
}

// SetMarked marks the item with the given id
func (l *List) SetMarked(id int) {
	l.marked = id
}

// Selected returns the item under the cursor
func (l *List) Selected() domain.ListItem {
	count := l.ItemCount()
	if count == 0 || l.cursor >= count {
		return nil
	}
	return l.items[l.mapIndex(l.cursor)]
}

// SelectedIndex returns the cursor position in the visible list
func (l *List) SelectedIndex() int {
	return l.cursor
}

// Select moves the cursor to the item with the given id
func (l *List) Select(id int) bool {
	for i := 0; i < l.ItemCount(); i++ {
		if l.items[l.mapIndex(i)].GetID() == id {
			l.cursor = i
			l.ensureVisible()
			return true
		}
	}
	return false
}

// ItemCount returns the number of visible items
func (l *List) ItemCount() int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.items)
}

// ToggleFilter activates the filter input
func (l *List) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *List) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true if the filter input has focus
func (l *List) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// FilterQuery returns the current filter text
func (l *List) FilterQuery() string {
	return l.filterQuery
}

// ClearFilter deactivates the filter and shows all items
func (l *List) ClearFilter() {
	l.clearFilter()
}

func (l *List) recalcMaxVisible() {
	l.maxVisible = l.height - chromeLines
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *List) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *List) clearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.filteredIdx = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
}

func (l *List) applyFilter() {
	query := l.filterInput.Value()
	l.filterQuery = query
	l.cursor = 0
	l.offset = 0

	if query == "" {
		l.filteredIdx = nil
		return
	}
	l.filteredIdx = FilterIndices(query, l.items)
}

// FilterIndices fuzzy-matches query against item titles, best match first
func FilterIndices(query string, items []domain.ListItem) []int {
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = strings.ToLower(item.GetTitle())
	}

	matches := fuzzy.Find(strings.ToLower(query), titles)
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

func (l *List) mapIndex(i int) int {
	if l.filteredIdx != nil && i < len(l.filteredIdx) {
		return l.filteredIdx[i]
	}
	return i
}
