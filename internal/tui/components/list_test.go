package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mangaItems(titles ...string) []domain.ListItem {
	items := make([]domain.ListItem, len(titles))
	for i, t := range titles {
		items[i] = domain.Manga{ID: i + 1, Title: t}
	}
	return items
}

func TestListNavigation(t *testing.T) {
	l := NewList("Popular")
	l.SetSize(40, 10)
	l.SetItems(mangaItems("Berserk", "Vagabond", "Monster"))

	assert.Equal(t, 1, l.Selected().GetID())

	l.Update(runes("j"))
	l.Update(runes("j"))
	l.Update(runes("j"))
	assert.Equal(t, 3, l.Selected().GetID())

	l.Update(runes("g"))
	assert.Equal(t, 1, l.Selected().GetID())

	l.Update(runes("G"))
	assert.Equal(t, 3, l.Selected().GetID())

	require.True(t, l.Select(2))
	assert.Equal(t, 1, l.SelectedIndex())
	assert.False(t, l.Select(42))
}

func TestListFilter(t *testing.T) {
	l := NewList("All")
	l.SetSize(40, 10)
	l.SetItems(mangaItems("Berserk", "Vagabond", "Vinland Saga"))

	l.Update(runes("/"))
	require.True(t, l.IsFilterTyping())

	l.Update(runes("v"))
	l.Update(runes("g"))
	assert.Equal(t, "vg", l.FilterQuery())
	assert.Equal(t, 2, l.ItemCount())

	// enter accepts, navigation works over the matches
	l.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, l.IsFilterTyping())
	assert.True(t, l.IsFiltering())
	l.Update(runes("j"))
	assert.Contains(t, []int{2, 3}, l.Selected().GetID())

	l.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, l.IsFiltering())
	assert.Equal(t, 3, l.ItemCount())
}

func TestListView(t *testing.T) {
	l := NewList("Chapters")
	l.SetSize(40, 10)

	l.SetLoading(true)
	l.SetSpinner("*")
	assert.Contains(t, l.View(), "* Loading...")

	l.SetItems(nil)
	l.SetEmptyText("No chapters")
	assert.Contains(t, l.View(), "No chapters")

	l.SetItems(mangaItems("Berserk", "Vagabond"))
	l.SetMarked(2)
	view := l.View()
	assert.Contains(t, view, "Berserk")
	assert.Contains(t, view, markerChar)
	assert.Equal(t, 1, strings.Count(view, markerChar))
}

func TestFilterIndices(t *testing.T) {
	items := mangaItems("One Piece", "One Punch Man", "Berserk")
	assert.Empty(t, FilterIndices("xyz", items))

	idx := FilterIndices("punch", items)
	require.Len(t, idx, 1)
	assert.Equal(t, 1, idx[0])
}
