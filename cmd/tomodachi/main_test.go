package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ripper-jc/tomodachi-hub/internal/adapter"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("chapter id", "12, 13,12,14")
	require.NoError(t, err)
	assert.Equal(t, []int{12, 13, 14}, ids)

	ids, err = parseIDList("chapter id", "  ")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDList("chapter id", "12,x")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = parseID("manga id", "0")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReadTarget(t *testing.T) {
	target, err := readTarget(5, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, target)

	target, err = readTarget(5, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, &domain.NavTarget{MangaID: 5, ChapterID: 50, Page: 1}, target)

	target, err = readTarget(5, 50, -1)
	require.NoError(t, err)
	assert.Equal(t, -1, target.Page)

	_, err = readTarget(5, 0, 3)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	_, err = readTarget(5, 50, -4)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestMergeMangaDraft(t *testing.T) {
	stored := domain.Manga{
		ID:     3,
		Title:  "Blame!",
		Author: "Tsutomu Nihei",
		Type:   domain.MangaTypeManga,
		Genres: []domain.Genre{{ID: 1, Name: "Sci-Fi"}, {ID: 4, Name: "Action"}},
	}

	mangaFlags.title = "BLAME!"
	mangaFlags.author = "ignored"
	mangaFlags.kind = "manhwa"
	t.Cleanup(func() { mangaFlags.title, mangaFlags.author, mangaFlags.kind = "", "", "manga" })

	changed := map[string]bool{"title": true, "type": true}
	draft, err := mergeMangaDraft(stored, func(name string) bool { return changed[name] })
	require.NoError(t, err)
	assert.Equal(t, 3, draft.ID)
	assert.Equal(t, "BLAME!", draft.Title)
	assert.Equal(t, "Tsutomu Nihei", draft.Author)
	assert.Equal(t, domain.MangaTypeManhwa, draft.Type)
	assert.Equal(t, []int{1, 4}, draft.GenreIDs)

	mangaFlags.kind = "comic"
	_, err = mergeMangaDraft(stored, func(name string) bool { return name == "type" })
	assert.Error(t, err)
}

func TestRenderDetails(t *testing.T) {
	d := &domain.MangaDetails{
		Manga:       domain.Manga{ID: 1, Title: "Yotsuba&!", Author: "Kiyohiko Azuma", Type: domain.MangaTypeManga},
		Translators: []domain.Translator{{ID: 10, Name: "Alpha"}},
		Chapters: []domain.Chapter{
			{ID: 102, Number: 2, TranslatorID: 10},
			{ID: 101, Number: 1, TranslatorID: 10, Title: "Moving"},
		},
	}
	out := renderDetails(d)
	assert.Contains(t, out, "Yotsuba&!")
	assert.Contains(t, out, "Kiyohiko Azuma")
	assert.Contains(t, out, "(2 chapters)")
	assert.Contains(t, out, "Ch. 1: Moving")
	assert.Less(t, strings.Index(out, "Ch. 1: Moving"), strings.Index(out, "Ch. 2"))
	assert.NotContains(t, out, "Publisher")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	configPath = path
	t.Cleanup(func() { configPath, configInitForce = "", false })

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))
	assert.Contains(t, out.String(), path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = configInitCmd.RunE(configInitCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	configInitForce = true
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))

	cfg, err := adapter.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, adapter.DefaultConfig().Server.URL, cfg.Server.URL)
}
