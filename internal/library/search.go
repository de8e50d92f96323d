package library

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// RankMangas returns the mangas whose title fuzzy-matches query, best first.
// Matching ignores case and diacritics.
func RankMangas(query string, mangas []domain.Manga) []domain.Manga {
	query = strings.TrimSpace(query)
	if query == "" || len(mangas) == 0 {
		return nil
	}

	titles := make([]string, len(mangas))
	for i, m := range mangas {
		titles[i] = m.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)

	lowerQuery := strings.ToLower(query)
	score := func(r fuzzy.Rank) int {
		title := strings.ToLower(r.Target)
		switch {
		case title == lowerQuery:
			return 0
		case strings.HasPrefix(title, lowerQuery):
			return 10
		case strings.Contains(title, lowerQuery):
			return 50
		default:
			return 100 + r.Distance
		}
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		si, sj := score(ranks[i]), score(ranks[j])
		if si != sj {
			return si < sj
		}
		return len(ranks[i].Target) < len(ranks[j].Target)
	})

	results := make([]domain.Manga, len(ranks))
	for i, r := range ranks {
		results[i] = mangas[r.OriginalIndex]
	}
	return results
}
