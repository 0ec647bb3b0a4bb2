package view

import (
	"github.com/sahilm/fuzzy"

	"github.com/pickabook/pkb/internal/model"
)

// Match is one fuzzy filter hit.
type Match struct {
	Bookmark       model.Bookmark
	MatchedIndexes []int
	Score          int
}

// titles implements fuzzy.Source for a bookmark slice.
type titles []model.Bookmark

func (t titles) String(i int) string {
	return t[i].Title
}

func (t titles) Len() int {
	return len(t)
}

// Filter matches bookmarks by title.
// Returns results sorted by match score (best first); nil for an empty query.
func Filter(bookmarks []model.Bookmark, query string) []Match {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, titles(bookmarks))

	results := make([]Match, len(matches))
	for i, m := range matches {
		results[i] = Match{
			Bookmark:       bookmarks[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
