package view_test

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/tagindex"
	"github.com/pickabook/pkb/internal/view"
)

func bm(id int64, title, created string, tags ...string) model.Bookmark {
	if tags == nil {
		tags = []string{}
	}
	return model.Bookmark{ID: id, Title: title, CreatedDate: created, Tags: tags}
}

func titles(list []model.Bookmark) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.Title
	}
	return out
}

func newSorter(t *testing.T, locale string) *view.Sorter {
	t.Helper()
	s, err := view.NewSorter(locale)
	assert.NilError(t, err)
	return s
}

func TestSorted_TitleUsesLocale(t *testing.T) {
	idx := tagindex.Build(nil, []model.Bookmark{
		bm(1, "banana", ""),
		bm(2, "Apple", ""),
	})

	got := newSorter(t, "en").Sorted(idx, model.AllTagName, view.SortTitle)
	assert.DeepEqual(t, titles(got), []string{"Apple", "banana"})
}

func TestSorted_TitleAccents(t *testing.T) {
	idx := tagindex.Build(nil, []model.Bookmark{
		bm(1, "zebra", ""),
		bm(2, "Éclair", ""),
		bm(3, "apple", ""),
	})

	got := newSorter(t, "fr").Sorted(idx, model.AllTagName, view.SortTitle)
	assert.DeepEqual(t, titles(got), []string{"apple", "Éclair", "zebra"})
}

func TestSorted_RecentByCreatedDate(t *testing.T) {
	idx := tagindex.Build(nil, []model.Bookmark{
		bm(1, "old", "2023-01-02T10:00:00"),
		bm(2, "new", "2024-05-06T10:00:00"),
		bm(3, "mid", "2023-11-30 08:00:00"),
	})

	got := newSorter(t, "en").Sorted(idx, model.AllTagName, view.SortRecent)
	assert.DeepEqual(t, titles(got), []string{"new", "mid", "old"})
}

func TestSorted_RecentFallsBackToID(t *testing.T) {
	idx := tagindex.Build(nil, []model.Bookmark{
		bm(5, "five", "yesterday"),
		bm(9, "nine", "2024-05-06"),
		bm(7, "seven", ""),
	})

	got := newSorter(t, "en").Sorted(idx, model.AllTagName, view.SortRecent)
	assert.DeepEqual(t, titles(got), []string{"nine", "seven", "five"})
}

func permutations(list []model.Bookmark) [][]model.Bookmark {
	if len(list) <= 1 {
		return [][]model.Bookmark{append([]model.Bookmark(nil), list...)}
	}
	var out [][]model.Bookmark
	for i := range list {
		rest := append(append([]model.Bookmark(nil), list[:i]...), list[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]model.Bookmark{list[i]}, p...))
		}
	}
	return out
}

func TestSort_RecentIgnoresInputOrder(t *testing.T) {
	tests := []struct {
		name string
		list []model.Bookmark
		want []string
	}{
		{
			name: "mixed dates use ids",
			list: []model.Bookmark{
				bm(1, "a", "2021-01-01"),
				bm(3, "b", "2020-01-01"),
				bm(2, "c", "not a date"),
			},
			want: []string{"b", "c", "a"},
		},
		{
			name: "all dated use time then id",
			list: []model.Bookmark{
				bm(1, "a", "2021-01-01"),
				bm(3, "b", "2020-01-01"),
				bm(2, "c", "2021-01-01"),
			},
			want: []string{"c", "a", "b"},
		},
	}

	s := newSorter(t, "en")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, perm := range permutations(tt.list) {
				assert.DeepEqual(t, titles(s.Sort(perm, view.SortRecent)), tt.want)
			}
		})
	}
}

func TestSorted_DoesNotMutateIndex(t *testing.T) {
	idx := tagindex.Build(
		[]model.Tag{{ID: 1, Name: "fruit"}},
		[]model.Bookmark{bm(1, "banana", "", "fruit"), bm(2, "Apple", "", "fruit")},
	)
	before := idx.Snapshot()

	got := newSorter(t, "en").Sorted(idx, "fruit", view.SortTitle)
	got[0].Title = "changed"

	assert.DeepEqual(t, before, idx.Snapshot())
}

func TestSorted_UnknownTag(t *testing.T) {
	idx := tagindex.Build(nil, []model.Bookmark{bm(1, "a", "")})

	got := newSorter(t, "en").Sorted(idx, "missing", view.SortTitle)
	assert.Assert(t, got != nil)
	assert.Equal(t, len(got), 0)
}

func TestSort_Stable(t *testing.T) {
	list := []model.Bookmark{bm(1, "b", ""), bm(2, "a", ""), bm(3, "b", ""), bm(4, "a", "")}

	got := newSorter(t, "en").Sort(list, view.SortTitle)
	ids := make([]int64, len(got))
	for i, b := range got {
		ids[i] = b.ID
	}
	assert.DeepEqual(t, ids, []int64{2, 4, 1, 3})
}

func TestNewSorter_BadLocale(t *testing.T) {
	_, err := view.NewSorter("not a locale!")
	assert.Assert(t, err != nil)
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want view.SortKey
		err  bool
	}{
		{in: "", want: view.SortRecent},
		{in: "recent", want: view.SortRecent},
		{in: "title", want: view.SortTitle},
		{in: "size", err: true},
	}
	for _, tt := range tests {
		got, err := view.ParseSortKey(tt.in)
		if tt.err {
			assert.Assert(t, errors.Is(err, view.ErrUnknownSortKey))
			continue
		}
		assert.NilError(t, err)
		assert.Equal(t, got, tt.want)
		assert.Equal(t, got.String(), map[view.SortKey]string{view.SortRecent: "recent", view.SortTitle: "title"}[tt.want])
	}
}
