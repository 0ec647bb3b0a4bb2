// Package view derives ordered and filtered projections of a tag index for
// display. Nothing here mutates the index.
package view

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/tagindex"
)

// SortKey selects the order of a projection.
type SortKey int

const (
	// SortRecent orders newest first.
	SortRecent SortKey = iota
	// SortTitle orders by title using the sorter's locale.
	SortTitle
)

// ErrUnknownSortKey is returned by ParseSortKey.
var ErrUnknownSortKey = errors.New("unknown sort key")

func (k SortKey) String() string {
	switch k {
	case SortRecent:
		return "recent"
	case SortTitle:
		return "title"
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey accepts "recent" (or "") and "title".
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "", "recent":
		return SortRecent, nil
	case "title":
		return SortTitle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// Sorter orders bookmark lists. A collate.Collator is not safe for
// concurrent use, so calls are serialized.
type Sorter struct {
	mu       sync.Mutex
	collator *collate.Collator
}

// NewSorter creates a Sorter comparing titles under locale, a BCP 47 tag
// such as "en" or "de-DE". An empty locale means English.
func NewSorter(locale string) (*Sorter, error) {
	tag := language.English
	if locale != "" {
		var err error
		if tag, err = language.Parse(locale); err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
	}
	return &Sorter{collator: collate.New(tag)}, nil
}

// Sorted returns a newly ordered copy of the named tag's bookmarks. An
// unknown tag yields an empty slice.
func (s *Sorter) Sorted(idx *tagindex.Index, tagName string, key SortKey) []model.Bookmark {
	e, ok := idx.Get(tagName)
	if !ok {
		return []model.Bookmark{}
	}
	return s.Sort(e.Bookmarks, key)
}

// Sort returns a sorted copy of list. The sort is stable.
func (s *Sorter) Sort(list []model.Bookmark, key SortKey) []model.Bookmark {
	out := make([]model.Bookmark, len(list))
	copy(out, list)

	switch key {
	case SortTitle:
		s.mu.Lock()
		defer s.mu.Unlock()
		slices.SortStableFunc(out, func(a, b model.Bookmark) int {
			return s.collator.CompareString(a.Title, b.Title)
		})
	default:
		if allDated(out) {
			slices.SortStableFunc(out, compareCreated)
		} else {
			slices.SortStableFunc(out, compareID)
		}
	}
	return out
}

// allDated reports whether every creation date in list parses. When one
// does not, recency falls back to identifiers for the whole list.
func allDated(list []model.Bookmark) bool {
	for _, b := range list {
		if _, ok := b.CreatedAt(); !ok {
			return false
		}
	}
	return true
}

// compareCreated puts newer bookmarks first, higher identifier on a tie.
func compareCreated(a, b model.Bookmark) int {
	ta, _ := a.CreatedAt()
	tb, _ := b.CreatedAt()
	if c := tb.Compare(ta); c != 0 {
		return c
	}
	return compareID(a, b)
}

// compareID puts higher identifiers first.
func compareID(a, b model.Bookmark) int {
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}
