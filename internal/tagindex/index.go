// Package tagindex keeps bookmarks grouped by tag name in memory.
//
// The index is an ordered map: the synthetic "All" entry comes first, then
// tags in the order they were supplied to Build, then entries created later
// by Insert or Update. Every bookmark is listed under "All" and under each
// of its tags exactly once, and a tag entry other than "All" disappears as
// soon as its list becomes empty.
//
// All methods are safe for concurrent use. Mutations are not reentrant.
package tagindex

import (
	"sync"

	"github.com/pickabook/pkb/internal/model"
)

// Entry is one tag's bookmark list.
type Entry struct {
	TagID     int64
	Bookmarks []model.Bookmark
}

// Index maps tag names to entries, preserving insertion order.
type Index struct {
	mu      sync.RWMutex
	names   []string
	entries map[string]*Entry

	// nextPlaceholder is handed to tag entries created locally, before the
	// service has assigned a real identifier.
	nextPlaceholder int64
}

// New returns an index holding only the empty "All" entry.
func New() *Index {
	idx := &Index{}
	idx.reset()
	return idx
}

// Build constructs a fresh index from the service's tag and bookmark lists.
func Build(tags []model.Tag, bookmarks []model.Bookmark) *Index {
	idx := New()
	idx.Rebuild(tags, bookmarks)
	return idx
}

// Rebuild replaces the whole content of the index. Tag names on a bookmark
// that are missing from tags are skipped.
func (idx *Index) Rebuild(tags []model.Tag, bookmarks []model.Bookmark) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()
	for _, t := range tags {
		if _, ok := idx.entries[t.Name]; ok {
			continue
		}
		idx.add(t.Name, t.ID)
	}

	all := idx.entries[model.AllTagName]
	seen := make(map[int64]bool, len(bookmarks))
	for _, b := range bookmarks {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true

		all.Bookmarks = append(all.Bookmarks, b.Clone())
		for _, name := range b.UniqueTags() {
			if name == model.AllTagName {
				continue
			}
			if e, ok := idx.entries[name]; ok {
				e.Bookmarks = append(e.Bookmarks, b.Clone())
			}
		}
	}
}

// Insert puts b at the front of "All" and of each of its tags, creating
// missing tag entries. It does nothing if b's identifier is already indexed.
func (idx *Index) Insert(b model.Bookmark) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	all := idx.entries[model.AllTagName]
	if position(all.Bookmarks, b.ID) >= 0 {
		return
	}

	all.Bookmarks = prepend(all.Bookmarks, b.Clone())
	for _, name := range b.UniqueTags() {
		if name == model.AllTagName {
			continue
		}
		e := idx.ensure(name)
		e.Bookmarks = prepend(e.Bookmarks, b.Clone())
	}
}

// Remove drops the bookmark with the given identifier everywhere and deletes
// tag entries left empty. Unknown identifiers are ignored.
func (idx *Index) Remove(id int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, name := range append([]string(nil), idx.names...) {
		e := idx.entries[name]
		i := position(e.Bookmarks, id)
		if i < 0 {
			continue
		}
		e.Bookmarks = removeAt(e.Bookmarks, i)
		idx.dropIfEmpty(name)
	}
}

// Update replaces the stored copy of b in place and moves it between tag
// entries to match b.Tags. Unknown identifiers are ignored.
func (idx *Index) Update(b model.Bookmark) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if position(idx.entries[model.AllTagName].Bookmarks, b.ID) < 0 {
		return
	}

	wanted := make(map[string]bool, len(b.Tags))
	for _, name := range b.Tags {
		wanted[name] = true
	}

	for _, name := range append([]string(nil), idx.names...) {
		e := idx.entries[name]
		i := position(e.Bookmarks, b.ID)
		if i < 0 {
			continue
		}
		if name == model.AllTagName || wanted[name] {
			e.Bookmarks[i] = b.Clone()
			continue
		}
		e.Bookmarks = removeAt(e.Bookmarks, i)
		idx.dropIfEmpty(name)
	}

	for _, name := range b.UniqueTags() {
		if name == model.AllTagName {
			continue
		}
		e := idx.ensure(name)
		if position(e.Bookmarks, b.ID) < 0 {
			e.Bookmarks = prepend(e.Bookmarks, b.Clone())
		}
	}
}

// Get returns a copy of the named entry.
func (idx *Index) Get(name string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[name]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(e), true
}

// Names returns the tag names in index order, "All" first.
func (idx *Index) Names() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.names...)
}

// Len returns the number of entries, "All" included.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.names)
}

// Contains reports whether a bookmark with the identifier is indexed.
func (idx *Index) Contains(id int64) bool {
	_, ok := idx.Bookmark(id)
	return ok
}

// Bookmark returns the indexed bookmark with the given identifier.
func (idx *Index) Bookmark(id int64) (model.Bookmark, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	all := idx.entries[model.AllTagName].Bookmarks
	if i := position(all, id); i >= 0 {
		return all[i].Clone(), true
	}
	return model.Bookmark{}, false
}

// HasURL reports whether any indexed bookmark points at url.
func (idx *Index) HasURL(url string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, b := range idx.entries[model.AllTagName].Bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time copy of the index.
type Snapshot struct {
	Names   []string
	Entries map[string]Entry
}

// Snapshot deep-copies the index.
func (idx *Index) Snapshot() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Snapshot{
		Names:   append([]string(nil), idx.names...),
		Entries: make(map[string]Entry, len(idx.entries)),
	}
	for name, e := range idx.entries {
		s.Entries[name] = copyEntry(e)
	}
	return s
}

func (idx *Index) reset() {
	idx.names = nil
	idx.entries = make(map[string]*Entry)
	idx.nextPlaceholder = model.AllTagID - 1
	idx.add(model.AllTagName, model.AllTagID)
}

func (idx *Index) add(name string, id int64) *Entry {
	e := &Entry{TagID: id, Bookmarks: []model.Bookmark{}}
	idx.names = append(idx.names, name)
	idx.entries[name] = e
	return e
}

// ensure returns the named entry, creating it with a placeholder identifier.
func (idx *Index) ensure(name string) *Entry {
	if e, ok := idx.entries[name]; ok {
		return e
	}
	id := idx.nextPlaceholder
	idx.nextPlaceholder--
	return idx.add(name, id)
}

// dropIfEmpty deletes the named entry when it has no bookmarks left.
// "All" is never dropped.
func (idx *Index) dropIfEmpty(name string) {
	if name == model.AllTagName {
		return
	}
	e, ok := idx.entries[name]
	if !ok || len(e.Bookmarks) > 0 {
		return
	}
	delete(idx.entries, name)
	for i, n := range idx.names {
		if n == name {
			idx.names = append(idx.names[:i], idx.names[i+1:]...)
			break
		}
	}
}

func position(list []model.Bookmark, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend(list []model.Bookmark, b model.Bookmark) []model.Bookmark {
	return append([]model.Bookmark{b}, list...)
}

func removeAt(list []model.Bookmark, i int) []model.Bookmark {
	return append(list[:i:i], list[i+1:]...)
}

func copyEntry(e *Entry) Entry {
	c := Entry{TagID: e.TagID, Bookmarks: make([]model.Bookmark, len(e.Bookmarks))}
	for i, b := range e.Bookmarks {
		c.Bookmarks[i] = b.Clone()
	}
	return c
}
