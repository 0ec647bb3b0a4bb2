package importer_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pickabook/pkb/internal/importer"
)

func TestParseHTML_SingleBookmark(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Example Site</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}

	b := bookmarks[0]
	if b.Title != "Example Site" {
		t.Errorf("expected title 'Example Site', got %q", b.Title)
	}
	if b.URL != "https://example.com" {
		t.Errorf("expected URL 'https://example.com', got %q", b.URL)
	}
	if b.Tags == nil || len(b.Tags) != 0 {
		t.Errorf("expected empty non-nil tags at root, got %#v", b.Tags)
	}
	if b.ID != 0 {
		t.Errorf("expected unpersisted bookmark, got id %d", b.ID)
	}
}

func TestParseHTML_FoldersBecomeTags(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1234567890">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1234567890">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookmarks) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(bookmarks))
	}

	want := map[string][]string{
		"React Docs": {"Development", "React"},
		"GitHub":     {"Development"},
		"Google":     {},
	}
	for _, b := range bookmarks {
		if !reflect.DeepEqual(b.Tags, want[b.Title]) {
			t.Errorf("%s: expected tags %v, got %v", b.Title, want[b.Title], b.Tags)
		}
	}
}

func TestParseHTML_TagsAttributeAndDescription(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>go</H3>
    <DL><p>
        <DT><A HREF="https://go.dev" TAGS="lang, go,,tools">Go</A>
        <DD>The Go programming language
        <DT><A HREF="https://pkg.go.dev">Packages</A>
    </DL><p>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}

	goSite := bookmarks[0]
	if !reflect.DeepEqual(goSite.Tags, []string{"go", "lang", "tools"}) {
		t.Errorf("expected tags [go lang tools], got %v", goSite.Tags)
	}
	if goSite.Description != "The Go programming language" {
		t.Errorf("unexpected description %q", goSite.Description)
	}
	if bookmarks[1].Description != "" {
		t.Errorf("description should not leak to the next bookmark, got %q", bookmarks[1].Description)
	}
}

func TestParseHTML_DuplicateURLsMerge(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>work</H3>
    <DL><p>
        <DT><A HREF="https://example.com">Example</A>
    </DL><p>
    <DT><H3>read</H3>
    <DL><p>
        <DT><A HREF="https://example.com">Example again</A>
    </DL><p>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 merged bookmark, got %d", len(bookmarks))
	}
	if bookmarks[0].Title != "Example" {
		t.Errorf("first title should win, got %q", bookmarks[0].Title)
	}
	if !reflect.DeepEqual(bookmarks[0].Tags, []string{"work", "read"}) {
		t.Errorf("expected tags [work read], got %v", bookmarks[0].Tags)
	}
}

func TestParseHTML_EmptyFile(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bookmarks == nil || len(bookmarks) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", bookmarks)
	}
}

func TestParseHTML_Timestamps(t *testing.T) {
	// 1234567890 = Fri Feb 13 2009 23:31:30 UTC
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Test</A>
    <DT><A HREF="https://example.org" ADD_DATE="soon">No date</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}

	got, ok := bookmarks[0].CreatedAt()
	if !ok {
		t.Fatalf("expected parseable created date, got %q", bookmarks[0].CreatedDate)
	}
	if expected := time.Unix(1234567890, 0); !got.Equal(expected) {
		t.Errorf("expected CreatedAt %v, got %v", expected, got)
	}
	if bookmarks[1].CreatedDate != "" {
		t.Errorf("expected no created date for bad ADD_DATE, got %q", bookmarks[1].CreatedDate)
	}
}

func TestParseHTML_MissingHref(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A ADD_DATE="1234567890">No URL</A>
    <DT><A HREF="https://valid.com" ADD_DATE="1234567890">Valid</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should skip bookmark without HREF, keep valid one
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark (skip missing href), got %d", len(bookmarks))
	}
	if bookmarks[0].Title != "Valid" {
		t.Errorf("expected 'Valid' bookmark, got %q", bookmarks[0].Title)
	}
}
