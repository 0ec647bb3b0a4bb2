// Package exporter writes bookmarks as Netscape bookmark HTML, the format
// browsers import.
package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/tagindex"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/pkb-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("pkb-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders the snapshot with one folder per tag, in index order,
// followed by untagged bookmarks at the root. A bookmark with several tags
// appears in each of their folders; its TAGS attribute lists all of them.
func ExportHTML(snap tagindex.Snapshot) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, name := range snap.Names {
		if name == model.AllTagName {
			continue
		}
		entry := snap.Entries[name]
		if len(entry.Bookmarks) == 0 {
			continue
		}

		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(name))
		b.WriteString("    <DL><p>\n")
		for _, bm := range entry.Bookmarks {
			writeBookmark(&b, bm, 2)
		}
		b.WriteString("    </DL><p>\n")
	}

	for _, bm := range snap.Entries[model.AllTagName].Bookmarks {
		if len(bm.Tags) == 0 {
			writeBookmark(&b, bm, 1)
		}
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeBookmark(b *strings.Builder, bm model.Bookmark, indent int) {
	prefix := strings.Repeat("    ", indent)

	fmt.Fprintf(b, "%s<DT><A HREF=\"%s\"", prefix, html.EscapeString(bm.URL))
	if created, ok := bm.CreatedAt(); ok {
		fmt.Fprintf(b, " ADD_DATE=\"%d\"", created.Unix())
	}
	fmt.Fprintf(b, " TAGS=\"%s\">%s</A>\n",
		html.EscapeString(strings.Join(bm.UniqueTags(), ",")),
		html.EscapeString(bm.Title),
	)
	if bm.Description != "" {
		fmt.Fprintf(b, "%s<DD>%s\n", prefix, html.EscapeString(bm.Description))
	}
}
