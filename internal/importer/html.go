// Package importer reads bookmarks exported by browsers.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pickabook/pkb/internal/model"
)

// createdDateLayout matches the timestamps the remote service emits.
const createdDateLayout = "2006-01-02T15:04:05"

// ParseHTMLBookmarks parses Netscape bookmark HTML. Every enclosing folder
// name and each entry of the TAGS attribute becomes a tag, a following <DD>
// becomes the description and ADD_DATE the created date. A URL listed more
// than once yields one bookmark carrying the union of its tags.
func ParseHTMLBookmarks(r io.Reader) ([]model.Bookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	bookmarks := []model.Bookmark{}
	byURL := make(map[string]int)

	var folderStack []string // enclosing folder names, outermost first
	var pendingFolder string // folder waiting to be pushed on next DL
	last := -1               // bookmark a following DD describes

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pendingFolder = getTextContent(n)
				last = -1
				return // Don't recurse into H3

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					// Skip bookmarks without URL
					last = -1
					return
				}

				title := getTextContent(n)
				if title == "" {
					title = href // fallback to URL as title
				}

				tags := append([]string{}, folderStack...)
				tags = append(tags, splitTags(getAttr(n, "tags"))...)

				if i, seen := byURL[href]; seen {
					bookmarks[i].Tags = appendUnique(bookmarks[i].Tags, tags...)
					last = i
					return
				}

				b := model.NewBookmark(model.NewBookmarkParams{
					Title: title,
					URL:   href,
					Tags:  appendUnique(nil, tags...),
				})
				if addDate := getAttr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
						b.CreatedDate = time.Unix(ts, 0).UTC().Format(createdDateLayout)
					}
				}

				byURL[href] = len(bookmarks)
				last = len(bookmarks)
				bookmarks = append(bookmarks, b)
				return // Don't recurse into A

			case "dd":
				if last >= 0 && bookmarks[last].Description == "" {
					bookmarks[last].Description = ownText(n)
				}
				last = -1

			case "dl":
				// Definition list - marks folder contents
				pushed := false
				if pendingFolder != "" {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = ""
					pushed = true
				}
				last = -1

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return // Don't recurse further, we handled children
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return bookmarks, nil
}

// splitTags splits a comma-separated TAGS attribute.
func splitTags(attr string) []string {
	if attr == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(attr, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func appendUnique(dst []string, tags ...string) []string {
	if dst == nil {
		dst = []string{}
	}
	for _, t := range tags {
		found := false
		for _, have := range dst {
			if have == t {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, t)
		}
	}
	return dst
}

// ownText returns the text of n up to its first element child. A DD the
// parser left unclosed can swallow the following list.
func ownText(n *html.Node) string {
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			break
		}
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(text.String())
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
