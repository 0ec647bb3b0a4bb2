// Package picker lets the user choose one bookmark from filter results.
package picker

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/view"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Underline(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// linesPerItem is the rendered height of one result.
const linesPerItem = 2

// Picker is a simple TUI for selecting from filter results.
type Picker struct {
	results   []view.Match
	keys      KeyMap
	query     string
	cursor    int
	offset    int
	selected  bool
	cancelled bool
	status    string
	width     int
	height    int
}

// New creates a new Picker with the given filter results.
func New(results []view.Match, query string) Picker {
	return Picker{
		results: results,
		keys:    DefaultKeyMap(),
		query:   query,
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.scroll()
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			p.cancelled = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Open):
			if len(p.results) == 0 {
				return p, nil
			}
			p.selected = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Down):
			p.move(1)

		case key.Matches(msg, p.keys.Up):
			p.move(-1)

		case key.Matches(msg, p.keys.CopyURL):
			p.copyURL()
		}
	}

	return p, nil
}

func (p *Picker) move(delta int) {
	next := p.cursor + delta
	if next < 0 || next >= len(p.results) {
		return
	}
	p.cursor = next
	p.status = ""
	p.scroll()
}

// scroll keeps the cursor inside the visible window.
func (p *Picker) scroll() {
	visible := p.visibleItems()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

func (p Picker) visibleItems() int {
	// header (2 lines with margin), blank line and footer
	n := (p.height - 5) / linesPerItem
	return max(n, 1)
}

func (p *Picker) copyURL() {
	if len(p.results) == 0 {
		return
	}
	url := p.results[p.cursor].Bookmark.URL
	if err := clipboardWriteAll(url); err != nil {
		p.status = "Failed to copy URL"
		return
	}
	p.status = "Copied " + url
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	// Header
	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.results))))
	b.WriteString("\n\n")

	end := min(p.offset+p.visibleItems(), len(p.results))
	for i := p.offset; i < end; i++ {
		result := p.results[i]
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		line := highlight(result.Bookmark.Title, result.MatchedIndexes, style)
		if tags := formatTags(result.Bookmark); tags != "" {
			line += " " + tagStyle.Render(tags)
		}

		fmt.Fprintf(&b, "%s%s\n", cursor, line)
		fmt.Fprintf(&b, "   %s\n", urlStyle.Render(result.Bookmark.URL))
	}

	// Footer
	b.WriteString("\n")
	footer := p.keys.hints()
	if p.status != "" {
		footer = p.status
	}
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// highlight renders the matched runes of title with matchStyle.
func highlight(title string, matched []int, style lipgloss.Style) string {
	if len(matched) == 0 {
		return style.Render(title)
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range title {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(style.Render(string(r)))
		}
	}
	return b.String()
}

func formatTags(b model.Bookmark) string {
	tags := b.UniqueTags()
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}

// SelectedBookmark returns the selected bookmark, or nil if cancelled.
func (p Picker) SelectedBookmark() *model.Bookmark {
	if p.cancelled || !p.selected {
		return nil
	}
	if p.cursor < len(p.results) {
		b := p.results[p.cursor].Bookmark
		return &b
	}
	return nil
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}

// Run shows the picker and returns the chosen bookmark, or nil when the
// user cancelled.
func Run(results []view.Match, query string) (*model.Bookmark, error) {
	final, err := tea.NewProgram(New(results, query)).Run()
	if err != nil {
		return nil, err
	}
	return final.(Picker).SelectedBookmark(), nil
}
