// Package display provides terminal output formatting for chozy.
package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chozy/feedsync/internal/feed"
	"github.com/chozy/feedsync/pkg/browser"
)

const separator = " • "

var (
	kindStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	authorStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	quoteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("#3B82F6")).
			PaddingLeft(1)
)

// TerminalFormatter formats feed items for terminal display.
type TerminalFormatter struct {
	webURL  string
	textMax int
}

// FormatterOption configures a TerminalFormatter.
type FormatterOption func(*TerminalFormatter)

// WithWebURL adds a link to each item's web page.
func WithWebURL(webURL string) FormatterOption {
	return func(f *TerminalFormatter) {
		f.webURL = strings.TrimRight(webURL, "/")
	}
}

// WithTextLimit truncates body text to n characters; 0 disables truncation.
func WithTextLimit(n int) FormatterOption {
	return func(f *TerminalFormatter) {
		f.textMax = n
	}
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter(opts ...FormatterOption) *TerminalFormatter {
	f := &TerminalFormatter{textMax: 280}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatItem formats a single feed item for display.
func (f *TerminalFormatter) FormatItem(item feed.FeedItem) string {
	var lines []string

	// Header: [KIND] #id Author @handle
	header := fmt.Sprintf("%s #%d %s", kindStyle.Render("["+string(item.Kind)+"]"), item.ID, authorStyle.Render(item.Author.DisplayName))
	if item.Author.Handle != "" {
		header += " " + mutedStyle.Render("@"+item.Author.Handle)
	}
	if item.IsMine {
		header += " " + mutedStyle.Render("(you)")
	}
	lines = append(lines, header)

	if !item.CreatedAt.IsZero() {
		lines = append(lines, "  "+mutedStyle.Render(f.FormatTimestamp(item.CreatedAt)))
	}

	if r := item.Review; r != nil {
		lines = append(lines, "  "+formatReview(r.Vendor, r.Title, r.Rating))
	}

	if text := item.Text(); text != "" {
		lines = append(lines, "  "+f.body(text))
	}

	if n := len(item.Images()); n > 0 {
		lines = append(lines, "  "+mutedStyle.Render(pluralCount(n, "image")))
	}

	if item.Review != nil && item.Review.Quote != nil {
		lines = append(lines, indent(quoteStyle.Render(f.formatQuote(item.Review.Quote)), "  "))
	}

	lines = append(lines, "  "+f.formatEngagement(item))

	if f.webURL != "" {
		if link, err := browser.FeedURL(f.webURL, item.ID); err == nil {
			lines = append(lines, "  "+link)
		}
	}

	return strings.Join(lines, "\n") + "\n"
}

func (f *TerminalFormatter) formatQuote(q *feed.QuotedContent) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", kindStyle.Render("["+string(q.Kind)+"]"), authorStyle.Render(q.Author.DisplayName)))
	if q.Kind == feed.KindReview {
		lines = append(lines, formatReview(q.Vendor, q.Title, q.Rating))
	}
	if q.Text != "" {
		lines = append(lines, f.body(q.Text))
	}
	return strings.Join(lines, "\n")
}

// formatEngagement formats counters and the viewer's own state on one line.
func (f *TerminalFormatter) formatEngagement(item feed.FeedItem) string {
	likes := fmt.Sprintf("%d likes", item.Counts.Likes)
	dislikes := fmt.Sprintf("%d dislikes", item.Counts.Dislikes)
	switch item.Viewer.Reaction {
	case feed.ReactionLike:
		likes = activeStyle.Render("▲ " + likes)
	case feed.ReactionDislike:
		dislikes = activeStyle.Render("▼ " + dislikes)
	}

	parts := []string{
		likes,
		dislikes,
		fmt.Sprintf("%d comments", item.Counts.Comments),
		fmt.Sprintf("%d quotes", item.Counts.Quotes),
	}
	if item.Viewer.Bookmarked {
		parts = append(parts, activeStyle.Render("bookmarked"))
	}
	if item.Viewer.Reposted {
		parts = append(parts, activeStyle.Render("reposted"))
	}
	return strings.Join(parts, separator)
}

func (f *TerminalFormatter) body(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if f.textMax > 0 {
		return f.TruncateText(text, f.textMax)
	}
	return text
}

func formatReview(vendor, title string, rating float64) string {
	var parts []string
	if vendor != "" {
		parts = append(parts, vendor)
	}
	if title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, FormatRating(rating))
	return strings.Join(parts, separator)
}

// FormatRating renders a 0..5 half-point rating as stars plus the number.
func FormatRating(rating float64) string {
	full := int(rating)
	half := rating-float64(full) >= 0.5
	stars := strings.Repeat("★", full)
	if half {
		stars += "½"
	}
	return fmt.Sprintf("%s %s/5", stars, strconv.FormatFloat(rating, 'f', -1, 64))
}

// FormatFeed formats multiple feed items for display.
func (f *TerminalFormatter) FormatFeed(items []feed.FeedItem) string {
	if len(items) == 0 {
		return "No items to display.\n"
	}

	var formatted []string
	for _, item := range items {
		formatted = append(formatted, f.FormatItem(item))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	return pluralCount(n, unit) + " ago"
}

func pluralCount(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

func indent(block, prefix string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
