package history

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Capacity is the maximum number of stored records.
	Capacity = 30
	// MaxTitleChars is the title length kept before the ellipsis.
	MaxTitleChars = 80
	// DateLayout renders record dates like "3/14/2025, 9:26:53 PM".
	DateLayout = "1/2/2006, 3:04:05 PM"
	// DefaultTitle is used when the source had no title.
	DefaultTitle = "Untitled Summary"
)

// Record is one saved summary. ID is assigned at creation and never
// changes; Date is the human-readable creation time.
type Record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Date     string `json:"date"`
	IsPinned bool   `json:"isPinned"`
}

// TruncateTitle trims title and cuts it to MaxTitleChars characters plus
// "..." when longer. An empty title becomes DefaultTitle.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(title) <= MaxTitleChars {
		return title
	}
	r := []rune(title)
	return string(r[:MaxTitleChars]) + "..."
}

// FormatDate renders t with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a record date in local time. Unparseable dates yield the
// zero time and sort as the oldest.
func ParseDate(s string) time.Time {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortForDisplay returns a sorted copy of list: pinned records first, then
// unpinned, each group newest first by parsed date. Equal keys keep their
// stored order. list itself is never reordered.
func SortForDisplay(list []Record) []Record {
	out := make([]Record, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		return ParseDate(a.Date).After(ParseDate(b.Date))
	})
	return out
}
