package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Page is what the page-content side hands over: the document markup and
// whatever the user currently has selected in it.
type Page struct {
	HTML      []byte
	Selection string
	// Title overrides the document <title> when non-empty (a live browser
	// tab knows its title even when the markup does not carry one).
	Title string
}

// Result is the best-available text for a page.
type Result struct {
	Text  string
	Title string
	// Strategy names the rule that produced Text; empty when nothing matched.
	Strategy string
}

// Extractor turns a page into text to summarize.
type Extractor interface {
	Extract(p Page) Result
}

// Text extracts with the default chain and returns only the text.
func Text(p Page) string {
	return DefaultChain().Extract(p).Text
}

// Extract runs each strategy in order and keeps the first non-empty text.
// An empty Result.Text is a valid outcome; callers decide what it means.
func (c Chain) Extract(p Page) Result {
	root, err := html.Parse(bytes.NewReader(p.HTML))
	if err != nil {
		root = nil
	}
	title := strings.TrimSpace(p.Title)
	if title == "" && root != nil {
		title = strings.TrimSpace(findTitle(root))
	}
	for _, s := range c {
		text := strings.TrimSpace(s.Extract(root, p.Selection))
		if text == "" {
			continue
		}
		return Result{Text: norm.NFC.String(text), Title: title, Strategy: s.Name}
	}
	return Result{Title: title}
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// innerText approximates the rendered text of n: non-rendered elements are
// skipped, block elements start on their own line, and runs of whitespace
// collapse outside <pre>.
func innerText(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n, false)
	return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template", "head":
			return
		case "pre":
			inPre = true
			b.WriteString("\n")
		case "br":
			b.WriteString("\n")
		case "p", "div", "section", "article", "main", "header", "footer", "aside", "nav",
			"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "tr", "blockquote", "figcaption", "hr":
			b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		data := n.Data
		if inPre {
			// Keep line structure; normalizeWhitespace still trims each line.
			data = strings.ReplaceAll(data, "\r", "")
		} else {
			data = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(data)
		}
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}

	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		case "li", "div", "tr", "pre", "blockquote":
			b.WriteString("\n")
		}
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// at most one consecutive blank line, none at the top
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
