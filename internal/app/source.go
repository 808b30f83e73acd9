package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/extract"
	"github.com/hyperifyio/gosummarize/internal/history"
)

// ErrBlockedURL is returned for browser-internal pages.
var ErrBlockedURL = errors.New("Cannot summarize content on internal browser pages (e.g., settings, store).")

// ErrNoSource is returned when no input was given.
var ErrNoSource = errors.New("no input: pass -text, -file, -url, -browser or pipe text on stdin")

// selectedHintChars is the length below which extracted text is reported
// as a selection rather than a whole article.
const selectedHintChars = 500

// Source names where the text to summarize comes from. Exactly one of
// Text, File, URL, Browser or Stdin is used, in that order.
type Source struct {
	// Text is pasted input and bypasses extraction.
	Text string
	// File is a saved HTML page.
	File string
	// URL is fetched over HTTP(S), or opened in the browser with Browser.
	URL string
	// Browser opens a live window where the user selects text.
	Browser bool
	// Selection stands in for a user selection on File and URL sources.
	Selection string
	// Stdin is read as pasted input when nothing else is set.
	Stdin io.Reader
}

// Material is extracted text ready for the summarizer.
type Material struct {
	Text     string
	Title    string
	Hint     string
	Strategy string
}

// LivePage is an interactive browser window.
type LivePage interface {
	Open(url string) error
	URL() string
	Capture() (extract.Page, error)
	Close() error
}

// Blocklist rejects source URLs matching any glob pattern.
type Blocklist struct {
	patterns []string
	globs    []glob.Glob
}

// NewBlocklist compiles patterns such as "chrome://*".
func NewBlocklist(patterns []string) (*Blocklist, error) {
	b := &Blocklist{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("blocked pattern %q: %w", p, err)
		}
		b.patterns = append(b.patterns, p)
		b.globs = append(b.globs, g)
	}
	return b, nil
}

// Blocked reports whether rawURL matches a pattern.
func (b *Blocklist) Blocked(rawURL string) bool {
	if b == nil {
		return false
	}
	u := strings.ToLower(strings.TrimSpace(rawURL))
	for i, g := range b.globs {
		if g.Match(u) {
			log.Debug().Str("url", rawURL).Str("pattern", b.patterns[i]).Msg("source blocked")
			return true
		}
	}
	return false
}

func sourceHint(pasted bool, text string) string {
	switch {
	case pasted:
		return "pasted text"
	case utf8.RuneCountInString(text) < selectedHintChars:
		return "selected text"
	}
	return "entire article"
}

func pastedMaterial(text string) Material {
	text = strings.TrimSpace(text)
	return Material{Text: text, Title: history.TruncateTitle(text), Hint: sourceHint(true, text), Strategy: "pasted"}
}

func pageMaterial(p extract.Page) Material {
	res := extract.DefaultChain().Extract(p)
	title := res.Title
	if strings.TrimSpace(title) == "" {
		title = history.DefaultTitle
	}
	return Material{Text: res.Text, Title: title, Hint: sourceHint(false, res.Text), Strategy: res.Strategy}
}

// Read resolves src into Material. Extraction finding nothing is not an
// error; the summarizer rejects the empty text.
func (a *App) Read(ctx context.Context, src Source) (Material, error) {
	switch {
	case strings.TrimSpace(src.Text) != "":
		return pastedMaterial(src.Text), nil
	case src.File != "":
		b, err := os.ReadFile(src.File)
		if err != nil {
			return Material{}, fmt.Errorf("read page: %w", err)
		}
		return pageMaterial(extract.Page{HTML: b, Selection: src.Selection}), nil
	case src.Browser:
		return a.readBrowser(src)
	case src.URL != "":
		if a.blocked.Blocked(src.URL) {
			return Material{}, ErrBlockedURL
		}
		page, err := a.fetcher.Get(ctx, src.URL)
		if err != nil {
			return Material{}, fmt.Errorf("fetch page: %w", err)
		}
		return pageMaterial(extract.Page{HTML: page.Body, Selection: src.Selection}), nil
	case src.Stdin != nil:
		b, err := io.ReadAll(src.Stdin)
		if err != nil {
			return Material{}, fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return Material{}, ErrNoSource
		}
		return pastedMaterial(string(b)), nil
	}
	return Material{}, ErrNoSource
}

// readBrowser opens src.URL in a live window, waits for the user to press
// Enter and captures the page with its selection.
func (a *App) readBrowser(src Source) (Material, error) {
	if a.openBrowser == nil {
		return Material{}, errors.New("browser source not available")
	}
	if src.URL != "" && a.blocked.Blocked(src.URL) {
		return Material{}, ErrBlockedURL
	}
	page, err := a.openBrowser()
	if err != nil {
		return Material{}, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug().Err(err).Msg("close browser")
		}
	}()
	if err := page.Open(src.URL); err != nil {
		return Material{}, err
	}
	fmt.Fprintln(a.prompt, "Select text in the browser window (optional), then press Enter here to summarize.")
	if _, err := bufio.NewReader(a.input).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return Material{}, fmt.Errorf("wait for enter: %w", err)
	}
	// the user may have navigated elsewhere
	if a.blocked.Blocked(page.URL()) {
		return Material{}, ErrBlockedURL
	}
	p, err := page.Capture()
	if err != nil {
		return Material{}, err
	}
	resp, err := extract.Respond(extract.Request{Type: extract.MessageGetArticleText}, p)
	if err != nil {
		return Material{}, err
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = history.DefaultTitle
	}
	return Material{Text: resp.Text, Title: title, Hint: sourceHint(false, resp.Text), Strategy: "browser"}, nil
}
