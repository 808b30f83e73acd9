// Package browser drives a visible Chromium window so the user can pick a
// page and a selection to summarize.
package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/extract"
)

const selectionScript = `() => { const s = window.getSelection(); return s ? s.toString() : ""; }`

// Options configure Launch.
type Options struct {
	// Install downloads the driver and browser when missing.
	Install bool
	// Headless hides the window; only useful for tests.
	Headless bool
	// TimeoutMs bounds navigation and evaluation. Zero uses 30s.
	TimeoutMs float64
}

// Session is one browser window with a single page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// Launch starts Playwright and opens a blank page.
func Launch(opts Options) (*Session, error) {
	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}, Verbose: false, Stdout: io.Discard, Stderr: io.Discard}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}
	timeout := opts.TimeoutMs
	if timeout <= 0 {
		timeout = 30000
	}
	page.SetDefaultTimeout(timeout)
	return &Session{pw: pw, browser: b, page: page}, nil
}

// Open navigates to url. An empty url leaves the current page.
func (s *Session) Open(url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// URL is the address of the page as currently shown.
func (s *Session) URL() string { return s.page.URL() }

// Capture snapshots the page markup, its title and the user's selection.
func (s *Session) Capture() (extract.Page, error) {
	content, err := s.page.Content()
	if err != nil {
		return extract.Page{}, fmt.Errorf("read page: %w", err)
	}
	title, err := s.page.Title()
	if err != nil {
		log.Debug().Err(err).Msg("page title unavailable")
	}
	var selection string
	if v, err := s.page.Evaluate(selectionScript); err != nil {
		log.Debug().Err(err).Msg("selection unavailable")
	} else if str, ok := v.(string); ok {
		selection = str
	}
	return extract.Page{HTML: []byte(content), Title: title, Selection: selection}, nil
}

// Close shuts the window and the driver.
func (s *Session) Close() error {
	var firstErr error
	if err := s.browser.Close(); err != nil {
		firstErr = fmt.Errorf("close browser: %w", err)
	}
	if err := s.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop playwright: %w", err)
	}
	return firstErr
}
