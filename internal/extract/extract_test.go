package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtract_SelectionWinsOverArticle(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>Sel</title></head>
      <body>
        <article><p>Article body that should be ignored when a selection exists.</p></article>
      </body>
    </html>`
	selection := "  This selected sentence is forty chars ok  "
	if n := len(strings.TrimSpace(selection)); n != 40 {
		t.Fatalf("fixture length drifted: %d", n)
	}

	res := DefaultChain().Extract(Page{HTML: []byte(html), Selection: selection})
	if res.Text != strings.TrimSpace(selection) {
		t.Fatalf("expected selection verbatim, got %q", res.Text)
	}
	if res.Strategy != "selection" {
		t.Fatalf("strategy = %q, want selection", res.Strategy)
	}
	if res.Title != "Sel" {
		t.Fatalf("title = %q", res.Title)
	}
}

func TestExtract_ShortSelectionIgnored(t *testing.T) {
	html := `<html><body><article>Article text here.</article></body></html>`
	res := DefaultChain().Extract(Page{HTML: []byte(html), Selection: "exactly thirty characters long"})
	if res.Strategy != "article" {
		t.Fatalf("30-char selection must not win; strategy=%q text=%q", res.Strategy, res.Text)
	}
	if res.Text != "Article text here." {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtract_ArticleBeforeMain(t *testing.T) {
	html := `<html><body>
        <main><p>Main text.</p></main>
        <article><h1>Heading</h1><p>Article text.</p></article>
    </body></html>`
	res := DefaultChain().Extract(Page{HTML: []byte(html)})
	if res.Strategy != "article" {
		t.Fatalf("strategy = %q, want article", res.Strategy)
	}
	if !strings.Contains(res.Text, "Heading") || !strings.Contains(res.Text, "Article text.") {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if strings.Contains(res.Text, "Main text.") {
		t.Fatalf("main must not leak into article result: %q", res.Text)
	}
}

func TestExtract_EmptyArticleFallsThroughToMain(t *testing.T) {
	html := `<html><body>
        <article>   <script>var x = 1;</script> </article>
        <main>Main content wins.</main>
    </body></html>`
	res := DefaultChain().Extract(Page{HTML: []byte(html)})
	if res.Strategy != "main" || res.Text != "Main content wins." {
		t.Fatalf("got strategy=%q text=%q", res.Strategy, res.Text)
	}
}

func TestExtract_ParagraphsJoined(t *testing.T) {
	html := `<html><body>
        <div><p>First paragraph.</p></div>
        <p>Second   paragraph
        spans lines.</p>
    </body></html>`
	res := DefaultChain().Extract(Page{HTML: []byte(html)})
	if res.Strategy != "p" {
		t.Fatalf("strategy = %q, want p", res.Strategy)
	}
	want := "First paragraph.\nSecond paragraph spans lines."
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
}

func TestExtract_LargeDivsOnly(t *testing.T) {
	long := strings.Repeat("word ", 25) // 125 chars before trimming
	html := `<html><body>
        <div>short div</div>
        <div>` + long + `</div>
    </body></html>`
	res := DefaultChain().Extract(Page{HTML: []byte(html)})
	if res.Strategy != "div" {
		t.Fatalf("strategy = %q, want div", res.Strategy)
	}
	if strings.Contains(res.Text, "short div") {
		t.Fatalf("short div must be filtered: %q", res.Text)
	}
	if !strings.HasPrefix(res.Text, "word word") {
		t.Fatalf("expected long div text, got %q", res.Text)
	}
}

func TestExtract_NothingMatches(t *testing.T) {
	res := DefaultChain().Extract(Page{HTML: []byte(`<html><head><title> T </title></head><body><span>tiny</span></body></html>`)})
	if res.Text != "" || res.Strategy != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.Title != "T" {
		t.Fatalf("title should still be reported, got %q", res.Title)
	}
}

func TestExtract_PageTitleOverridesMarkup(t *testing.T) {
	res := DefaultChain().Extract(Page{HTML: []byte(`<html><head><title>Markup</title></head><body><main>x</main></body></html>`), Title: "Tab Title"})
	if res.Title != "Tab Title" {
		t.Fatalf("title = %q", res.Title)
	}
}

func TestExtract_CustomChain(t *testing.T) {
	chain := Chain{LandmarkStrategy("main")}
	res := chain.Extract(Page{HTML: []byte(`<html><body><article>A</article><main>M</main></body></html>`)})
	if res.Text != "M" {
		t.Fatalf("custom chain should only look at main, got %q", res.Text)
	}
}

func TestRespond(t *testing.T) {
	page := Page{HTML: []byte(`<html><body><main>Hello main</main></body></html>`)}
	resp, err := Respond(Request{Type: MessageGetArticleText}, page)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Text != "Hello main" {
		t.Fatalf("text = %q", resp.Text)
	}
	if _, err := Respond(Request{Type: "PING"}, page); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("expected ErrUnknownRequest, got %v", err)
	}
}
