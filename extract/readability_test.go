package extract

import (
	"strings"
	"testing"
)

func TestRunReadability_DistilsArticleBody(t *testing.T) {
	r, ok := runReadability(articlePage, "https://example.com/post")
	if !ok {
		t.Fatal("expected the article page to distil")
	}
	if !strings.Contains(r.text, "first paragraph of the article body") {
		t.Errorf("distilled text missing article body: %q", r.text)
	}
	if strings.Contains(r.html, "<nav>") {
		t.Error("distilled html should drop navigation chrome")
	}
	if r.title == "" {
		t.Error("expected a recovered title")
	}
}

func TestRunReadability_ShortPageKeepsRawHTML(t *testing.T) {
	raw := `<html><body><p>tiny</p></body></html>`
	r, ok := runReadability(raw, "https://example.com/")
	if ok {
		t.Fatal("a near-empty page must not count as distilled")
	}
	if r.html != raw || r.text != raw {
		t.Error("fallback must hand back the raw HTML unchanged")
	}
}

func TestRunReadability_BadURLKeepsRawHTML(t *testing.T) {
	if _, ok := runReadability(articlePage, "http://bad url\x7f"); ok {
		t.Error("an unparseable source URL must fall back")
	}
}
