package extract

import (
	"strings"
	"testing"

	"github.com/loadwire/loadwire/models"
)

func TestMetadataHeader_WithPublished(t *testing.T) {
	got := metadataHeader("A Title", "https://example.com/a", "2024-03-01T10:00:00Z")
	want := "Title: A Title\nURL Source: https://example.com/a\nPublished: 2024-03-01T10:00:00Z\n\n---\n\n"
	if got != want {
		t.Errorf("header mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestMetadataHeader_WithoutPublished(t *testing.T) {
	got := metadataHeader("A Title", "https://example.com/a", "")
	if strings.Contains(got, "Published:") {
		t.Error("header must omit the Published line when no timestamp exists")
	}
	if !strings.HasSuffix(got, "\n---\n\n") {
		t.Errorf("header must end with the separator, got %q", got)
	}
}

func TestTidyMarkdown_CollapsesBlankRuns(t *testing.T) {
	in := "line one\n\n\n\n\nline two\n\n"
	got := tidyMarkdown(in)
	if got != "line one\n\nline two" {
		t.Errorf("unexpected tidy output: %q", got)
	}
}

func TestToMarkdown_BasicConversion(t *testing.T) {
	conv := newMarkdownConverter()
	md, err := toMarkdown(conv, `<h1>Hello</h1><p>World with a <a href="/x">link</a>.</p>`, "https://example.com")
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if !strings.Contains(md, "# Hello") {
		t.Errorf("expected an h1 heading, got: %q", md)
	}
	if !strings.Contains(md, "https://example.com/x") {
		t.Errorf("relative link should be absolutized, got: %q", md)
	}
}

func TestToMarkdown_StripsScriptNoise(t *testing.T) {
	conv := newMarkdownConverter()
	md, err := toMarkdown(conv, `<p>Keep</p><script>alert(1)</script><style>p{}</style>`, "https://example.com")
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if strings.Contains(md, "alert") || strings.Contains(md, "p{}") {
		t.Errorf("script and style content must be stripped, got: %q", md)
	}
}

func TestAppendSummaries(t *testing.T) {
	images := []models.ImageInfo{{Src: "https://example.com/a.png", Alt: "diagram"}}
	links := []models.LinkInfo{{Href: "https://example.com/next", Text: "Next"}}

	out := appendImagesSummary("content", images)
	out = appendLinksSummary(out, links)

	if !strings.Contains(out, "## Images") || !strings.Contains(out, "![diagram](https://example.com/a.png)") {
		t.Errorf("missing images section: %q", out)
	}
	if !strings.Contains(out, "## Links") || !strings.Contains(out, "[Next](https://example.com/next)") {
		t.Errorf("missing links section: %q", out)
	}
}

func TestAppendSummaries_EmptyAreNoops(t *testing.T) {
	if got := appendImagesSummary("content", nil); got != "content" {
		t.Errorf("empty images summary should leave content untouched, got %q", got)
	}
	if got := appendLinksSummary("content", nil); got != "content" {
		t.Errorf("empty links summary should leave content untouched, got %q", got)
	}
}
