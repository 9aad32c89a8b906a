package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// readable is the distilled article body the format steps consume: the
// cleaned content HTML, its plain-text form, and the title readability
// recovered from the page.
type readable struct {
	html  string
	text  string
	title string
}

// Pages whose distilled text falls below this many characters are
// treated as a readability miss rather than a genuinely tiny article.
const minReadableChars = 50

// runReadability distils rawHTML down to its main content. It never
// fails outright: when the source URL will not parse, the algorithm
// errors, or the distilled text is too short to trust, the raw HTML is
// handed back unchanged and ok is false so callers can decide whether
// that is acceptable for the page at hand.
func runReadability(rawHTML, sourceURL string) (readable, bool) {
	raw := readable{html: rawHTML, text: rawHTML}

	u, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("extract: unparseable source URL, keeping raw HTML",
			"url", sourceURL, "error", err)
		return raw, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		slog.Warn("extract: readability failed, keeping raw HTML",
			"url", sourceURL, "error", err)
		return raw, false
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minReadableChars {
		slog.Warn("extract: distilled text too short, keeping raw HTML",
			"url", sourceURL, "length", len(text))
		return raw, false
	}

	return readable{html: article.Content, text: text, title: article.Title}, true
}
