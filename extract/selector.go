package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/loadwire/loadwire/models"
)

// removeMatching strips every element matching the selector list from the
// document and returns the remaining HTML. Selector parse errors are
// reported as invalid input since they come straight from the request.
func removeMatching(rawHTML, selectors string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewLoadError(models.ErrCodeExtractionFailed,
			"failed to parse page HTML", err)
	}
	for _, sel := range splitSelectors(selectors) {
		if _, err := cascadia.Parse(sel); err != nil {
			return "", models.NewLoadError(models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid remove selector %q", sel), err)
		}
		doc.Find(sel).Remove()
	}
	out, err := doc.Html()
	if err != nil {
		return "", models.NewLoadError(models.ErrCodeExtractionFailed,
			"failed to serialize pruned HTML", err)
	}
	return out, nil
}

// applyTargetSelector narrows the document to the subtrees matching the
// selector list, concatenated in document order. No match at all is an
// error so callers can tell an empty page apart from a missed selector.
func applyTargetSelector(rawHTML, selectors string) (string, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewLoadError(models.ErrCodeExtractionFailed,
			"failed to parse page HTML", err)
	}

	var matched []*html.Node
	for _, sel := range splitSelectors(selectors) {
		matcher, err := cascadia.Parse(sel)
		if err != nil {
			return "", models.NewLoadError(models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid target selector %q", sel), err)
		}
		matched = append(matched, cascadia.QueryAll(root, matcher)...)
	}
	if len(matched) == 0 {
		return "", models.NewLoadError(models.ErrCodeSelectorNotFound,
			fmt.Sprintf("no element matches target selector %q", selectors), nil)
	}

	var buf bytes.Buffer
	for _, n := range matched {
		if err := html.Render(&buf, n); err != nil {
			return "", models.NewLoadError(models.ErrCodeExtractionFailed,
				"failed to render selected subtree", err)
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// splitSelectors splits a comma-separated selector list, dropping empties.
// Commas inside :is()/:not() are not supported in header values; the
// request can pass multiple headers instead.
func splitSelectors(selectors string) []string {
	parts := strings.Split(selectors, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
