// Package extract turns a checked-out browser session into the response
// content a request asked for: navigation, selector handling, and
// rendering into markdown, html, text, or a screenshot.
package extract

import (
	"context"
	"errors"
	"log/slog"
	nurl "net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/loadwire/loadwire/browser"
	"github.com/loadwire/loadwire/models"
	"github.com/loadwire/loadwire/screenshot"
)

// Pipeline renders pages and shapes their content. It is stateless apart
// from the shared markdown converter and screenshot store, so one
// instance serves all requests concurrently.
type Pipeline struct {
	mdConverter *converter.Converter
	shots       *screenshot.Store
}

// NewPipeline creates a Pipeline backed by the given screenshot store.
func NewPipeline(shots *screenshot.Store) *Pipeline {
	return &Pipeline{
		mdConverter: newMarkdownConverter(),
		shots:       shots,
	}
}

// Extract runs the full rendering sequence on the session's page.
//
// Lifecycle:
//
//  1. Stealth injection     – must precede navigation to take effect
//  2. Cookie installation   – must precede navigation
//  3. Navigate              – connection faults are surfaced as such so
//     the pool can condemn the slot
//  4. DOM stabilization     – best effort, never fatal
//  5. wait-for-selector     – hard deadline from the request timeout
//  6. Screenshot branch     – shot formats never touch the HTML path
//  7. HTML capture          – single snapshot used by every text format
//  8. remove-selector, then target-selector, then format dispatch
func (pl *Pipeline) Extract(ctx context.Context, sess *browser.Session, req *models.ExtractionRequest) (*models.LoadResponse, error) {
	p := sess.Page().Context(ctx)

	if req.Stealth {
		if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"url", req.URL, "error", err)
		}
	}

	installReferer(p, req.URL)
	if req.Cookies != "" {
		installCookies(p, req.URL, req.Cookies)
	}

	if err := p.Navigate(req.URL); err != nil {
		return nil, models.CategorizeNavError(err, "navigation to target URL failed")
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", req.URL, "error", err)
	}

	if req.WaitForSelector != "" {
		if err := waitForSelector(p, req.WaitForSelector); err != nil {
			return nil, err
		}
	}

	if req.Format.IsShot() {
		return pl.captureShot(p, req)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, models.CategorizeNavError(err, "failed to capture page HTML")
	}

	return pl.shapeContent(rawHTML, req)
}

// shapeContent applies the selector steps and renders the requested
// format from an HTML snapshot. It needs no live browser, which keeps it
// independently testable.
func (pl *Pipeline) shapeContent(rawHTML string, req *models.ExtractionRequest) (*models.LoadResponse, error) {
	var err error
	if req.RemoveSelector != "" {
		if rawHTML, err = removeMatching(rawHTML, req.RemoveSelector); err != nil {
			return nil, err
		}
	}
	if req.TargetSelector != "" {
		if rawHTML, err = applyTargetSelector(rawHTML, req.TargetSelector); err != nil {
			return nil, err
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewLoadError(models.ErrCodeExtractionFailed,
			"failed to parse page HTML", err)
	}

	resp := &models.LoadResponse{
		URL:           req.URL,
		Title:         pageTitle(doc),
		PublishedTime: publishedTime(doc),
	}
	if req.WithImagesSummary {
		resp.Images = collectImages(doc, req.URL)
	}
	if req.WithLinksSummary {
		resp.Links = collectLinks(doc, req.URL)
	}

	switch req.Format {
	case models.FormatHTML:
		resp.Content = rawHTML

	case models.FormatText:
		article, _ := runReadability(rawHTML, req.URL)
		resp.Content = strings.TrimSpace(article.text)
		if resp.Title == "" {
			resp.Title = article.title
		}

	default: // markdown and the default format
		article, distilled := runReadability(rawHTML, req.URL)
		if resp.Title == "" {
			resp.Title = article.title
		}
		source := article.html
		if !distilled && req.TargetSelector != "" {
			// The caller already narrowed the document; readability
			// refusing a short fragment is expected there.
			source = rawHTML
		}
		md, err := toMarkdown(pl.mdConverter, source, domainOf(req.URL))
		if err != nil {
			return nil, models.NewLoadError(models.ErrCodeExtractionFailed,
				"markdown conversion failed", err)
		}
		content := metadataHeader(resp.Title, req.URL, resp.PublishedTime) + tidyMarkdown(md)
		if req.WithImagesSummary {
			content = appendImagesSummary(content, resp.Images)
		}
		if req.WithLinksSummary {
			content = appendLinksSummary(content, resp.Links)
		}
		resp.Content = content
	}

	return resp, nil
}

// captureShot takes a viewport or full-page PNG and persists it.
func (pl *Pipeline) captureShot(p *rod.Page, req *models.ExtractionRequest) (*models.LoadResponse, error) {
	fullPage := req.Format == models.FormatPageshot
	data, err := p.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		if models.IsConnectionError(err) {
			return nil, models.NewLoadError(models.ErrCodeConnection,
				"browser connection lost during screenshot", err)
		}
		return nil, models.NewLoadError(models.ErrCodeScreenshotFailed,
			"screenshot capture failed", err)
	}

	path, err := pl.shots.Save(data, req.URL)
	if err != nil {
		return nil, err
	}

	title := ""
	if res, evalErr := p.Eval(`() => document.title`); evalErr == nil {
		title = res.Value.Str()
	}

	return &models.LoadResponse{
		URL:           req.URL,
		Title:         title,
		ScreenshotURL: path,
	}, nil
}

// waitForSelector blocks until the selector matches or the page context
// expires. Rod's Element call retries internally, so a deadline error
// here means the selector never appeared in time.
func waitForSelector(p *rod.Page, selector string) error {
	if _, err := p.Element(selector); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.NewLoadError(models.ErrCodeSelectorTimeout,
				"timed out waiting for selector "+selector, err)
		}
		if models.IsConnectionError(err) {
			return models.NewLoadError(models.ErrCodeConnection,
				"browser connection lost while waiting for selector", err)
		}
		return models.NewLoadError(models.ErrCodeSelectorTimeout,
			"failed waiting for selector "+selector, err)
	}
	return nil
}

// installReferer sets a Google-search Referer so pages that gate direct
// traffic still render. Best effort.
func installReferer(p *rod.Page, pageURL string) {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return
	}
	headers := proto.NetworkHeaders{
		"Referer": gson.New("https://www.google.com/search?q=" + nurl.QueryEscape(u.Hostname())),
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(p)); err != nil {
		slog.Debug("referer installation failed", "error", err)
	}
}

// installCookies parses a "name=value; name2=value2" list and installs
// each cookie scoped to the target host. Failures are non-fatal.
func installCookies(p *rod.Page, pageURL, cookies string) {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return
	}
	for _, pair := range strings.Split(cookies, ";") {
		pair = strings.TrimSpace(pair)
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		_, setErr := proto.NetworkSetCookie{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: u.Hostname(),
			Path:   "/",
		}.Call(p)
		if setErr != nil {
			slog.Debug("cookie installation failed", "name", name, "error", setErr)
		}
	}
}

func domainOf(pageURL string) string {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
