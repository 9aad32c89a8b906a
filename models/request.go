package models

import (
	"strings"
	"time"
)

// OutputFormat selects the representation of the extracted content.
type OutputFormat string

const (
	// FormatDefault behaves like FormatMarkdown.
	FormatDefault    OutputFormat = "default"
	FormatMarkdown   OutputFormat = "markdown"
	FormatHTML       OutputFormat = "html"
	FormatText       OutputFormat = "text"
	FormatScreenshot OutputFormat = "screenshot"
	FormatPageshot   OutputFormat = "pageshot"
)

// ParseFormat maps an x-respond-with header value to an OutputFormat.
// Unknown values fall back to the default format.
func ParseFormat(value string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "markdown":
		return FormatMarkdown
	case "html":
		return FormatHTML
	case "text":
		return FormatText
	case "screenshot":
		return FormatScreenshot
	case "pageshot":
		return FormatPageshot
	default:
		return FormatDefault
	}
}

// IsShot reports whether the format produces an image instead of text.
func (f OutputFormat) IsShot() bool {
	return f == FormatScreenshot || f == FormatPageshot
}

// ExtractionRequest is the fully-parsed description of one extraction.
// The transport layer builds it from headers and the JSON body; the core
// treats it as an immutable value.
type ExtractionRequest struct {
	// URL is the target page. Required.
	URL string `json:"url" binding:"required,url"`

	// Format controls the response content representation.
	Format OutputFormat `json:"respond_with,omitempty"`

	// WaitForSelector delays extraction until the selector appears.
	WaitForSelector string `json:"wait_for_selector,omitempty"`

	// TargetSelector restricts extraction to the matching subtree.
	TargetSelector string `json:"target_selector,omitempty"`

	// RemoveSelector strips matching elements before extraction.
	RemoveSelector string `json:"remove_selector,omitempty"`

	// Timeout is the hard deadline for the whole operation.
	// Zero means the configured default.
	Timeout time.Duration `json:"-"`

	// Cookies is a "name=value; name2=value2" list installed on the page
	// before navigation.
	Cookies string `json:"-"`

	// NoCache skips both the cache read and the cache write.
	NoCache bool `json:"-"`

	// CacheTolerance overrides the maximum acceptable entry age on reads.
	// Zero means the entry's own TTL.
	CacheTolerance time.Duration `json:"-"`

	// WithImagesSummary attaches an images listing to the result.
	WithImagesSummary bool `json:"-"`

	// WithLinksSummary attaches a links listing to the result.
	WithLinksSummary bool `json:"-"`

	// Stealth enables anti-bot-detection evasions before navigation.
	Stealth bool `json:"-"`
}

// RequestOptions is the optional JSON body counterpart of the x-* headers.
type RequestOptions struct {
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	TargetSelector  string `json:"target_selector,omitempty"`
	RemoveSelector  string `json:"remove_selector,omitempty"`

	// Timeout is in seconds, matching the x-timeout header.
	Timeout int `json:"timeout,omitempty"`
}

// LoadRequest is the payload for POST /load.
type LoadRequest struct {
	URL     string         `json:"url" binding:"required"`
	Options RequestOptions `json:"options"`
}

// BatchLoadRequest is the payload for POST /load/batch. Options are shared
// by every URL in the batch.
type BatchLoadRequest struct {
	URLs    []string       `json:"urls" binding:"required,min=1"`
	Options RequestOptions `json:"options"`
}

// OpenWebUIRequest is the payload for the OpenWebUI-flavored endpoint.
type OpenWebUIRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// ApplyDefaults clamps the timeout into [1, max] and fills the default.
func (r *ExtractionRequest) ApplyDefaults(defaultTimeout, maxTimeout time.Duration) {
	if r.Format == "" {
		r.Format = FormatDefault
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultTimeout
	}
	if maxTimeout > 0 && r.Timeout > maxTimeout {
		r.Timeout = maxTimeout
	}
}
