package models

// LoadResponse is the result of one extraction, for POST /load and for
// each batch item. Once produced it is treated as immutable; the cache
// clones it before handing it out.
type LoadResponse struct {
	// URL is the requested page URL.
	URL string `json:"url"`

	// Title is the extracted page title, empty when none was found.
	Title string `json:"title,omitempty"`

	// Content is the extracted body in the requested format. Empty for
	// screenshot formats, which populate ScreenshotURL instead.
	Content string `json:"content"`

	// PublishedTime is the article publication timestamp when the page
	// declares one.
	PublishedTime string `json:"published_time,omitempty"`

	// Images is populated when the request set the images-summary flag.
	Images []ImageInfo `json:"images,omitempty"`

	// Links is populated when the request set the links-summary flag.
	Links []LinkInfo `json:"links,omitempty"`

	// ScreenshotURL references the persisted capture for screenshot and
	// pageshot formats.
	ScreenshotURL string `json:"screenshot_url,omitempty"`

	// Metadata carries processing accounting.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries per-request processing accounting.
type ResponseMetadata struct {
	ProcessingTimeMs int64 `json:"processing_time_ms"`
	Cached           bool  `json:"cached"`
}

// ImageInfo describes one image found on the page.
type ImageInfo struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// LinkInfo describes one hyperlink found on the page.
type LinkInfo struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// Clone returns a deep copy so cache readers never share slices with the
// stored entry.
func (r *LoadResponse) Clone() *LoadResponse {
	out := *r
	if r.Images != nil {
		out.Images = make([]ImageInfo, len(r.Images))
		copy(out.Images, r.Images)
	}
	if r.Links != nil {
		out.Links = make([]LinkInfo, len(r.Links))
		copy(out.Links, r.Links)
	}
	return &out
}

// BatchResult is one entry of a batch response. Exactly one of Response
// and Error is set.
type BatchResult struct {
	URL      string        `json:"url"`
	Response *LoadResponse `json:"response,omitempty"`
	Error    *ErrorDetail  `json:"error,omitempty"`
}

// BatchResponse is the response for POST /load/batch.
type BatchResponse struct {
	Results []BatchResult `json:"results"`

	// TotalProcessingTimeMs is the wall-clock span from first dispatch to
	// last completion, not the sum of the items.
	TotalProcessingTimeMs int64 `json:"total_processing_time_ms"`
}

// OpenWebUIDocument is the per-URL entry of the OpenWebUI-flavored
// endpoint (array-of-documents shape).
type OpenWebUIDocument struct {
	PageContent string            `json:"page_content"`
	Metadata    OpenWebUIMetadata `json:"metadata"`
}

// OpenWebUIMetadata carries the document source attribution.
type OpenWebUIMetadata struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// PoolStats reports the state of the browser slot pool.
type PoolStats struct {
	// Available is the number of slots not currently checked out.
	Available int `json:"available"`

	// Total is the configured pool capacity.
	Total int `json:"total"`

	// Healthy counts slots whose last known state is healthy.
	Healthy int `json:"healthy"`

	// RecreationCount is the process-lifetime total of slot recreations.
	// It is monotonic and never reset, so operators can watch recovery.
	RecreationCount int64 `json:"recreation_count"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string    `json:"status"` // "healthy" or "degraded"
	Uptime      string    `json:"uptime"`
	BrowserPool PoolStats `json:"browser_pool"`
	Version     string    `json:"version"`
}
