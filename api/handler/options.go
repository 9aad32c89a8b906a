package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/models"
)

// buildRequest assembles an ExtractionRequest for one URL from the x-*
// option headers, falling back to the JSON body options where a header
// is absent. Headers win because clients that send both typically use
// the body for shared batch options and headers for overrides.
func buildRequest(c *gin.Context, pageURL string, opts models.RequestOptions) *models.ExtractionRequest {
	req := &models.ExtractionRequest{
		URL:             pageURL,
		Format:          models.ParseFormat(c.GetHeader("x-respond-with")),
		WaitForSelector: headerOr(c, "x-wait-for-selector", opts.WaitForSelector),
		TargetSelector:  headerOr(c, "x-target-selector", opts.TargetSelector),
		RemoveSelector:  headerOr(c, "x-remove-selector", opts.RemoveSelector),
		Cookies:         c.GetHeader("x-set-cookie"),
	}

	if secs := headerInt(c, "x-timeout"); secs > 0 {
		req.Timeout = time.Duration(secs) * time.Second
	} else if opts.Timeout > 0 {
		req.Timeout = time.Duration(opts.Timeout) * time.Second
	}

	req.NoCache = headerBool(c, "x-no-cache")
	if secs := headerInt(c, "x-cache-tolerance"); secs > 0 {
		req.CacheTolerance = time.Duration(secs) * time.Second
	}

	req.WithImagesSummary = headerBool(c, "x-with-images-summary")
	req.WithLinksSummary = headerBool(c, "x-with-links-summary")
	req.Stealth = headerBool(c, "x-stealth")

	return req
}

func headerOr(c *gin.Context, name, fallback string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback
}

func headerInt(c *gin.Context, name string) int {
	v := strings.TrimSpace(c.GetHeader(name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func headerBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.GetHeader(name))) {
	case "true", "1", "yes":
		return true
	}
	return false
}
