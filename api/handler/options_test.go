package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/models"
)

func contextWithHeaders(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/load", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestBuildRequest_HeadersParsed(t *testing.T) {
	c := contextWithHeaders(map[string]string{
		"x-respond-with":        "screenshot",
		"x-wait-for-selector":   "#app",
		"x-target-selector":     "main",
		"x-remove-selector":     "nav, footer",
		"x-timeout":             "45",
		"x-set-cookie":          "session=abc; theme=dark",
		"x-no-cache":            "true",
		"x-cache-tolerance":     "120",
		"x-with-images-summary": "true",
		"x-with-links-summary":  "1",
		"x-stealth":             "yes",
	})

	req := buildRequest(c, "https://example.com/", models.RequestOptions{})

	if req.Format != models.FormatScreenshot {
		t.Errorf("format = %q", req.Format)
	}
	if req.WaitForSelector != "#app" || req.TargetSelector != "main" || req.RemoveSelector != "nav, footer" {
		t.Errorf("selectors not parsed: %+v", req)
	}
	if req.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", req.Timeout)
	}
	if req.Cookies != "session=abc; theme=dark" {
		t.Errorf("cookies = %q", req.Cookies)
	}
	if !req.NoCache || req.CacheTolerance != 2*time.Minute {
		t.Errorf("cache controls not parsed: %+v", req)
	}
	if !req.WithImagesSummary || !req.WithLinksSummary || !req.Stealth {
		t.Errorf("boolean flags not parsed: %+v", req)
	}
}

func TestBuildRequest_BodyOptionsAsFallback(t *testing.T) {
	c := contextWithHeaders(map[string]string{
		"x-target-selector": "article",
	})
	opts := models.RequestOptions{
		WaitForSelector: "#hydrated",
		TargetSelector:  "div.ignored-because-header-wins",
		Timeout:         20,
	}

	req := buildRequest(c, "https://example.com/", opts)

	if req.WaitForSelector != "#hydrated" {
		t.Errorf("body wait selector should apply, got %q", req.WaitForSelector)
	}
	if req.TargetSelector != "article" {
		t.Errorf("header must win over body, got %q", req.TargetSelector)
	}
	if req.Timeout != 20*time.Second {
		t.Errorf("body timeout should apply, got %v", req.Timeout)
	}
}

func TestBuildRequest_Defaults(t *testing.T) {
	c := contextWithHeaders(nil)
	req := buildRequest(c, "https://example.com/", models.RequestOptions{})

	if req.Format != models.FormatDefault {
		t.Errorf("format should default, got %q", req.Format)
	}
	if req.Timeout != 0 {
		t.Errorf("timeout should stay zero for the orchestrator default, got %v", req.Timeout)
	}
	if req.NoCache || req.Stealth || req.WithImagesSummary || req.WithLinksSummary {
		t.Errorf("flags should default to false: %+v", req)
	}
}

func TestBuildRequest_RejectsNegativeNumbers(t *testing.T) {
	c := contextWithHeaders(map[string]string{
		"x-timeout":         "-5",
		"x-cache-tolerance": "junk",
	})
	req := buildRequest(c, "https://example.com/", models.RequestOptions{})

	if req.Timeout != 0 || req.CacheTolerance != 0 {
		t.Errorf("invalid numeric headers must be ignored: %+v", req)
	}
}
