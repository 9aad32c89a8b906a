package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/browser"
	"github.com/loadwire/loadwire/models"
)

type staticPool struct {
	stats models.PoolStats
}

func (p *staticPool) Checkout(context.Context) (*browser.Session, error) {
	return nil, nil
}
func (p *staticPool) Return(*browser.Session, error) {}
func (p *staticPool) Stats() models.PoolStats        { return p.stats }

func healthGet(t *testing.T, stats models.PoolStats) models.HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(&staticPool{stats: stats}, time.Now().Add(-time.Minute), "0.1.0"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health endpoint returned %d", w.Code)
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health response unparsable: %v", err)
	}
	return resp
}

func TestHealth_Healthy(t *testing.T) {
	resp := healthGet(t, models.PoolStats{Available: 4, Total: 5, Healthy: 5})
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.BrowserPool.Total != 5 {
		t.Errorf("pool stats not propagated: %+v", resp.BrowserPool)
	}
	if resp.Version != "0.1.0" {
		t.Errorf("version = %q", resp.Version)
	}
}

func TestHealth_DegradedUnderPressure(t *testing.T) {
	resp := healthGet(t, models.PoolStats{Available: 0, Total: 5, Healthy: 5})
	if resp.Status != "degraded" {
		t.Errorf("fully-busy pool should degrade status, got %q", resp.Status)
	}
}
