package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(apiKey))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func doGet(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_OpenAccessWithoutKey(t *testing.T) {
	r := authRouter("")
	if w := doGet(r, nil); w.Code != http.StatusOK {
		t.Errorf("no configured key means open access, got %d", w.Code)
	}
}

func TestAuth_BearerToken(t *testing.T) {
	r := authRouter("secret")
	w := doGet(r, map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("valid bearer token rejected: %d", w.Code)
	}
}

func TestAuth_APIKeyHeader(t *testing.T) {
	r := authRouter("secret")
	w := doGet(r, map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("valid X-API-Key rejected: %d", w.Code)
	}
}

func TestAuth_MissingKey(t *testing.T) {
	r := authRouter("secret")
	if w := doGet(r, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key should be 401, got %d", w.Code)
	}
}

func TestAuth_WrongKey(t *testing.T) {
	r := authRouter("secret")
	w := doGet(r, map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key should be 401, got %d", w.Code)
	}
}
