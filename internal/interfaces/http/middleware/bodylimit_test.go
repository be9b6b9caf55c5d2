package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type noteRequest struct {
	Note string `json:"note" binding:"required"`
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bind := func(c *gin.Context) {
		var req noteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.String(http.StatusOK, "ok")
	}
	drain := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	}
	oversized := `{"note":"` + strings.Repeat("x", 200) + `"}`

	tests := []struct {
		name     string
		limit    int64
		method   string
		body     string
		chunked  bool
		handler  gin.HandlerFunc
		wantCode int
		wantBody string
	}{
		{"within limit", 1024, http.MethodPost, `{"note":"extra napkins"}`, false, bind, http.StatusOK, "ok"},
		{"declared length over limit", 100, http.MethodPost, oversized, false, bind, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
		{"chunked body caught while binding", 100, http.MethodPost, oversized, true, bind, http.StatusRequestEntityTooLarge, "exceeds the 100 byte limit"},
		{"chunked body caught by raw reads", 50, http.MethodPost, oversized, true, drain, http.StatusBadRequest, "request body too large"},
		{"zero limit disables the check", 0, http.MethodPost, oversized, true, drain, http.StatusOK, "ok"},
		{"bodyless GET", 10, http.MethodGet, "", false, drain, http.StatusOK, "ok"},
		{"bad json is still a 400", 1024, http.MethodPost, `{"note":`, false, bind, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(tt.limit))
			router.Handle(tt.method, "/api/v1/orders", tt.handler)

			req := httptest.NewRequest(tt.method, "/api/v1/orders", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestBodyLimit_RejectionCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), BodyLimit(16))
	router.POST("/api/v1/orders", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set(RequestIDHeader, "order-req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"request_id":"order-req-1"`)
}
