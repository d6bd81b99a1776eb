package httpgin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func etagRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/thing", func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, gin.H{"value": 42}, "public, max-age=30", true)
	})
	return r
}

func TestWriteJSONWithCache(t *testing.T) {
	r := etagRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=30", w.Header().Get("Cache-Control"))

	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.True(t, strings.HasPrefix(tag, "W/"))
	assert.Contains(t, w.Body.String(), `"value":42`)

	// Same payload, matching tag: 304 with no body.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req2.Header.Set("If-None-Match", tag)
	r.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusNotModified, w2.Code)
	assert.Empty(t, w2.Body.String())
	assert.Equal(t, tag, w2.Header().Get("ETag"))
}

func TestWriteJSONWithCacheStaleTag(t *testing.T) {
	r := etagRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("If-None-Match", `W/"deadbeef"`)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
}
