package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-discovery/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.WriteError(c, common.ErrPayloadTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})
	r.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func post(r http.Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeduplication(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Second, func() time.Time { return now })
	r := echoRouter(d.Middleware())

	first := post(r, "alice", `{"query":"pasta"}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, `{"query":"pasta"}`, first.Body.String())

	dup := post(r, "alice", `{"query":"pasta"}`)
	assert.Equal(t, http.StatusTooManyRequests, dup.Code)
	assert.Contains(t, dup.Body.String(), common.ErrCodeTooManyRequests)

	t.Run("different caller", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(r, "bob", `{"query":"pasta"}`).Code)
	})

	t.Run("different body", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(r, "alice", `{"query":"soup"}`).Code)
	})

	t.Run("after window", func(t *testing.T) {
		now = now.Add(1500 * time.Millisecond)
		assert.Equal(t, http.StatusOK, post(r, "alice", `{"query":"pasta"}`).Code)
	})

	t.Run("get is not deduplicated", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestDeduplicationPrunesExpired(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Second, func() time.Time { return now })
	r := echoRouter(d.Middleware())

	for _, body := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusOK, post(r, "alice", body).Code)
	}
	assert.Equal(t, 3, d.Len())

	now = now.Add(time.Minute)
	require.Equal(t, http.StatusOK, post(r, "alice", "d").Code)
	assert.Equal(t, 1, d.Len())
}

func TestBodySizeLimit(t *testing.T) {
	r := echoRouter(BodySizeLimit(16))

	t.Run("within limit", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(r, "", "small").Code)
	})

	t.Run("content length over limit", func(t *testing.T) {
		w := post(r, "", strings.Repeat("x", 64))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), common.ErrCodePayloadTooLarge)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestDeduplicationAfterBodyLimit(t *testing.T) {
	r := echoRouter(BodySizeLimit(16), NewDeduplicator(time.Second, nil).Middleware())

	req := httptest.NewRequest(http.MethodPost, "/echo", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeRequestTimeout)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeInternalError)
}
