package web

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// cachingWriter buffers the response body while passing it through,
// so a successful render can be stored in the page cache.
type cachingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cachingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves GET responses from the page cache when a fresh copy
// exists, otherwise renders normally and stores the result. Entries
// expire on their own; every page variant (path plus query string) is
// cached under its own key. Requests carrying a session cookie bypass
// the cache entirely: logged-in pages embed the viewer's identity and
// flash messages and must never be shared.
func (s *WebServer) CachePage(keyPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		if cookie, err := c.Cookie("session_id"); err == nil && cookie != "" {
			c.Next()
			return
		}

		key := keyPrefix + ":" + c.Request.URL.Path
		if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
			key += "?" + rawQuery
		}

		if entry, ok := s.PageCache.Get(key); ok {
			c.Header("Content-Type", entry.ContentType)
			c.Header("X-Page-Cache", "HIT")
			c.Writer.WriteHeader(http.StatusOK)
			c.Writer.Write(entry.Body)
			c.Abort()
			return
		}

		writer := &cachingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Page-Cache", "MISS")

		c.Next()

		// Only cache successful renders
		if writer.Status() == http.StatusOK && writer.body.Len() > 0 {
			s.PageCache.Set(key, writer.body.Bytes(), writer.Header().Get("Content-Type"))
		}
	}
}
