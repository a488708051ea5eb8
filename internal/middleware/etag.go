package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// ETag sets a weak validator on successful GET responses, computed with
// xxhash over the body, and answers a matching If-None-Match with 304.
func ETag() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		bw := newBufferedWriter(c.Writer)
		c.Writer = bw
		// Restore on panic so recovery writes to the real response.
		defer func() { c.Writer = bw.ResponseWriter }()
		c.Next()
		c.Writer = bw.ResponseWriter

		body := bw.body.Bytes()
		if len(body) == 0 {
			return
		}

		if bw.Status() != http.StatusOK {
			_, _ = bw.ResponseWriter.Write(body)
			return
		}

		tag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(body))
		bw.Header().Set("ETag", tag)

		if etagMatches(c.GetHeader("If-None-Match"), tag) {
			bw.Header().Del("Content-Type")
			bw.Header().Del("Content-Length")
			bw.ResponseWriter.WriteHeader(http.StatusNotModified)
			bw.ResponseWriter.WriteHeaderNow()
			return
		}

		_, _ = bw.ResponseWriter.Write(body)
	}
}

func etagMatches(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}

	opaque := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == opaque {
			return true
		}
	}
	return false
}
