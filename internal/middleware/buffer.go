package middleware

import (
	"bytes"

	"github.com/gin-gonic/gin"
)

// bufferedWriter holds the response body in memory so an outer middleware
// can inspect or rewrite it before anything reaches the client. Status and
// headers still go to the wrapped writer, which gin does not flush until
// the first body write.
type bufferedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func newBufferedWriter(w gin.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{ResponseWriter: w}
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Written() bool {
	return w.body.Len() > 0 || w.ResponseWriter.Written()
}

func (w *bufferedWriter) Size() int {
	if w.body.Len() > 0 {
		return w.body.Len()
	}
	return w.ResponseWriter.Size()
}
