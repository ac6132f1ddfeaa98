package brest

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned from Write when the response would grow beyond the configured buffer limit.
var ErrBufferFull = NewError(CodeInsufficientStorage, errors.New("response buffer limit exceeded"))

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer is the default [ResponseWriter]. Status, headers and body are held in memory until
// they are flushed, which allows after hooks to observe and adjust the final response.
type ResponseBuffer struct {
	resp        http.ResponseWriter
	buf         *bytes.Buffer
	limit       int
	header      http.Header
	status      int
	wroteHeader bool
	flushed     bool
	overflowed  bool
}

// NewResponseWriter buffers writes for 'resp'. A negative limit disables the size check.
func NewResponseWriter(resp http.ResponseWriter, limit int) *ResponseBuffer {
	return newBufferResponse(resp, limit)
}

func newBufferResponse(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		buf:    buf,
		limit:  limit,
		header: make(http.Header),
		status: http.StatusOK,
	}
}

// Header returns the buffered header map. Changes after the first flush are not sent.
func (w *ResponseBuffer) Header() http.Header { return w.header }

// Write appends to the buffer.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if w.buf == nil {
		return 0, errors.New("brest: write on a freed response buffer")
	}

	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		w.overflowed = true
		return 0, ErrBufferFull
	}

	return w.buf.Write(p)
}

// WriteHeader records the status code. Like the standard library only the first call has effect,
// until the buffer is Reset.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.status = statusCode
}

// Status returns the status code that will be, or was, written.
func (w *ResponseBuffer) Status() int { return w.status }

// Len returns the number of buffered body bytes.
func (w *ResponseBuffer) Len() int {
	if w.buf == nil {
		return 0
	}

	return w.buf.Len()
}

// Reset discards the buffered body, headers and status. It panics when part of
// the response was already flushed.
func (w *ResponseBuffer) Reset() {
	if w.flushed {
		panic("brest: cannot reset response, it was already flushed")
	}

	if w.buf != nil {
		w.buf.Reset()
	}

	w.header = make(http.Header)
	w.status = http.StatusOK
	w.wroteHeader = false
	w.overflowed = false
}

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	bufPool.Put(w.buf)
	w.buf = nil
}

// FlushBuffer writes what is buffered to the underlying writer. The status and
// headers are written on the first flush only.
func (w *ResponseBuffer) FlushBuffer() error {
	if w.buf == nil {
		return errors.New("brest: flush of a freed response buffer")
	}

	if !w.flushed {
		w.flushed = true

		dst := w.resp.Header()
		for k, vs := range w.header {
			dst[k] = vs
		}

		w.resp.WriteHeader(w.status)
	}

	if _, err := w.buf.WriteTo(w.resp); err != nil {
		return errors.Wrap(err, "write buffered body")
	}

	return nil
}

// FlushError flushes the buffer and then the underlying writer. It is used by
// http.ResponseController.
func (w *ResponseBuffer) FlushError() error {
	if err := w.FlushBuffer(); err != nil {
		return err
	}

	if err := http.NewResponseController(w.resp).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying writer")
	}

	return nil
}

// Flushed reports whether part of the response was written to the client.
func (w *ResponseBuffer) Flushed() bool { return w.flushed }

// Unwrap allows http.ResponseController to reach the underlying writer.
func (w *ResponseBuffer) Unwrap() http.ResponseWriter { return w.resp }

var _ ResponseWriter = (*ResponseBuffer)(nil)
