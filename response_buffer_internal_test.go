package brest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkResponseBuffer(b *testing.B) {
	for _, size := range []int{1024, 1024 * 64} {
		dat := make([]byte, size)

		b.Run(strconv.Itoa(size), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				resp := newBufferResponse(httptest.NewRecorder(), -1)
				if _, err := resp.Write(dat); err != nil {
					b.Fatal(err)
				}

				if err := resp.FlushBuffer(); err != nil {
					b.Fatal(err)
				}

				resp.Free()
			}
		})
	}
}

func TestBufferFlushedResponse(t *testing.T) {
	for _, tt := range []struct {
		name   string
		write  func(w ResponseWriter)
		code   int
		body   string
		header http.Header
	}{
		{
			name:  "implicit 200",
			write: func(w ResponseWriter) {},
			code:  http.StatusOK,
		},
		{
			name: "implicit status on write",
			write: func(w ResponseWriter) {
				w.Header().Set("Rab", "dar")
				fmt.Fprint(w, "foo")
			},
			code:   http.StatusOK,
			body:   "foo",
			header: http.Header{"Rab": {"dar"}},
		},
		{
			name: "first status wins",
			write: func(w ResponseWriter) {
				w.WriteHeader(http.StatusCreated)
				fmt.Fprint(w, "bar")
				w.WriteHeader(http.StatusAccepted)
			},
			code: http.StatusCreated,
			body: "bar",
		},
		{
			name: "headers can change until flushed",
			write: func(w ResponseWriter) {
				w.WriteHeader(http.StatusAccepted)
				fmt.Fprint(w, "x")
				w.Header().Set("X-Status", strconv.Itoa(w.Status()))
			},
			code:   http.StatusAccepted,
			body:   "x",
			header: http.Header{"X-Status": {"202"}},
		},
		{
			name: "reset discards status and headers",
			write: func(w ResponseWriter) {
				w.Header().Set("X-Before", "1")
				w.WriteHeader(http.StatusCreated)
				fmt.Fprint(w, "foo")
				w.Reset()
				fmt.Fprint(w, "bar")
			},
			code:   http.StatusOK,
			body:   "bar",
			header: http.Header{"X-Before": nil},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			resp := newBufferResponse(rec, 10)
			tt.write(resp)
			require.Zero(t, rec.Body.Len())

			require.NoError(t, resp.FlushBuffer())
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())

			for k, vs := range tt.header {
				assert.Equal(t, vs, rec.Result().Header.Values(k), k)
			}
		})
	}
}

func TestBufferLimit(t *testing.T) {
	for _, tt := range []struct {
		name   string
		limit  int
		writes []string
		errAt  int
	}{
		{name: "exact", limit: 1, writes: []string{"a", "b"}, errAt: 1},
		{name: "past", limit: 1, writes: []string{"ab"}, errAt: 0},
		{name: "unlimited", limit: -1, writes: []string{"ab", "cd"}, errAt: -1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			resp := newBufferResponse(rec, tt.limit)

			for i, s := range tt.writes {
				n, err := resp.Write([]byte(s))
				if i == tt.errAt {
					require.ErrorIs(t, err, ErrBufferFull)
					require.Equal(t, CodeInsufficientStorage, CodeOf(err))
					require.Zero(t, n)
					require.True(t, resp.overflowed)

					continue
				}

				require.NoError(t, err)
				require.Equal(t, len(s), n)
			}

			assert.Zero(t, rec.Body.Len())
		})
	}

	t.Run("reset clears the overflow", func(t *testing.T) {
		resp := newBufferResponse(httptest.NewRecorder(), 2)
		_, err := resp.Write([]byte("foo"))
		require.ErrorIs(t, err, ErrBufferFull)

		resp.Reset()
		require.False(t, resp.overflowed)

		n, err := resp.Write([]byte("fo"))
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("limit applies per flush", func(t *testing.T) {
		rec := httptest.NewRecorder()
		resp := newBufferResponse(rec, 2)

		for range 3 {
			_, err := resp.Write([]byte{0x01, 0x02})
			require.NoError(t, err)
			require.NoError(t, resp.FlushError())
		}

		assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x02, 0x01, 0x02}, rec.Body.Bytes())
	})
}

func TestBufferFlushing(t *testing.T) {
	t.Run("response controller reaches the buffer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		resp := newBufferResponse(rec, -1)
		fmt.Fprint(resp, "aaa")

		require.NoError(t, http.NewResponseController(resp).Flush())
		assert.Equal(t, "aaa", rec.Body.String())
		assert.True(t, rec.Flushed)
		assert.Same(t, rec, resp.Unwrap())

		assert.PanicsWithValue(t, "brest: cannot reset response, it was already flushed", resp.Reset)
	})

	t.Run("write errors are returned", func(t *testing.T) {
		resp := newBufferResponse(failingResponseWriter{httptest.NewRecorder()}, -1)
		fmt.Fprint(resp, "foo")
		require.ErrorContains(t, resp.FlushError(), "write fail")
	})
}

type failingResponseWriter struct {
	http.ResponseWriter
}

func (f failingResponseWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write fail")
}

func TestBufferStatusAndFree(t *testing.T) {
	rec := httptest.NewRecorder()
	resp := newBufferResponse(rec, -1)
	require.Equal(t, http.StatusOK, resp.Status())

	resp.WriteHeader(http.StatusTeapot)
	resp.WriteHeader(http.StatusCreated)
	require.Equal(t, http.StatusTeapot, resp.Status())

	_, err := fmt.Fprint(resp, "abc")
	require.NoError(t, err)
	require.Equal(t, 3, resp.Len())
	require.False(t, resp.Flushed())

	require.NoError(t, resp.FlushBuffer())
	require.True(t, resp.Flushed())
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 0, resp.Len())

	resp.Free()
	resp.Free()
	require.Equal(t, 0, resp.Len())

	_, err = resp.Write([]byte("x"))
	require.ErrorContains(t, err, "freed response buffer")
	require.ErrorContains(t, resp.FlushBuffer(), "freed response buffer")
}
