package brest_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/advdv/brest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}

	return dir
}

func TestStatic(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.html":     "<h1>home</h1>",
		"a.txt":          "hello",
		"sub/b.txt":      "nested",
		"sub/index.html": "sub home",
	})

	mux := brest.NewServeMux()
	require.NoError(t, mux.Static("/static", dir))

	assert.Equal(t, []brest.RouteInfo{
		{Verb: brest.GET, Pattern: "/static/*", Kind: brest.KindImmediate},
	}, mux.AllRoutes())

	for target, body := range map[string]string{
		"/static/a.txt":     "hello",
		"/static/sub/b.txt": "nested",
		"/static":           "<h1>home</h1>",
		"/static/sub":       "sub home",
	} {
		rec := serve(mux, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, body, rec.Body.String(), target)
	}

	t.Run("range", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/static/a.txt", nil)
		req.Header.Set("Range", "bytes=1-3")
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "ell", rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/static/nope.txt")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"code":404,"msg":"GET /static/nope.txt"}`, rec.Body.String())
	})

	t.Run("escape root", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/static/../secret")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStaticRootDefaultDocument(t *testing.T) {
	dir := writeFiles(t, map[string]string{"index.html": "root"})

	mux := brest.NewServeMux()
	require.NoError(t, mux.Static("/", dir))

	rec := serve(mux, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())
}

func TestStaticSingleFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"robots.txt": "User-agent: *"})

	mux := brest.NewServeMux()
	require.NoError(t, mux.Static("/robots.txt", filepath.Join(dir, "robots.txt")))

	rec := serve(mux, http.MethodGet, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *", rec.Body.String())

	rec = serve(mux, http.MethodGet, "/robots.txt/x")
	require.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("root prefix", func(t *testing.T) {
		page := writeFiles(t, map[string]string{"page.html": "<p>page</p>"})

		mux := brest.NewServeMux()
		require.NoError(t, mux.Static("/", filepath.Join(page, "page.html")))

		for _, target := range []string{"/", "/index.html"} {
			rec := serve(mux, http.MethodGet, target)
			require.Equal(t, http.StatusOK, rec.Code, target)
			assert.Equal(t, "<p>page</p>", rec.Body.String(), target)
		}
	})
}

func TestStaticMissingRoot(t *testing.T) {
	mux := brest.NewServeMux()
	require.ErrorContains(t, mux.Static("/x", filepath.Join(t.TempDir(), "nope")), "stat static root")
}
