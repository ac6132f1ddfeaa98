package brest

import (
	"io/fs"
	"net/http"
	"os"
	"path"

	"github.com/cockroachdb/errors"
)

// Static serves the files below 'root' under 'prefix'. Requests are resolved
// through a "GET /*" route, the wildcard remainder is the file's path relative
// to 'root'. When 'root' is a single file it is served for the prefix itself
// and for [DefaultDocument] below it, so it is reachable under the root prefix.
// Files are opened with [os.OpenInRoot] so the remainder cannot escape 'root'.
func (g *Group) Static(prefix, root string, opts ...RouteOption) error {
	child, err := NewStaticGroup(root, opts...)
	if err != nil {
		return err
	}

	g.AddGroup(child, prefix)

	return nil
}

// NewStaticGroup returns a group with a single "GET /*" route that serves
// files from 'root'.
func NewStaticGroup(root string, opts ...RouteOption) (*Group, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "stat static root %q", root)
	}

	g := NewGroup()
	if fi.IsDir() {
		g.Get("/*", Immediate(func(w ResponseWriter, r *http.Request) {
			serveDirFile(w, r, root, WildcardPath(r))
		}), opts...)

		return g, nil
	}

	file := Immediate(func(w ResponseWriter, r *http.Request) {
		serveFile(w, r, root)
	})
	g.Get("/", file, opts...)
	g.Get(DefaultDocument, file, opts...)

	return g, nil
}

func serveDirFile(w ResponseWriter, r *http.Request, root, rel string) {
	if rel == "" {
		rel = "index.html"
	}

	f, err := os.OpenInRoot(root, rel)
	if err != nil {
		writeFileError(w, r, err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		writeFileError(w, r, err)
		return
	}

	if fi.IsDir() {
		serveDirFile(w, r, root, path.Join(rel, "index.html"))
		return
	}

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func serveFile(w ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		writeFileError(w, r, err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		writeFileError(w, r, err)
		return
	}

	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// writeFileError answers a failed open or stat. Paths that escape the root
// are reported as not found.
func writeFileError(w ResponseWriter, r *http.Request, err error) {
	code := http.StatusNotFound
	if errors.Is(err, fs.ErrPermission) {
		code = http.StatusForbidden
	}

	_ = WriteError(w, code, r.Method+" "+r.URL.Path)
}
