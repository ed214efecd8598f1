package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/louisbranch/paidportfolio/internal/platform/httpx"
)

// StaticHandler serves a built single-page app. Paths that do not name a file
// fall back to index.html so client-side routes resolve.
type StaticHandler struct {
	root  string
	files http.Handler
}

// NewStaticHandler serves files from root. The directory and its index.html
// must exist.
func NewStaticHandler(root string) (*StaticHandler, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("static root is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("static root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %s is not a directory", root)
	}
	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		return nil, fmt.Errorf("static index: %w", err)
	}
	return &StaticHandler{root: root, files: http.FileServer(http.Dir(root))}, nil
}

// ServeHTTP serves the requested asset or the app shell.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	name := path.Clean("/" + r.URL.Path)
	if name == "/api" || strings.HasPrefix(name, "/api/") {
		_ = httpx.WriteJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	if name != "/" {
		info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(name)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}
	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}
