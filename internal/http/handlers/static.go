package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves the built frontend. Unknown paths fall back to index.html so
// client-side routes resolve; API-looking paths get a JSON 404 instead.
func (a *App) SPA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		a.json(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	if isAPIPath(r.URL.Path) || a.staticDir == "" {
		a.json(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	clean := path.Clean("/" + r.URL.Path)
	if serveFile(w, r, filepath.Join(a.staticDir, filepath.FromSlash(clean))) {
		return
	}
	if serveFile(w, r, filepath.Join(a.staticDir, "index.html")) {
		return
	}
	a.json(w, http.StatusNotFound, errorBody{Error: "not found"})
}

// serveFile writes name when it is a regular file and reports whether it did.
func serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

var apiPrefixes = []string{"/api/", "/admin/", "/analyze-", "/edit-image", "/generate-backgrounds", "/test-prompt"}

func isAPIPath(p string) bool {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
