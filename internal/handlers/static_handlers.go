package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

// SPAHandler serves the built front end. Unknown paths fall back to
// index.html so deep links like /?room=CODE resolve client-side.
func SPAHandler(publicDir string) http.Handler {
	fileServer := http.FileServer(http.Dir(publicDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(publicDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(publicDir, "index.html"))
	})
}
