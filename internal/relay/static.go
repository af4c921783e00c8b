package relay

import (
	"net/http"
	"os"
	"path/filepath"
)

// serveStaticWithIndex serves files from staticPath, falling back to
// index.html for directories and for any path that doesn't exist on
// disk (so client-side routing in the viewer UI keeps working).
func serveStaticWithIndex(staticPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqPath := r.URL.Path
		if reqPath == "/" {
			reqPath = "/index.html"
		}

		fullPath := filepath.Join(staticPath, filepath.Clean(reqPath))

		if info, err := os.Stat(fullPath); err == nil {
			if info.IsDir() {
				indexPath := filepath.Join(fullPath, "index.html")
				if _, err := os.Stat(indexPath); err == nil {
					http.ServeFile(w, r, indexPath)
					return
				}
			} else {
				http.ServeFile(w, r, fullPath)
				return
			}
		}

		indexPath := filepath.Join(staticPath, "index.html")
		if _, err := os.Stat(indexPath); err == nil {
			http.ServeFile(w, r, indexPath)
			return
		}

		http.NotFound(w, r)
	}
}
