package http

import "net/http"

// RootHandler serves the welcome message at the root path and a JSON
// 404 for unknown routes.
func RootHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			HandleWelcome(w, r)
			return
		}
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
