package cask

import (
	"net/http"
)

// Handler returns an http.Handler implementing the single-bucket S3 API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Listing at the bucket root.
	mux.HandleFunc("GET /{$}", s.handleListObjects)

	// Object-level operations; the key is the full remaining path.
	mux.HandleFunc("GET /{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleGetObject(w, r, r.PathValue("key"))
	})
	mux.HandleFunc("PUT /{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handlePutObject(w, r, r.PathValue("key"))
	})
	mux.HandleFunc("DELETE /{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleDeleteObject(w, r, r.PathValue("key"))
	})
	mux.HandleFunc("HEAD /{key...}", func(w http.ResponseWriter, r *http.Request) {
		s.handleHeadObject(w, r, r.PathValue("key"))
	})

	return LogRequest(Recoverer(RequireAuthentication(s.cfg.Verifier, mux)))
}
