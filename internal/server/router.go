package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/records", s.handleRecords)
	mux.HandleFunc("/monitoring", s.handleMonitoring)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/artifacts", s.handleArtifactList)
	mux.HandleFunc("/artifacts/", s.handleArtifactDownload)
	return mux
}
