package server

import (
	"net/http"

	"example.com/cansubmit/internal/common"
)

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/makes", s.handleMakes)
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/generations", s.handleGenerations)
	mux.HandleFunc("/api/parameters", s.handleParameters)
	mux.HandleFunc("/api/bus-types", s.handleBusTypes)
	mux.HandleFunc("/api/can-buses", s.handleCanBuses)
	mux.HandleFunc("/api/dimensions", s.handleDimensions)
	mux.HandleFunc("/api/generation-parameters", s.handleGenerationParameters)
	mux.HandleFunc("/api/submissions", s.handleSubmissions)
	mux.HandleFunc("/api/health", s.handleHealth)
	return withRequestCount(s.metrics, mux)
}

func withRequestCount(m *common.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.IncRequest()
		next.ServeHTTP(w, r)
	})
}
