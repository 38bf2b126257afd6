package api

import (
	"mpvrp-verify-service/internal/api/handlers"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/ports"
	"mpvrp-verify-service/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators of the HTTP API. Cache and Repo may be nil.
type Deps struct {
	Verifier     *services.Verifier
	Cache        ports.VerdictCache
	Repo         ports.VerdictRepository
	MaxBodyBytes int64
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	verifyHandler := &handlers.VerifyHandler{
		Verifier:     deps.Verifier,
		Cache:        deps.Cache,
		Repo:         deps.Repo,
		MaxBodyBytes: deps.MaxBodyBytes,
	}
	verdictHandler := &handlers.VerdictHandler{Repo: deps.Repo}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/verify", verifyHandler.Verify)
	mux.HandleFunc("/verdicts/", verdictHandler.Get)

	return requestIDMiddleware(loggingMiddleware(mux))
}
