package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/Rrens/identity-api/internal/api/response"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency whose connectivity can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including connectivity of every
// named dependency
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		for _, name := range names {
			if err := deps[name].Ping(r.Context()); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
				response.ServiceUnavailable(w, name+" not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
