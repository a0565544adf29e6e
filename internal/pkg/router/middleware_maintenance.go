package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpsession/internal/pkg/config"
)

// middlewareMaintenance switches off routes listed in app.maintenance.endpoints.
// Entries are "METHOD /path" or a bare "/path" to block every method.
func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			method, path, found := strings.Cut(strings.TrimSpace(endpoint), " ")
			if !found {
				endpoints[method] = struct{}{}
				continue
			}
			endpoints[strings.ToUpper(method)+" "+strings.TrimSpace(path)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(endpoints) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, all := endpoints[route]
			_, one := endpoints[r.Method+" "+route]
			if all || one {
				writeJSON(w, errorResponse{Error: "Service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
