package health

import (
	"fmt"
	"net/http"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/svrlib"
)

type HealthRouter struct {
	*svrlib.Router
}

// RegisterRoutes registers all health check routes on the given mux
func RegisterRoutes(mux *http.ServeMux, baseRoute string, cfg *config.Config) {
	router := &HealthRouter{svrlib.NewRouter(mux, baseRoute, cfg)}
	mux.HandleFunc(baseRoute+"/healthz", router.HealthzHandler)
	mux.HandleFunc(baseRoute+"/ping", router.PingHandler)
}

// HealthzHandler responds to /healthz requests for health checks
func (rt *HealthRouter) HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

// PingHandler responds to /ping for basic connectivity checks
func (rt *HealthRouter) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up and running!")
}
