package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux; the route surface is small
// enough that a third-party router would buy nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterEventRoutes wires the inbound chat event endpoint.
func (r *Router) RegisterEventRoutes(h *EventHandler) {
	r.Handle("/bot/api/v1/events", requireMethod(http.MethodPost, h.HandleEvent))
}

// RegisterAdminRoutes wires the back-office stats and export endpoints.
func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.Handle("/admin/api/v1/stats", requireMethod(http.MethodGet, h.GetStats))
	r.Handle("/admin/api/v1/sessions", requireMethod(http.MethodGet, h.GetSessions))
	r.Handle("/admin/api/v1/export/xlsx", requireMethod(http.MethodGet, h.ExportXLSX))
	r.Handle("/admin/api/v1/export/csv", requireMethod(http.MethodGet, h.ExportCSV))
}

// RegisterHealthRoutes wires the liveness probe.
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
