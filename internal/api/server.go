// Package api exposes a bridge node over HTTP/JSON.
//
// Every bridge operation has one route under /v1. The calling identity is
// taken from the X-Bridge-Caller header; authentication of that header is
// left to the deployment (mTLS or a fronting proxy). Prometheus metrics are
// served on /metrics.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/xbridge/internal/bridge"
)

// CallerHeader names the request header carrying the caller identity.
const CallerHeader = "X-Bridge-Caller"

// Route binds a handler to a method and path pattern.
type Route struct {
	Name    string
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// NewRouter returns the node's HTTP handler. gatherer backs /metrics; nil
// uses the default prometheus registry.
func NewRouter(b *bridge.Bridge, gatherer prometheus.Gatherer) *mux.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Methods(http.MethodGet).Path("/metrics").Name("Metrics").
		Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(loggingMiddleware)
	for _, route := range routes(&handler{bridge: b}) {
		v1.Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(route.Handler)
	}
	return router
}

// NewServer returns an HTTP server for handler listening on addr.
func NewServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Execute waits on the outbound contract call.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

func routes(h *handler) []Route {
	return []Route{
		{"Info", http.MethodGet, "/info", h.info},

		{"RolesGet", http.MethodGet, "/roles/{role}", h.listRole},
		{"RolesPost", http.MethodPost, "/roles/{role}", h.register},
		{"ValidatorDelete", http.MethodDelete, "/roles/validator/{identity}", h.unregisterValidator},

		{"InboundPost", http.MethodPost, "/inbound/{id:[0-9]+}", h.receive},
		{"PendingGet", http.MethodGet, "/pending", h.pending},
		{"ExecutableGet", http.MethodGet, "/executable", h.executable},
		{"ExecutePost", http.MethodPost, "/executable/{chain}/{id:[0-9]+}/execute", h.execute},
		{"DispatchLogGet", http.MethodGet, "/dispatch/{chain}/{id:[0-9]+}", h.dispatchLog},

		{"OutboundPost", http.MethodPost, "/outbound", h.send},
		{"SentGet", http.MethodGet, "/sent", h.sent},
		{"SentChainGet", http.MethodGet, "/sent/{chain}", h.sentTo},
		{"SentCountGet", http.MethodGet, "/sent/{chain}/count", h.sentCount},
		{"SentIdGet", http.MethodGet, "/sent/{chain}/{id:[0-9]+}", h.sentByID},

		{"LatestIdGet", http.MethodGet, "/watermarks/{chain}", h.latestID},
		{"FinalReceivedIdGet", http.MethodGet, "/watermarks/{chain}/{validator}", h.finalReceivedID},
		{"PortingTaskGet", http.MethodGet, "/tasks/{chain}/{validator}", h.portingTask},

		{"ClearReceivedPost", http.MethodPost, "/maintenance/clear-received", h.clearReceived},
		{"ClearSentPost", http.MethodPost, "/maintenance/clear-sent", h.clearSent},
	}
}

// loggingMiddleware logs method, uri, status and duration of each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, req)

		level := slog.LevelDebug
		if rw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(req.Context(), level, "api",
			"method", req.Method,
			"uri", req.RequestURI,
			"caller", req.Header.Get(CallerHeader),
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWriter captures the response code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
