package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/wgwatch/internal/httpapi/middleware"
	"github.com/hamed0406/wgwatch/internal/repo"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 500
)

// Server exposes the monitor's status board over HTTP. It only reads.
type Server struct {
	Logger     *zap.Logger
	Store      repo.StatusStore
	Gatherer   prometheus.Gatherer
	ConfigName string

	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []string
}

func NewServer(l *zap.Logger, store repo.StatusStore, g prometheus.Gatherer, configName string) *Server {
	return &Server{Logger: l, Store: store, Gatherer: g, ConfigName: configName}
}

// Router wires the status routes. /healthz and /metrics stay open; the
// /api routes require one of keys when any are configured.
func (s *Server) Router(keys []string, reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(apimw.RateLimit(reqPerMin, burst, s.TrustedProxies...))
		api.Use(apimw.RequireKey(keys))
		api.Get("/status", s.handleStatus)
		api.Get("/events", s.handleEvents)
	})

	return r
}

type peerView struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type statusView struct {
	Configuration string `json:"configuration"`
	repo.Status
	PeerList       []peerView `json:"peer_list"`
	ConnectedPeers int        `json:"connected_peers"`
	TotalPeers     int        `json:"total_peers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Store.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("status_read_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	view := statusView{
		Configuration:  s.ConfigName,
		Status:         st,
		PeerList:       make([]peerView, 0, len(st.Snapshot.Peers)),
		ConnectedPeers: st.Snapshot.Connected(),
		TotalPeers:     len(st.Snapshot.Peers),
	}
	for _, name := range st.Snapshot.PeerNames() {
		view.PeerList = append(view.PeerList, peerView{Name: name, Connected: st.Snapshot.Peers[name]})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	evs, err := s.Store.Events(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("events_read_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "events unavailable")
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
