// Package http exposes the catalog lookup adapter over HTTP alongside
// health and Prometheus metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gaanatag/internal/core"
	"gaanatag/internal/gaana"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	source  *gaana.Client
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	LookupsTotal       *prometheus.CounterVec
	LookupDuration     *prometheus.HistogramVec
	ImportedSongsTotal prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	metrics := &Metrics{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gaanatag_lookups_total",
				Help: "Total number of catalog lookups by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		LookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gaanatag_lookup_duration_seconds",
				Help:    "Time spent on catalog lookups",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		ImportedSongsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gaanatag_imported_songs_total",
				Help: "Total number of playlist songs imported",
			},
		),
	}

	reg.MustRegister(
		metrics.LookupsTotal,
		metrics.LookupDuration,
		metrics.ImportedSongsTotal,
	)
	return metrics
}

func NewServer(config *core.ServerConfig, source *gaana.Client, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		config:  config,
		logger:  logger,
		source:  source,
		metrics: newMetrics(registry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth(`{"status":"ok","service":"gaanatag"}`))
	mux.HandleFunc("/readyz", handleHealth(`{"status":"ready","service":"gaanatag"}`))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/albums", s.handleAlbumSearch)
	mux.HandleFunc("/api/tracks", s.handleTrackSearch)
	mux.HandleFunc("/api/album", s.handleAlbumByID)
	mux.HandleFunc("/api/track", s.handleTrackByID)
	mux.HandleFunc("/api/playlist", s.handlePlaylist)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func handleHealth(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

// handleAlbumSearch serves GET /api/albums?release=...&artist=...&va=1
func (s *Server) handleAlbumSearch(w http.ResponseWriter, r *http.Request) {
	release := r.URL.Query().Get("release")
	if release == "" {
		http.Error(w, "release parameter is required", http.StatusBadRequest)
		return
	}
	artist := r.URL.Query().Get("artist")
	vaLikely := r.URL.Query().Get("va") == "1"

	start := time.Now()
	albums := s.source.AlbumCandidates(r.Context(), artist, release, vaLikely)
	s.recordLookup("album_search", len(albums) > 0, start)

	s.writeJSON(w, albums)
}

// handleTrackSearch serves GET /api/tracks?title=...&artist=...
func (s *Server) handleTrackSearch(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		http.Error(w, "title parameter is required", http.StatusBadRequest)
		return
	}
	artist := r.URL.Query().Get("artist")

	start := time.Now()
	tracks := s.source.TrackCandidates(r.Context(), artist, title)
	s.recordLookup("track_search", len(tracks) > 0, start)

	s.writeJSON(w, tracks)
}

// handleAlbumByID serves GET /api/album?id=<catalog URL>
func (s *Server) handleAlbumByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id parameter is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	album := s.source.AlbumForID(r.Context(), id)
	s.recordLookup("album_id", album != nil, start)

	if album == nil {
		http.Error(w, "album not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, album)
}

// handleTrackByID serves GET /api/track?id=<catalog URL>
func (s *Server) handleTrackByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id parameter is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	track := s.source.TrackForID(r.Context(), id)
	s.recordLookup("track_id", track != nil, start)

	if track == nil {
		http.Error(w, "track not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, track)
}

// handlePlaylist serves GET /api/playlist?url=<catalog playlist URL>
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistURL := r.URL.Query().Get("url")
	if playlistURL == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	songs := s.source.ImportPlaylist(r.Context(), playlistURL)
	s.recordLookup("playlist", len(songs) > 0, start)
	s.metrics.ImportedSongsTotal.Add(float64(len(songs)))

	s.writeJSON(w, songs)
}

func (s *Server) recordLookup(kind string, found bool, start time.Time) {
	status := "ok"
	if !found {
		status = "empty"
	}
	s.metrics.LookupsTotal.WithLabelValues(kind, status).Inc()
	s.metrics.LookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
