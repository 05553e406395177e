package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/autosave"
	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/hostbridge"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	Version       string                    `json:"version"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Cached        map[capability.TypeID]int `json:"cached"`
	Network       *NetworkStats             `json:"network,omitempty"`
	Bridge        *hostbridge.Metrics       `json:"bridge,omitempty"`
	Autosave      *AutosaveStats            `json:"autosave,omitempty"`
	FeedClients   int                       `json:"feed_clients"`
}

// NetworkStats counts the blocks the flow network tracks.
type NetworkStats struct {
	Furnaces int `json:"furnaces"`
	Lamps    int `json:"lamps"`
}

// AutosaveStats reports the last and next autosave.
type AutosaveStats struct {
	Last autosave.Result `json:"last"`
	Next time.Time       `json:"next"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Version: s.version}
	if len(s.health) > 0 {
		resp.Components = make(map[string]string, len(s.health))
	}
	for name, hc := range s.health {
		if err := hc.HealthCheck(ctx); err != nil {
			resp.Components[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := StatsResponse{
		Version:     s.version,
		Cached:      s.regs.Stats(),
		FeedClients: s.hub.ClientCount(),
	}
	if !s.started.IsZero() {
		resp.UptimeSeconds = int64(time.Since(s.started).Seconds())
	}
	if s.network != nil {
		f, l := s.network.Tracked()
		resp.Network = &NetworkStats{Furnaces: f, Lamps: l}
	}
	if s.bridge != nil {
		m := s.bridge.Metrics()
		resp.Bridge = &m
	}
	if s.autosave != nil {
		resp.Autosave = &AutosaveStats{Last: s.autosave.Last(), Next: s.autosave.Next()}
	}
	writeJSON(w, http.StatusOK, resp)
}
