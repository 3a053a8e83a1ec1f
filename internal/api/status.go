package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus is the response of GET /api/v1/status.
type SystemStatus struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeStatus   `json:"runtime"`
	WebSocket     WSStatus        `json:"websocket"`
	Integrations  map[string]bool `json:"integrations"`
	Appliances    ApplianceStatus `json:"appliances"`
	Database      *DatabaseStatus `json:"database,omitempty"`
}

// RuntimeStatus contains Go runtime statistics.
type RuntimeStatus struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSStatus contains WebSocket hub statistics.
type WSStatus struct {
	ConnectedClients int `json:"connected_clients"`
}

// ApplianceStatus summarises the registry.
type ApplianceStatus struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	Commands int            `json:"commands"`
}

// DatabaseStatus contains connection pool statistics.
type DatabaseStatus struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleStatus returns runtime, integration and registry statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeStatus{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSStatus{ConnectedClients: s.hub.ClientCount()},
		Integrations: map[string]bool{
			"mqtt":     s.mqtt != nil && s.mqtt.IsConnected(),
			"influxdb": s.influx != nil && s.influx.IsConnected(),
			"journal":  s.journal != nil,
		},
		Appliances: ApplianceStatus{ByType: make(map[string]int)},
	}

	for _, a := range s.registry.List() {
		status.Appliances.Total++
		status.Appliances.ByType[a.Type()]++
		_ = a.Exclusive(func() error {
			status.Appliances.Commands += a.Catalog().Len()
			return nil
		})
	}

	if s.db != nil {
		st := s.db.Stats()
		status.Database = &DatabaseStatus{
			OpenConnections: st.OpenConnections,
			InUse:           st.InUse,
			Idle:            st.Idle,
			WaitCount:       st.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, status)
}
