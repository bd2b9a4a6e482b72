package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Pins          PinMetrics       `json:"pins"`
	Socket        *SocketMetrics   `json:"socket,omitempty"`
	Bridge        *BridgeMetrics   `json:"bridge,omitempty"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// PinMetrics contains line registry statistics.
type PinMetrics struct {
	Active   int    `json:"active"`
	Inputs   int    `json:"inputs"`
	Outputs  int    `json:"outputs"`
	Degraded bool   `json:"degraded"`
	Backend  string `json:"backend,omitempty"`
}

// SocketMetrics contains socket transport statistics.
type SocketMetrics struct {
	SessionsTotal  uint64 `json:"sessions_total"`
	SessionsActive int64  `json:"sessions_active"`
	Commands       uint64 `json:"commands"`
	ReadErrors     uint64 `json:"read_errors"`
}

// BridgeMetrics contains MQTT bridge statistics.
type BridgeMetrics struct {
	Connected          bool   `json:"connected"`
	CommandsReceived   uint64 `json:"commands_received"`
	ResponsesPublished uint64 `json:"responses_published"`
	StatusRequests     uint64 `json:"status_requests"`
	PublishErrors      uint64 `json:"publish_errors"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	// Collect runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	regStats := s.registry.GetStats()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Pins: PinMetrics{
			Active:   regStats.ActiveLines,
			Inputs:   regStats.Inputs,
			Outputs:  regStats.Outputs,
			Degraded: s.registry.Degraded(),
			Backend:  s.registry.BackendName(),
		},
	}

	// Socket transport stats (if wired)
	if s.socket != nil {
		st := s.socket.Stats()
		metrics.Socket = &SocketMetrics{
			SessionsTotal:  st.SessionsTotal,
			SessionsActive: st.SessionsActive,
			Commands:       st.Commands,
			ReadErrors:     st.ReadErrors,
		}
	}

	// MQTT bridge stats (if enabled)
	if s.bridge != nil {
		bm := s.bridge.GetMetrics()
		metrics.Bridge = &BridgeMetrics{
			Connected:          bm.Connected,
			CommandsReceived:   bm.CommandsReceived,
			ResponsesPublished: bm.ResponsesPublished,
			StatusRequests:     bm.StatusRequests,
			PublishErrors:      bm.PublishErrors,
		}
	}

	// Database stats (if available)
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
