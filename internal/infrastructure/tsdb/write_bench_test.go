package tsdb

import (
	"testing"
	"time"
)

func BenchmarkFormatLineProtocol_PinEvent(b *testing.B) {
	tags := map[string]string{"origin": "socket", "action": "write", "pin": "17"}
	fields := map[string]interface{}{"success": true, "value": 1}
	ts := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("pin_events", tags, fields, ts)
	}
}

func BenchmarkFormatLineProtocol_Stats(b *testing.B) {
	tags := map[string]string{"service": "pinwarden"}
	fields := map[string]interface{}{
		"sessions_total":  int64(412),
		"sessions_active": 3,
		"commands":        int64(9120),
		"read_errors":     int64(7),
	}
	ts := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("socket_stats", tags, fields, ts)
	}
}

func BenchmarkEscapeTag(b *testing.B) {
	for i := 0; i < b.N; i++ {
		escapeTag("origin=socket,pin 17")
	}
}
