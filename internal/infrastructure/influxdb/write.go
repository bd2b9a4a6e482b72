package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePinEvent records one processed pin command.
//
// This is the primary telemetry method: the command processor emits one
// event per attempt and an adapter in main forwards it here. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - origin: transport the command arrived on ("socket", "mqtt")
//   - action: the attempted operation ("configure", "write", "read", "invalid")
//   - pin: targeted pin number (-1 for unparseable payloads)
//   - value: the level written or read, nil when the operation carried none
//   - success: whether the command was fully applied
//
// Example:
//
//	client.WritePinEvent("mqtt", "write", 17, &one, true)
func (c *Client) WritePinEvent(origin string, action string, pin int, value *int, success bool) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"success": success,
	}
	if value != nil {
		fields["value"] = *value
	}

	point := write.NewPoint(
		"pin_events",
		map[string]string{
			"origin": origin,
			"action": action,
			"pin":    strconv.Itoa(pin),
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WritePinEvent, such as periodic
// registry or session statistics.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("socket_stats",
//	    map[string]string{"service": "pinwarden"},
//	    map[string]interface{}{"active_sessions": 3, "commands": 129})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
