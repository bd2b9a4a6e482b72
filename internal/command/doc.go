// Package command implements the shared command processor for Pinwarden.
//
// Both transports feed raw JSON payloads into one Processor, which decodes
// them, validates pin range and direction, drives the line registry, and
// builds the wire response. Keeping the semantics here means the socket
// server and the MQTT bridge cannot drift apart: they only move bytes.
//
// Dispatch order for a decoded request:
//
//  1. pin outside the supported range: rejected before the registry is touched
//  2. direction present: configure, then drive outputs / sample inputs
//  3. value present: write to an already-configured output
//  4. bare pin: read from an already-configured input
//
// Every attempt, including malformed payloads, emits one Event to the
// configured sinks (journal, telemetry, WebSocket fan-out).
package command
