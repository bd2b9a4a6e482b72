package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oweslake/pinwarden/internal/command"
	"github.com/oweslake/pinwarden/internal/gpio"
	"github.com/oweslake/pinwarden/internal/infrastructure/config"
	"github.com/oweslake/pinwarden/internal/line"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu                sync.Mutex
	published         []mockPublish
	subscriptions     []mockSubscription
	connected         bool
	handlers          map[string]func(topic string, payload []byte)
	publishErr        error
	availabilityCount int
	availabilityErr   error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte)),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  append([]byte(nil), payload...),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) PublishAvailability() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.availabilityErr != nil {
		return m.availabilityErr
	}
	m.availabilityCount++
	return nil
}

func (m *MockMQTTClient) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *MockMQTTClient) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *MockMQTTClient) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockSubscription(nil), m.subscriptions...)
}

func (m *MockMQTTClient) AvailabilityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availabilityCount
}

// SimulateMessage simulates receiving an MQTT message on a topic.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if ok {
		handler(topic, payload)
	}
}

// mockExecutor implements CommandExecutor, recording calls and returning a
// canned response.
type mockExecutor struct {
	mu    sync.Mutex
	calls []executorCall
	resp  command.Response
}

type executorCall struct {
	origin  string
	payload []byte
}

func (m *mockExecutor) Execute(_ context.Context, origin string, payload []byte) command.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executorCall{
		origin:  origin,
		payload: append([]byte(nil), payload...),
	})
	return m.resp
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockExecutor) lastCall(t *testing.T) executorCall {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("no executor calls recorded")
	}
	return m.calls[len(m.calls)-1]
}

// mockSnapshotter implements LineSnapshotter with fixed pin states.
type mockSnapshotter struct {
	states []line.PinState
}

func (m *mockSnapshotter) Snapshot() []line.PinState {
	return m.states
}

func intPtr(v int) *int { return &v }

func testBridgeConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:     true,
		QoS:         1,
		TopicPrefix: "",
	}
}

// createTestBridge builds a bridge with mock collaborators.
func createTestBridge(t *testing.T, mqttClient MQTTClient, exec CommandExecutor, lines LineSnapshotter) *Bridge {
	t.Helper()
	b, err := New(Options{
		Config:     testBridgeConfig(),
		MQTTClient: mqttClient,
		Processor:  exec,
		Lines:      lines,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return b
}

func TestNew(t *testing.T) {
	b := createTestBridge(t, NewMockMQTTClient(), &mockExecutor{}, &mockSnapshotter{})

	if b == nil {
		t.Fatal("New() returned nil")
	}
	if b.Topics().Prefix() != "hardware/gpio" {
		t.Errorf("Topics().Prefix() = %q, want %q", b.Topics().Prefix(), "hardware/gpio")
	}
	if b.availabilityInterval != defaultAvailabilityInterval {
		t.Errorf("availabilityInterval = %v, want default %v", b.availabilityInterval, defaultAvailabilityInterval)
	}
}

func TestNewMissingMQTT(t *testing.T) {
	_, err := New(Options{
		Config:    testBridgeConfig(),
		Processor: &mockExecutor{},
		Lines:     &mockSnapshotter{},
	})

	if err == nil {
		t.Error("New() expected error for nil MQTT client")
	}
}

func TestNewMissingProcessor(t *testing.T) {
	_, err := New(Options{
		Config:     testBridgeConfig(),
		MQTTClient: NewMockMQTTClient(),
		Lines:      &mockSnapshotter{},
	})

	if err == nil {
		t.Error("New() expected error for nil processor")
	}
}

func TestNewMissingLines(t *testing.T) {
	_, err := New(Options{
		Config:     testBridgeConfig(),
		MQTTClient: NewMockMQTTClient(),
		Processor:  &mockExecutor{},
	})

	if err == nil {
		t.Error("New() expected error for nil line snapshotter")
	}
}

func TestNewCustomPrefixAndInterval(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.TopicPrefix = "lab/rig01/gpio"
	cfg.AvailabilityInterval = 30

	b, err := New(Options{
		Config:     cfg,
		MQTTClient: NewMockMQTTClient(),
		Processor:  &mockExecutor{},
		Lines:      &mockSnapshotter{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := b.Topics().Control(); got != "lab/rig01/gpio/control" {
		t.Errorf("Control() = %q, want %q", got, "lab/rig01/gpio/control")
	}
	if b.availabilityInterval != 30*time.Second {
		t.Errorf("availabilityInterval = %v, want %v", b.availabilityInterval, 30*time.Second)
	}
}

func TestBridgeStartStop(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	subs := mqttClient.GetSubscriptions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}

	wantTopics := map[string]bool{
		"hardware/gpio/control": false,
		"hardware/gpio/status":  false,
	}
	for _, sub := range subs {
		if _, ok := wantTopics[sub.Topic]; !ok {
			t.Errorf("unexpected subscription topic %q", sub.Topic)
			continue
		}
		wantTopics[sub.Topic] = true
		if sub.QoS != 1 {
			t.Errorf("subscription %q QoS = %d, want 1", sub.Topic, sub.QoS)
		}
	}
	for topic, seen := range wantTopics {
		if !seen {
			t.Errorf("missing subscription for %q", topic)
		}
	}

	b.Stop()

	// Calling Stop again should be safe (sync.Once)
	b.Stop()
}

func TestControlMessage(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	exec := &mockExecutor{
		resp: command.Response{
			Success: true,
			Message: "GPIO pin 17 configured as output and set to 1",
		},
	}
	b := createTestBridge(t, mqttClient, exec, &mockSnapshotter{})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	payload := []byte(`{"pin":17,"direction":"output","value":1}`)
	mqttClient.SimulateMessage("hardware/gpio/control", payload)

	call := exec.lastCall(t)
	if call.origin != command.OriginMQTT {
		t.Errorf("executor origin = %q, want %q", call.origin, command.OriginMQTT)
	}
	if string(call.payload) != string(payload) {
		t.Errorf("executor payload = %s, want %s", call.payload, payload)
	}

	published := mqttClient.GetPublished()
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}
	if published[0].Topic != "hardware/gpio/response" {
		t.Errorf("response topic = %q, want %q", published[0].Topic, "hardware/gpio/response")
	}
	if published[0].Retained {
		t.Error("response should not be retained")
	}

	var resp command.Response
	if err := json.Unmarshal(published[0].Payload, &resp); err != nil {
		t.Fatalf("response payload is not valid JSON: %v", err)
	}
	if !resp.Success {
		t.Error("response success = false, want true")
	}
	if resp.Message != exec.resp.Message {
		t.Errorf("response message = %q, want %q", resp.Message, exec.resp.Message)
	}

	metrics := b.GetMetrics()
	if metrics.CommandsReceived != 1 {
		t.Errorf("CommandsReceived = %d, want 1", metrics.CommandsReceived)
	}
	if metrics.ResponsesPublished != 1 {
		t.Errorf("ResponsesPublished = %d, want 1", metrics.ResponsesPublished)
	}
}

func TestControlMessage_PublishError(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	mqttClient.SetPublishError(errors.New("broker gone"))
	exec := &mockExecutor{resp: command.Response{Success: true}}
	b := createTestBridge(t, mqttClient, exec, &mockSnapshotter{})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	mqttClient.SimulateMessage("hardware/gpio/control", []byte(`{"pin":3}`))

	metrics := b.GetMetrics()
	if metrics.CommandsReceived != 1 {
		t.Errorf("CommandsReceived = %d, want 1", metrics.CommandsReceived)
	}
	if metrics.ResponsesPublished != 0 {
		t.Errorf("ResponsesPublished = %d, want 0", metrics.ResponsesPublished)
	}
	if metrics.PublishErrors != 1 {
		t.Errorf("PublishErrors = %d, want 1", metrics.PublishErrors)
	}
}

func TestStatusRequest(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	lines := &mockSnapshotter{
		states: []line.PinState{
			{Pin: 5, Direction: gpio.DirectionOutput, Value: intPtr(1)},
			{Pin: 17, Direction: gpio.DirectionInput, Value: nil},
		},
	}
	b := createTestBridge(t, mqttClient, &mockExecutor{}, lines)

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	mqttClient.SimulateMessage("hardware/gpio/status", []byte(`{}`))

	published := mqttClient.GetPublished()
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}
	if published[0].Topic != "hardware/gpio/status_response" {
		t.Errorf("status topic = %q, want %q", published[0].Topic, "hardware/gpio/status_response")
	}
	if published[0].Retained {
		t.Error("status response should not be retained")
	}

	var status StatusMessage
	if err := json.Unmarshal(published[0].Payload, &status); err != nil {
		t.Fatalf("status payload is not valid JSON: %v", err)
	}
	if status.ActivePins != 2 {
		t.Errorf("active_pins = %d, want 2", status.ActivePins)
	}
	if len(status.Pins) != 2 {
		t.Fatalf("len(pins) = %d, want 2", len(status.Pins))
	}
	if status.Pins[0].Pin != 5 || !status.Pins[0].IsOutput {
		t.Errorf("pins[0] = %+v, want pin 5 output", status.Pins[0])
	}
	if status.Pins[0].Value == nil || *status.Pins[0].Value != 1 {
		t.Errorf("pins[0].Value = %v, want 1", status.Pins[0].Value)
	}
	if status.Pins[1].Pin != 17 || status.Pins[1].IsOutput {
		t.Errorf("pins[1] = %+v, want pin 17 input", status.Pins[1])
	}

	// Failed reads omit the value field entirely
	var raw struct {
		Pins []map[string]any `json:"pins"`
	}
	if err := json.Unmarshal(published[0].Payload, &raw); err != nil {
		t.Fatalf("unmarshal raw status: %v", err)
	}
	if _, ok := raw.Pins[1]["value"]; ok {
		t.Error("pins[1] should omit value when the read failed")
	}

	if got := b.GetMetrics().StatusRequests; got != 1 {
		t.Errorf("StatusRequests = %d, want 1", got)
	}
}

func TestStatusRequest_NoConfiguredPins(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	mqttClient.SimulateMessage("hardware/gpio/status", nil)

	published := mqttClient.GetPublished()
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}

	var status StatusMessage
	if err := json.Unmarshal(published[0].Payload, &status); err != nil {
		t.Fatalf("status payload is not valid JSON: %v", err)
	}
	if status.ActivePins != 0 {
		t.Errorf("active_pins = %d, want 0", status.ActivePins)
	}
	if status.Pins == nil {
		t.Error("pins should be an empty array, not null")
	}
}

func TestAvailabilityLoop(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})
	b.availabilityInterval = 20 * time.Millisecond

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	b.Stop()

	if got := mqttClient.AvailabilityCount(); got < 1 {
		t.Errorf("AvailabilityCount() = %d, want at least 1", got)
	}
}

func TestAvailabilityLoop_SkipsWhileDisconnected(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	mqttClient.SetConnected(false)
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})
	b.availabilityInterval = 20 * time.Millisecond

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := mqttClient.AvailabilityCount(); got != 0 {
		t.Errorf("AvailabilityCount() while disconnected = %d, want 0", got)
	}

	// Broker comes back: the loop resumes publishing
	mqttClient.SetConnected(true)
	time.Sleep(60 * time.Millisecond)
	if got := mqttClient.AvailabilityCount(); got < 1 {
		t.Errorf("AvailabilityCount() after reconnect = %d, want at least 1", got)
	}
}

func TestAvailabilityLoop_StopsOnContextCancel(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})
	b.availabilityInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
	stopped := mqttClient.AvailabilityCount()

	time.Sleep(60 * time.Millisecond)
	if got := mqttClient.AvailabilityCount(); got != stopped {
		t.Errorf("AvailabilityCount() still growing after cancel: %d -> %d", stopped, got)
	}

	// Stop still completes cleanly after the loop has exited
	b.Stop()
}

func TestGetMetrics_InitialState(t *testing.T) {
	mqttClient := NewMockMQTTClient()
	b := createTestBridge(t, mqttClient, &mockExecutor{}, &mockSnapshotter{})

	metrics := b.GetMetrics()
	if !metrics.Connected {
		t.Error("Connected = false, want true (mock starts connected)")
	}
	if metrics.CommandsReceived != 0 || metrics.ResponsesPublished != 0 ||
		metrics.StatusRequests != 0 || metrics.PublishErrors != 0 {
		t.Errorf("expected zeroed counters, got %+v", metrics)
	}

	mqttClient.SetConnected(false)
	if b.GetMetrics().Connected {
		t.Error("Connected = true after disconnect, want false")
	}
}

// =============================================================================
// Full-Stack Tests (real processor and registry over a stub backend)
// =============================================================================

type stubLine struct {
	mu    sync.Mutex
	value bool
}

func (l *stubLine) SetValue(value bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = value
	return nil
}

func (l *stubLine) Value() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, nil
}

func (l *stubLine) Close() error { return nil }

type stubBackend struct {
	mu    sync.Mutex
	lines map[int]*stubLine
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) RequestLine(offset int, _ gpio.Direction) (gpio.LineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ln := &stubLine{}
	b.lines[offset] = ln
	return ln, nil
}

func (b *stubBackend) Close() error { return nil }

// TestBridgeWithProcessor drives the real processor and registry through the
// MQTT face: configure a pin over control, then confirm the status snapshot
// reflects it.
func TestBridgeWithProcessor(t *testing.T) {
	backend := &stubBackend{lines: make(map[int]*stubLine)}
	registry := line.NewRegistry(backend)
	processor := command.NewProcessor(registry)

	mqttClient := NewMockMQTTClient()
	b, err := New(Options{
		Config:     testBridgeConfig(),
		MQTTClient: mqttClient,
		Processor:  processor,
		Lines:      registry,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	mqttClient.SimulateMessage("hardware/gpio/control", []byte(`{"pin":21,"direction":"output","value":1}`))

	published := mqttClient.GetPublished()
	if len(published) != 1 {
		t.Fatalf("expected 1 response, got %d", len(published))
	}

	var resp command.Response
	if err := json.Unmarshal(published[0].Payload, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("response = %+v, want success", resp)
	}
	if want := "GPIO pin 21 configured as output and set to 1"; resp.Message != want {
		t.Errorf("message = %q, want %q", resp.Message, want)
	}

	// Malformed payload: error response, bridge keeps serving
	mqttClient.SimulateMessage("hardware/gpio/control", []byte(`not json`))

	published = mqttClient.GetPublished()
	if len(published) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(published))
	}
	if err := json.Unmarshal(published[1].Payload, &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Success {
		t.Error("malformed payload should produce success=false")
	}
	if resp.Error != "Invalid JSON request" {
		t.Errorf("error = %q, want %q", resp.Error, "Invalid JSON request")
	}

	// Status snapshot shows the configured pin driven high
	mqttClient.SimulateMessage("hardware/gpio/status", []byte(`{}`))

	published = mqttClient.GetPublished()
	if len(published) != 3 {
		t.Fatalf("expected 3 published messages, got %d", len(published))
	}

	var status StatusMessage
	if err := json.Unmarshal(published[2].Payload, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.ActivePins != 1 {
		t.Fatalf("active_pins = %d, want 1", status.ActivePins)
	}
	pin := status.Pins[0]
	if pin.Pin != 21 || !pin.IsOutput {
		t.Errorf("pins[0] = %+v, want pin 21 output", pin)
	}
	if pin.Value == nil || *pin.Value != 1 {
		t.Errorf("pins[0].Value = %v, want 1", pin.Value)
	}
}
