package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// Telemetry topics the signal connector watches in production. NMOS
// node announcements and per-channel EBU R128 measurements share the
// miq/telemetry prefix on the facility broker.
const (
	signalTopicPrefix    = "miq/telemetry/"
	signalLoudnessTopic  = signalTopicPrefix + "loudness/#"
	signalTransportTopic = signalTopicPrefix + "transport/#"
)

// SignalTelemetryConnector ingests broadcast signal telemetry (loudness
// measurements, SCTE-35 markers, NMOS transport status) from the
// facility MQTT broker. The Signal Quality agent reads the latest
// retained measurements; alert rules subscribe to the live stream.
type SignalTelemetryConnector struct {
	*Base
	broker string

	mu       sync.Mutex
	cm       *autopaho.ConnectionManager
	latest   map[string]map[string]any // topic -> last decoded payload
	subs     map[string]func(map[string]any)
	subSeq   int
	cancelFn context.CancelFunc
}

// NewSignalTelemetryConnector builds the telemetry adapter. demo is
// forced on when no broker URL is configured.
func NewSignalTelemetryConnector(broker string, demo bool, logger *slog.Logger) *SignalTelemetryConnector {
	if broker == "" {
		demo = true
	}
	return &SignalTelemetryConnector{
		Base:   NewBase("signal_telemetry", "Signal Telemetry (MQTT)", CategoryMonitoring, AuthBasic, demo, logger),
		broker: broker,
		latest: make(map[string]map[string]any),
		subs:   make(map[string]func(map[string]any)),
	}
}

func (c *SignalTelemetryConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *SignalTelemetryConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("signal telemetry in demo mode, no broker connection")
		return true
	}

	brokerURL, err := url.Parse(c.broker)
	if err != nil {
		c.Logger().Error("bad broker URL", "broker", c.broker, "error", err)
		return false
	}

	// The connection manager outlives the Connect call; it is torn down
	// by Disconnect, not by the caller's ctx.
	runCtx, cancel := context.WithCancel(context.Background())

	cfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{brokerURL},
		KeepAlive:  30,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			c.Logger().Info("mqtt connected", "broker", c.broker)
			subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer subCancel()
			// Re-subscribe on every (re-)connect; the broker does not
			// persist subscriptions for clean sessions.
			if _, err := cm.Subscribe(subCtx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{
					{Topic: signalLoudnessTopic, QoS: 1},
					{Topic: signalTransportTopic, QoS: 1},
				},
			}); err != nil {
				c.Logger().Warn("mqtt subscribe failed", "error", err)
			}
		},
		OnConnectError: func(err error) {
			c.Logger().Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "miqd-signal",
		},
	}

	cm, err := autopaho.NewConnection(runCtx, cfg)
	if err != nil {
		cancel()
		c.Logger().Error("mqtt connect", "error", err)
		return false
	}

	cm.AddOnPublishReceived(func(pr autopaho.PublishReceived) (bool, error) {
		c.handleMessage(pr.Packet.Topic, pr.Packet.Payload)
		return true, nil
	})

	connCtx, connCancel := context.WithTimeout(ctx, 15*time.Second)
	defer connCancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background; report failure so
		// the registry's auto-reconnect path stays honest.
		cancel()
		c.Logger().Warn("mqtt initial connection timed out", "error", err)
		return false
	}

	c.mu.Lock()
	c.cm = cm
	c.cancelFn = cancel
	c.mu.Unlock()
	return true
}

func (c *SignalTelemetryConnector) handleMessage(topic string, payload []byte) {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		c.Logger().Debug("non-JSON telemetry payload", "topic", topic, "size", len(payload))
		return
	}

	c.mu.Lock()
	c.latest[topic] = decoded
	callbacks := make([]func(map[string]any), 0, len(c.subs))
	for _, cb := range c.subs {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()

	decoded["topic"] = topic
	for _, cb := range callbacks {
		cb(decoded)
	}
}

func (c *SignalTelemetryConnector) Disconnect(ctx context.Context) {
	c.mu.Lock()
	cm, cancel := c.cm, c.cancelFn
	c.cm, c.cancelFn = nil, nil
	c.mu.Unlock()

	if cm != nil {
		discCtx, discCancel := context.WithTimeout(ctx, 5*time.Second)
		defer discCancel()
		_ = cm.Disconnect(discCtx)
	}
	if cancel != nil {
		cancel()
	}
	c.Base.Disconnect(ctx)
}

func (c *SignalTelemetryConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	c.mu.Lock()
	cm := c.cm
	c.mu.Unlock()
	if cm == nil {
		return c.healthError("no broker connection")
	}
	start := time.Now()
	awaitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(awaitCtx); err != nil {
		return c.healthError(fmt.Sprintf("broker unreachable: %v", err))
	}
	return c.healthOK("broker session live", float64(time.Since(start).Milliseconds()))
}

// Read returns the latest telemetry measurements, optionally filtered
// to one channel ({"channel": "CH-01"}).
func (c *SignalTelemetryConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{
			"measurements": []any{
				map[string]any{
					"channel": "CH-01", "loudness_lufs": -23.2, "true_peak_dbtp": -1.4,
					"ebu_r128_compliant": true, "topic": signalTopicPrefix + "loudness/CH-01",
				},
				map[string]any{
					"channel": "CH-02", "loudness_lufs": -19.8, "true_peak_dbtp": -0.3,
					"ebu_r128_compliant": false, "topic": signalTopicPrefix + "loudness/CH-02",
				},
			},
			"scte35_markers_last_hour": 14,
		})
	}

	channel := stringParam(params, "channel", "")
	c.mu.Lock()
	measurements := make([]any, 0, len(c.latest))
	for topic, payload := range c.latest {
		if channel != "" && stringParam(payload, "channel", "") != channel {
			continue
		}
		copied := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			copied[k] = v
		}
		copied["topic"] = topic
		measurements = append(measurements, copied)
	}
	c.mu.Unlock()

	return c.productionResult(map[string]any{"measurements": measurements})
}

// Write publishes a telemetry control message (e.g., a probe trigger)
// to the broker.
func (c *SignalTelemetryConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	topic := stringParam(params, "topic", signalTopicPrefix+"control")

	if c.Demo() {
		c.Logger().Info("demo telemetry publish", "topic", topic)
		return c.demoResult(map[string]any{"topic": topic, "published": true})
	}

	c.mu.Lock()
	cm := c.cm
	c.mu.Unlock()
	if cm == nil {
		return c.errorResult("no broker connection")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return c.errorResult(fmt.Sprintf("encode payload: %v", err))
	}
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     1,
		Payload: payload,
	}); err != nil {
		return c.errorResult(fmt.Sprintf("publish %s: %v", topic, err))
	}
	return c.productionResult(map[string]any{"topic": topic, "published": true})
}

// Subscribe registers a callback for live telemetry messages. In demo
// mode the callback is retained but never fires — there is no stream.
func (c *SignalTelemetryConnector) Subscribe(ctx context.Context, event string, cb func(map[string]any)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := fmt.Sprintf("signal-sub-%d", c.subSeq)
	c.subs[id] = cb
	return id, nil
}

// Unsubscribe removes a telemetry callback.
func (c *SignalTelemetryConnector) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *SignalTelemetryConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "signal_read_telemetry",
			Description: "Read the latest EBU R128 loudness and transport telemetry measurements",
			InputSchema: objectSchema(nil, map[string]any{
				"channel": map[string]any{"type": "string", "description": "Restrict to one playout channel"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
		{
			Name:        "signal_trigger_probe",
			Description: "Publish a probe trigger to the telemetry broker",
			InputSchema: objectSchema(nil, map[string]any{
				"topic": map[string]any{"type": "string"},
				"data":  map[string]any{"type": "object"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
	}
}
