package connectors

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestBaseLifecycle(t *testing.T) {
	b := NewBase("x", "X", CategoryStorage, AuthNone, true, testLogger())
	if b.Status() != StatusDisconnected {
		t.Fatalf("initial status = %v, want disconnected", b.Status())
	}

	ok := b.connect(context.Background(), func(context.Context) bool { return true })
	if !ok || b.Status() != StatusConnected || !b.Connected() {
		t.Errorf("after successful connect: ok=%v status=%v", ok, b.Status())
	}

	b.Disconnect(context.Background())
	if b.Status() != StatusDisconnected {
		t.Errorf("after disconnect: status=%v", b.Status())
	}

	ok = b.connect(context.Background(), func(context.Context) bool { return false })
	if ok || b.Status() != StatusError {
		t.Errorf("after failed connect: ok=%v status=%v", ok, b.Status())
	}
}

func TestBaseEnvelopes(t *testing.T) {
	b := NewBase("x", "X", CategoryStorage, AuthNone, true, testLogger())

	demo := b.demoResult(map[string]any{"k": 1})
	if !demo.Success || demo.Mode != "demo" || demo.Connector != "x" {
		t.Errorf("demo envelope = %+v", demo)
	}
	if demo.Timestamp.IsZero() {
		t.Error("envelope missing timestamp")
	}

	prod := b.productionResult(map[string]any{})
	if prod.Mode != "production" {
		t.Errorf("production envelope mode = %q", prod.Mode)
	}

	fail := b.errorResult("boom")
	if fail.Success || fail.Error != "boom" {
		t.Errorf("error envelope = %+v", fail)
	}

	info := b.Info()
	if info["request_count"] != 1 {
		t.Errorf("request_count = %v, want 1 (one production result)", info["request_count"])
	}
	if info["error_count"] != 1 {
		t.Errorf("error_count = %v, want 1 (one error result)", info["error_count"])
	}
}

func TestBaseDegradesOnHealthError(t *testing.T) {
	b := NewBase("x", "X", CategoryStorage, AuthNone, true, testLogger())
	b.connect(context.Background(), func(context.Context) bool { return true })

	b.healthError("probe failed")
	if b.Status() != StatusDegraded {
		t.Errorf("status after failed health check = %v, want degraded", b.Status())
	}
}

func TestSlackConnectorDemoRoundtrip(t *testing.T) {
	c := NewSlackConnector("", "", true, 5*time.Second, testLogger())
	if !c.Demo() {
		t.Fatal("no token should force demo mode")
	}
	if !c.Connect(context.Background()) {
		t.Fatal("demo connect should succeed")
	}

	h := c.HealthCheck(context.Background())
	if h.Status != StatusConnected {
		t.Errorf("demo health = %v", h.Status)
	}

	res := c.SendMessage(context.Background(), "#noc", map[string]any{"text": "hi"})
	if !res.Success || res.Mode != "demo" {
		t.Errorf("demo send = %+v", res)
	}
	if res.Data["channel"] != "#noc" {
		t.Errorf("channel = %v, want #noc", res.Data["channel"])
	}

	read := c.Read(context.Background(), nil)
	if !read.Success {
		t.Errorf("demo read failed: %s", read.Error)
	}
}

func TestSlackSendAlertDefaultChannel(t *testing.T) {
	c := NewSlackConnector("", "#alerts", true, 5*time.Second, testLogger())
	c.Connect(context.Background())

	res := c.SendAlert(context.Background(), "Signal drop", "CH-02 black frames", "critical", "", "signal_quality")
	if !res.Success {
		t.Fatalf("alert failed: %s", res.Error)
	}
	if res.Data["channel"] != "#alerts" {
		t.Errorf("alert channel = %v, want default #alerts", res.Data["channel"])
	}
}

func TestTeamsConnectorDemoWrite(t *testing.T) {
	c := NewTeamsConnector("", "", "", true, 5*time.Second, testLogger())
	c.Connect(context.Background())

	res := c.SendActivity(context.Background(), "", "19:thread", "", map[string]any{"text": "hello"})
	if !res.Success || res.Mode != "demo" {
		t.Errorf("demo teams send = %+v", res)
	}
}

func TestWireConnectorDemoStories(t *testing.T) {
	c := NewWireServiceConnector(WireIMAPConfig{}, nil, true, testLogger())
	c.Connect(context.Background())

	res := c.Read(context.Background(), nil)
	if !res.Success {
		t.Fatalf("demo read failed: %s", res.Error)
	}
	stories, _ := res.Data["stories"].([]any)
	if len(stories) == 0 {
		t.Fatal("demo wire feed should carry stories")
	}

	if w := c.Write(context.Background(), map[string]any{}, nil); w.Success {
		t.Error("wire mailbox writes should fail (read-only)")
	}
}

func TestWireBodyPreview(t *testing.T) {
	raw := []byte("From: alerts@ap.org\r\n" +
		"To: desk@station.example\r\n" +
		"Subject: URGENT weather advisory\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"A severe thunderstorm warning has been issued for the metro area until 9pm.\r\n")
	preview := wireBodyPreview(raw)
	if !strings.HasPrefix(preview, "A severe thunderstorm warning") {
		t.Errorf("preview = %q", preview)
	}

	if got := wireBodyPreview(nil); got != "" {
		t.Errorf("empty body preview = %q", got)
	}
	if got := wireBodyPreview([]byte("not a mime message")); got != "" && len(got) > 280 {
		t.Errorf("garbage preview too long: %q", got)
	}
}

func TestWirePriorityFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"FLASH: explosion downtown", "flash"},
		{"BULLETIN - markets", "bulletin"},
		{"URGENT weather advisory", "urgent"},
		{"Daily digest", "routine"},
	}
	for _, tt := range tests {
		if got := wirePriority(tt.subject); got != tt.want {
			t.Errorf("wirePriority(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}

func TestQRConnectorWrite(t *testing.T) {
	c := NewSecondScreenQRConnector("", true, testLogger())
	c.Connect(context.Background())

	res := c.Write(context.Background(), map[string]any{"url": "https://station.example/vote"}, nil)
	if !res.Success {
		t.Fatalf("qr write failed: %s", res.Error)
	}
	encoded, _ := res.Data["png_base64"].(string)
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(png) == 0 {
		t.Fatalf("bad png payload: %v", err)
	}
	// PNG signature check.
	if string(png[1:4]) != "PNG" {
		t.Error("payload is not a PNG")
	}

	if missing := c.Write(context.Background(), map[string]any{}, nil); missing.Success {
		t.Error("qr write without url should fail")
	}
}

func TestLiveFeedDemoAndSubscribe(t *testing.T) {
	c := NewLiveFeedConnector("", true, testLogger())
	c.Connect(context.Background())

	res := c.Read(context.Background(), nil)
	if !res.Success {
		t.Fatalf("demo read failed: %s", res.Error)
	}

	var got []map[string]any
	id, err := c.Subscribe(context.Background(), "ingest.complete", func(msg map[string]any) {
		got = append(got, msg)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	c.dispatch(map[string]any{"event": "ingest.complete", "asset": "/a.mxf"})
	c.dispatch(map[string]any{"event": "cdn.edge_degraded"})
	if len(got) != 1 {
		t.Errorf("callback fired %d times, want 1 (kind-filtered)", len(got))
	}

	c.Unsubscribe(id)
	c.dispatch(map[string]any{"event": "ingest.complete"})
	if len(got) != 1 {
		t.Error("unsubscribed callback still firing")
	}
}

func TestLiveFeedBufferBounded(t *testing.T) {
	c := NewLiveFeedConnector("", true, testLogger())
	for i := 0; i < feedBufferLimit+25; i++ {
		c.dispatch(map[string]any{"event": "tick"})
	}
	c.mu.Lock()
	n := len(c.buffer)
	c.mu.Unlock()
	if n != feedBufferLimit {
		t.Errorf("feed buffer = %d entries, want %d", n, feedBufferLimit)
	}
}

func TestTicketConnectorDemo(t *testing.T) {
	c := NewNewsroomTicketConnector("", "", true, 5*time.Second, testLogger())
	c.Connect(context.Background())

	res := c.Write(context.Background(), map[string]any{"title": "[compliance] test"}, nil)
	if !res.Success {
		t.Fatalf("demo ticket write failed: %s", res.Error)
	}
	if res.Data["filed"] != true {
		t.Errorf("ticket not marked filed: %v", res.Data)
	}

	if missing := c.Write(context.Background(), map[string]any{}, nil); missing.Success {
		t.Error("ticket without title should fail")
	}
}

func TestMAMConnectorDemo(t *testing.T) {
	c := NewMAMStorageConnector("", "", "", true, 5*time.Second, testLogger())
	c.Connect(context.Background())

	res := c.Read(context.Background(), map[string]any{"path": "/news"})
	if !res.Success {
		t.Fatalf("demo read failed: %s", res.Error)
	}
	if res.Data["path"] != "/news" {
		t.Errorf("path = %v, want /news", res.Data["path"])
	}

	up := c.Write(context.Background(), "1\n00:00:01,000 --> 00:00:03,000\nHello\n", map[string]any{"path": "/news/clip.srt"})
	if !up.Success {
		t.Fatalf("demo upload failed: %s", up.Error)
	}
}
