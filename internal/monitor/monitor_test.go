// internal/monitor/monitor_test.go
package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/connection"
	"github.com/tamzrod/vmix-tally/internal/input"
	"github.com/tamzrod/vmix-tally/internal/nvs"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
)

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	srv     *Server
	reg     *status.Register
	store   *settings.Store
	mode    *connection.ModeSwitch
	buttons map[string]*input.Virtual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:     status.NewRegister(),
		store:   settings.Open(nvs.NewMem(), settings.Options{Logger: quietLogger()}),
		mode:    &connection.ModeSwitch{},
		buttons: map[string]*input.Virtual{input.Mode: {}},
	}
	srv, err := New(Config{Interval: 5 * time.Millisecond}, Deps{
		Status:   f.reg,
		Settings: f.store,
		Mode:     f.mode,
		Buttons:  f.buttons,
		View:     func() string { return "main" },
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f.srv = srv
	return f
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStatus_JSON(t *testing.T) {
	f := newFixture(t)

	var program status.Bitset
	program.Set(4)
	f.reg.Replace(status.TallyReport(program, status.Bitset{}))

	w := f.store.Get().Wlan
	w.SetSSID("studio")
	w.SetPass("secret")
	f.store.SetWlan(w)

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("password must not be exposed")
	}

	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Mode != "normal" || snap.View != "main" {
		t.Fatalf("unexpected mode/view %q %q", snap.Mode, snap.View)
	}
	if !snap.Status.VmixConnected || len(snap.Status.Program) != 1 || snap.Status.Program[0] != 4 {
		t.Fatalf("unexpected status %+v", snap.Status)
	}
	if snap.Settings.SSID != "studio" || snap.Settings.Brightness != int(settings.DefaultBrightness) {
		t.Fatalf("unexpected settings %+v", snap.Settings)
	}
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnap(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var snap Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read: %v", err)
	}
	return snap
}

func TestWS_StreamsChanges(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	first := readSnap(t, conn)
	if first.Status.WifiConnected {
		t.Fatalf("initial snapshot should be connecting")
	}

	f.reg.Replace(status.WifiConnected())
	next := readSnap(t, conn)
	if !next.Status.WifiConnected {
		t.Fatalf("expected change to be streamed, got %+v", next.Status)
	}

	f.mode.Set(connection.ModeConfiguration)
	next = readSnap(t, conn)
	if next.Mode != "configuration" {
		t.Fatalf("expected mode change, got %q", next.Mode)
	}
}

func TestWS_ButtonMessagesDriveVirtualInput(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)
	readSnap(t, conn)

	if err := conn.WriteJSON(ButtonEvent{Button: input.Mode, Pressed: true}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !f.buttons[input.Mode].Pressed() {
		if time.Now().After(deadline) {
			t.Fatalf("button not pressed")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// unknown buttons and garbage are ignored, the connection stays up
	_ = conn.WriteJSON(ButtonEvent{Button: "nope", Pressed: true})
	_ = conn.WriteMessage(websocket.TextMessage, []byte("{"))
	if err := conn.WriteJSON(ButtonEvent{Button: input.Mode, Pressed: false}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline = time.Now().Add(3 * time.Second)
	for f.buttons[input.Mode].Pressed() {
		if time.Now().After(deadline) {
			t.Fatalf("button not released")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func expectGoingAway(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Fatalf("expected going-away close, got %v", err)
		}
		return
	}
}

func TestWS_CloseEndsSessions(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)
	readSnap(t, conn)

	f.srv.Close()
	expectGoingAway(t, conn)

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("new sessions after Close: status %d", rec.Code)
	}
}

func TestRun_CancelClosesWebsockets(t *testing.T) {
	f := newFixture(t)
	f.srv.cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for f.srv.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatalf("monitor did not bind")
		}
		time.Sleep(2 * time.Millisecond)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+f.srv.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readSnap(t, conn)

	cancel()
	expectGoingAway(t, conn)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return with a websocket client attached")
	}
}
