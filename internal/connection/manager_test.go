// internal/connection/manager_test.go
package connection

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/nvs"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
	"github.com/tamzrod/vmix-tally/internal/vmix"
	"github.com/tamzrod/vmix-tally/internal/wlan"
)

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	mgr    *Manager
	fake   *wlan.Fake
	reg    *status.Register
	mode   *ModeSwitch
	server *vmix.FakeServer
	cancel context.CancelFunc
	done   chan struct{}
}

func newHarness(t *testing.T, tune func(*Config, *wlan.Fake)) *harness {
	t.Helper()

	server, err := vmix.NewFakeServer("127.0.0.1:0", quietLogger())
	if err != nil {
		t.Fatalf("fake vmix: %v", err)
	}
	go func() { _ = server.Serve(context.Background()) }()
	t.Cleanup(func() { _ = server.Close() })

	host, portStr, _ := net.SplitHostPort(server.Addr().String())
	port, _ := strconv.Atoi(portStr)

	store := settings.Open(nvs.NewMem(), settings.Options{Logger: quietLogger()})
	w := store.Get().Wlan
	w.SetSSID("studio")
	w.SetHost(host)
	store.SetWlan(w)

	cfg := Config{
		Port:               port,
		AssociationTimeout: time.Second,
		PollInterval:       5 * time.Millisecond,
		DialTimeout:        200 * time.Millisecond,
		ReadTimeout:        20 * time.Millisecond,
		PortalListen:       "127.0.0.1:0",
	}
	fake := wlan.NewFake()
	if tune != nil {
		tune(&cfg, fake)
	}

	reg := status.NewRegister()
	mode := &ModeSwitch{}
	portal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "portal")
	})

	mgr, err := New(cfg, Deps{
		Settings: store,
		Status:   reg,
		Mode:     mode,
		Station:  fake,
		AP:       fake,
		Portal:   portal,
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{mgr: mgr, fake: fake, reg: reg, mode: mode, server: server, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		_ = mgr.Run(ctx)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestManager_PublishesTally(t *testing.T) {
	h := newHarness(t, nil)

	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })
	h.server.SetState("0120")

	eventually(t, "tally", func() bool {
		s := h.reg.Get()
		return s.Tally(1) == status.TallyProgram && s.Tally(2) == status.TallyPreview
	})

	s := h.reg.Get()
	if !s.WifiConnected || !s.VmixConnected || s.APActive {
		t.Fatalf("unexpected flags %+v", s)
	}
	if s.Tally(0) != status.TallyInactive || s.Tally(3) != status.TallyInactive {
		t.Fatalf("unexpected inactive sources")
	}

	h.server.SetState("2")
	eventually(t, "fresh report", func() bool {
		s := h.reg.Get()
		return s.Tally(0) == status.TallyPreview && s.Tally(1) == status.TallyInactive
	})

	if got := h.fake.Begins(); len(got) == 0 || got[0] != "studio" {
		t.Fatalf("unexpected begins %v", got)
	}
}

func TestManager_ReconnectsAfterServerDrop(t *testing.T) {
	h := newHarness(t, nil)

	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })
	h.server.DropClients()
	eventually(t, "resubscription", func() bool { return h.server.Subscribers() == 1 })

	h.server.SetState("1")
	eventually(t, "tally after reconnect", func() bool {
		return h.reg.Get().Tally(0) == status.TallyProgram
	})
}

func TestManager_LinkLossReturnsToConnecting(t *testing.T) {
	h := newHarness(t, nil)

	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })

	h.fake.SetJoin(false)
	h.fake.SetLink(false)

	eventually(t, "connecting", func() bool {
		s := h.reg.Get()
		return !s.WifiConnected && !s.VmixConnected
	})

	h.fake.SetJoin(true)
	eventually(t, "resubscription", func() bool { return h.reg.Get().VmixConnected })
}

func TestManager_AssociationTimeoutRestartsCycle(t *testing.T) {
	h := newHarness(t, func(cfg *Config, f *wlan.Fake) {
		cfg.AssociationTimeout = 20 * time.Millisecond
		f.SetJoin(false)
	})

	eventually(t, "second attempt", func() bool { return len(h.fake.Begins()) >= 2 })
	if h.reg.Get().IsConnected() {
		t.Fatalf("must not report connected")
	}
}

func TestManager_ModeSwitchWhileConnecting(t *testing.T) {
	h := newHarness(t, func(cfg *Config, f *wlan.Fake) {
		cfg.AssociationTimeout = time.Hour
		f.SetJoin(false)
	})

	eventually(t, "connecting", func() bool { return len(h.fake.Begins()) == 1 })

	start := time.Now()
	h.mode.Set(ModeConfiguration)
	eventually(t, "access point", func() bool { return h.reg.Get().APActive })
	if time.Since(start) > time.Second {
		t.Fatalf("mode switch not observed promptly")
	}

	if up, ssid := h.fake.AP(); !up || ssid != wlan.DefaultAPSSID {
		t.Fatalf("unexpected ap %v %q", up, ssid)
	}

	addr := h.mgr.PortalAddr()
	if addr == "" {
		t.Fatalf("portal address not published")
	}
	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		t.Fatalf("portal get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "portal" {
		t.Fatalf("unexpected portal body %q", body)
	}

	h.fake.SetJoin(true)
	h.mode.Set(ModeNormal)
	eventually(t, "back to normal", func() bool { return h.reg.Get().VmixConnected })

	if up, _ := h.fake.AP(); up {
		t.Fatalf("access point must be stopped")
	}
	if starts, stops := h.fake.APCycles(); starts != 1 || stops != 1 {
		t.Fatalf("ap cycles %d/%d", starts, stops)
	}
	if h.mgr.PortalAddr() != "" {
		t.Fatalf("portal address must clear after shutdown")
	}
}

func TestManager_ModeSwitchWhileSubscribed(t *testing.T) {
	h := newHarness(t, nil)

	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })
	h.mode.Set(ModeConfiguration)

	eventually(t, "access point", func() bool { return h.reg.Get().APActive })
	eventually(t, "vmix closed", func() bool { return h.server.Subscribers() == 0 })
	if h.fake.Connected() {
		t.Fatalf("station must be disconnected in configuration mode")
	}
}

func TestManager_CancelStopsRun(t *testing.T) {
	h := newHarness(t, nil)
	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })

	stopped := make(chan struct{})
	go func() {
		h.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestModeSwitch_Toggle(t *testing.T) {
	var m ModeSwitch
	if m.Get() != ModeNormal {
		t.Fatalf("zero value must be normal")
	}
	if m.Toggle() != ModeConfiguration || m.Get() != ModeConfiguration {
		t.Fatalf("expected configuration")
	}
	if m.Toggle() != ModeNormal {
		t.Fatalf("expected normal")
	}
}

func TestManager_EmptyHostWaitsOnLink(t *testing.T) {
	h := newHarness(t, nil)
	eventually(t, "subscription", func() bool { return h.server.Subscribers() == 1 })

	w := h.mgr.settings.Get().Wlan
	w.SetHost("")
	h.mgr.settings.SetWlan(w)
	h.server.DropClients()

	eventually(t, "wifi only", func() bool {
		s := h.reg.Get()
		return s.WifiConnected && !s.VmixConnected
	})
	time.Sleep(50 * time.Millisecond)
	if s := h.reg.Get(); s.VmixConnected {
		t.Fatalf("connected without a host: %+v", s)
	}

	h.mode.Set(ModeConfiguration)
	eventually(t, "access point", func() bool { return h.reg.Get().APActive })
}
