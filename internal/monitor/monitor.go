// internal/monitor/monitor.go
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/connection"
	"github.com/tamzrod/vmix-tally/internal/input"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
)

const (
	DefaultInterval = 50 * time.Millisecond

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	readLimit  = 512
)

// Config for the monitor server.
type Config struct {
	Listen   string
	Interval time.Duration
}

// Deps are the cells the monitor reads.
type Deps struct {
	Status   *status.Register
	Settings *settings.Store
	Mode     *connection.ModeSwitch

	// Buttons are the software-drivable inputs keyed by button name.
	// Nil or empty disables button messages.
	Buttons map[string]*input.Virtual

	// View optionally names what the front panel shows.
	View func() string

	Logger log.FieldLogger
}

// SettingsView is DeviceSettings without the WLAN password.
type SettingsView struct {
	SSID       string `json:"ssid"`
	Host       string `json:"host"`
	LightAreas int    `json:"light_areas"`
	Brightness int    `json:"brightness"`
	Input      int    `json:"input"`
}

// Snapshot is one monitor message.
type Snapshot struct {
	Mode     string       `json:"mode"`
	View     string       `json:"view,omitempty"`
	Status   status.View  `json:"status"`
	Settings SettingsView `json:"settings"`
}

// ButtonEvent is accepted on the websocket.
type ButtonEvent struct {
	Button  string `json:"button"`
	Pressed bool   `json:"pressed"`
}

// Server exposes GET /status and GET /ws.
type Server struct {
	cfg Config
	d   Deps
	log log.FieldLogger

	upgrader websocket.Upgrader
	router   *mux.Router

	// stop ends every websocket session; clients tracks them.
	stop    chan struct{}
	clients sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	addr    string
}

// New validates deps and builds the routes.
func New(cfg Config, d Deps) (*Server, error) {
	if d.Status == nil || d.Settings == nil || d.Mode == nil {
		return nil, errors.New("monitor: status, settings and mode required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	s := &Server{
		cfg: cfg,
		d:   d,
		log: logger.WithField("component", "monitor"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		stop: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/ws", s.handleWS).Methods("GET")
	s.router = r
	return s, nil
}

// Handler is the monitor's HTTP surface.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshot reads every cell once.
func (s *Server) Snapshot() Snapshot {
	ds := s.d.Settings.Get()
	snap := Snapshot{
		Mode:   s.d.Mode.Get().String(),
		Status: status.ToView(s.d.Status.Get()),
		Settings: SettingsView{
			SSID:       ds.Wlan.SSIDString(),
			Host:       ds.Wlan.HostString(),
			LightAreas: int(ds.LightAreas),
			Brightness: int(ds.Brightness),
			Input:      int(ds.Input),
		},
	}
	if s.d.View != nil {
		snap.View = s.d.View()
	}
	return snap
}

// Addr is the bound listen address, or "" before Run has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close ends every open websocket session with a close frame.
// New sessions are refused afterwards.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

// join registers a websocket session unless the server is closed.
func (s *Server) join() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.clients.Add(1)
	return true
}

// Run serves on cfg.Listen until ctx is cancelled. It returns once every
// websocket session has ended.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Shutdown does not see hijacked websocket connections.
		s.Close()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	s.log.WithField("listen", ln.Addr().String()).Info("monitor listening")
	err = srv.Serve(ln)
	s.Close()
	s.clients.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---- handlers ----

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.join() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.clients.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	l := s.log.WithField("peer", r.RemoteAddr)
	l.Debug("websocket client connected")

	done := make(chan struct{})
	go s.readPump(conn, l, done)
	s.writePump(conn, done)
	l.Debug("websocket client gone")
}

// readPump applies button messages until the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, l log.FieldLogger, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.WithError(err).Debug("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev ButtonEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			l.WithError(err).Warn("bad button message")
			continue
		}
		b, ok := s.d.Buttons[ev.Button]
		if !ok {
			l.WithField("button", ev.Button).Warn("unknown button")
			continue
		}
		b.Set(ev.Pressed)
	}
}

// writePump sends the snapshot on connect and whenever it changes.
func (s *Server) writePump(conn *websocket.Conn, done <-chan struct{}) {
	poll := time.NewTicker(s.cfg.Interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		poll.Stop()
		ping.Stop()
		_ = conn.Close()
	}()

	var last []byte
	send := func() bool {
		b, err := json.Marshal(s.Snapshot())
		if err != nil {
			return false
		}
		if bytes.Equal(b, last) {
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return false
		}
		last = b
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-s.stop:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case <-poll.C:
			if !send() {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
