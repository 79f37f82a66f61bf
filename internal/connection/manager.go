// internal/connection/manager.go
package connection

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
	"github.com/tamzrod/vmix-tally/internal/vmix"
	"github.com/tamzrod/vmix-tally/internal/wlan"
)

// Defaults for Config fields left zero.
const (
	DefaultAssociationTimeout = 15 * time.Second
	DefaultPollInterval       = 100 * time.Millisecond
	DefaultDialTimeout        = 2 * time.Second
	DefaultReadTimeout        = time.Second
	DefaultPortalListen       = ":80"
)

const portalShutdownTimeout = 2 * time.Second

// Config holds the connection timings and endpoints.
type Config struct {
	// Port is the vMix TCP API port. Zero means vmix.Port.
	Port int

	AssociationTimeout time.Duration
	PollInterval       time.Duration
	DialTimeout        time.Duration
	ReadTimeout        time.Duration

	// ReconnectDelay is slept between failed dials. Zero retries at once.
	ReconnectDelay time.Duration

	APSSID       string
	PortalListen string
}

// Deps are the collaborators a Manager drives.
type Deps struct {
	Settings *settings.Store
	Status   *status.Register
	Mode     *ModeSwitch
	Station  wlan.Station
	AP       wlan.AccessPoint

	// Portal serves the configuration surface while the access point is up.
	Portal http.Handler

	Logger log.FieldLogger
}

// Manager owns the WLAN link, the vMix subscription and the configuration
// portal. It is the only writer of the status register.
type Manager struct {
	cfg Config

	settings *settings.Store
	status   *status.Register
	mode     *ModeSwitch
	station  wlan.Station
	ap       wlan.AccessPoint
	portal   http.Handler
	log      log.FieldLogger

	mu         sync.Mutex
	portalAddr string
}

// New validates the wiring and applies defaults.
func New(cfg Config, d Deps) (*Manager, error) {
	if d.Settings == nil {
		return nil, errors.New("connection: settings store required")
	}
	if d.Status == nil {
		return nil, errors.New("connection: status register required")
	}
	if d.Mode == nil {
		return nil, errors.New("connection: mode switch required")
	}
	if d.Station == nil || d.AP == nil {
		return nil, errors.New("connection: station and access point required")
	}
	if d.Portal == nil {
		return nil, errors.New("connection: portal handler required")
	}

	if cfg.Port == 0 {
		cfg.Port = vmix.Port
	}
	if cfg.AssociationTimeout <= 0 {
		cfg.AssociationTimeout = DefaultAssociationTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.APSSID == "" {
		cfg.APSSID = wlan.DefaultAPSSID
	}
	if cfg.PortalListen == "" {
		cfg.PortalListen = DefaultPortalListen
	}

	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Manager{
		cfg:      cfg,
		settings: d.Settings,
		status:   d.Status,
		mode:     d.Mode,
		station:  d.Station,
		ap:       d.AP,
		portal:   d.Portal,
		log:      logger.WithField("component", "connection"),
	}, nil
}

// PortalAddr is the bound portal listen address, or "" while the portal is
// not serving.
func (m *Manager) PortalAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.portalAddr
}

func (m *Manager) setPortalAddr(a string) {
	m.mu.Lock()
	m.portalAddr = a
	m.mu.Unlock()
}

// Run drives the connection state machine until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		switch m.mode.Get() {
		case ModeConfiguration:
			m.runConfiguration(ctx)
		default:
			m.runNormal(ctx)
		}
	}
	return nil
}

// ------------------------------------------------------------
// normal mode
// ------------------------------------------------------------

func (m *Manager) inNormal(ctx context.Context) bool {
	return ctx.Err() == nil && m.mode.Get() == ModeNormal
}

// runNormal is one Connecting → WifiConnected → VmixConnected cycle.
// Every return goes back to Connecting via the outer loop.
func (m *Manager) runNormal(ctx context.Context) {
	m.status.Replace(status.Connecting())
	defer func() { _ = m.station.Disconnect() }()

	w := m.settings.Get().Wlan
	l := m.log.WithField("ssid", w.SSIDString())

	if err := m.station.Begin(w.SSIDString(), w.PassString()); err != nil {
		l.WithError(err).Warn("wlan begin failed")
		sleepCtx(ctx, m.cfg.PollInterval)
		return
	}

	if !m.waitAssociated(ctx) {
		if m.inNormal(ctx) {
			l.Warn("wlan association timed out")
		}
		return
	}

	l.Info("wlan connected")
	m.status.Replace(status.WifiConnected())

	client := m.dial(ctx, w.HostString())
	if client == nil {
		return
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	m.status.Replace(status.VmixConnected())

	if err := client.Subscribe(); err != nil {
		m.log.WithError(err).Warn("vmix subscribe failed")
		return
	}
	m.log.WithField("peer", client.RemoteAddr()).Info("vmix subscribed")

	m.readTally(ctx, client)
}

// waitAssociated polls the station link, bounded by the association timeout.
func (m *Manager) waitAssociated(ctx context.Context) bool {
	deadline := time.Now().Add(m.cfg.AssociationTimeout)

	for m.inNormal(ctx) {
		if m.station.Connected() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		sleepCtx(ctx, m.cfg.PollInterval)
	}
	return false
}

// dial retries until connected, the link drops or the mode changes.
func (m *Manager) dial(ctx context.Context, host string) *vmix.Client {
	cfg := vmix.Config{
		Host:        host,
		Port:        m.cfg.Port,
		DialTimeout: m.cfg.DialTimeout,
		ReadTimeout: m.cfg.ReadTimeout,
	}
	l := m.log.WithField("addr", cfg.Addr())

	if host == "" {
		l.Warn("no vmix host configured")
		for m.inNormal(ctx) && m.station.Connected() {
			sleepCtx(ctx, m.cfg.PollInterval)
		}
		return nil
	}

	failures := 0
	for m.inNormal(ctx) && m.station.Connected() {
		c, err := vmix.Dial(cfg)
		if err == nil {
			l.WithField("failed_attempts", failures).Info("vmix connected")
			return c
		}

		if failures == 0 {
			l.WithError(err).Warn("vmix unreachable, retrying")
		} else {
			l.WithError(err).Debug("vmix dial failed")
		}
		failures++

		if m.cfg.ReconnectDelay > 0 {
			sleepCtx(ctx, m.cfg.ReconnectDelay)
		}
	}
	return nil
}

// readTally consumes tally lines until the connection fails, the link drops
// or the mode changes.
func (m *Manager) readTally(ctx context.Context, c *vmix.Client) {
	for m.inNormal(ctx) {
		if !m.station.Connected() {
			m.log.Warn("wlan link lost")
			return
		}

		line, err := c.ReadLine()
		if errors.Is(err, vmix.ErrIdle) {
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				m.log.WithError(err).Warn("vmix connection lost")
			}
			return
		}

		program, preview, ok := vmix.ParseTally(line)
		if !ok {
			m.log.WithField("line", line).Debug("ignored line")
			continue
		}
		m.status.Replace(status.TallyReport(program, preview))
	}
}

// ------------------------------------------------------------
// configuration mode
// ------------------------------------------------------------

func (m *Manager) runConfiguration(ctx context.Context) {
	_ = m.station.Disconnect()

	l := m.log.WithField("ap_ssid", m.cfg.APSSID)

	apAddr, err := m.ap.Start(m.cfg.APSSID)
	if err != nil {
		l.WithError(err).Warn("access point start failed")
		sleepCtx(ctx, m.cfg.PollInterval)
		return
	}
	defer func() {
		if err := m.ap.Stop(); err != nil {
			l.WithError(err).Warn("access point stop failed")
		}
	}()

	ln, err := net.Listen("tcp", m.cfg.PortalListen)
	if err != nil {
		l.WithError(err).Warn("portal listen failed")
		sleepCtx(ctx, m.cfg.PollInterval)
		return
	}

	srv := &http.Server{
		Handler:           m.portal,
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Warn("portal stopped")
		}
	}()

	m.setPortalAddr(ln.Addr().String())
	m.status.Replace(status.APActive())
	l.WithFields(log.Fields{"ap_addr": apAddr, "listen": ln.Addr().String()}).Info("configuration portal up")

	for ctx.Err() == nil && m.mode.Get() == ModeConfiguration {
		sleepCtx(ctx, m.cfg.PollInterval)
	}

	sctx, cancel := context.WithTimeout(context.Background(), portalShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		_ = srv.Close()
	}
	<-done
	m.setPortalAddr("")
	l.Info("configuration portal down")
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
