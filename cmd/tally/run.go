// cmd/tally/run.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/vmix-tally/internal/config"
	"github.com/tamzrod/vmix-tally/internal/connection"
	"github.com/tamzrod/vmix-tally/internal/debounce"
	"github.com/tamzrod/vmix-tally/internal/input"
	"github.com/tamzrod/vmix-tally/internal/mirror"
	mbclient "github.com/tamzrod/vmix-tally/internal/mirror/modbus"
	mqclient "github.com/tamzrod/vmix-tally/internal/mirror/mqtt"
	"github.com/tamzrod/vmix-tally/internal/monitor"
	"github.com/tamzrod/vmix-tally/internal/nvs"
	"github.com/tamzrod/vmix-tally/internal/panel"
	"github.com/tamzrod/vmix-tally/internal/portal"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
	"github.com/tamzrod/vmix-tally/internal/wlan"
)

func runTally(cmd *cobra.Command, args []string) error {
	// --------------------
	// Load + validate config
	// --------------------
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	logger := log.WithField("device", cfg.Device.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Shared cells
	// --------------------
	store, err := openSettings(cfg.Settings, logger)
	if err != nil {
		return err
	}
	reg := status.NewRegister()
	mode := &connection.ModeSwitch{}

	// --------------------
	// Buttons (tick context)
	// --------------------
	inputs, err := input.Open(cfg.Buttons.Backend, cfg.Buttons.Pins)
	if err != nil {
		return err
	}
	defer inputs.Close()

	clock := debounce.MonotonicClock()
	buttons := make(map[string]*debounce.Debouncer, len(input.Names))
	channels := make([]debounce.Channel, 0, len(input.Names))
	for _, name := range input.Names {
		d := debounce.New(cfg.Buttons.Hold(), clock)
		buttons[name] = d
		channels = append(channels, debounce.Channel{Name: name, Sampler: inputs.Samplers[name], Debouncer: d})
	}
	ticker, err := debounce.NewRunner(cfg.Buttons.Tick(), channels)
	if err != nil {
		return err
	}

	// --------------------
	// Connection manager
	// --------------------
	link, err := wlan.Open(cfg.Connection.Wlan, cfg.Connection.Interface)
	if err != nil {
		return fmt.Errorf("wlan: %w", err)
	}
	if cfg.Connection.Wlan == wlan.BackendExternal {
		logger.Warn("wlan link is managed externally, saved credentials are not applied")
	}
	site, err := portal.New(store, portal.Options{StaticDir: cfg.Connection.StaticDir, Logger: logger})
	if err != nil {
		return fmt.Errorf("portal: %w", err)
	}
	mgr, err := connection.New(connection.Config{
		Port:               cfg.Connection.VmixPort,
		AssociationTimeout: cfg.Connection.AssociationTimeout(),
		PollInterval:       cfg.Connection.PollInterval(),
		DialTimeout:        cfg.Connection.DialTimeout(),
		ReadTimeout:        cfg.Connection.ReadTimeout(),
		ReconnectDelay:     cfg.Connection.ReconnectDelay(),
		APSSID:             cfg.Connection.APSSID,
		PortalListen:       cfg.Connection.PortalListen,
	}, connection.Deps{
		Settings: store,
		Status:   reg,
		Mode:     mode,
		Station:  link,
		AP:       link,
		Portal:   site,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// --------------------
	// Foreground panel
	// --------------------
	var battery panel.Battery
	if cfg.Device.BatteryPath != "" {
		battery = panel.SysfsBattery{Path: cfg.Device.BatteryPath}
	}
	ctl, err := panel.New(panel.Config{Idle: cfg.Buttons.Idle()}, panel.Deps{
		Settings: store,
		Status:   reg,
		Mode:     mode,
		Buttons: panel.Buttons{
			Brightness: buttons[input.Brightness],
			Up:         buttons[input.Up],
			Mode:       buttons[input.Mode],
			Down:       buttons[input.Down],
		},
		Renderer: panel.NewLogRenderer(logger),
		Battery:  battery,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	spawn := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			logger.WithField("task", name).Debugln("stopped")
		}()
	}

	spawn("buttons", func() { ticker.Run(ctx) })
	spawn("connection", func() { _ = mgr.Run(ctx) })
	spawn("panel", func() { ctl.Run(ctx) })

	// --------------------
	// Optional monitor
	// --------------------
	if cfg.Monitor.Listen != "" {
		mon, err := monitor.New(monitor.Config{
			Listen:   cfg.Monitor.Listen,
			Interval: cfg.Monitor.Interval(),
		}, monitor.Deps{
			Status:   reg,
			Settings: store,
			Mode:     mode,
			Buttons:  inputs.Virtual,
			View:     func() string { return ctl.View().String() },
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		spawn("monitor", func() {
			if err := mon.Run(ctx); err != nil {
				logger.WithError(err).Errorln("monitor failed")
			}
		})
	}

	// --------------------
	// Optional mirrors
	// --------------------
	if sinks := buildSinks(cfg, logger); len(sinks) > 0 {
		r, err := mirror.NewRunner(reg, cfg.Mirror.Interval(), sinks, logger)
		if err != nil {
			return err
		}
		spawn("mirror", func() { r.Run(ctx) })
	}

	logger.WithFields(log.Fields{
		"buttons": cfg.Buttons.Backend,
		"ssid":    store.Get().Wlan.SSIDString(),
		"host":    store.Get().Wlan.HostString(),
	}).Infoln("tally running")

	<-ctx.Done()
	wg.Wait()
	logger.Infoln("tally stopped")
	return nil
}

func openSettings(c config.SettingsConfig, logger log.FieldLogger) (*settings.Store, error) {
	var p settings.Persistence
	if c.Path == "" {
		logger.Warnln("no settings path, settings are kept in memory only")
		p = nvs.NewMem()
	} else {
		fs, err := nvs.OpenFile(c.Path, c.Namespace)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		p = fs
	}
	return settings.Open(p, settings.Options{Logger: logger}), nil
}

// buildSinks connects the configured mirrors. A mirror that cannot connect
// at startup is skipped with an error log; the tally keeps running.
func buildSinks(cfg *config.Config, logger log.FieldLogger) []mirror.Sink {
	var sinks []mirror.Sink

	if mb := cfg.Mirror.Modbus; mb != nil {
		l := logger.WithField("endpoint", mb.Endpoint)
		cli, err := mbclient.New(mbclient.Config{Endpoint: mb.Endpoint, UnitID: mb.UnitID, Timeout: mb.Timeout()})
		if err != nil {
			l.WithError(err).Errorln("modbus mirror disabled")
		} else if sink, err := mirror.NewModbusSink(cli, mirror.ModbusLayout{
			FlagsRegister: mb.FlagsRegister,
			ProgramCoil:   mb.ProgramCoil,
			PreviewCoil:   mb.PreviewCoil,
			Sources:       mb.Sources,
		}); err != nil {
			_ = cli.Close()
			l.WithError(err).Errorln("modbus mirror disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}

	if mq := cfg.Mirror.MQTT; mq != nil {
		l := logger.WithField("broker", mq.Broker)
		cli, err := mqclient.New(mqclient.Config{
			Broker:   mq.Broker,
			ClientID: mq.ClientID,
			Username: mq.Username,
			Password: mq.Password,
			Topic:    mq.Topic,
			Timeout:  mq.Timeout(),
		})
		if err != nil {
			l.WithError(err).Errorln("mqtt mirror disabled")
		} else if sink, err := mirror.NewMQTTSink(cli, mq.Topic, mq.QoS); err != nil {
			_ = cli.Close()
			l.WithError(err).Errorln("mqtt mirror disabled")
		} else {
			sinks = append(sinks, sink)
		}
	}

	return sinks
}
