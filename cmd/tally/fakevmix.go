// cmd/tally/fakevmix.go
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/vmix-tally/internal/vmix"
)

func runFakeVmix(cmd *cobra.Command, args []string) error {
	interval, err := time.ParseDuration(fakeInterval)
	if err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	if interval <= 0 || fakeInputs <= 0 {
		return fmt.Errorf("interval and inputs must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := vmix.NewFakeServer(fakeListen, log.StandardLogger())
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"listen":   srv.Addr().String(),
		"inputs":   fakeInputs,
		"interval": interval.String(),
	}).Infoln("fake vmix serving")

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	srv.SetState(vmix.RandomState(rnd, fakeInputs))

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				state := vmix.RandomState(rnd, fakeInputs)
				log.WithField("state", state).Debugln(">")
				srv.SetState(state)
			}
		}
	}()

	return srv.Serve(ctx)
}
