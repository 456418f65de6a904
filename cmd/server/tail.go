package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fitsymphony/internal/config"
	"fitsymphony/internal/eventbus"

	"github.com/spf13/cobra"
)

var tailAuditCmd = &cobra.Command{
	Use:   "tail-audit",
	Short: "Print audit entries published on the event bus",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.EventBus.NATSURL == "" {
			return errors.New("eventbus.nats_url is not set")
		}
		bus, err := eventbus.NewNATSBus(eventbus.NATSConfig{URL: cfg.EventBus.NATSURL, Subject: cfg.EventBus.Subject})
		if err != nil {
			return err
		}
		defer bus.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		if _, err := bus.Subscribe(ctx, func(ev eventbus.AuditEvent) {
			_ = enc.Encode(ev)
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", bus.Subject())
		<-ctx.Done()
		return nil
	},
}
