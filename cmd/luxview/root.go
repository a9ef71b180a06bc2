package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"luxview/internal/config"
	"luxview/internal/telemetry"
	"luxview/internal/ui"
	"luxview/internal/widget"
)

func newRootCmd() *cobra.Command {
	v := config.New()
	var seedPath string

	cmd := &cobra.Command{
		Use:   "luxview",
		Short: "Browse recommended visualizations and export or delete a selection",
		Long: `luxview shows the current visualization and the recommended charts held in a
property store shared with the kernel side. Selected charts can be exported
(committed under _exportedVisIdxs) or deleted (committed under deletedIndices).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runWidget(cmd.Context(), cfg, seedPath)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("backend", "", "property store backend (memory, file, redis)")
	flags.String("store-path", "", "JSON document for the file backend")
	flags.String("redis-addr", "", "redis address for the redis backend")
	flags.String("redis-prefix", "", "key prefix for the redis backend")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	bindFlags(v, flags, map[string]string{
		"store.backend":      "backend",
		"store.path":         "store-path",
		"store.redis_addr":   "redis-addr",
		"store.redis_prefix": "redis-prefix",
		"log.level":          "log-level",
	})
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML snapshot written to the store before the widget starts")

	cmd.AddCommand(newSeedCmd(v), newInspectCmd(v))
	return cmd
}

// bindFlags lets flags override config keys when they are set.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func runWidget(ctx context.Context, cfg config.Config, seedPath string) error {
	logFile, err := telemetry.OpenLogFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, logFile)
	if err != nil {
		return err
	}
	session := telemetry.NewSessionID()
	logger = logger.With("session", session)

	st, err := openStore(ctx, cfg, "widget-"+session, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if seedPath != "" {
		snap, err := readSnapshot(seedPath)
		if err != nil {
			return err
		}
		if err := writeSnapshot(ctx, st, snap); err != nil {
			return err
		}
	}

	sinks := []widget.EventLogger{telemetry.NewSlogEvents(logger, session)}
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("luxview: tracer shutdown", "err", err)
			}
		}()
		sinks = append(sinks, telemetry.NewSpanLogger(tp, session))
	}
	if cfg.Telemetry.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		sinks = append(sinks, telemetry.NewMetricsLogger(reg))
		srv := &http.Server{Addr: cfg.Telemetry.MetricsAddr, Handler: telemetry.MetricsHandler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("luxview: metrics server", "addr", cfg.Telemetry.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
	}

	// Subscribe before the controller takes its snapshot so no external
	// write can land unseen between the two.
	relay := ui.NewStoreRelay()
	unsubscribe := st.OnChange(relay.Push)
	defer unsubscribe()

	sched := ui.NewScheduler()
	ctrl, err := widget.NewController(st,
		widget.WithScheduler(sched),
		widget.WithEventLogger(widget.NewMultiLogger(sinks...)),
		widget.WithLogger(logger),
		widget.WithAckTimeout(cfg.Widget.AckTimeout),
	)
	if err != nil {
		return err
	}
	model := ui.NewWidgetModel(ctrl, sched, ui.Options{
		MaxSelectable: cfg.Widget.MaxSelectable,
		Logger:        logger,
	})

	p := tea.NewProgram(model.AsTeaModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go relay.Run(relayCtx, p.Send)

	logger.Info("luxview: widget started", "backend", cfg.Store.Backend)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run widget: %w", err)
	}
	return nil
}

// discardLogger is used by the kernel-side subcommands, which report on stdout.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
