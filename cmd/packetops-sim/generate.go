package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"packetops-sim/internal/admin"
	"packetops-sim/internal/config"
	"packetops-sim/internal/logging"
	"packetops-sim/internal/sim"
	"packetops-sim/internal/stats"
	"packetops-sim/internal/telemetry"
)

var (
	genConfigPath     string
	genSchemaPath     string
	genTick           time.Duration
	genExportInterval time.Duration
	genLogFile        string
	genPrintOnly      bool
	genTUI            bool
	genAdminAddr      string
	genOTLPEndpoint   string
	genLogLevel       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the telemetry generator",
	Long:  "generate runs the batch loop and metric callbacks, exporting traces and metrics over OTLP and correlated records to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(genConfigPath, genSchemaPath)
		if err != nil {
			return err
		}
		if genOTLPEndpoint != "" {
			cfg.Telemetry.Endpoint = genOTLPEndpoint
		}
		if genLogFile != "" {
			cfg.LogPath = genLogFile
		}
		if env := os.Getenv("HOSTNAME_OVERRIDE"); env != "" {
			cfg.Hostname = env
		}

		tickInterval := genTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		level, err := logging.ParseLevel(genLogLevel)
		if err != nil {
			return err
		}
		log := logging.New(level)
		ctx = logging.NewContext(ctx, log)

		provider, err := telemetry.Setup(ctx, telemetry.Config{
			ServiceName:    "packetops-sim",
			ServiceVersion: "1.0.0",
			InstanceID:     uuid.New().String(),
			OTLPEndpoint:   cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ExportInterval: genExportInterval,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Error("telemetry shutdown failed", "err", err)
			}
		}()

		writer, cleanup, err := newWriters(cfg, genPrintOnly, genTUI)
		if err != nil {
			return err
		}
		defer cleanup()

		store := stats.NewStore(cfg.Sources, cfg.Destinations)
		observer := stats.NewObserver(store, cfg.Hostname, stats.Ranges{
			SrcPacketsMin:  cfg.Observe.SrcPacketsMin,
			SrcPacketsMax:  cfg.Observe.SrcPacketsMax,
			DstPacketsMin:  cfg.Observe.DstPacketsMin,
			DstPacketsMax:  cfg.Observe.DstPacketsMax,
			PacketBytesMin: cfg.Observe.PacketBytesMin,
			PacketBytesMax: cfg.Observe.PacketBytesMax,
		})
		if err := observer.RegisterWith(provider.Meter("packetops.meter")); err != nil {
			return err
		}

		simulator := sim.NewSimulator(cfg, store, writer, provider.Tracer("packetops.tracer"), tickInterval)

		if genAdminAddr != "" {
			srv := admin.NewServer(store, cfg.Hostname)
			go func() {
				log.Info("admin endpoint listening", "addr", genAdminAddr)
				if err := srv.Start(ctx, genAdminAddr); err != nil && err != http.ErrServerClosed {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		runSimulator(ctx, simulator)

		log.Info("telemetry generation stopped")
		return nil
	},
}

// runSimulator runs the loop and blocks until the iteration in flight has
// drained, so the deferred sink cleanups never race a record write.
func runSimulator(ctx context.Context, s *sim.Simulator) {
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	<-done
}

func init() {
	generateCmd.Flags().StringVar(&genConfigPath, "config", "config/packetops.yaml", "Path to generator configuration YAML")
	generateCmd.Flags().StringVar(&genSchemaPath, "schema", "schemas/packetops.cue", "Path to CUE schema file")
	generateCmd.Flags().DurationVar(&genTick, "tick", 5*time.Second, "Batch loop interval (e.g. 500ms, 5s)")
	generateCmd.Flags().DurationVar(&genExportInterval, "export-interval", 5*time.Second, "Metric export interval")
	generateCmd.Flags().StringVar(&genLogFile, "log-file", "", "Record log path (overrides config log_path)")
	generateCmd.Flags().BoolVar(&genPrintOnly, "print-only", false, "Print records to STDOUT instead of writing to file/DB sinks")
	generateCmd.Flags().BoolVar(&genTUI, "tui", false, "Render records in a live terminal dashboard")
	generateCmd.Flags().StringVar(&genAdminAddr, "admin-addr", ":8080", "Status endpoint address (empty disables)")
	generateCmd.Flags().StringVar(&genOTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint (overrides config)")
	generateCmd.Flags().StringVar(&genLogLevel, "log-level", "info", "Operational log level (debug, info, warn, error)")
}
