package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"racing-telemetry/ingestion/internal/auth"
	"racing-telemetry/ingestion/internal/codec"
	"racing-telemetry/ingestion/internal/config"
	"racing-telemetry/ingestion/internal/ingest"
	"racing-telemetry/ingestion/internal/logging"
	"racing-telemetry/ingestion/internal/pipeline"
	"racing-telemetry/ingestion/internal/store"
	transporthttp "racing-telemetry/ingestion/internal/transport/http"
)

const longHelp = `Listens for racing game telemetry over UDP and forwards every packet to a
stream named after its packet type (motion, lap-data, car-telemetry, ...).

The destination is chosen by the connection string scheme:
  redis:// or rediss://        one Redis stream per destination
  postgres:// or postgresql:// rows in the telemetry_events table

Configuration is read from the config file, then .env, then the environment,
then flags; later sources win.`

const exampleUsage = `  STREAM_CONNECTION_STRING=redis://localhost:6379/0 ingestion
  ingestion --config ./ingestion.toml --port 20777 --encoding msgpack`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.Default()
	var cfgPath string

	bootLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:          "ingestion",
		Short:        "Forward racing game UDP telemetry to per-packet-type streams",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := config.Load(&cfg, cfgPath, changed); err != nil {
				return err
			}

			log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			log.Info().Interface("config", cfg.Masked()).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to a TOML config file")
	f.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "dotenv file loaded before reading the environment")
	f.StringVar(&cfg.ConnectionString, "connection-string", "", "stream connection string (prefer STREAM_CONNECTION_STRING)")
	f.StringVar(&cfg.UDPAddr, "udp-addr", cfg.UDPAddr, "UDP address to bind")
	f.IntVar(&cfg.UDPPort, "port", cfg.UDPPort, "UDP port the game sends telemetry to")
	f.StringSliceVar(&cfg.ForwardAddresses, "forward", nil, "host:port to forward raw datagrams to (repeatable)")
	f.IntVar(&cfg.LaneCapacity, "lane-capacity", cfg.LaneCapacity, "queued packets per packet type before dropping")
	f.IntVar(&cfg.MaxBatchBytes, "max-batch-bytes", cfg.MaxBatchBytes, "maximum encoded bytes per batch")
	f.Int64Var(&cfg.StreamMaxLen, "stream-max-len", cfg.StreamMaxLen, "approximate Redis stream length cap (0 disables trimming)")
	f.StringVar(&cfg.PayloadEncoding, "encoding", cfg.PayloadEncoding, "payload encoding: json or msgpack")
	f.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "producer connect timeout")
	f.DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "batch send timeout")
	f.StringVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "admin HTTP port (empty or 0 disables)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")

	if err := root.Execute(); err != nil {
		bootLog.Error().Err(err).Msg("ingestion")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	c, err := codec.New(cfg.PayloadEncoding)
	if err != nil {
		return err
	}

	dialer, err := store.NewDialer(store.Settings{
		ConnectionString: cfg.ConnectionString,
		MaxBatchBytes:    cfg.MaxBatchBytes,
		StreamMaxLen:     cfg.StreamMaxLen,
		ConnectTimeout:   cfg.ConnectTimeout,
		SendTimeout:      cfg.SendTimeout,
		ContentType:      c.ContentType(),
	})
	if err != nil {
		return err
	}
	log.Info().Str("backend", dialer.Backend()).Msg("delivery backend selected")

	pool := pipeline.NewProducerPool(dialer.Dial, log)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn().Err(err).Msg("closing producers")
		}
	}()

	dispatcher := pipeline.NewDispatcher(pool, c, log)

	listener, err := ingest.Listen(ingest.Options{
		Addr:             net.JoinHostPort(cfg.UDPAddr, strconv.Itoa(cfg.UDPPort)),
		ForwardAddresses: cfg.ForwardAddresses,
		LaneCapacity:     cfg.LaneCapacity,
	}, dispatcher, log)
	if err != nil {
		return err
	}

	if cfg.HTTPEnabled() {
		srv := transporthttp.NewServer(":"+cfg.HTTPPort, auth.NewAuthenticator(cfg.AdminAPIKeys), pool, listener)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("admin http listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("admin http server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := listener.Run(ctx); err != nil {
		return fmt.Errorf("listener: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}
