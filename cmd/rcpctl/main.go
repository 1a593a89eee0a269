package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/pior/rcp"
	"github.com/pior/rcp/internal/promexporter"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("rcpctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "TOML configuration file")
	addr := flags.String("addr", "", "console address (host or host:port)")
	timeout := flags.Duration("timeout", 0, "per-command timeout")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	metricsAddr := flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	history := flags.String("history", "", "readline history file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg := defaultCLIConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		cfg = loaded
	}
	if err := applyEnv(&cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *addr != "" {
		cfg.Console = *addr
	}
	if flags.NArg() > 0 && cfg.Console == "" {
		cfg.Console = flags.Arg(0)
	}
	if *timeout != 0 {
		cfg.Client.CallTimeout = *timeout
	}
	if *logLevel != "" {
		level, err := zerolog.ParseLevel(*logLevel)
		if err != nil {
			fmt.Fprintf(stderr, "parse -log-level: %v\n", err)
			return 2
		}
		cfg.LogLevel = level
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *history != "" {
		cfg.HistoryFile = *history
	}

	if cfg.Console == "" {
		fmt.Fprintln(stderr, "rcpctl: no console address, use -addr, RCP_CONSOLE or the config file")
		return 2
	}

	logger := initLogger(stderr, cfg.LogLevel)
	cfg.Client.Logger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout(cfg.Client))
	client, err := rcp.Dial(dialCtx, cfg.Console, cfg.Client)
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("console", cfg.Console).Msg("connect failed")
		return 1
	}

	if cfg.MetricsAddr != "" {
		exporter := promexporter.NewExporter()
		if err := exporter.RegisterClient(client); err != nil {
			logger.Error().Err(err).Msg("register metrics")
		} else {
			go func() {
				if err := exporter.ServeHTTP(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
				}
			}()
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
		}
	}

	editor := newLineEditor(stdin, cfg.HistoryFile)
	r := newREPL(client, stdout)
	if editor.IsInteractive() {
		fmt.Fprintf(stdout, "connected to %s, type :help for commands\n", client.Addr())
	}

	status := loop(ctx, editor, r)

	editor.Close()
	r.close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Client.DrainTimeout+time.Second)
	defer cancel()
	if err := client.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
	return status
}

func loop(ctx context.Context, editor *lineEditor, r *repl) int {
	for {
		line, err := editor.GetLine("rcp> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0
			}
			r.printf("error: %v\n", err)
			return 1
		}
		if !r.handle(ctx, line) {
			return 0
		}
		if ctx.Err() != nil {
			return 130
		}
	}
}

func initLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "rcpctl").Logger()
}

func dialTimeout(cfg rcp.Config) time.Duration {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = rcp.DefaultConfig().ConnectTimeout
	}
	return 2 * connect
}
