package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/aetb-config/internal/application"
	"github.com/eugenenazirov/aetb-config/internal/config"
	"github.com/eugenenazirov/aetb-config/internal/logging"
)

var signalNotify = signal.Notify

// stopper is satisfied by *application.App and *http.Server.
type stopper interface {
	Shutdown(ctx context.Context) error
	Close() error
}

type cli struct {
	app *kingpin.Application

	configFile      *string
	envFile         *string
	settingsPath    *string
	credentialsPath *string
	logLevel        *string

	serve struct {
		cmd             *kingpin.CmdClause
		port            *string
		refreshInterval *time.Duration
		rateLimitRPS    *float64
		rateLimitBurst  *int
	}
	show     *kingpin.CmdClause
	validate *kingpin.CmdClause
	get      struct {
		cmd *kingpin.CmdClause
		key *string
	}
	migrate *kingpin.CmdClause
	push    *kingpin.CmdClause
	token   struct {
		cmd     *kingpin.CmdClause
		subject *string
		ttl     *time.Duration
	}
}

func newCLI(stdout io.Writer) *cli {
	c := &cli{}
	c.app = kingpin.New("aetb-config", "AETB trading bot configuration manager")
	c.app.UsageWriter(stdout)
	c.app.ErrorWriter(stdout)

	c.configFile = c.app.Flag("config", "Path to YAML file with process options").String()
	c.envFile = c.app.Flag("env-file", "Path to a .env file (default .env when present)").String()
	c.settingsPath = c.app.Flag("config-path", "Path to the bot's JSON configuration").String()
	c.credentialsPath = c.app.Flag("credentials", "Path to the remote store credentials file").String()
	c.logLevel = c.app.Flag("log-level", "Log level: debug, info, warn, error").String()

	c.serve.cmd = c.app.Command("serve", "Run the admin HTTP API").Default()
	c.serve.port = c.serve.cmd.Flag("port", "HTTP port exposed by the service").String()
	c.serve.refreshInterval = c.serve.cmd.Flag("refresh-interval", "Re-apply the remote document on this interval (0 disables)").Default("-1s").Duration()
	c.serve.rateLimitRPS = c.serve.cmd.Flag("rate-limit-rps", "Requests per second allowed per client (set 0 to disable)").Default("-1").Float64()
	c.serve.rateLimitBurst = c.serve.cmd.Flag("rate-limit-burst", "Burst capacity for rate limiter").Default("-1").Int()

	c.show = c.app.Command("show", "Print the effective configuration")
	c.validate = c.app.Command("validate", "Validate the trading, evolution and risk sections")

	c.get.cmd = c.app.Command("get", "Print a single value as JSON")
	c.get.key = c.get.cmd.Arg("key", "Top-level key or dotted path, e.g. risk.stop_loss_pct").Required().String()

	c.migrate = c.app.Command("migrate", "Create the postgres documents table")
	c.push = c.app.Command("push", "Upload the local configuration to the remote store")

	c.token.cmd = c.app.Command("token", "Issue an admin token for the refresh endpoint")
	c.token.subject = c.token.cmd.Flag("subject", "Token subject").Default("admin").String()
	c.token.ttl = c.token.cmd.Flag("ttl", "Token lifetime").Default("1h").Duration()

	return c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile:      *c.configFile,
		EnvFile:         *c.envFile,
		SettingsPath:    c.settingsPath,
		CredentialsPath: c.credentialsPath,
		LogLevel:        c.logLevel,
		Port:            c.serve.port,
	}
	if *c.serve.refreshInterval >= 0 {
		overrides.RefreshInterval = c.serve.refreshInterval
	}
	if *c.serve.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.serve.rateLimitRPS
	}
	if *c.serve.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.serve.rateLimitBurst
	}
	return overrides
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "aetb-config:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	c := newCLI(stdout)
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case c.serve.cmd.FullCommand():
		return serve(ctx, cfg, logger)
	case c.show.FullCommand():
		return runShow(ctx, cfg, logger, stdout)
	case c.validate.FullCommand():
		return runValidate(ctx, cfg, logger, stdout)
	case c.get.cmd.FullCommand():
		return runGet(ctx, cfg, logger, stdout, *c.get.key)
	case c.migrate.FullCommand():
		return runMigrate(ctx, cfg, stdout)
	case c.push.FullCommand():
		return runPush(ctx, cfg, logger, stdout)
	case c.token.cmd.FullCommand():
		return runToken(cfg, stdout, *c.token.subject, *c.token.ttl)
	}
	return fmt.Errorf("unknown command %q", command)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app, cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server stopper, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
