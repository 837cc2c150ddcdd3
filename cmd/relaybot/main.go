package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"relaybot/internal/channel"
	"relaybot/internal/config"
	"relaybot/internal/domain"
	"relaybot/internal/metrics"
	"relaybot/internal/relay"
	"relaybot/internal/store"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "relaybot",
		Short: "RelayBot: mirror channel activity into one timeline channel",
		Long:  "RelayBot relays messages from every channel it is a member of into a single aggregated timeline channel, preserving threads, authorship, and attachments.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.relaybot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			fmt.Printf("Edit %s and set SLACK_BOT_TOKEN, SLACK_APP_TOKEN and ALL_TIMELINE_ID in the environment.\n", cfgPath)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the workspace and start relaying",
		RunE:  runDaemon,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("relaybot " + version)
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// A .env next to the working directory is a convenience for local
	// runs; absence is not an error.
	_ = godotenv.Load()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err = setupLogger(cfg.General)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var relayStore domain.RelayStore
	if cfg.Store.DBPath != "" {
		relayStore, err = store.NewSQLiteStore(cfg.Store.DBPath, logger)
		if err != nil {
			return fmt.Errorf("relay store: %w", err)
		}
	} else {
		logger.Warn("no store.dbPath configured, thread mapping will not survive restarts")
		relayStore = store.NewMemoryStore()
	}
	defer relayStore.Close()

	if n, err := relayStore.Len(ctx); err == nil {
		metrics.MappingSize.Set(n)
		logger.Info("relay mapping loaded", "entries", n)
	}

	rules, err := relay.LoadRules(cfg.Relay.RulesFile, logger)
	if err != nil {
		return fmt.Errorf("classifier rules: %w", err)
	}

	gateway := channel.NewSlack(channel.SlackConfig{
		BotToken:        cfg.Slack.BotToken,
		AppToken:        cfg.Slack.AppToken,
		TimelineChannel: cfg.Slack.TimelineChannel,
		AutoJoin:        cfg.Slack.AutoJoin,
		Logger:          logger,
	})

	fetcher := channel.NewHTTPFetcher(cfg.Slack.BotToken, time.Duration(cfg.Relay.FetchTimeoutSeconds)*time.Second)
	dir := relay.NewDirectory(gateway, logger)
	rehoster := relay.NewRehoster(gateway, fetcher, cfg.Slack.TimelineChannel, logger)
	presenter := relay.NewPresenter(dir, rehoster, logger)
	classifier := relay.NewClassifier(cfg.Slack.TimelineChannel, cfg.Relay.FileSharePattern, rules, logger)

	router := relay.NewRouter(relay.RouterConfig{
		Client:          gateway,
		Store:           relayStore,
		Directory:       dir,
		Classifier:      classifier,
		Presenter:       presenter,
		TimelineChannel: cfg.Slack.TimelineChannel,
		AttachmentColor: cfg.Relay.AttachmentColor,
		InlineImages:    cfg.Relay.InlineImages,
		Logger:          logger,
	})

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Listen)
	}

	sched, err := startScheduler(ctx, cfg, gateway, relayStore)
	if err != nil {
		return err
	}
	if sched != nil {
		defer sched.Stop()
	}

	logger.Info("relaybot starting", "version", version, "timeline", cfg.Slack.TimelineChannel)
	return gateway.Start(ctx, router.Handle)
}

// startScheduler wires the periodic jobs: re-joining newly created public
// channels and pruning expired relay mappings.
func startScheduler(ctx context.Context, cfg *config.Config, gateway *channel.Slack, relayStore domain.RelayStore) (*cron.Cron, error) {
	var jobs int
	sched := cron.New(cron.WithSeconds())

	if cfg.Slack.AutoJoin && cfg.Slack.RejoinSchedule != "" {
		_, err := sched.AddFunc(cfg.Slack.RejoinSchedule, func() {
			if err := gateway.JoinPublicChannels(ctx); err != nil {
				logger.Warn("scheduled channel join failed", "err", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("slack.rejoinSchedule: %w", err)
		}
		jobs++
	}

	if cfg.Store.DBPath != "" && cfg.Store.PruneSchedule != "" {
		retention := cfg.Store.RetentionDays
		_, err := sched.AddFunc(cfg.Store.PruneSchedule, func() {
			cutoff := time.Now().AddDate(0, 0, -retention)
			removed, err := relayStore.Prune(ctx, cutoff)
			if err != nil {
				logger.Warn("mapping prune failed", "err", err)
				return
			}
			if n, err := relayStore.Len(ctx); err == nil {
				metrics.MappingSize.Set(n)
			}
			logger.Info("pruned relay mappings", "removed", removed, "older_than_days", retention)
		})
		if err != nil {
			return nil, fmt.Errorf("store.pruneSchedule: %w", err)
		}
		jobs++
	}

	if jobs == 0 {
		return nil, nil
	}
	sched.Start()
	logger.Info("scheduler started", "jobs", jobs)
	return sched, nil
}

func startMetricsServer(ctx context.Context, listen string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metrics.Collector.Handler())

	srv := &http.Server{Addr: listen, Handler: mux}
	go func() {
		logger.Info("metrics endpoint listening", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func setupLogger(cfg config.GeneralConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}
