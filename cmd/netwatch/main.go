package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/config"
	"github.com/hamed0406/netwatch/internal/httpapi"
	"github.com/hamed0406/netwatch/internal/httpapi/middleware"
	"github.com/hamed0406/netwatch/internal/logging"
	"github.com/hamed0406/netwatch/internal/metrics"
	"github.com/hamed0406/netwatch/internal/notify"
	"github.com/hamed0406/netwatch/internal/probe"
	"github.com/hamed0406/netwatch/internal/registry"
	"github.com/hamed0406/netwatch/internal/scheduler"
	"github.com/hamed0406/netwatch/internal/status"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the netwatch CLI: the bare command runs the daemon,
// "netwatch check" runs a single probe cycle and exits.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		listen     string
		logDir     string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "netwatch",
		Short:         "Probes configured targets and alerts on state changes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, listen, logDir)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), configPath, cfg, debug)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "netwatch.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")
	root.Flags().StringVar(&listen, "listen", "", "override the API bind address")
	root.Flags().StringVar(&logDir, "log-dir", "", "override the log directory")

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Run one probe cycle, print the results and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), configPath)
		},
	})

	return root
}

func loadConfig(path, listen, logDir string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.WithEnvOverrides()
	// Flags beat both the file and the environment.
	if listen != "" {
		cfg.Listen = listen
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}
	return cfg, nil
}

func runDaemon(ctx context.Context, configPath string, cfg config.Config, debug bool) error {
	logger, err := logging.NewLogger(cfg.LogDir, debug)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer func() { _ = logger.Sync() }()

	reg := registry.New()
	if err := reg.Replace(cfg.BuildTargets()); err != nil {
		return errors.Wrap(err, "load targets")
	}

	var notifiers notify.Multi
	if n := notify.NewSlack(cfg.SlackWebhook); n != nil {
		notifiers = append(notifiers, n)
	}
	if n := notify.NewWebhook(cfg.WebhookURL); n != nil {
		notifiers = append(notifiers, n)
	}

	tracker := status.NewTracker()
	hub := httpapi.NewHub(logger, tracker)
	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	listeners := []scheduler.Listener{recorder, hub}
	if len(notifiers) > 0 {
		listeners = append(listeners, scheduler.NewAlerter(logger, notifiers, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.RecoveryAlerts(),
			Cooldown:        cfg.AlertCooldown(),
		}))
	}

	coord := scheduler.New(logger, reg, probe.Default(cfg.PingPrivileged), tracker, scheduler.Config{
		Interval:      cfg.CheckInterval(),
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff(),
	}, listeners...)

	api := httpapi.NewServer(logger, reg, tracker, hub, coord.TriggerNow)
	api.Metrics = promhttp.Handler()
	api.RateLimit = middleware.RateLimit(120, 30)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go coord.Run(ctx)
	go watchReload(ctx, logger, configPath, reg, coord)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting_down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return errors.Wrap(err, "shutdown api")
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "api server")
		}
		return nil
	}
}

// watchReload re-reads the config on SIGHUP and swaps the target set. A file
// that fails to load or validate leaves the running set untouched.
func watchReload(ctx context.Context, logger *zap.Logger, path string, reg *registry.Registry, coord *scheduler.Coordinator) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(path)
			if err != nil {
				logger.Error("reload_failed", zap.String("path", path), zap.Error(err))
				continue
			}
			if err := reg.Replace(cfg.WithEnvOverrides().BuildTargets()); err != nil {
				logger.Error("reload_rejected", zap.Error(err))
				continue
			}
			logger.Info("targets_reloaded", zap.Int("enabled", len(reg.Enabled())))
			coord.TriggerNow()
		}
	}
}

func runCheck(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = cfg.WithEnvOverrides()

	reg := registry.New()
	if err := reg.Replace(cfg.BuildTargets()); err != nil {
		return errors.Wrap(err, "load targets")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coord := scheduler.New(zap.NewNop(), reg, probe.Default(cfg.PingPrivileged), status.NewTracker(), scheduler.Config{
		Interval:      cfg.CheckInterval(),
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff(),
	})

	snap := coord.RunCycle(ctx)
	if snap == nil {
		return errors.New("probe cycle interrupted")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tSTATE\tLATENCY\tHTTP\tREASON")
	offline := 0
	for _, res := range snap.Results {
		if !res.Online() {
			offline++
		}
		latency := "n/a"
		if res.LatencyMS != nil {
			latency = fmt.Sprintf("%.0fms", *res.LatencyMS)
		}
		code := "n/a"
		if res.StatusCode != nil {
			code = strconv.Itoa(*res.StatusCode)
		}
		reason := res.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", res.Name, res.State, latency, code, reason)
	}
	_ = w.Flush()

	if offline > 0 {
		return errors.Errorf("%d of %d targets offline", offline, len(snap.Results))
	}
	return nil
}
