package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-events/config"
	"campus-events/internal/api"
	"campus-events/internal/cache"
	"campus-events/internal/realtime"
	"campus-events/monitoring"
	"campus-events/services"
	"campus-events/utils"

	pubnub "github.com/pubnub/go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel)

	if err := NewRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// app holds what every command needs. Optional integrations stay nil when
// they are not configured.
type app struct {
	cfg     *config.Config
	out     io.Writer
	console *console
	logger  *slog.Logger
	client  *api.Client
	monitor *monitoring.Monitor

	redis     *redis.Client
	cache     services.UniversityCache
	pubnub    *pubnub.PubNub
	announcer services.Announcer
}

type rootFlags struct {
	apiURL string
	cookie string
}

func NewRootCmd(out io.Writer) *cobra.Command {
	var (
		flags rootFlags
		a     = &app{out: out}
	)

	root := &cobra.Command{
		Use:           "campus-events",
		Short:         "Browse, reserve and publish campus events",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if flags.apiURL != "" {
				cfg.BaseURL = flags.apiURL
			}
			if flags.cookie != "" {
				cfg.SessionCookie = flags.cookie
			}
			return a.init(cmd.Context(), cfg)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "backend base URL (overrides CAMPUS_API_URL)")
	root.PersistentFlags().StringVar(&flags.cookie, "cookie", "", "session cookie value (overrides CAMPUS_SESSION_COOKIE)")

	root.AddCommand(
		newFeedCmd(a),
		newSearchCmd(a),
		newReserveCmd(a),
		newUploadCmd(a),
		newCampusCmd(a),
		newProfileCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newHealthCmd(a),
		newDevBackendCmd(a),
	)

	root.SetOut(out)
	root.SetErr(os.Stderr)
	return root
}

func (a *app) init(ctx context.Context, cfg *config.Config) error {
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.logger)
	a.console = newConsole(a.out, cfg.Currency)

	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.logger.Warn("Autocomplete cache disabled", "error", err)
		} else {
			a.redis = client
			a.cache = cache.NewUniversities(client, cfg.AutocompleteCacheTTL)
		}
	}
	a.monitor = monitoring.NewMonitor(a.redis)

	if cfg.EnableMetrics {
		go func() {
			if err := monitoring.Serve(ctx, ":"+cfg.MetricsPort); err != nil {
				a.logger.Error("Metrics server stopped", "error", err)
			}
		}()
		go a.monitor.Run(ctx, 30*time.Second)
	}

	if cfg.PubNubSubscribeKey != "" {
		pn, err := realtime.NewPubNub(realtime.Config{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			UserID:       cfg.PubNubUserID,
			Channel:      cfg.PubNubChannel,
		})
		if err != nil {
			return fmt.Errorf("configure realtime: %w", err)
		}
		a.pubnub = pn
		if cfg.PubNubPublishKey != "" {
			a.announcer = realtime.NewAnnouncer(pn, cfg.PubNubChannel, a.logger)
		}
	}

	a.client = api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithSessionCookie(cfg.SessionCookie),
		api.WithBreaker(utils.NewCircuitBreaker("campus-api")),
		api.WithMonitor(a.monitor),
		api.WithLogger(a.logger),
	)
	return nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

func (a *app) pageConfig() services.PageConfig {
	cfg := services.DefaultPageConfig()
	cfg.NearbyLimit = a.cfg.NearbyLimit
	cfg.CustomLimit = a.cfg.CustomLimit
	cfg.FallbackLimit = a.cfg.FallbackLimit
	cfg.FallbackDelay = a.cfg.FallbackDelay
	cfg.SearchDebounce = a.cfg.SearchDebounce
	cfg.AutocompleteDebounce = a.cfg.AutocompleteDebounce
	cfg.AccuracyThreshold = a.cfg.AccuracyThreshold
	cfg.GeoTimeout = a.cfg.GeoTimeout
	cfg.Currency = a.cfg.Currency
	return cfg
}

// locator reports the position given in the environment, or no support
// when none was given.
func (a *app) locator() services.Locator {
	if a.cfg.DeviceLatitude == nil || a.cfg.DeviceLongitude == nil {
		return services.StaticLocator{}
	}
	return services.StaticLocator{Position: &services.Position{
		Latitude:  *a.cfg.DeviceLatitude,
		Longitude: *a.cfg.DeviceLongitude,
		Accuracy:  a.cfg.DeviceAccuracy,
	}}
}

func (a *app) page() *services.PageSession {
	return services.NewPageSession(a.client, a.locator(), a.console,
		services.WithPageConfig(a.pageConfig()),
		services.WithPageAnnouncer(a.announcer),
		services.WithPageCache(a.cache),
		services.WithPageMonitor(a.monitor),
		services.WithPageLogger(a.logger),
	)
}

func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Shutdown signal received, cleaning up...")
	cancel()
}
