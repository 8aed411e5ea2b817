package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/analysis"
	"github.com/filmscout/filmscout/internal/api"
	"github.com/filmscout/filmscout/internal/bot"
	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/health"
	"github.com/filmscout/filmscout/internal/imaging"
	"github.com/filmscout/filmscout/internal/logger"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/metadata/mock"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/notification"
	"github.com/filmscout/filmscout/internal/notification/telegram"
	"github.com/filmscout/filmscout/internal/scheduler"
	"github.com/filmscout/filmscout/internal/scheduler/tasks"
	"github.com/filmscout/filmscout/internal/scoring"
	"github.com/filmscout/filmscout/internal/startup"
	"github.com/filmscout/filmscout/internal/vision"
	"github.com/filmscout/filmscout/internal/youtube"
)

const shutdownTimeout = 20 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file")
	useMock := flag.Bool("mock", false, "Serve movie lookups from the built-in mock catalog")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.FromConfig(cfg.Logging))
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("version", api.Version).
		Str("logLevel", cfg.Logging.Level).
		Bool("mock", *useMock).
		Msg("starting FilmScout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	retryCfg := startup.DefaultRetryConfig().WithAttempts(cfg.Limits.MaxRetries)

	healthSvc := health.NewService(log.Logger)

	// Metadata
	store := newResultStore(ctx, cfg, healthSvc, retryCfg, log.Logger)
	var metadataSvc *metadata.Service
	if *useMock {
		metadataSvc = metadata.NewServiceWithClients(mock.NewTMDBClient(), mock.NewOMDBClient(), store, log.Logger)
	} else {
		metadataSvc = metadata.NewService(cfg.Metadata, httpClient, store, log.Logger)
	}
	metadataSvc.SetHealthService(healthSvc)
	metadataSvc.RegisterMetadataProviders()
	for _, p := range metadataSvc.Status() {
		if p.Configured {
			healthSvc.SetCheck(health.CategoryMetadata, p.Name, providerCheck(metadataSvc, p.Name))
		}
	}
	for name, err := range metadataSvc.TestProviders(ctx) {
		log.Warn().Err(err).Str("provider", name).Msg("metadata provider failed its startup test")
	}

	// Trailers and vision
	scorer := scoring.NewDefaultScorer()

	ytClient := youtube.NewClient(cfg.YouTube, httpClient, log.Logger)
	if ytClient.IsConfigured() {
		healthSvc.RegisterCheck(health.CategoryTrailers, "youtube", "YouTube", ytClient.Test)
	}
	finder := youtube.NewFinder(ytClient, scorer, log.Logger)

	visionClient := vision.NewClient(cfg.Vision, httpClient, log.Logger)
	if visionClient.IsConfigured() {
		healthSvc.RegisterCheck(health.CategoryVision, "google-vision", "Google Vision", visionClient.Test)
	}

	imageOpts := imaging.Options{
		MaxBytes:    cfg.Limits.MaxFileSize,
		MaxWidth:    cfg.Limits.MaxImageWidth,
		MaxHeight:   cfg.Limits.MaxImageHeight,
		JPEGQuality: cfg.Limits.JPEGQuality,
	}
	images := analysis.NewImageAnalyzer(visionClient, scorer, imageOpts, log.Logger)
	videos := analysis.NewVideoAnalyzer(images, nil, nil, analysis.VideoLimits{
		MaxBytes:   cfg.Limits.MaxFileSize,
		MinBytes:   cfg.Limits.MinVideoFileSize,
		Extensions: cfg.Limits.VideoExtensions,
		MaxFrames:  cfg.Limits.MaxVideoFrames,
	}, log.Logger)

	// Bot
	handler := bot.NewHandler(bot.Deps{
		Movies:          metadataSvc,
		Trailers:        finder,
		Images:          images,
		Videos:          videos,
		APIStatus:       cfg.APIStatus,
		StatusOrder:     config.APIStatusOrder,
		ImageExtensions: cfg.Limits.ImageExtensions,
		VideoExtensions: cfg.Limits.VideoExtensions,
	}, log.Logger)

	tgBot, err := startup.Do(ctx, "telegram login", retryCfg, log.Logger, func(ctx context.Context) (*bot.Bot, error) {
		return bot.New(cfg.Telegram, cfg.Limits, handler, httpClient, log.Logger)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Telegram")
	}
	healthSvc.RegisterCheck(health.CategoryTelegram, "bot", "Telegram Bot API", tgBot.Ping)

	// Admin notifications
	notifier := notification.NewService(log.Logger)
	if cfg.Telegram.AdminChatID != "" {
		notifier.Add(telegram.New("admin", telegram.Settings{
			APIURL:   cfg.Telegram.APIURL,
			BotToken: cfg.Telegram.Token,
			ChatID:   cfg.Telegram.AdminChatID,
		}, httpClient, log.Logger))
		healthSvc.SetNotifier(notifier)
	}

	// Background jobs
	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterHealthCheckTask(sched, healthSvc, cfg.Scheduler.HealthCheckCron, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register health check task")
	}
	if err := tasks.RegisterCacheSweepTask(sched, metadataSvc, cfg.Scheduler.CacheSweepCron, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register cache sweep task")
	}

	// HTTP
	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(api.Deps{
			Metadata:      metadataSvc,
			Trailers:      finder,
			Videos:        ytClient,
			Health:        healthSvc,
			Scheduler:     sched,
			Notifications: notifier,
			Gatherer:      registry,
			APIStatus:     cfg.APIStatus,
			StatusOrder:   config.APIStatusOrder,
			BotUsername:   tgBot.Username,
			LogPath:       log.FilePath(),
		}, log.Logger)

		go func() {
			if err := server.Start(cfg.Server.Address()); err != nil {
				log.Error().Err(err).Msg("HTTP server stopped")
				stop()
			}
		}()
	}

	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	if err := tgBot.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start Telegram polling")
	}

	notifier.DispatchStartup(ctx, notification.StartupEvent{
		Username:  tgBot.Username(),
		Providers: cfg.APIStatus(),
		Order:     config.APIStatusOrder,
	})

	log.Info().Str("bot", "@"+tgBot.Username()).Msg("FilmScout is running")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := tgBot.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop Telegram polling")
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Err(err).Msg("failed to shut down HTTP server")
		}
	}
	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop scheduler")
	}
	notifier.Wait(shutdownCtx)

	log.Info().Msg("stopped")
}

// newResultStore returns a Redis-backed store when cache.redis_addr is set
// and reachable, otherwise the in-process cache.
func newResultStore(ctx context.Context, cfg *config.Config, healthSvc *health.Service, retryCfg startup.RetryConfig, log zerolog.Logger) metadata.ResultStore {
	memory := metadata.NewMemoryStore(metadata.NewCache(metadata.CacheConfig{
		TTL:      cfg.Cache.TTL,
		MaxItems: cfg.Cache.MaxItems,
	}))
	if cfg.Cache.RedisAddr == "" {
		return memory
	}

	client := metadata.NewRedisClient(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	store := metadata.NewRedisStore(client, cfg.Cache.RedisPrefix, cfg.Cache.TTL)
	if err := startup.Run(ctx, "redis ping", retryCfg, log, store.Ping); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, using in-memory cache")
		_ = client.Close()
		return memory
	}

	healthSvc.RegisterCheck(health.CategoryCache, "redis", "Redis", store.Ping)
	log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("using redis metadata cache")
	return store
}

// providerCheck probes a single metadata provider.
func providerCheck(svc *metadata.Service, name string) health.CheckFunc {
	return func(ctx context.Context) error {
		return svc.TestProvider(ctx, name)
	}
}
