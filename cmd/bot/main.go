// Package main is the entry point for the banana bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"banana-bot/internal/bot"
	"banana-bot/internal/config"
	"banana-bot/internal/event"
	"banana-bot/internal/game"
	"banana-bot/internal/game/quest"
	"banana-bot/internal/game/rps"
	"banana-bot/internal/game/tictactoe"
	"banana-bot/internal/law"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/metrics"
	"banana-bot/internal/ops"
	"banana-bot/internal/pkg/db"
	"banana-bot/internal/pkg/lock"
	"banana-bot/internal/repository"
	"banana-bot/internal/service"
	"banana-bot/internal/session"
	"banana-bot/internal/shop"
	"banana-bot/internal/timer"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().Str("storage", cfg.Storage.Driver).Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Bot terminated")
	}
	log.Info().Msg("Bot stopped gracefully")
}

// openStore connects the configured snapshot backend. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		// Run database migrations
		if err := pool.Migrate(ctx, repository.SnapshotSchema); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run database migrations: %w", err)
		}
		return repository.NewPostgresStore(pool.Pool, cfg.Storage.Name), pool.Close, nil
	case "redis":
		client, err := db.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close redis client")
			}
		}
		return repository.NewRedisStore(client, cfg.Storage.Name), closeFn, nil
	default:
		return repository.NewFileStore(cfg.Storage.Path), func() {}, nil
	}
}

// lawCatalog builds the built-in laws plus the optional expression laws file.
func lawCatalog(path string) (*law.Catalog, error) {
	if path == "" {
		return law.NewCatalog(), nil
	}
	rules, err := law.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rules", len(rules)).Str("path", path).Msg("Expression laws loaded")
	return law.NewCatalog(rules...), nil
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize metrics
	m := metrics.New(prometheus.DefaultRegisterer)
	observe := session.WithObserver(m)

	// Initialize the snapshot store and the ledger
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := timer.NewReal()
	ledgerSvc := ledger.New(store,
		ledger.WithClock(clock.Now),
		ledger.WithSaveFailureHook(func(error) { m.SnapshotFailures.Inc() }),
	)
	info := ledgerSvc.Load(ctx)
	m.LedgerUsers.Set(float64(info.Users))
	log.Info().
		Int("users", info.Users).
		Bool("migrated", info.Migrated).
		Bool("fallback", info.Fallback).
		Msg("Ledger loaded")

	catalog, err := lawCatalog(cfg.Law.CatalogPath)
	if err != nil {
		return err
	}

	// Initialize the telebot instance and the messenger on top of it
	teleBot, err := bot.NewTeleBot(cfg)
	if err != nil {
		return err
	}
	msg := messenger.NewTelegram(teleBot)
	rnd := game.NewRandom()

	// Initialize game registry and register games
	gameRegistry := game.NewRegistry()
	for _, g := range []game.Info{tictactoe.Descriptor{}, rps.Descriptor{}, quest.Descriptor{}} {
		if err := gameRegistry.Register(g); err != nil {
			return fmt.Errorf("register game %s: %w", g.Command(), err)
		}
	}
	log.Info().
		Int("game_count", gameRegistry.Count()).
		Msg("Games registered")

	// Initialize services
	events := event.NewManager(clock, rnd, observe)
	bombs := event.NewBombs(event.BombConfig{
		Duration:       cfg.Events.Bomb.Duration,
		Cooldown:       cfg.Events.Bomb.Cooldown,
		PayoutInterval: cfg.Events.Bomb.PayoutInterval,
		Min:            cfg.Events.Bomb.MinPayout,
		Max:            cfg.Events.Bomb.MaxPayout,
	}, clock, rnd, observe)
	eventService := service.NewEventService(events, bombs, ledgerSvc, msg, rnd, m)

	questService := service.NewQuestService(cfg.Quest, msg, clock, rnd, observe)
	deps := &bot.Dependencies{
		Config:            cfg,
		Metrics:           m,
		AccountService:    service.NewAccountService(ledgerSvc, msg, clock, gameRegistry),
		RewardService:     service.NewRewardService(cfg.Reward, ledgerSvc, events, msg, clock, rnd, m),
		BoardDuelService:  service.NewBoardDuelService(cfg.Duel, ledgerSvc, msg, clock, session.NewRoster(), observe),
		RPSService:        service.NewRPSService(cfg.Duel, ledgerSvc, msg, clock, rnd, observe),
		QuestService:      questService,
		LawService:        service.NewLawService(cfg.Law, law.NewEnforcer(catalog, law.WithClock(clock.Now)), ledgerSvc, msg, clock, rnd, m),
		ModerationService: service.NewModerationService(cfg.Moderation, ledgerSvc, msg, clock),
		EventService:      eventService,
		ShopService:       service.NewShopService(shop.NewCatalog(shop.Items), ledgerSvc, msg, clock, rnd, eventService, lock.New[int64]()),
		PollService:       service.NewPollService(msg, clock, observe),
	}

	// Initialize bot
	telegramBot := bot.New(teleBot, deps)
	opsServer := ops.NewServer(cfg.Ops.Addr, store, prometheus.DefaultGatherer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		telegramBot.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		telegramBot.Stop()
		return nil
	})
	g.Go(func() error {
		return opsServer.Run(gctx)
	})

	// Background jobs
	g.Go(func() error {
		timer.Every(gctx, cfg.Boosts.SweepDelay, cfg.Boosts.SweepInterval, func(ctx context.Context) {
			if n := ledgerSvc.SweepExpiredBoosts(ctx); n > 0 {
				log.Info().Int("users", n).Msg("Expired boosts swept")
			}
		})
		return nil
	})
	g.Go(func() error {
		timer.Every(gctx, cfg.Quest.AutoInterval, cfg.Quest.AutoInterval, questService.AutoStart)
		return nil
	})
	g.Go(func() error {
		timer.Every(gctx, time.Minute, time.Minute, func(context.Context) {
			m.LedgerUsers.Set(float64(ledgerSvc.Len()))
		})
		return nil
	})

	return g.Wait()
}
