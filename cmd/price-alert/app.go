package main

import (
	"fmt"

	"stock-price-alert/internal/monitor/config"
	"stock-price-alert/internal/monitor/repository"
	"stock-price-alert/internal/monitor/service"
	"stock-price-alert/pkg/logger"
	"stock-price-alert/pkg/metrics"
	"stock-price-alert/pkg/notifier"
	"stock-price-alert/pkg/redis"
	"stock-price-alert/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	alertRepo    repository.AlertRepository
	alertService service.AlertService
	closers      []func() error
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	alertRepo, err := newAlertRepository(cfg.Storage, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert store: %w", err)
	}

	a := &app{
		cfg:          cfg,
		log:          appLogger,
		alertRepo:    alertRepo,
		alertService: service.NewAlertService(alertRepo, appLogger),
	}
	a.closers = append(a.closers, alertRepo.Close)
	return a, nil
}

func newAlertRepository(cfg config.Storage, log *logger.Logger) (repository.AlertRepository, error) {
	switch cfg.Driver {
	case "sqlite":
		return repository.NewSQLiteAlertRepository(cfg.Path, log)
	default:
		return repository.NewJSONAlertRepository(cfg.Path, log), nil
	}
}

// newMonitor wires the price source, notifier and optional Redis recording
// into a MonitorService. Metrics are registered with reg.
func (a *app) newMonitor(reg prometheus.Registerer) (service.MonitorService, error) {
	priceRepo := repository.NewYahooFinanceRepository(a.cfg.YahooFinance, a.log.Named("yahoo_finance"))

	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	opts := []service.MonitorOption{service.WithMetrics(m)}

	if a.cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     a.cfg.Redis.Host,
			Port:     a.cfg.Redis.Port,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			PoolSize: a.cfg.Redis.PoolSize,
		})
		if err != nil {
			// Last price recording is optional; keep monitoring without it.
			a.log.Warn("Failed to initialize Redis, last prices will not be recorded", logger.ErrorField(err))
		} else {
			a.closers = append(a.closers, redisClient.Close)
			opts = append(opts, service.WithLastPriceRepository(
				repository.NewRedisLastPriceRepository(redisClient.Client, a.cfg.LastPrice.TTL)))
		}
	}

	return service.NewMonitorService(a.cfg.Monitor, a.log.Named("monitor"), a.alertRepo, priceRepo, a.newNotifier(), opts...), nil
}

func (a *app) newNotifier() notifier.Notifier {
	var candidates []notifier.Notifier
	for _, backend := range a.cfg.Notifier.Backends {
		switch backend {
		case "desktop":
			candidates = append(candidates, notifier.NewDesktopNotifier(a.cfg.App.Name))
		case "telegram":
			if a.cfg.Telegram.BotToken == "" || a.cfg.Telegram.ChatID == 0 {
				continue
			}
			client, err := telegram.NewClient(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
			if err != nil {
				a.log.Warn("Failed to initialize Telegram notifier", logger.ErrorField(err))
				continue
			}
			candidates = append(candidates, client)
		case "log":
			candidates = append(candidates, notifier.NewLogNotifier(a.log.Named("notifier")))
		default:
			a.log.Warn("Unknown notifier backend", logger.StringField("backend", backend))
		}
	}
	return notifier.Select(a.log, candidates...)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Failed to close resource", logger.ErrorField(err))
		}
	}
	_ = a.log.Sync()
}
