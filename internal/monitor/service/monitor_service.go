package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/config"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/internal/monitor/repository"
	"stock-price-alert/pkg/common"
	"stock-price-alert/pkg/logger"
	"stock-price-alert/pkg/metrics"
	"stock-price-alert/pkg/notifier"
	"stock-price-alert/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrIntervalTooShort is returned by Run for intervals below the minimum.
var ErrIntervalTooShort = &entity.ValidationError{
	Field:  "interval",
	Reason: fmt.Sprintf("must be at least %s", common.MinMonitorInterval),
}

// errNoLongerFiring aborts the persist step for alerts that were
// deactivated or re-targeted elsewhere while the cycle ran.
var errNoLongerFiring = errors.New("alert no longer fires")

// MonitorService polls prices for active alerts and fires the ones whose
// condition is met.
type MonitorService interface {
	// RunCycle performs a single evaluation pass. Only storage write
	// failures and context cancellation are returned; a failed read skips
	// the cycle.
	RunCycle(ctx context.Context) (dto.CycleResult, error)
	// Run repeats RunCycle until the iteration limit is reached or ctx is
	// cancelled while sleeping.
	Run(ctx context.Context, opts dto.RunOptions) error
}

// MonitorOption configures optional collaborators of the monitor.
type MonitorOption func(*monitorService)

// WithLastPriceRepository records every fetched price.
func WithLastPriceRepository(repo repository.LastPriceRepository) MonitorOption {
	return func(s *monitorService) { s.lastPriceRepo = repo }
}

// WithMetrics records cycle metrics.
func WithMetrics(m *metrics.Metrics) MonitorOption {
	return func(s *monitorService) { s.metrics = m }
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) MonitorOption {
	return func(s *monitorService) { s.now = now }
}

type monitorService struct {
	cfg           config.Monitor
	log           *logger.Logger
	alertRepo     repository.AlertRepository
	priceRepo     repository.PriceRepository
	notifier      notifier.Notifier
	lastPriceRepo repository.LastPriceRepository
	metrics       *metrics.Metrics
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	cfg config.Monitor,
	log *logger.Logger,
	alertRepo repository.AlertRepository,
	priceRepo repository.PriceRepository,
	n notifier.Notifier,
	opts ...MonitorOption,
) MonitorService {
	s := &monitorService{
		cfg:       cfg,
		log:       log,
		alertRepo: alertRepo,
		priceRepo: priceRepo,
		notifier:  n,
		now:       utils.TimeNow,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *monitorService) Run(ctx context.Context, opts dto.RunOptions) error {
	interval := opts.Interval
	if interval == 0 {
		interval = common.DefaultMonitorInterval
	}
	if interval < common.MinMonitorInterval {
		return ErrIntervalTooShort
	}
	if opts.MaxIterations < 0 {
		return &entity.ValidationError{Field: "iterations", Reason: "must not be negative"}
	}

	s.log.Info("Starting price monitor",
		logger.DurationField("interval", interval),
		logger.IntField("max_iterations", opts.MaxIterations))

	for cycle := 1; ; cycle++ {
		cycleCtx := logger.WithCycle(ctx, cycle)
		if _, err := s.RunCycle(cycleCtx); err != nil {
			if ctx.Err() != nil {
				s.log.Info("Monitor stopped")
				return nil
			}
			return err
		}

		if opts.MaxIterations > 0 && cycle >= opts.MaxIterations {
			s.log.Info("Monitor exiting after reaching iteration limit", logger.IntField("iterations", cycle))
			return nil
		}

		if err := s.sleep(ctx, interval); err != nil {
			s.log.Info("Monitor stopped")
			return nil
		}
	}
}

func (s *monitorService) RunCycle(ctx context.Context) (dto.CycleResult, error) {
	var result dto.CycleResult
	start := time.Now()

	active, err := s.alertRepo.ActiveOnly(ctx)
	if errors.Is(err, entity.ErrStorageRead) {
		s.log.WarnContext(ctx, "Unable to read alerts, will retry next cycle", logger.ErrorField(err))
		return result, nil
	}
	if err != nil {
		return result, err
	}
	if len(active) == 0 {
		s.log.InfoContext(ctx, "No active alerts found")
		s.metrics.ObserveCycle(0, 0, time.Since(start))
		return result, nil
	}

	tickers := distinctTickers(active)
	s.log.DebugContext(ctx, "Checking prices",
		logger.IntField("active_alerts", len(active)),
		logger.Field("tickers", tickers))

	prices := s.fetchPrices(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	for _, ticker := range tickers {
		if _, ok := prices[ticker]; !ok {
			result.FailedTickers = append(result.FailedTickers, ticker)
		}
	}

	for _, alert := range active {
		price, ok := prices[alert.Ticker]
		if !ok {
			result.Skipped++
			continue
		}
		result.Checked++
		if !ShouldFire(alert, price) {
			continue
		}

		fired, err := s.fire(ctx, alert, price)
		if err != nil {
			return result, err
		}
		if fired {
			result.Fired++
			result.FiredIDs = append(result.FiredIDs, alert.ID)
		}
	}

	if result.Fired == 0 {
		s.log.InfoContext(ctx, "No alerts triggered this cycle", logger.IntField("checked", result.Checked))
	}
	s.metrics.ObserveCycle(len(active), result.Fired, time.Since(start))
	return result, nil
}

// fire applies the firing transition, notifies and persists. It reports false
// when the stored alert was removed, deactivated or no longer matches price
// by the time it is persisted.
func (s *monitorService) fire(ctx context.Context, alert entity.Alert, price float64) (bool, error) {
	now := s.now()
	ApplyFiring(&alert, now)

	fields := []zap.Field{
		logger.StringField("alert_id", alert.ID),
		logger.StringField("ticker", alert.Ticker),
		logger.StringField("alert_type", string(alert.Direction)),
		logger.Float64Field("target_price", alert.TargetPrice),
		logger.Float64Field("price", price),
	}
	s.log.InfoContext(ctx, "Alert triggered", fields...)

	title, message := AlertNotification(alert, price)
	if err := s.notifier.Notify(ctx, title, message); err != nil {
		s.metrics.NotifyFailed()
		s.log.WarnContext(ctx, "Failed to deliver notification", append(fields, logger.ErrorField(err))...)
	}

	_, err := s.alertRepo.Modify(ctx, alert.ID, func(stored *entity.Alert) error {
		if !stored.IsActive() || !ShouldFire(*stored, price) {
			return errNoLongerFiring
		}
		ApplyFiring(stored, now)
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, errNoLongerFiring):
		s.log.WarnContext(ctx, "Alert changed during cycle, not persisting firing", fields...)
		return false, nil
	default:
		return false, err
	}
}

// fetchPrices looks up every ticker once. Tickers that could not be priced
// are absent from the result.
func (s *monitorService) fetchPrices(ctx context.Context, tickers []string) map[string]float64 {
	var (
		mu     sync.Mutex
		prices = make(map[string]float64, len(tickers))
	)

	g := new(errgroup.Group)
	if s.cfg.FetchConcurrency > 0 {
		g.SetLimit(s.cfg.FetchConcurrency)
	}
	for _, ticker := range tickers {
		g.Go(func() error {
			price, err := s.fetchPrice(ctx, ticker)
			if err != nil {
				s.metrics.FetchFailed(ticker)
				s.log.WarnContext(ctx, "Unable to fetch price, will retry next cycle",
					logger.StringField("ticker", ticker), logger.ErrorField(err))
				return nil
			}
			mu.Lock()
			prices[ticker] = price
			mu.Unlock()

			if s.lastPriceRepo != nil {
				if err := s.lastPriceRepo.Record(ctx, ticker, price, s.now()); err != nil {
					s.log.WarnContext(ctx, "Failed to record last price",
						logger.StringField("ticker", ticker), logger.ErrorField(err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

func (s *monitorService) fetchPrice(ctx context.Context, ticker string) (float64, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	return s.priceRepo.GetCurrentPrice(ctx, ticker)
}

func distinctTickers(alerts []entity.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	tickers := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if _, ok := seen[a.Ticker]; ok {
			continue
		}
		seen[a.Ticker] = struct{}{}
		tickers = append(tickers, a.Ticker)
	}
	return tickers
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
