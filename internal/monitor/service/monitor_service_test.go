package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/config"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/internal/monitor/repository"
	"stock-price-alert/pkg/logger"
	"stock-price-alert/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePriceRepo struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  map[string]int
}

func newFakePriceRepo(prices map[string]float64) *fakePriceRepo {
	return &fakePriceRepo{prices: prices, calls: map[string]int{}}
}

func (f *fakePriceRepo) GetCurrentPrice(_ context.Context, ticker string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	price, ok := f.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", entity.ErrPriceUnavailable, ticker)
	}
	return price, nil
}

func (f *fakePriceRepo) set(ticker string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[ticker] = price
}

type notification struct{ title, message string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{title, message})
	return f.err
}

type fakeLastPriceRepo struct {
	mu       sync.Mutex
	recorded map[string]float64
}

func (f *fakeLastPriceRepo) Record(_ context.Context, ticker string, price float64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[ticker] = price
	return nil
}

func (f *fakeLastPriceRepo) Get(context.Context, string) (float64, time.Time, error) {
	return 0, time.Time{}, errors.New("not implemented")
}

// failingModifyRepo persists nothing after the initial state.
type failingModifyRepo struct {
	repository.AlertRepository
}

func (failingModifyRepo) Modify(context.Context, string, func(*entity.Alert) error) (*entity.Alert, error) {
	return nil, fmt.Errorf("%w: disk full", entity.ErrStorageWrite)
}

// lockedRepo fails every read as a locked database would.
type lockedRepo struct {
	repository.AlertRepository
}

func (lockedRepo) ActiveOnly(context.Context) ([]entity.Alert, error) {
	return nil, fmt.Errorf("%w: database is locked", entity.ErrStorageRead)
}

var fixedNow = time.Date(2024, 5, 2, 15, 30, 0, 0, time.UTC)

func monitorConfig() config.Monitor {
	return config.Monitor{FetchTimeout: time.Second, FetchConcurrency: 2}
}

func newStore(t *testing.T, alerts ...entity.Alert) repository.AlertRepository {
	t.Helper()
	repo := repository.NewJSONAlertRepository(filepath.Join(t.TempDir(), "alerts.json"), logger.NewNop())
	require.NoError(t, repo.SaveAll(context.Background(), alerts))
	return repo
}

func newMonitor(repo repository.AlertRepository, prices repository.PriceRepository, n *fakeNotifier, opts ...MonitorOption) *monitorService {
	opts = append([]MonitorOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewMonitorService(monitorConfig(), logger.NewNop(), repo, prices, n, opts...).(*monitorService)
}

func TestRunCycleFiresOneTimeAlert(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, alert)
	n := &fakeNotifier{}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 150.5}), n)

	result, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.CycleResult{Checked: 1, Fired: 1, FiredIDs: []string{alert.ID}}, result)

	require.Len(t, n.sent, 1)
	assert.Equal(t, notification{"Price alert for AAPL", "AAPL above 150.00; current price 150.50"}, n.sent[0])

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTriggered, stored.Status)
	require.NotNil(t, stored.TriggeredAt)
	assert.True(t, fixedNow.Equal(*stored.TriggeredAt))

	// Triggered alerts leave the active set.
	result, err = m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.CycleResult{}, result)
	assert.Len(t, n.sent, 1)
}

func TestRunCyclePersistentAlertFiresAgain(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "TSLA", 200, "below", false)
	repo := newStore(t, alert)
	n := &fakeNotifier{}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"TSLA": 180}), n)

	for i := 0; i < 2; i++ {
		result, err := m.RunCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Fired)
	}
	assert.Len(t, n.sent, 2)

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, stored.Status)
	assert.NotNil(t, stored.TriggeredAt)
}

func TestRunCycleNotFiringLeavesAlertUntouched(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, alert)
	n := &fakeNotifier{}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 149}), n)

	result, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.CycleResult{Checked: 1}, result)
	assert.Empty(t, n.sent)

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert, *stored)
}

func TestRunCycleFetchesEachTickerOnce(t *testing.T) {
	prices := newFakePriceRepo(map[string]float64{"AAPL": 100, "MSFT": 300})
	repo := newStore(t,
		alertFor(t, "AAPL", 150, "above", true),
		alertFor(t, "MSFT", 250, "above", true),
		alertFor(t, "AAPL", 120, "below", true),
	)
	lastPrices := &fakeLastPriceRepo{recorded: map[string]float64{}}
	m := newMonitor(repo, prices, &fakeNotifier{}, WithLastPriceRepository(lastPrices))

	result, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 2, result.Fired)
	assert.Equal(t, map[string]int{"AAPL": 1, "MSFT": 1}, prices.calls)
	assert.Equal(t, map[string]float64{"AAPL": 100, "MSFT": 300}, lastPrices.recorded)
}

func TestRunCycleFetchFailureSkipsTicker(t *testing.T) {
	ctx := context.Background()
	failing := alertFor(t, "GONE", 10, "above", true)
	ok := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, failing, ok)
	prices := newFakePriceRepo(map[string]float64{"AAPL": 151})

	reg := prometheus.NewRegistry()
	mtr, err := metrics.New(reg)
	require.NoError(t, err)
	m := newMonitor(repo, prices, &fakeNotifier{}, WithMetrics(mtr))

	result, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"GONE"}, result.FailedTickers)
	assert.Equal(t, []string{ok.ID}, result.FiredIDs)
	assert.Equal(t, 1.0, testutil.ToFloat64(mtr.FetchFailuresTotal.WithLabelValues("GONE")))

	stored, err := repo.Get(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, failing, *stored)

	// The ticker is retried on the next cycle.
	prices.set("GONE", 11)
	result, err = m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{failing.ID}, result.FiredIDs)
	assert.Equal(t, 2, prices.calls["GONE"])
}

func TestRunCycleNotifyFailureKeepsTransition(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, alert)
	n := &fakeNotifier{err: errors.New("no display")}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 160}), n)

	result, err := m.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fired)

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTriggered, stored.Status)
}

func TestRunCycleStorageWriteFailure(t *testing.T) {
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := failingModifyRepo{newStore(t, alert)}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 160}), &fakeNotifier{})

	_, err := m.RunCycle(context.Background())
	assert.ErrorIs(t, err, entity.ErrStorageWrite)
}

func TestRunCycleStorageReadFailureSkipsCycle(t *testing.T) {
	alert := alertFor(t, "AAPL", 150, "above", true)
	prices := newFakePriceRepo(map[string]float64{"AAPL": 160})
	n := &fakeNotifier{}
	m := newMonitor(lockedRepo{newStore(t, alert)}, prices, n)

	result, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.CycleResult{}, result)
	assert.Empty(t, prices.calls)
	assert.Empty(t, n.sent)
}

func TestRunCycleSkipsAlertDisabledMidCycle(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, alert)
	n := &fakeNotifier{}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 160}), n)

	// Simulate a concurrent disable between the active read and the write.
	disabled := alert
	disabled.Disable()
	require.NoError(t, repo.SaveAll(ctx, []entity.Alert{disabled}))

	fired, err := m.fire(ctx, alert, 160)
	require.NoError(t, err)
	assert.False(t, fired)

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDisabled, stored.Status)
}

func TestRunCycleSkipsAlertRetargetedMidCycle(t *testing.T) {
	ctx := context.Background()
	alert := alertFor(t, "AAPL", 150, "above", true)
	repo := newStore(t, alert)
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 160}), &fakeNotifier{})

	// The threshold moves above the fetched price before the firing is saved.
	retargeted := alert
	retargeted.TargetPrice = 200
	require.NoError(t, repo.SaveAll(ctx, []entity.Alert{retargeted}))

	fired, err := m.fire(ctx, alert, 160)
	require.NoError(t, err)
	assert.False(t, fired)

	stored, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, stored.Status)
	assert.Equal(t, 200.0, stored.TargetPrice)
	assert.Nil(t, stored.TriggeredAt)
}

func TestRunCycleNoActiveAlerts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	disabled := alertFor(t, "AAPL", 150, "above", true)
	disabled.Disable()
	repo := newStore(t, disabled)
	prices := newFakePriceRepo(map[string]float64{})

	m := NewMonitorService(monitorConfig(), logger.FromZap(zap.New(core)), repo, prices, &fakeNotifier{})
	result, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.CycleResult{}, result)
	assert.Empty(t, prices.calls)
	assert.Equal(t, 1, logs.FilterMessage("No active alerts found").Len())
}

func TestRunStopsAfterIterationLimit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := newStore(t, alertFor(t, "AAPL", 150, "above", false))
	prices := newFakePriceRepo(map[string]float64{"AAPL": 160})

	m := NewMonitorService(monitorConfig(), logger.FromZap(zap.New(core)), repo, prices, &fakeNotifier{}).(*monitorService)
	var slept []time.Duration
	m.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	err := m.Run(context.Background(), dto.RunOptions{Interval: 10 * time.Second, MaxIterations: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, prices.calls["AAPL"])
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, slept)
	assert.Equal(t, 1, logs.FilterMessage("Monitor exiting after reaching iteration limit").Len())
}

func TestRunReturnsOnCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newStore(t, alertFor(t, "AAPL", 150, "above", false))
	prices := newFakePriceRepo(map[string]float64{"AAPL": 100})
	m := newMonitor(repo, prices, &fakeNotifier{})
	m.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	err := m.Run(ctx, dto.RunOptions{Interval: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 1, prices.calls["AAPL"])
}

func TestRunPropagatesStorageWriteFailure(t *testing.T) {
	repo := failingModifyRepo{newStore(t, alertFor(t, "AAPL", 150, "above", false))}
	m := newMonitor(repo, newFakePriceRepo(map[string]float64{"AAPL": 160}), &fakeNotifier{})
	m.sleep = func(context.Context, time.Duration) error { return nil }

	err := m.Run(context.Background(), dto.RunOptions{Interval: 5 * time.Second})
	assert.ErrorIs(t, err, entity.ErrStorageWrite)
}

func TestRunRejectsShortInterval(t *testing.T) {
	m := newMonitor(newStore(t), newFakePriceRepo(nil), &fakeNotifier{})

	err := m.Run(context.Background(), dto.RunOptions{Interval: 4 * time.Second})
	assert.ErrorIs(t, err, ErrIntervalTooShort)
	assert.True(t, entity.IsValidationError(err))

	err = m.Run(context.Background(), dto.RunOptions{Interval: 5 * time.Second, MaxIterations: -1})
	assert.True(t, entity.IsValidationError(err))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
