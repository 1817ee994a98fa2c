package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	businessflow "github.com/kapustota/btlz-wb-test-vasily-b/business_flow"
	"github.com/kapustota/btlz-wb-test-vasily-b/config"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	batchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_batch_runs_total",
			Help: "Total tariff batch runs partitioned by outcome",
		},
		[]string{"status"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tariff_batch_duration_seconds",
			Help:    "Duration of one fetch+reconcile+publish cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	periodsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tariff_periods_created_total",
			Help: "Tariff periods opened across all batch runs",
		},
	)

	ratesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tariff_rates_created_total",
			Help: "Box rate rows created across all batch runs",
		},
	)
)

// TariffScheduler periodically fetches the upstream tariffs snapshot, folds
// it into the versioned history, and republishes the active rates.
type TariffScheduler struct {
	flow      businessflow.TariffFlow
	client    WBClient
	publisher SheetPublisher
	logger    *log.Logger
	interval  time.Duration

	// inFlight skips a tick while the previous run still executes, so two
	// batch runs never overlap on the store.
	inFlight atomic.Bool
}

func NewTariffScheduler(
	flow businessflow.TariffFlow,
	client WBClient,
	publisher SheetPublisher,
	interval time.Duration,
	logCfg config.LoggingConfig,
) *TariffScheduler {
	if interval <= 0 {
		interval = utils.DefaultSchedulerInterval
	}

	s := &TariffScheduler{
		flow:      flow,
		client:    client,
		publisher: publisher,
		interval:  interval,
	}
	s.logger = newSchedulerLogger(logCfg)

	return s
}

// newSchedulerLogger configures a logger writing to both stdout and a rotated
// file under the configured log directory.
func newSchedulerLogger(cfg config.LoggingConfig) *log.Logger {
	dir := cfg.Dir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l := log.Default()
		l.Printf("scheduler: could not create log directory %s: %v", dir, err)
		return l
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "scheduler.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	mw := io.MultiWriter(os.Stdout, rotated)
	return log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *TariffScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	return cancel
}

// RunOnce executes one cycle from the ticker, dropping the tick when the
// previous cycle is still in flight.
func (s *TariffScheduler) RunOnce(ctx context.Context) {
	if _, err := s.RunNow(ctx); err != nil && !errors.Is(err, ErrBatchInFlight) {
		// Already logged inside RunNow; the next tick is the retry.
		return
	}
}

// ErrBatchInFlight is returned when a run is requested while the previous
// batch has not finished yet.
var ErrBatchInFlight = errors.New("tariff batch already in flight")

// RunNow executes one fetch → reconcile → publish cycle and returns the
// batch summary. At most one cycle runs at a time; overlapping requests get
// ErrBatchInFlight instead of a second transaction against the store.
func (s *TariffScheduler) RunNow(ctx context.Context) (*dto.ReconcileSummary, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Printf("scheduler: previous batch still running, skipping run")
		batchRunsTotal.WithLabelValues("skipped").Inc()
		return nil, ErrBatchInFlight
	}
	defer s.inFlight.Store(false)

	started := time.Now()

	snapshot, err := s.client.FetchBoxTariffs(ctx, utils.UTCNow())
	if err != nil {
		// No reconciliation is attempted on a failed fetch.
		s.logger.Printf("scheduler: fetch tariffs failed: %v", err)
		batchRunsTotal.WithLabelValues("fetch_error").Inc()
		return nil, err
	}
	s.logger.Printf("scheduler: fetched snapshot with %d warehouses, horizon %s",
		len(snapshot.Warehouses), snapshot.HorizonDate.Format(utils.WBDateLayout))

	summary, err := s.flow.ReconcileSnapshot(ctx, snapshot)
	if err != nil {
		s.logger.Printf("scheduler: reconcile failed, batch rolled back: %v", err)
		batchRunsTotal.WithLabelValues("reconcile_error").Inc()
		return nil, err
	}

	batchDuration.Observe(time.Since(started).Seconds())
	batchRunsTotal.WithLabelValues("ok").Inc()
	periodsCreatedTotal.Add(float64(summary.PeriodsCreated))
	ratesCreatedTotal.Add(float64(summary.RatesCreated))
	s.logger.Printf("scheduler: reconciled %d warehouses, %d periods created, %d rates created",
		summary.WarehousesSeen, summary.PeriodsCreated, summary.RatesCreated)

	// Reconciliation is already committed; a publish failure only logs.
	if err := s.publisher.PublishCurrentRates(ctx); err != nil {
		s.logger.Printf("scheduler: publish failed (reconciliation kept): %v", err)
		batchRunsTotal.WithLabelValues("publish_error").Inc()
	}

	return summary, nil
}
