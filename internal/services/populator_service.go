package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/internal/metrics"
	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/benmeehan/device-locations/pkg/dataset"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DeviceOutcome is the result of writing one device's cache entry.
type DeviceOutcome struct {
	DeviceID int64
	Outcome  string
	Err      error
}

// PopulateReport summarizes a single populate run.
type PopulateReport struct {
	RunID    string
	Devices  int
	Updated  int
	Failed   int
	Skipped  int
	Duration time.Duration
	Outcomes []DeviceOutcome
}

// FailureErr joins the per-device write failures, or returns nil if there were none.
func (r PopulateReport) FailureErr() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("device %d: %w", o.DeviceID, o.Err))
		}
	}
	return errors.Join(errs...)
}

// PopulatorService refreshes the position cache from the location dataset,
// either on a cron schedule or on demand through Populate.
type PopulatorService struct {
	// Configuration fields
	schedule   string
	runOnStart bool
	workers    int
	timeout    time.Duration

	// Dependencies
	source    dataset.Source
	cache     cache.PositionCache
	publisher LatestPublisher
	logger    zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPopulatorService creates a new PopulatorService. publisher may be nil.
func NewPopulatorService(schedule string, runOnStart bool, workers int, timeout time.Duration,
	source dataset.Source, positionCache cache.PositionCache, publisher LatestPublisher, logger zerolog.Logger) *PopulatorService {
	if workers <= 0 {
		workers = constants.DefaultPopulateWorkers
	}
	if timeout <= 0 {
		timeout = constants.DefaultPopulateTimeout
	}
	return &PopulatorService{
		schedule:   schedule,
		runOnStart: runOnStart,
		workers:    workers,
		timeout:    timeout,
		source:     source,
		cache:      positionCache,
		publisher:  publisher,
		logger:     logger,
	}
}

// Start schedules populate runs. Overlapping runs are skipped.
func (p *PopulatorService) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Warn().Msg("PopulatorService is already running")
		return errors.New("populator service is already running")
	}

	schedule, err := cron.ParseStandard(p.schedule)
	if err != nil {
		return fmt.Errorf("invalid populate schedule %q: %w", p.schedule, err)
	}

	logger := cronLogger{logger: p.logger}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(p.runScheduled))

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.cron = cron.New(cron.WithLogger(logger))
	p.cron.Schedule(schedule, job)
	p.cron.Start()
	p.running = true

	if p.runOnStart {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			job.Run()
		}()
	}

	p.logger.Info().
		Str("schedule", p.schedule).
		Bool("run_on_start", p.runOnStart).
		Int("workers", p.workers).
		Msg("PopulatorService started")
	return nil
}

// Stop cancels any in-flight run and waits for it to return.
func (p *PopulatorService) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Warn().Msg("PopulatorService is not running")
		return errors.New("populator service is not running")
	}

	p.cancel()
	<-p.cron.Stop().Done()
	p.wg.Wait()

	p.running = false
	p.logger.Info().Msg("PopulatorService stopped")
	return nil
}

func (p *PopulatorService) runScheduled() {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	report, err := p.Populate(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("run_id", report.RunID).Msg("Scheduled populate run failed")
	}
}

// Populate fetches the whole dataset, reduces it to one latest record per
// device and overwrites each device's cache entry.
//
// A dataset read failure aborts the run before any cache write and returns an
// error wrapping ErrSourceUnavailable. Per-device write failures are recorded
// in the report and never abort the run.
func (p *PopulatorService) Populate(ctx context.Context) (report PopulateReport, err error) {
	started := time.Now()
	report.RunID = uuid.NewString()
	logger := p.logger.With().Str("run_id", report.RunID).Logger()

	defer func() {
		report.Duration = time.Since(started)
		metrics.PopulateDuration.Observe(report.Duration.Seconds())
	}()

	samples, fetchErr := p.source.Fetch(ctx)
	if fetchErr != nil {
		metrics.PopulateRuns.WithLabelValues("source_unavailable").Inc()
		logger.Error().Err(fetchErr).Msg("Failed to fetch location dataset")
		return report, fmt.Errorf("%w: %v", ErrSourceUnavailable, fetchErr)
	}

	result := Reduce(NormalizeSamples(samples))
	report.Skipped = len(result.Skipped)
	if report.Skipped > 0 {
		metrics.PopulateSkippedSamples.Add(float64(report.Skipped))
		logger.Warn().
			Int("skipped", report.Skipped).
			Str("first_reason", result.Skipped[0].Reason).
			Msg("Samples without a usable timestamp were skipped")
	}

	deviceIDs := make([]int64, 0, len(result.Latest))
	for id := range result.Latest {
		deviceIDs = append(deviceIDs, id)
	}
	sort.Slice(deviceIDs, func(i, j int) bool { return deviceIDs[i] < deviceIDs[j] })

	report.Devices = len(deviceIDs)
	report.Outcomes = make([]DeviceOutcome, len(deviceIDs))

	if len(deviceIDs) > 0 {
		pool := utils.NewWorkerPool(min(p.workers, len(deviceIDs)))
		for i, id := range deviceIDs {
			i, rec := i, result.Latest[id]
			pool.Submit(func() {
				report.Outcomes[i] = p.writeDevice(ctx, rec, logger)
			})
		}
		pool.Shutdown()
	}

	for _, o := range report.Outcomes {
		metrics.PopulateDevices.WithLabelValues(o.Outcome).Inc()
		if o.Err != nil {
			report.Failed++
		} else {
			report.Updated++
		}
	}

	runResult := "success"
	if report.Failed > 0 {
		runResult = "partial"
	}
	metrics.PopulateRuns.WithLabelValues(runResult).Inc()

	logger.Info().
		Int("samples", len(samples)).
		Int("devices", report.Devices).
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", time.Since(started)).
		Msg("Populate run finished")

	return report, nil
}

func (p *PopulatorService) writeDevice(ctx context.Context, rec models.LatestRecord, logger zerolog.Logger) DeviceOutcome {
	if err := p.cache.Write(ctx, rec.DeviceID, models.NewCacheEntry(rec)); err != nil {
		logger.Error().Err(err).Int64("device_id", rec.DeviceID).Msg("Failed to write cache entry")
		return DeviceOutcome{DeviceID: rec.DeviceID, Outcome: constants.OutcomeFailed, Err: err}
	}

	if p.publisher != nil {
		if err := p.publisher.PublishLatest(ctx, rec); err != nil {
			logger.Warn().Err(err).Int64("device_id", rec.DeviceID).Msg("Failed to announce latest position")
		}
	}

	return DeviceOutcome{DeviceID: rec.DeviceID, Outcome: constants.OutcomeUpdated}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
