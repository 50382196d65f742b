package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	AckStarted        = "✅ Arbitrage bot started"
	AckResumed        = "✅ Arbitrage bot resumed"
	AckAlreadyRunning = "ℹ️ Arbitrage bot is already running"
	AckStopped        = "⏹ Arbitrage bot stopped"
	AckNotRunning     = "ℹ️ Arbitrage bot is not running"
)

type ArbitrageConfig struct {
	MinDiff        float64       `json:"min_diff"`
	PollInterval   time.Duration `json:"poll_interval"`
	ErrorBackoff   time.Duration `json:"error_backoff"`
	SymbolCooldown time.Duration `json:"symbol_cooldown"`
	FeedCooldown   time.Duration `json:"feed_cooldown"`
}

func DefaultArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		MinDiff:        0.5,
		PollInterval:   15 * time.Second,
		ErrorBackoff:   5 * time.Second,
		SymbolCooldown: 300 * time.Second,
		FeedCooldown:   600 * time.Second,
	}
}

// CycleReport summarizes one fetch-detect-gate-notify pass.
type CycleReport struct {
	CycleID          string        `json:"cycle_id"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	SymbolsA         int           `json:"symbols_a"`
	SymbolsB         int           `json:"symbols_b"`
	CommonSymbols    int           `json:"common_symbols"`
	Opportunities    int           `json:"opportunities"`
	Suppressed       int           `json:"suppressed"`
	AlertsDispatched int           `json:"alerts_dispatched"`
	DeliveryFailures int           `json:"delivery_failures"`
	FeedFailures     []string      `json:"feed_failures,omitempty"`
}

type ServiceStatus struct {
	State     domain.RunState `json:"state"`
	StartedAt time.Time       `json:"started_at,omitzero"`
	Cycles    int64           `json:"cycles"`
	LastCycle *CycleReport    `json:"last_cycle,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

// ArbitrageService drives the polling loop. Exactly one loop goroutine exists
// while the service is running or stopping.
type ArbitrageService struct {
	cfg        ArbitrageConfig
	feedA      domain.PriceFeed
	feedB      domain.PriceFeed
	notifier   domain.Notifier
	symbolGate *AlertGate
	feedGate   *AlertGate
	logger     *zap.Logger
	timeNow    func() time.Time

	mu         sync.Mutex
	state      domain.RunState
	wake       chan struct{} // closed by Stop to cut the inter-cycle sleep short
	done       chan struct{} // closed when the loop goroutine exits
	cancel     context.CancelFunc
	startedAt  time.Time
	cycles     int64
	lastReport *CycleReport
	lastErr    string
}

func NewArbitrageService(
	cfg ArbitrageConfig,
	feedA, feedB domain.PriceFeed,
	notifier domain.Notifier,
	store domain.CooldownStore,
	logger *zap.Logger,
) *ArbitrageService {
	done := make(chan struct{})
	close(done)
	return &ArbitrageService{
		cfg:        cfg,
		feedA:      feedA,
		feedB:      feedB,
		notifier:   notifier,
		symbolGate: NewAlertGate(NamespaceSymbol, cfg.SymbolCooldown, store, logger),
		feedGate:   NewAlertGate(NamespaceFeed, cfg.FeedCooldown, store, logger),
		logger:     logger,
		timeNow:    time.Now,
		state:      domain.StateIdle,
		done:       done,
	}
}

// RestoreCooldowns loads persisted cooldown entries. Call before Start.
func (s *ArbitrageService) RestoreCooldowns(ctx context.Context) error {
	if err := s.symbolGate.Restore(ctx); err != nil {
		return fmt.Errorf("restore symbol cooldowns: %w", err)
	}
	if err := s.feedGate.Restore(ctx); err != nil {
		return fmt.Errorf("restore feed cooldowns: %w", err)
	}
	return nil
}

// Start spawns the polling loop. It is a no-op while running. A start that
// arrives while the loop is finishing its last cycle re-arms that same loop.
func (s *ArbitrageService) Start() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateRunning:
		return AckAlreadyRunning, false
	case domain.StateStopping:
		s.state = domain.StateRunning
		s.wake = make(chan struct{})
		s.logger.Info("Arbitrage loop resumed before exit")
		return AckResumed, true
	}

	// The loop must outlive whatever request asked for it.
	ctx, cancel := context.WithCancel(context.Background())
	s.state = domain.StateRunning
	s.wake = make(chan struct{})
	s.done = make(chan struct{})
	s.cancel = cancel
	s.startedAt = s.timeNow()
	go s.run(ctx, s.done)

	s.logger.Info("Arbitrage bot started")
	return AckStarted, true
}

// Stop clears the run flag. The cycle in flight completes, alerts included,
// before the loop exits.
func (s *ArbitrageService) Stop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateRunning {
		return AckNotRunning, false
	}
	s.state = domain.StateStopping
	close(s.wake)

	s.logger.Info("Arbitrage bot stopping")
	return AckStopped, true
}

// Shutdown stops the loop for process exit, cancelling in-flight requests,
// and waits for it until ctx expires.
func (s *ArbitrageService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == domain.StateRunning {
		s.state = domain.StateStopping
		close(s.wake)
	}
	if s.cancel != nil {
		s.cancel()
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the current loop goroutine has exited.
func (s *ArbitrageService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *ArbitrageService) State() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ArbitrageService) Status() ServiceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ServiceStatus{
		State:     s.state,
		Cycles:    s.cycles,
		LastError: s.lastErr,
	}
	if s.state != domain.StateIdle {
		status.StartedAt = s.startedAt
	}
	if s.lastReport != nil {
		r := *s.lastReport
		status.LastCycle = &r
	}
	return status
}

func (s *ArbitrageService) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.logger.Info("Arbitrage loop started")

	for s.shouldContinue(ctx) {
		delay := s.cfg.PollInterval
		if err := s.safeCycle(ctx); err != nil {
			delay = s.cfg.ErrorBackoff
		}
		s.sleep(ctx, delay)
	}

	s.logger.Info("Arbitrage loop stopped")
}

// shouldContinue is the loop boundary check. It moves the state to idle on
// the way out so a later Start spawns a fresh loop.
func (s *ArbitrageService) shouldContinue(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateRunning && ctx.Err() == nil {
		return true
	}
	s.state = domain.StateIdle
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return false
}

func (s *ArbitrageService) sleep(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	wake := s.wake
	s.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-wake:
	case <-ctx.Done():
	}
}

// safeCycle runs one cycle and turns a panic into a CycleError so the loop
// survives it.
func (s *ArbitrageService) safeCycle(ctx context.Context) (err error) {
	cycleID := uuid.NewString()

	var report *CycleReport
	defer func() {
		if r := recover(); r != nil {
			err = &domain.CycleError{CycleID: cycleID, Err: fmt.Errorf("panic: %v", r)}
		}

		s.mu.Lock()
		s.cycles++
		if report != nil {
			s.lastReport = report
		}
		if err != nil {
			s.lastErr = err.Error()
		} else {
			s.lastErr = ""
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("Arbitrage cycle failed", zap.String("cycle_id", cycleID), zap.Error(err))
		}
	}()

	report, err = s.runCycle(ctx, cycleID)
	return err
}

// RunCycle performs a single fetch-detect-gate-notify pass. The loop calls it
// on every iteration; it must not be called concurrently with a running loop.
func (s *ArbitrageService) RunCycle(ctx context.Context) (*CycleReport, error) {
	return s.runCycle(ctx, uuid.NewString())
}

func (s *ArbitrageService) runCycle(ctx context.Context, cycleID string) (*CycleReport, error) {
	now := s.timeNow()
	log := s.logger.With(zap.String("cycle_id", cycleID))
	report := &CycleReport{CycleID: cycleID, StartedAt: now}

	var (
		snapA, snapB domain.PriceSnapshot
		errA, errB   error
	)
	// Both fetches always run to completion; a feed failure is a value,
	// only a panic fails the group.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		snapA, errA, err = fetchGuarded(ctx, s.feedA)
		return err
	})
	g.Go(func() error {
		var err error
		snapB, errB, err = fetchGuarded(ctx, s.feedB)
		return err
	})
	if err := g.Wait(); err != nil {
		return report, &domain.CycleError{CycleID: cycleID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return report, &domain.CycleError{CycleID: cycleID, Err: err}
	}

	report.SymbolsA = len(snapA)
	report.SymbolsB = len(snapB)

	for _, f := range []struct {
		name string
		err  error
	}{{s.feedA.Name(), errA}, {s.feedB.Name(), errB}} {
		if f.err == nil {
			continue
		}
		report.FeedFailures = append(report.FeedFailures, f.name)
		log.Warn("Feed unavailable", zap.String("feed", f.name), zap.Error(f.err))
		s.reportFeedFailure(ctx, log, report, f.name, f.err, now)
	}

	if len(report.FeedFailures) == 0 {
		report.CommonSymbols = CommonSymbols(snapA, snapB)
		log.Info("Scanning common symbols", zap.Int("common", report.CommonSymbols))

		for opp := range Detect(snapA, snapB, s.feedA.Name(), s.feedB.Name(), s.cfg.MinDiff) {
			report.Opportunities++
			if !s.symbolGate.ShouldEmit(opp.Symbol, now) {
				report.Suppressed++
				continue
			}

			s.dispatch(ctx, log, report, domain.Alert{
				Kind:        domain.AlertOpportunity,
				Key:         opp.Symbol,
				Text:        FormatOpportunity(opp),
				Opportunity: &opp,
				CreatedAt:   now,
			})
			s.symbolGate.Record(ctx, opp.Symbol, now)
		}
	}

	s.symbolGate.Prune(ctx, now)
	s.feedGate.Prune(ctx, now)

	report.Duration = s.timeNow().Sub(now)
	log.Info("Arbitrage cycle finished",
		zap.Int("opportunities", report.Opportunities),
		zap.Int("alerts", report.AlertsDispatched),
		zap.Int("suppressed", report.Suppressed),
		zap.Strings("feed_failures", report.FeedFailures))
	return report, nil
}

func (s *ArbitrageService) reportFeedFailure(ctx context.Context, log *zap.Logger, report *CycleReport, feed string, err error, now time.Time) {
	if !s.feedGate.ShouldEmit(feed, now) {
		log.Debug("Feed failure alert suppressed", zap.String("feed", feed))
		return
	}
	s.dispatch(ctx, log, report, domain.Alert{
		Kind:      domain.AlertFeedFailure,
		Key:       feed,
		Text:      FormatFeedFailure(feed, err),
		Feed:      feed,
		CreatedAt: now,
	})
	s.feedGate.Record(ctx, feed, now)
}

// dispatch is fire-and-forget: delivery errors are logged, never retried.
func (s *ArbitrageService) dispatch(ctx context.Context, log *zap.Logger, report *CycleReport, alert domain.Alert) {
	report.AlertsDispatched++
	if err := s.notifier.Notify(ctx, alert); err != nil {
		report.DeliveryFailures++
		log.Error("Failed to deliver alert",
			zap.String("kind", string(alert.Kind)),
			zap.String("key", alert.Key),
			zap.Error(err))
	}
}

// fetchGuarded separates a feed's own failure (feedErr) from a panic inside
// it (err), which aborts the cycle.
func fetchGuarded(ctx context.Context, feed domain.PriceFeed) (snap domain.PriceSnapshot, feedErr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s feed panicked: %v", feed.Name(), r)
		}
	}()

	snap, feedErr = feed.FetchPrices(ctx)
	if feedErr != nil {
		var fe *domain.FeedError
		if !errors.As(feedErr, &fe) {
			feedErr = &domain.FeedError{Feed: feed.Name(), Kind: domain.FeedUnreachable, Err: feedErr}
		}
		snap = nil
	}
	return snap, feedErr, nil
}
