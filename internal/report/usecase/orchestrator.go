package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"report-intake/internal/dedup/repository"
	"report-intake/internal/report/domain"
	"report-intake/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the orchestrator lifecycle phase exposed on /health
type State string

const (
	StateIdle         State = "idle"
	StatePolling      State = "polling"
	StatePersisting   State = "persisting"
	StateSleeping     State = "sleeping"
	StateShuttingDown State = "shutting_down"
)

const defaultParallelism = 5

// ConfigLoader returns the current poll config
type ConfigLoader func() (*config.PollConfig, error)

// Status is a snapshot of the orchestrator for health reporting
type Status struct {
	State     State     `json:"state"`
	LastCycle time.Time `json:"last_cycle"`
	Cycles    int       `json:"cycles"`
}

// Orchestrator runs polling cycles over every configured account until its
// context is canceled.
type Orchestrator struct {
	load       ConfigLoader
	session    *Session
	store      repository.DedupRepository
	batchPause time.Duration
	tempDir    string
	logger     *zap.Logger

	mu       sync.RWMutex
	status   Status
	lastGood *config.PollConfig
}

// NewOrchestrator creates an orchestrator. initial is used whenever a reload fails.
func NewOrchestrator(
	load ConfigLoader,
	initial *config.PollConfig,
	session *Session,
	store repository.DedupRepository,
	batchPause time.Duration,
	tempDir string,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		load:       load,
		session:    session,
		store:      store,
		batchPause: batchPause,
		tempDir:    tempDir,
		logger:     logger.Named("orchestrator"),
		status:     Status{State: StateIdle},
		lastGood:   initial,
	}
}

// Status returns the current lifecycle snapshot
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	o.status.State = state
	o.mu.Unlock()
}

// Run loops poll, persist, sleep until ctx is canceled. In-flight sessions
// finish their current batch, then state is persisted once more.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started")
	for {
		cfg := o.reload()
		o.RunCycle(ctx, cfg)

		if ctx.Err() != nil {
			break
		}

		o.setState(StateSleeping)
		timer := time.NewTimer(cfg.PollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	o.setState(StateShuttingDown)
	o.logger.Info("shutdown requested, persisting state")
	return o.persist(context.WithoutCancel(ctx))
}

// RunCycle polls every account once, concurrently, then persists the store
func (o *Orchestrator) RunCycle(ctx context.Context, cfg *config.PollConfig) {
	cycleID := uuid.New().String()
	log := o.logger.With(zap.String("cycle", cycleID))
	o.setState(StatePolling)
	started := time.Now()

	session := o.session.WithOptions(SessionOptions{
		MaxMessages: cfg.MaxEmailsPerRun,
		BatchSize:   cfg.BatchSize,
		BatchPause:  o.batchPause,
		TempDir:     o.tempDir,
	})

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}

	var g errgroup.Group
	g.SetLimit(max(1, min(parallelism, len(cfg.Accounts))))
	for _, account := range cfg.Accounts {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.runAccount(ctx, log, session, account)
			return nil
		})
	}
	_ = g.Wait()

	o.setState(StatePersisting)
	if err := o.persist(context.WithoutCancel(ctx)); err != nil {
		log.Error("persist failed", zap.Error(err))
	}

	o.mu.Lock()
	o.status.LastCycle = time.Now()
	o.status.Cycles++
	o.mu.Unlock()

	counts, _ := o.store.Stats(ctx)
	log.Info("cycle complete",
		zap.Int("accounts", len(cfg.Accounts)),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("succeeded", counts.Succeeded),
		zap.Int("failed", counts.Failed),
	)
}

// runAccount isolates one account so a panic cannot stop the cycle
func (o *Orchestrator) runAccount(ctx context.Context, log *zap.Logger, session *Session, account domain.Account) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("account session panicked",
				zap.String("account", account.Normalized().Label),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	session.Run(ctx, account)
}

// reload reads the poll config, falling back to the last good one
func (o *Orchestrator) reload() *config.PollConfig {
	if o.load != nil {
		cfg, err := o.load()
		if err == nil {
			o.lastGood = cfg
			return cfg
		}
		o.logger.Error("config reload failed, reusing last good config", zap.Error(err))
	}
	if o.lastGood == nil {
		return &config.PollConfig{PollIntervalSeconds: 30}
	}
	return o.lastGood
}

func (o *Orchestrator) persist(ctx context.Context) error {
	if err := o.store.Persist(ctx); err != nil {
		return fmt.Errorf("persist dedup state: %w", err)
	}
	return nil
}
