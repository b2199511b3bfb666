// Package indexer drives the checkpointed tick catch-up loop: fetch, decode,
// dispatch, advance, one tick at a time.
package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qubic-markets/qx-indexer/internal/config"
	"github.com/qubic-markets/qx-indexer/internal/eventlog"
)

const maxDispatchConcurrency = 8

// TickClient fetches tick data from the remote node.
type TickClient interface {
	GetLatestTick(ctx context.Context) (uint64, error)
	GetTickEvents(ctx context.Context, tick uint64) (*eventlog.TickEvents, error)
}

// CheckpointStore durably records the next tick to process.
type CheckpointStore interface {
	ProcessedTick(ctx context.Context) (uint64, error)
	SaveProcessedTick(ctx context.Context, tick uint64) error
}

// Dispatcher consumes one decoded record. A returned error concerns that
// record only and never the rest of its tick.
type Dispatcher interface {
	Dispatch(ctx context.Context, record eventlog.CombinedLog) error
}

type Engine struct {
	client      TickClient
	checkpoints CheckpointStore
	dispatcher  Dispatcher
	log         *zap.SugaredLogger

	contractIndex  uint32
	pollInterval   time.Duration
	maxAttempts    int
	rateLimitDelay time.Duration
	restartDelay   time.Duration

	// Serializes catch-up attempts; an attempt already in flight turns an
	// overlapping timer firing into a no-op.
	runMu sync.Mutex

	mu          sync.Mutex
	running     bool
	currentTick uint64
	restarted   bool
	baseCtx     context.Context
	cancelLoop  context.CancelFunc
}

func New(
	cfg *config.Indexer, client TickClient, checkpoints CheckpointStore, dispatcher Dispatcher, log *zap.SugaredLogger,
) *Engine {
	maxAttempts := cfg.MaxFetchAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Engine{
		client:         client,
		checkpoints:    checkpoints,
		dispatcher:     dispatcher,
		log:            log,
		contractIndex:  cfg.ContractIndex,
		pollInterval:   time.Duration(cfg.PollIntervalMillis) * time.Millisecond,
		maxAttempts:    maxAttempts,
		rateLimitDelay: time.Duration(cfg.RateLimitDelayMillis) * time.Millisecond,
		restartDelay:   time.Duration(cfg.RestartDelaySeconds) * time.Second,
	}
}

// Start loads the checkpoint and begins the polling loop. Starting a running
// engine is a no-op. When the store is uninitialized the engine seeds from
// the remote latest tick so the first boot does not replay all of history;
// failing to reach the node during seeding only logs a warning. Any other
// startup failure is retried once automatically after a fixed delay.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	tick, err := e.checkpoints.ProcessedTick(ctx)
	if err != nil {
		e.log.Errorw("indexer start failed", "error", err)

		e.mu.Lock()
		e.running = false
		alreadyRestarted := e.restarted
		e.restarted = true
		e.mu.Unlock()

		if !alreadyRestarted {
			e.log.Infow("restarting indexer after start failure", "delay", e.restartDelay)
			time.AfterFunc(e.restartDelay, func() { e.Start(ctx) })
		}
		return
	}

	if tick == 0 {
		seed, err := e.client.GetLatestTick(ctx)
		if err != nil {
			e.log.Warnw("seeding from latest tick failed, starting from genesis", "error", err)
		} else {
			tick = seed
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.currentTick = tick
	e.restarted = false
	e.baseCtx = ctx
	e.cancelLoop = cancel
	e.mu.Unlock()

	e.log.Infow("indexer started", "tick", tick, "poll_interval", e.pollInterval)

	go e.loop(loopCtx)
}

// Stop halts the polling loop. An in-flight catch-up finishes its current
// tick before exiting; uncommitted partial work is never abandoned mid-tick.
// Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancelLoop
	e.cancelLoop = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	e.log.Info("indexer stopped")
}

// Running reports whether the engine is started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Checkpoint returns the durable checkpoint value.
func (e *Engine) Checkpoint(ctx context.Context) (uint64, error) {
	return e.checkpoints.ProcessedTick(ctx)
}

// SetCheckpoint overwrites the checkpoint, moving the resume point. Meant
// for the administrative surface only.
func (e *Engine) SetCheckpoint(ctx context.Context, tick uint64) error {
	if err := e.checkpoints.SaveProcessedTick(ctx, tick); err != nil {
		return err
	}

	e.mu.Lock()
	e.currentTick = tick
	e.mu.Unlock()

	e.log.Infow("checkpoint overridden", "tick", tick)

	return nil
}

// RunNow triggers a catch-up attempt outside the regular schedule.
func (e *Engine) RunNow() {
	e.mu.Lock()
	ctx := e.baseCtx
	e.mu.Unlock()

	if ctx == nil {
		return
	}

	go func() {
		if err := e.RunOnce(ctx); err != nil {
			e.log.Warnw("manual catch-up attempt failed", "error", err)
		}
	}()
}

func (e *Engine) loop(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			baseCtx := e.baseCtx
			e.mu.Unlock()

			if err := e.RunOnce(baseCtx); err != nil {
				e.log.Warnw("catch-up attempt failed, checkpoint kept", "error", err)
			}
		}
	}
}

// RunOnce performs one catch-up attempt: no-op when stopped, when an attempt
// is already in flight, or when the node has no newer ticks. Otherwise it
// processes ticks sequentially until caught up. The checkpoint advances only
// after every record of a tick has been dispatched; a fetch failure leaves it
// untouched so the next attempt resumes at the same tick.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.runMu.TryLock() {
		return nil
	}
	defer e.runMu.Unlock()

	if !e.Running() {
		return nil
	}

	latest, err := e.client.GetLatestTick(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching latest tick")
	}

	for e.Running() && e.current() < latest {
		tick := e.current()

		events, err := e.fetchTickEvents(ctx, tick)
		if err != nil {
			return errors.Wrapf(err, "fetching events for tick %d", tick)
		}

		records := eventlog.DecodeTickEvents(events, e.contractIndex)
		e.dispatchAll(ctx, records)

		next := tick + 1
		if err := e.checkpoints.SaveProcessedTick(ctx, next); err != nil {
			return err
		}
		e.setCurrent(next)

		e.log.Infow("processed tick", "tick", tick, "records", len(records), "latest", latest)
	}

	return nil
}

// dispatchAll forwards one tick's records to the mapper. Records may be
// processed concurrently; a failed record is logged and never aborts its
// siblings.
func (e *Engine) dispatchAll(ctx context.Context, records []eventlog.CombinedLog) {
	if len(records) == 0 {
		return
	}

	eg := new(errgroup.Group)
	eg.SetLimit(maxDispatchConcurrency)

	for _, record := range records {
		record := record
		eg.Go(func() error {
			if err := e.dispatcher.Dispatch(ctx, record); err != nil {
				e.log.Errorw("dispatching record failed",
					"tick", record.Tick, "tx", record.TxHash, "error", err)
			}
			return nil
		})
	}

	_ = eg.Wait()
}

func (e *Engine) current() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTick
}

func (e *Engine) setCurrent(tick uint64) {
	e.mu.Lock()
	e.currentTick = tick
	e.mu.Unlock()
}
