// Package engine drives the render loop of the stringbar daemon.
// Each tick takes one configuration snapshot from the store, renders it and
// publishes the result to the sink, then sleeps for the snapshot's interval.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/lc/stringbar/internal/log"
	"github.com/lc/stringbar/internal/render"
	"github.com/lc/stringbar/internal/sink"
	"github.com/lc/stringbar/internal/store"
)

const (
	// Upper bound for a single Publish, so a hung sink cannot stall the bar.
	_defaultPublishTimeout = 5 * time.Second
	// At most one publish failure is logged per interval.
	_defaultErrorLogEvery = time.Minute
	// Fallback when a snapshot carries no usable interval.
	_minInterval = 10 * time.Millisecond
)

// Engine renders the configured status line on a fixed cadence.
type Engine struct {
	store          store.Snapshotter
	renderer       *render.Renderer
	sink           sink.Sink
	publishTimeout time.Duration

	errLog     *rate.Limiter
	suppressed atomic.Int64 // publish failures not logged since the last one that was
	ticks      atomic.Uint64
	failures   atomic.Uint64
}

// Opt is a function option for configuring the Engine.
type Opt func(e *Engine)

// WithPublishTimeout bounds each Publish call. Zero disables the bound.
func WithPublishTimeout(d time.Duration) Opt {
	return func(e *Engine) { e.publishTimeout = d }
}

// WithErrorLogEvery limits publish failure logs to one per d.
func WithErrorLogEvery(d time.Duration) Opt {
	return func(e *Engine) { e.errLog = rate.NewLimiter(rate.Every(d), 1) }
}

// New creates an Engine.
func New(st store.Snapshotter, renderer *render.Renderer, s sink.Sink, opts ...Opt) *Engine {
	e := &Engine{
		store:          st,
		renderer:       renderer,
		sink:           s,
		publishTimeout: _defaultPublishTimeout,
		errLog:         rate.NewLimiter(rate.Every(_defaultErrorLogEvery), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run ticks until ctx is cancelled. It always returns nil; sink failures are
// logged and the loop carries on.
func (e *Engine) Run(ctx context.Context) error {
	log.Infof("engine: started, publishing through %T", e.sink)
	defer func() {
		log.Info("engine: stopped", "ticks", e.ticks.Load(), "publish_failures", e.failures.Load())
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if ctx.Err() != nil {
			return nil
		}
		wait := e.Tick(ctx)
		if wait < _minInterval {
			wait = _minInterval
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Tick renders and publishes once and returns how long to wait before the
// next tick. The configuration is read exactly once.
func (e *Engine) Tick(ctx context.Context) time.Duration {
	cfg := e.store.Snapshot()
	status := e.renderer.Render(ctx, cfg)

	pubCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.publishTimeout > 0 {
		pubCtx, cancel = context.WithTimeout(ctx, e.publishTimeout)
	}
	err := e.sink.Publish(pubCtx, status)
	cancel()

	e.ticks.Inc()
	if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		e.publishFailed(err)
	}
	return cfg.Interval()
}

// Stats reports the number of ticks run and publishes that failed.
func (e *Engine) Stats() (ticks, failures uint64) {
	return e.ticks.Load(), e.failures.Load()
}

func (e *Engine) publishFailed(err error) {
	e.failures.Inc()
	if !e.errLog.Allow() {
		e.suppressed.Inc()
		return
	}
	log.Warnf("engine: publish failed: %v (%d more failures since last report)", err, e.suppressed.Swap(0))
}
