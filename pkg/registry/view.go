package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carbonscan/carbonscan/pkg/metrics"
)

// SnapshotLoader loads the full parameter history. Implemented by Store.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

type ViewConfig struct {
	Logger          *slog.Logger
	Clock           clockwork.Clock
	Loader          SnapshotLoader
	RefreshInterval time.Duration
}

func (cfg *ViewConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Loader == nil {
		return errors.New("snapshot loader is required")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("refresh interval must be greater than 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// View keeps the latest parameter snapshot in memory and refreshes it
// periodically. Snapshots are swapped atomically; readers always see a
// complete, internally consistent history.
type View struct {
	log       *slog.Logger
	cfg       ViewConfig
	refreshMu sync.Mutex

	snapshot  atomic.Pointer[Snapshot]
	readyOnce sync.Once
	readyCh   chan struct{}
}

func NewView(cfg ViewConfig) (*View, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &View{
		log:     cfg.Logger,
		cfg:     cfg,
		readyCh: make(chan struct{}),
	}, nil
}

// Current returns the most recently loaded snapshot, or false before the
// first successful refresh.
func (v *View) Current() (*Snapshot, bool) {
	s := v.snapshot.Load()
	return s, s != nil
}

func (v *View) Ready() bool {
	select {
	case <-v.readyCh:
		return true
	default:
		return false
	}
}

func (v *View) WaitReady(ctx context.Context) error {
	select {
	case <-v.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for registry view: %w", ctx.Err())
	}
}

func (v *View) Start(ctx context.Context) {
	go func() {
		v.log.Info("registry: starting refresh loop", "interval", v.cfg.RefreshInterval)

		v.safeRefresh(ctx)

		ticker := v.cfg.Clock.NewTicker(v.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				v.safeRefresh(ctx)
			}
		}
	}()
}

func (v *View) safeRefresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("registry: refresh panicked", "panic", r)
			metrics.ViewRefreshTotal.WithLabelValues("registry", "panic").Inc()
		}
	}()

	if err := v.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		v.log.Error("registry: refresh failed", "error", err)
	}
}

func (v *View) Refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	refreshStart := time.Now()
	v.log.Debug("registry: refresh started")

	snapshot, err := v.cfg.Loader.LoadSnapshot(ctx)
	if err != nil {
		metrics.ViewRefreshTotal.WithLabelValues("registry", "error").Inc()
		return fmt.Errorf("failed to load registry snapshot: %w", err)
	}

	v.snapshot.Store(snapshot)
	v.readyOnce.Do(func() { close(v.readyCh) })

	duration := time.Since(refreshStart)
	metrics.ViewRefreshTotal.WithLabelValues("registry", "success").Inc()
	metrics.ViewRefreshDuration.WithLabelValues("registry").Observe(duration.Seconds())
	v.log.Info("registry: refresh completed", "duration", duration.String())
	return nil
}
