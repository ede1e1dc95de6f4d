package pool

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Sweep releases every held lease that has been idle longer than threshold
// and returns how many it reclaimed. Pinned leases are skipped. A failing
// release is logged and does not stop the sweep.
func (a *Acquirer) Sweep(threshold time.Duration) (reclaimed int) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("idle sweep panicked", "panic", fmt.Sprint(r))
		}
	}()

	now := a.now()
	var stale []*Lease

	a.mu.Lock()
	for l := range a.held {
		if l.IdleFor(now) > threshold {
			stale = append(stale, l)
		}
	}
	a.mu.Unlock()

	for _, l := range stale {
		// Pin state is checked again under the lease lock.
		released, idle, err := l.reclaimIfIdle(now, threshold)
		if !released {
			continue
		}
		if err != nil {
			a.logger.Warn("releasing idle connection failed", "lease", l.ID().String(), "idle", idle, "error", err)
			continue
		}
		a.logger.Info("reclaimed idle connection", "lease", l.ID().String(), "idle", idle)
		reclaimed++
	}
	return reclaimed
}

// Sweeper runs Sweep on an interval until stopped.
type Sweeper struct {
	acq       *Acquirer
	interval  time.Duration
	threshold time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewSweeper creates a sweeper over acq.
func NewSweeper(acq *Acquirer, interval, threshold time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		acq:       acq,
		interval:  interval,
		threshold: threshold,
	}
}

// Start launches the sweep loop. Calling Start on a running sweeper does
// nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.acq.Sweep(s.threshold); n > 0 {
				s.acq.logger.Debug("idle sweep finished", "reclaimed", n)
			}
		}
	}
}
