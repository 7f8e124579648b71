package impl

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"
)

// TickerFunc starts a ticker and returns its channel and stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// RealTicker is the TickerFunc backed by time.NewTicker.
func RealTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)

	return t.C, t.Stop
}

// CountdownRunner mounts not-found countdowns that send the navigator home.
type CountdownRunner struct {
	navigator service.Navigator
	home      string
	seconds   int
	newTicker TickerFunc
	logger    *slog.Logger
}

// NewCountdownRunner is the constructor for CountdownRunner.
func NewCountdownRunner(
	navigator service.Navigator,
	home string,
	total time.Duration,
	newTicker TickerFunc,
	logger *slog.Logger,
) *CountdownRunner {
	seconds := int(total / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	return &CountdownRunner{
		navigator: navigator,
		home:      home,
		seconds:   seconds,
		newTicker: newTicker,
		logger:    logger,
	}
}

// Seconds returns the countdown length.
func (r *CountdownRunner) Seconds() int {
	return r.seconds
}

// Countdown decrements once per tick and navigates home once it reaches zero.
// It stops when the navigator leaves the location it was mounted on.
type Countdown struct {
	remaining atomic.Int32
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// Mount starts a countdown bound to the navigator's current location.
func (r *CountdownRunner) Mount() *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.remaining.Store(int32(r.seconds))

	mountedAt := r.navigator.Current().Path
	ticks, stopTicker := r.newTicker(time.Second)
	unwatch := r.navigator.Watch(func(loc entity.Location) {
		if loc.Path != mountedAt {
			c.Unmount()
		}
	})

	go func() {
		defer close(c.done)
		defer unwatch()
		defer stopTicker()

		for {
			select {
			case <-c.stop:
				return
			case <-ticks:
				if c.remaining.Add(-1) > 0 {
					continue
				}
				r.logger.Debug("Not-found countdown elapsed, navigating home", slog.String("from", mountedAt))
				r.navigator.Navigate(r.home, nil)

				return
			}
		}
	}()

	return c
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	return int(c.remaining.Load())
}

// Unmount stops the countdown without navigating.
func (c *Countdown) Unmount() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Done is closed once the countdown has stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
