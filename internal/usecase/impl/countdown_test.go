package impl

import (
	"testing"
	"time"

	"etuition/internal/domain/entity"
	"etuition/internal/infra/navigation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manualTicker(ticks chan time.Time) TickerFunc {
	return func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}
}

func waitDone(t *testing.T, c *Countdown) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop")
	}
}

func TestCountdown_NavigatesHomeOnce(t *testing.T) {
	history := navigation.NewHistory("/")
	history.Navigate("/no-such-page", nil)

	homeVisits := 0
	history.Watch(func(loc entity.Location) {
		if loc.Path == "/" {
			homeVisits++
		}
	})

	ticks := make(chan time.Time)
	runner := NewCountdownRunner(history, "/", 5*time.Second, manualTicker(ticks), discardLogger())
	countdown := runner.Mount()
	assert.Equal(t, 5, countdown.Remaining())

	for range 4 {
		ticks <- time.Now()
	}
	assert.Equal(t, "/no-such-page", history.Current().Path)

	ticks <- time.Now()
	waitDone(t, countdown)

	assert.Equal(t, 0, countdown.Remaining())
	assert.Equal(t, "/", history.Current().Path)
	assert.Equal(t, 1, homeVisits)

	countdown.Unmount()
	assert.Equal(t, 1, homeVisits)
}

func TestCountdown_StopsWhenNavigatedAway(t *testing.T) {
	history := navigation.NewHistory("/")
	history.Navigate("/missing", nil)

	ticks := make(chan time.Time, 10)
	runner := NewCountdownRunner(history, "/", 5*time.Second, manualTicker(ticks), discardLogger())
	countdown := runner.Mount()

	history.Navigate("/login", nil)
	waitDone(t, countdown)

	for range 5 {
		ticks <- time.Now()
	}

	require.Equal(t, "/login", history.Current().Path)
	assert.Equal(t, 5, countdown.Remaining())
}

func TestCountdownRunner_MinimumOneSecond(t *testing.T) {
	runner := NewCountdownRunner(navigation.NewHistory("/"), "/", 100*time.Millisecond, RealTicker, discardLogger())

	assert.Equal(t, 1, runner.Seconds())
}
