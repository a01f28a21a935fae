package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	n     int
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int, error) {
	p.calls.Add(1)
	return p.n, p.err
}

func TestRunOnce(t *testing.T) {
	p := &countingPurger{n: 3}
	require.NoError(t, NewCleaner(p).RunOnce(context.Background()))
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestRunOnce_PropagatesError(t *testing.T) {
	p := &countingPurger{n: 1, err: errors.New("scan failed")}
	assert.ErrorContains(t, NewCleaner(p).RunOnce(context.Background()), "scan failed")
}

func TestStart_InvalidSchedule(t *testing.T) {
	c := NewCleaner(&countingPurger{}, WithSchedule("not a schedule"))
	assert.Error(t, c.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	p := &countingPurger{}
	c := NewCleaner(p,
		WithCron(cron.New(cron.WithSeconds(), cron.WithLogger(cron.DiscardLogger))),
		WithSchedule("@every 1s"),
	)
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestNilPurgerIsNoop(t *testing.T) {
	c := NewCleaner(nil)
	require.NoError(t, c.Start())
	assert.NoError(t, c.RunOnce(context.Background()))
	<-c.Stop().Done()
}

func TestWithJob_RunsExtraJob(t *testing.T) {
	var swept atomic.Int32
	c := NewCleaner(nil,
		WithCron(cron.New(cron.WithSeconds(), cron.WithLogger(cron.DiscardLogger))),
		WithJob("@every 1s", func() { swept.Add(1) }),
	)
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.Eventually(t, func() bool { return swept.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
