package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) PurgeExpiredCodes() int {
	p.calls.Add(1)
	return 1
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsPurge(t *testing.T) {
	purger := &countingPurger{}
	s := New("@every 1s", purger, discard())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return purger.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New("every now and then", &countingPurger{}, discard())
	assert.Error(t, s.Start())
}
