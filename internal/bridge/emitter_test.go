package bridge

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/ir"
)

func TestEmitter_PollDeliversTicks(t *testing.T) {
	f := newFixture(t, WithTickInterval(5*time.Millisecond))
	em := f.module.NewEmitter()
	defer em.Shutdown()

	var events []ir.Value
	var poll func()
	poll = func() {
		em.Poll(func(err error, v ir.Value) {
			require.NoError(t, err)
			events = append(events, v)
			if len(events) < 3 {
				poll()
			}
		})
	}
	poll()

	require.NoError(t, f.dispatcher.RunUntil(2*time.Second, func() bool { return len(events) == 3 }))

	for i, ev := range events {
		text, err := ir.Render(ev)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`{"event":"tick","count":%d}`, i+1), text)
	}
}

func TestEmitter_ShutdownCompletesPendingPoll(t *testing.T) {
	f := newFixture(t, WithTickInterval(time.Hour))
	em := f.module.NewEmitter()

	var gotErr error
	done := false
	em.Poll(func(err error, v ir.Value) {
		gotErr = err
		assert.Equal(t, ir.Null{}, v)
		done = true
	})

	time.Sleep(10 * time.Millisecond)
	em.Shutdown()
	em.Shutdown()

	require.NoError(t, f.dispatcher.RunUntil(2*time.Second, func() bool { return done }))
	assert.EqualError(t, gotErr, "emitter shut down")
	assert.ErrorIs(t, gotErr, ErrEmitterShutdown)
}

func TestEmitter_PollAfterShutdown(t *testing.T) {
	f := newFixture(t, WithTickInterval(time.Millisecond))
	em := f.module.NewEmitter()
	em.Shutdown()

	var gotErr error
	done := false
	em.Poll(func(err error, _ ir.Value) {
		gotErr = err
		done = true
	})

	require.NoError(t, f.dispatcher.RunUntil(2*time.Second, func() bool { return done }))
	assert.ErrorIs(t, gotErr, ErrEmitterShutdown)
}

func TestEmitter_PendingPollsLeaveWorkersFree(t *testing.T) {
	f := newFixture(t, WithTickInterval(time.Hour))
	em := f.module.NewEmitter()

	// More parked polls than the fixture has workers
	pending := 0
	for i := 0; i < 4; i++ {
		em.Poll(func(err error, _ ir.Value) {
			assert.ErrorIs(t, err, ErrEmitterShutdown)
			pending--
		})
		pending++
	}

	var got ir.Value
	f.module.ScheduleTask(func(err error, v ir.Value) {
		require.NoError(t, err)
		got = v
	})
	require.NoError(t, f.dispatcher.RunUntil(2*time.Second, func() bool { return got != nil }))
	assert.Equal(t, ir.Number(17), got)
	assert.Equal(t, 4, pending)

	em.Shutdown()
	require.NoError(t, f.dispatcher.RunUntil(2*time.Second, func() bool { return pending == 0 }))
}
