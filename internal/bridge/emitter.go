package bridge

import (
	"errors"
	"sync"
	"time"

	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/ir"
)

// ErrEmitterShutdown completes polls made on (or pending at) a shut down
// emitter.
var ErrEmitterShutdown = errors.New("emitter shut down")

// Emitter produces numbered tick events in the background. The host pulls
// them one at a time with Poll.
type Emitter struct {
	sched  *engine.Scheduler
	events chan int
	stop   chan struct{}
	once   sync.Once
}

// NewEmitter starts a tick producer.
func (m *Module) NewEmitter() *Emitter {
	e := &Emitter{
		sched:  m.sched,
		events: make(chan int),
		stop:   make(chan struct{}),
	}
	go e.produce(m.tick)
	m.logger.Debug("emitter started", "tick_interval", m.tick)
	return e
}

func (e *Emitter) produce(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}

		count++
		select {
		case e.events <- count:
		case <-e.stop:
			return
		}
	}
}

// Poll delivers the next {"event":"tick","count":n} to cb on the host
// context, or ErrEmitterShutdown once the emitter has been shut down.
// A pending poll waits off the worker pool, so other host calls keep
// running while it is parked.
func (e *Emitter) Poll(cb Completion) *engine.Task {
	return engine.ScheduleBlocking(e.sched, func() (ir.Value, error) {
		select {
		case <-e.stop:
			return nil, ErrEmitterShutdown
		default:
		}

		select {
		case n := <-e.events:
			return ir.NewObject(
				ir.M("event", ir.String("tick")),
				ir.M("count", ir.Number(n)),
			), nil
		case <-e.stop:
			return nil, ErrEmitterShutdown
		}
	}, func(v ir.Value, err error) {
		if err != nil {
			cb(NewHostError(err), ir.Null{})
			return
		}
		cb(nil, v)
	})
}

// Shutdown stops the producer. Safe to call more than once.
func (e *Emitter) Shutdown() {
	e.once.Do(func() {
		close(e.stop)
	})
}
