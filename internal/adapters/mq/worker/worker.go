// Package worker drives a race session: one goroutine per session owns the
// state machine, applies queued commands and fires the race clock.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pixelrace/internal/adapters/mq/queue"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
	"github.com/okian/pixelrace/pkg/metrics"
)

// Default runner configuration constants.
const (
	defaultTickInterval = 200 * time.Millisecond
	defaultCountdown    = 3 * time.Second
	defaultQueueSize    = 16
)

// Machine is the session state machine the runner drives.
type Machine interface {
	SelectCar(car model.Car) error
	Start() error
	Tick() (session.TickResult, error)
	Restart() error
	Generation() uint64
	Snapshot() session.Snapshot
}

// Kind names a command.
type Kind int

// Command kinds.
const (
	SelectCar Kind = iota + 1
	Start
	Restart
)

func (k Kind) String() string {
	switch k {
	case SelectCar:
		return "select_car"
	case Start:
		return "start"
	case Restart:
		return "restart"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is a request applied by the runner goroutine.
type Command struct {
	Kind Kind
	Car  model.Car
}

type envelope struct {
	cmd   Command
	reply chan error
}

// Runner is the single writer of one session.
type Runner struct {
	id           string
	machine      Machine
	mailbox      *queue.InMemoryQueue[envelope]
	tickInterval time.Duration
	countdown    time.Duration
	queueSize    int
	onResults    func(ctx context.Context, snap session.Snapshot)
	logger       logger.Logger

	snapshot       atomic.Pointer[session.Snapshot]
	countdownUntil atomic.Int64 // unix nanos, 0 when no countdown runs

	subsMu   sync.Mutex
	subs     map[uint64]chan session.Snapshot
	nextSub  uint64
	subsDone bool

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewRunner creates a runner for machine. Call Start to launch it.
func NewRunner(id string, machine Machine, opts ...Option) *Runner {
	r := &Runner{
		id:           id,
		machine:      machine,
		tickInterval: defaultTickInterval,
		countdown:    defaultCountdown,
		queueSize:    defaultQueueSize,
		subs:         make(map[uint64]chan session.Snapshot),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("runner")
	}
	r.mailbox = queue.NewInMemoryQueue[envelope](queue.WithCapacity(r.queueSize))

	snap := machine.Snapshot()
	r.snapshot.Store(&snap)
	return r
}

// ID returns the session id the runner serves.
func (r *Runner) ID() string { return r.id }

// Start launches the runner goroutine. It stops when ctx is done or Close
// is called.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		go r.run(ctx)
	})
}

// Done is closed once the runner goroutine has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Submit queues cmd and waits until the runner applied it.
func (r *Runner) Submit(ctx context.Context, cmd Command) error {
	reply := make(chan error, 1)
	if err := r.mailbox.Enqueue(ctx, envelope{cmd: cmd, reply: reply}); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			return ErrBusy
		case errors.Is(err, queue.ErrClosed):
			return ErrStopped
		default:
			return err
		}
	}

	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published snapshot, with the countdown
// remaining at the time of the call.
func (r *Runner) Snapshot() session.Snapshot {
	snap := *r.snapshot.Load()
	if until := r.countdownUntil.Load(); until > 0 {
		if left := time.Until(time.Unix(0, until)).Milliseconds(); left > 0 {
			snap.CountdownMS = left
		}
	}
	return snap
}

// Subscribe returns a channel receiving every published snapshot, starting
// with the current one. Slow readers only miss intermediate snapshots.
// The returned func unsubscribes; the channel is closed on unsubscribe or
// when the runner stops.
func (r *Runner) Subscribe() (<-chan session.Snapshot, func()) {
	ch := make(chan session.Snapshot, 1)
	ch <- r.Snapshot()

	r.subsMu.Lock()
	if r.subsDone {
		r.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subsMu.Lock()
			defer r.subsMu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Runner) Subscribers() int {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	return len(r.subs)
}

// Close stops the clock and the goroutine and waits for it to exit.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		r.startOnce.Do(func() { // never started
			r.closeSubscribers()
			close(r.done)
		})
		if r.cancel != nil {
			r.cancel()
		}
		<-r.done
		_ = r.mailbox.Close()
	})
	return nil
}

type clock struct {
	ticker     *time.Ticker
	ticks      <-chan time.Time
	countdown  *time.Timer
	countdownC <-chan time.Time
	generation uint64
}

func (c *clock) stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	if c.countdown != nil {
		c.countdown.Stop()
	}
	*c = clock{}
}

func (r *Runner) run(ctx context.Context) {
	var c clock
	defer func() {
		c.stop()
		r.countdownUntil.Store(0)
		r.closeSubscribers()
		close(r.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-r.mailbox.Dequeue():
			if !ok {
				return
			}
			metrics.UpdateCommandQueueLength(r.mailbox.Len())
			env.reply <- r.apply(ctx, env.cmd, &c)

		case <-c.countdownC:
			c.countdown, c.countdownC = nil, nil
			r.countdownUntil.Store(0)
			r.startTicker(&c)
			r.publish()

		case <-c.ticks:
			r.tick(ctx, &c)
		}
	}
}

func (r *Runner) apply(ctx context.Context, cmd Command, c *clock) error {
	var err error
	switch cmd.Kind {
	case SelectCar:
		err = r.machine.SelectCar(cmd.Car)
	case Start:
		err = r.machine.Start()
		if err == nil {
			r.arm(c)
		}
	case Restart:
		err = r.machine.Restart()
		if err == nil {
			c.stop()
			r.countdownUntil.Store(0)
		}
	default:
		err = fmt.Errorf("command %s: %w", cmd.Kind, ErrUnknownCommand)
	}

	if err != nil {
		metrics.RecordRejection(rejectionReason(err))
		r.logger.Debug(ctx, "command rejected",
			logger.String("session", r.id),
			logger.String("command", cmd.Kind.String()),
			logger.Error(err),
		)
		return err
	}
	r.publish()
	return nil
}

// arm schedules the clock for the race that just started.
func (r *Runner) arm(c *clock) {
	c.stop()
	c.generation = r.machine.Generation()
	if r.countdown <= 0 {
		r.startTicker(c)
		return
	}
	r.countdownUntil.Store(time.Now().Add(r.countdown).UnixNano())
	c.countdown = time.NewTimer(r.countdown)
	c.countdownC = c.countdown.C
}

func (r *Runner) startTicker(c *clock) {
	c.ticker = time.NewTicker(r.tickInterval)
	c.ticks = c.ticker.C
}

func (r *Runner) tick(ctx context.Context, c *clock) {
	if r.machine.Generation() != c.generation {
		metrics.RecordStaleTick()
		r.logger.Warn(ctx, "dropping tick from a superseded race",
			logger.String("session", r.id),
			logger.Int64("armed_generation", int64(c.generation)), //nolint:gosec // small counter
		)
		c.stop()
		return
	}

	start := time.Now()
	res, err := r.machine.Tick()
	if err != nil {
		// The machine left Racing without the runner seeing it.
		r.logger.Error(ctx, "tick refused", logger.String("session", r.id), logger.Error(err))
		c.stop()
		return
	}
	metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRacersFinished(res.Finished)

	snap := r.publish()
	if !res.Completed {
		return
	}

	c.stop()
	metrics.RecordRaceCompleted()
	r.logger.Info(ctx, "race finished",
		logger.String("session", r.id),
		logger.Int("ticks", res.Tick),
		logger.Int64("elapsed_ms", snap.ElapsedMS),
	)
	if r.onResults != nil {
		r.onResults(ctx, snap)
	}
}

// publish stores the machine snapshot and fans it out.
func (r *Runner) publish() session.Snapshot {
	snap := r.machine.Snapshot()
	r.snapshot.Store(&snap)
	out := r.Snapshot()

	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- out:
		default:
			// Drop the stale snapshot the reader has not taken yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- out:
			default:
			}
		}
	}
	return snap
}

func (r *Runner) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	r.subsDone = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, session.ErrNoCarSelected):
		return "no_car_selected"
	case errors.Is(err, session.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrInvariant):
		return "invariant"
	default:
		return "other"
	}
}
