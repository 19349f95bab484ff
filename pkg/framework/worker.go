package framework

import (
	"context"
	"log/slog"
	"time"
)

// Context is handed to every worker hook. It carries the worker's identity,
// a logger tagged with it, and the hub-wide cancellation token. Workers
// observe cancellation between ticks; the UDP listeners additionally use
// short read deadlines so a blocking receive cannot outlive shutdown by
// more than recvPollInterval.
type Context struct {
	context.Context

	// Name of the worker as registered with the hub.
	Name string
	// Logger is tagged with the worker name.
	Logger *slog.Logger
}

// Canceled reports whether hub shutdown has been requested.
func (c *Context) Canceled() bool {
	return c.Err() != nil
}

// recvPollInterval bounds how long a listener's socket read may block
// before re-checking the cancellation token.
const recvPollInterval = 250 * time.Millisecond

// Hooks are one worker's lifecycle callbacks.
//
// Setup runs once on the worker's own goroutine before any tick; an error
// aborts the whole hub. Tick runs repeatedly until it reports done, fails,
// or the hub shuts down; returning done with Loop=true before shutdown is
// treated as fatal by the hub (a supervised worker is expected to run until
// told otherwise). Teardown always runs exactly once on exit - normal,
// error (including a failed Setup) or cancellation. It has no error result,
// so nothing it does is reported to the hub.
type Hooks struct {
	Setup    func(ctx *Context) error
	Tick     func(ctx *Context) (done bool, err error)
	Teardown func(ctx *Context)
}

// Descriptor registers one worker with a Hub.
type Descriptor struct {
	// Name identifies the worker in logs. Choose a descriptive one.
	Name string
	// Hooks holds the lifecycle callbacks. Tick is required.
	Hooks Hooks
	// Loop makes the hub call Tick until shutdown (the common case).
	// With Loop false, Tick runs exactly once and a clean exit is not
	// treated as fatal.
	Loop bool
	// Interval is an optional pause between ticks.
	Interval time.Duration
}

// exit is what a finished worker reports back to the hub.
type exit struct {
	name  string
	loop  bool
	done  bool // tick reported clean completion
	err   error
	setup bool // failed during setup
}

// run executes the worker lifecycle on the current goroutine. The setup
// result is delivered on started so the hub can sequence startup; the final
// outcome goes to exits.
func run(ctx *Context, d Descriptor, started chan<- error, exits chan<- exit) {
	if d.Hooks.Setup != nil {
		if err := d.Hooks.Setup(ctx); err != nil {
			ctx.Logger.Error("setup failed", "error", err)
			if d.Hooks.Teardown != nil {
				d.Hooks.Teardown(ctx)
			}
			started <- err
			exits <- exit{name: d.Name, loop: d.Loop, err: err, setup: true}
			return
		}
	}
	started <- nil

	ex := exit{name: d.Name, loop: d.Loop}
	// teardown runs before the exit report so the hub never observes a
	// worker as gone while its teardown is still in flight
	defer func() { exits <- ex }()
	defer func() {
		if d.Hooks.Teardown != nil {
			d.Hooks.Teardown(ctx)
		}
	}()

	for {
		if ctx.Canceled() {
			return
		}
		done, err := d.Hooks.Tick(ctx)
		if err != nil {
			if ctx.Canceled() {
				// failures racing shutdown are expected (closed sockets)
				return
			}
			ctx.Logger.Error("tick failed", "error", err)
			ex.err = err
			return
		}
		if done || !d.Loop {
			ex.done = true
			return
		}
		if d.Interval > 0 {
			select {
			case <-time.After(d.Interval):
			case <-ctx.Done():
			}
		}
	}
}
