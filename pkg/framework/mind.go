package framework

import (
	"time"

	"github.com/robofleet/go-robomaster/pkg/robot"
)

// MindFunc is user control logic. It consumes whatever queues it closed
// over and commands the robot through cmd. Returning done ends the worker
// cleanly; with Loop=true that is treated as fatal by the hub, so looping
// minds normally return done only after observing cancellation.
type MindFunc func(ctx *Context, cmd *robot.Commander) (done bool, err error)

// MindOptions tunes NewMind.
type MindOptions struct {
	// Timeout for the mind's Commander. Size it to the slowest movement
	// command the logic issues.
	Timeout time.Duration
	// Loop re-runs fn until shutdown (the default is one-shot).
	Loop bool
	// Interval is an optional pause between runs when looping.
	Interval time.Duration
}

// NewMind builds the worker that hosts user control logic: it owns a
// Commander session to the robot at ip and runs fn with it. Sensor data
// reaches the mind through the queues its closure captures.
func NewMind(name, ip string, fn MindFunc, opts MindOptions) Descriptor {
	var cmd *robot.Commander

	return Descriptor{
		Name:     name,
		Loop:     opts.Loop,
		Interval: opts.Interval,
		Hooks: Hooks{
			Setup: func(ctx *Context) error {
				c, err := robot.New(robot.Options{IP: ip, Timeout: opts.Timeout})
				if err != nil {
					return err
				}
				cmd = c
				return nil
			},
			Tick: func(ctx *Context) (bool, error) {
				return fn(ctx, cmd)
			},
			Teardown: func(ctx *Context) {
				if cmd != nil {
					cmd.Close()
				}
			},
		},
	}
}
