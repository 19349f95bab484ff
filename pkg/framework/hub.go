// Package framework supervises the concurrent half of a robot program: a
// set of long-running workers (listeners, vision, user control logic)
// communicating over bounded queues, started in registration order and shut
// down together on the first fatal error or interrupt signal.
package framework

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robofleet/go-robomaster/internal/config"
	"github.com/robofleet/go-robomaster/internal/log"
)

// ErrShuttingDown is returned when a worker is registered after the hub has
// left its registration phase.
var ErrShuttingDown = errors.New("framework: hub is shutting down")

// ErrNoWorkers is returned by Run on an empty registry.
var ErrNoWorkers = errors.New("framework: no worker registered")

// Hub states.
type state int

const (
	stateIdle state = iota
	stateStarting
	stateRunning
	stateStopping
	stateKilling
	stateStopped
)

// Hub owns a set of workers. Register them with Worker, start the show with
// Run, stop it with an interrupt signal or Close.
type Hub struct {
	mu      sync.Mutex
	state   state
	workers []Descriptor

	cancel  context.CancelFunc
	closeCh chan struct{}

	// GracefulDeadline bounds how long Run waits for workers to exit
	// after shutdown begins. Defaults to config.DefaultGracefulDeadline.
	GracefulDeadline time.Duration
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		GracefulDeadline: config.DefaultGracefulDeadline,
		closeCh:          make(chan struct{}),
	}
}

// NewHubFromFile creates a hub tuned by a YAML config file.
func NewHubFromFile(path string) (*Hub, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	h := NewHub()
	h.GracefulDeadline = cfg.GracefulDeadline
	return h, nil
}

// Worker registers a worker. Registration order is start order. Workers can
// only be registered before Run.
func (h *Hub) Worker(d Descriptor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != stateIdle {
		return ErrShuttingDown
	}
	if d.Name == "" || d.Hooks.Tick == nil {
		return errors.New("framework: worker needs a name and a tick hook")
	}
	h.workers = append(h.workers, d)
	return nil
}

// Close initiates shutdown. Safe to call from any goroutine, more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.closeCh:
	default:
		close(h.closeCh)
	}
}

// Run starts every registered worker in order and blocks until shutdown has
// completed. Shutdown begins on the first of: SIGINT/SIGTERM, a worker's
// fatal exit, a setup failure, or Close. Run returns nil after a clean
// shutdown even when a worker failure drove it - the failure has been
// logged and has done its job. Workers still running when the graceful
// deadline elapses are abandoned with an error log.
func (h *Hub) Run() error {
	h.mu.Lock()
	if h.state != stateIdle {
		h.mu.Unlock()
		return ErrShuttingDown
	}
	if len(h.workers) == 0 {
		h.mu.Unlock()
		return ErrNoWorkers
	}
	h.state = stateStarting
	workers := append([]Descriptor(nil), h.workers...)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()
	defer cancel()

	logger := log.With("component", "hub")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	exits := make(chan exit, len(workers))
	started := 0
	var fatal bool

	// spawn in registration order; each worker must finish setup before
	// the next one starts
	for _, d := range workers {
		wctx := &Context{
			Context: ctx,
			Name:    d.Name,
			Logger:  log.With("worker", d.Name),
		}
		setupCh := make(chan error, 1)
		go run(wctx, d, setupCh, exits)
		logger.Info("starting worker", "worker", d.Name)
		if err := <-setupCh; err != nil {
			logger.Error("worker setup failed, aborting", "worker", d.Name, "error", err)
			started++ // its exit record is already on the way
			fatal = true
			break
		}
		started++
	}

	h.setState(stateRunning)
	exited := 0

	if !fatal {
		logger.Info("running", "workers", started)
	wait:
		for {
			select {
			case sig := <-sigCh:
				logger.Info("signal received, shutting down", "signal", sig.String())
				break wait
			case <-h.closeCh:
				logger.Info("close requested, shutting down")
				break wait
			case ex := <-exits:
				exited++
				if ex.err == nil && ex.done && !ex.loop {
					// one-shot worker finished its job
					logger.Info("worker finished", "worker", ex.name)
					if exited == started {
						break wait
					}
					continue
				}
				// any other pre-shutdown exit is fatal
				logger.Error("worker exited, shutting down",
					"worker", ex.name, "error", ex.err)
				break wait
			}
		}
	}

	h.setState(stateStopping)
	cancel()

	deadline := h.GracefulDeadline
	if deadline <= 0 {
		deadline = config.DefaultGracefulDeadline
	}
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for exited < started {
		select {
		case ex := <-exits:
			exited++
			if ex.err != nil && !ex.setup {
				logger.Error("worker exited with error", "worker", ex.name, "error", ex.err)
			}
		case <-timer.C:
			// goroutines cannot be force-killed; stop waiting and
			// report the stragglers
			h.setState(stateKilling)
			logger.Error("graceful deadline elapsed, abandoning workers",
				"remaining", started-exited)
			h.setState(stateStopped)
			return nil
		}
	}

	h.setState(stateStopped)
	logger.Info("stopped")
	return nil
}

func (h *Hub) setState(s state) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}
