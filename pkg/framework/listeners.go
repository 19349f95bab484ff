package framework

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/robofleet/go-robomaster/pkg/protocol"
	"github.com/robofleet/go-robomaster/pkg/robot"
)

// udpListener is the shared receive loop under PushListener and
// EventListener: bind a UDP port, read one datagram per tick under a short
// deadline, hand the payload to a decode function. Malformed telegrams are
// logged and dropped - each distinct reason is logged once - and never
// reach the queue.
type udpListener struct {
	port   int
	conn   net.PacketConn
	buf    []byte
	decode func(ctx *Context, msg string, received time.Time)

	seenReasons map[string]bool
}

func (l *udpListener) setup(ctx *Context) error {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("bind udp %d: %w", l.port, err)
	}
	l.conn = conn
	l.buf = make([]byte, protocol.DefaultBufSize)
	l.seenReasons = map[string]bool{}
	ctx.Logger.Info("listening", "port", l.port)
	return nil
}

func (l *udpListener) tick(ctx *Context) (bool, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(recvPollInterval)); err != nil {
		return false, err
	}
	n, _, err := l.conn.ReadFrom(l.buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return false, nil
		}
		return false, err
	}
	l.decode(ctx, string(l.buf[:n]), time.Now())
	return false, nil
}

func (l *udpListener) teardown(ctx *Context) {
	if l.conn != nil {
		l.conn.Close()
	}
}

// logParseError drops a malformed telegram, keeping the log quiet for
// reasons it has already reported.
func (l *udpListener) logParseError(ctx *Context, err error) {
	var perr *protocol.ParseError
	if errors.As(err, &perr) {
		if l.seenReasons[perr.Reason] {
			return
		}
		l.seenReasons[perr.Reason] = true
	}
	ctx.Logger.Warn("dropping malformed telegram", "error", err)
}

// NewPushListener builds the worker that receives telemetry pushes on UDP
// port 40924, decodes them into typed records and emits them to out in
// arrival order. Enable streams with Commander.ChassisPushOn/GimbalPushOn.
func NewPushListener(name string, out *Queue[protocol.Push]) Descriptor {
	l := &udpListener{port: protocol.PushPort}
	l.decode = func(ctx *Context, msg string, received time.Time) {
		records, err := protocol.ParsePush(msg, received)
		if err != nil {
			l.logParseError(ctx, err)
			return
		}
		for _, rec := range records {
			out.Put(rec)
		}
	}
	return Descriptor{
		Name: name,
		Loop: true,
		Hooks: Hooks{
			Setup:    l.setup,
			Tick:     l.tick,
			Teardown: l.teardown,
		},
	}
}

// EventEnricher augments a freshly parsed event with contextual queries
// through the listener's private Commander before it is emitted. Returning
// an error degrades to emission of the original record plus a warning.
type EventEnricher func(cmd *robot.Commander, ev protocol.Event) (protocol.Event, error)

// EventListenerOptions tunes NewEventListener.
type EventListenerOptions struct {
	// IP of the robot for the enrichment Commander; empty falls back as
	// robot.Options.IP does.
	IP string
	// Timeout for the private Commander's queries.
	Timeout time.Duration
	// Enrich, when set, gives the listener a Commander of its own and is
	// applied to every event before emission.
	Enrich EventEnricher
}

// NewEventListener builds the worker that receives sensor events on UDP
// port 40925 and emits typed records to out. Enable reporting with
// Commander.ArmorEvent/SoundEvent.
func NewEventListener(name string, out *Queue[protocol.Event], opts EventListenerOptions) Descriptor {
	l := &udpListener{port: protocol.EventPort}
	var cmd *robot.Commander

	l.decode = func(ctx *Context, msg string, received time.Time) {
		records, err := protocol.ParseEvent(msg, received)
		if err != nil {
			l.logParseError(ctx, err)
			return
		}
		for _, rec := range records {
			if cmd != nil {
				enriched, err := opts.Enrich(cmd, rec)
				if err != nil {
					ctx.Logger.Warn("event enrichment failed, emitting raw record", "error", err)
				} else {
					rec = enriched
				}
			}
			out.Put(rec)
		}
	}

	setup := func(ctx *Context) error {
		if opts.Enrich != nil {
			c, err := robot.New(robot.Options{IP: opts.IP, Timeout: opts.Timeout})
			if err != nil {
				return fmt.Errorf("event enrichment commander: %w", err)
			}
			cmd = c
		}
		return l.setup(ctx)
	}
	teardown := func(ctx *Context) {
		l.teardown(ctx)
		if cmd != nil {
			cmd.Close()
		}
	}

	return Descriptor{
		Name: name,
		Loop: true,
		Hooks: Hooks{
			Setup:    setup,
			Tick:     l.tick,
			Teardown: teardown,
		},
	}
}
