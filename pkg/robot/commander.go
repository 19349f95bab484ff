package robot

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robofleet/go-robomaster/internal/config"
	"github.com/robofleet/go-robomaster/internal/log"
	"github.com/robofleet/go-robomaster/pkg/protocol"
)

// handshakeBusy is what the robot answers when a previous session already
// switched it into SDK mode.
const handshakeBusy = "Already in SDK mode"

var remoteErrRe = regexp.MustCompile(`(?i)^error`)

// Options configures a Commander session.
type Options struct {
	// IP of the robot. Empty falls back to the ROBOT_IP environment
	// variable (after loading an optional .env file), then to broadcast
	// discovery.
	IP string
	// Port of the control service. 0 means protocol.ControlPort.
	Port int
	// Timeout bounds every request/response exchange, including dialing
	// and discovery. 0 means config.DefaultTimeout. Movement commands
	// block until the motion finishes, so size this to the slowest move
	// you intend to issue.
	Timeout time.Duration
}

// Commander is a synchronous text-protocol session to one robot.
//
// A Commander admits one in-flight request at a time; concurrent callers
// serialize through an internal mutex, so a slow movement command stalls
// unrelated queries on the same instance. Construct additional Commanders
// against the same robot when parallel queries are needed - the robot
// linearises across sessions.
type Commander struct {
	mu     sync.Mutex
	conn   net.Conn
	rd     *bufio.Reader
	ip     string
	tag    string
	logger *slog.Logger

	timeout time.Duration
	closed  bool
}

// New dials the robot's control port, performs the SDK-mode handshake and
// returns a ready session. Closing the session does not send quit;, leaving
// peer Commanders on the same robot undisturbed.
func New(opts Options) (*Commander, error) {
	ip := opts.IP
	port := opts.Port
	if port == 0 {
		port = protocol.ControlPort
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	if ip == "" {
		// a .env / ROBOT_IP override beats waiting for the broadcast
		config.LoadDotEnv()
		ip = config.RobotIP("")
	}
	if ip == "" {
		found, err := FindRobotIP(timeout)
		if err != nil {
			return nil, err
		}
		ip = found
	}

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", ip, port), timeout)
	if err != nil {
		return nil, fmt.Errorf("robot: dial %s:%d: %w", ip, port, err)
	}

	tag := uuid.NewString()[:8]
	c := &Commander{
		conn:    conn,
		rd:      bufio.NewReaderSize(conn, protocol.DefaultBufSize),
		ip:      ip,
		tag:     tag,
		logger:  log.With("session", tag, "robot", ip),
		timeout: timeout,
	}

	resp, err := c.Do("command")
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp != "ok" && resp != handshakeBusy {
		conn.Close()
		return nil, &HandshakeError{Got: resp}
	}
	c.logger.Info("entered SDK mode")
	return c, nil
}

// IP returns the robot address this session talks to.
func (c *Commander) IP() string {
	return c.ip
}

// Close shuts the control socket. It deliberately does not send quit;, so
// the robot stays in SDK mode for other sessions. Use Quit for a full exit.
func (c *Commander) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// Do sends one raw command and returns the response body with the
// terminator stripped. It is the escape hatch underneath every typed
// method; requests on one Commander are totally ordered. There are no
// retries - the protocol is not idempotent across moves.
func (c *Commander) Do(args ...any) (string, error) {
	if len(args) == 0 {
		return "", invalidArgf("args", "empty command not accepted")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.do(args...)
}

// do performs one exchange. Callers hold c.mu.
func (c *Commander) do(args ...any) (string, error) {
	if c.closed {
		return "", ErrClosed
	}

	line := protocol.EncodeCommand(args...)
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", c.poison(fmt.Errorf("robot: set deadline: %w", err))
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return "", c.poison(fmt.Errorf("robot: write: %w", c.classify(err)))
	}
	raw, err := c.rd.ReadString(byte(protocol.Terminator))
	if err != nil {
		return "", c.poison(fmt.Errorf("robot: read: %w", c.classify(err)))
	}

	resp := protocol.TrimResponse(raw)
	c.logger.Debug("exchange", "request", strings.TrimSuffix(line, ";"), "response", resp)
	return resp, nil
}

// classify maps deadline expiries onto ErrTimeout, leaving other socket
// errors as plain I/O failures.
func (c *Commander) classify(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return err
}

// poison marks the session unusable after an I/O failure. Request and
// response framing cannot be trusted once an exchange broke mid-flight.
func (c *Commander) poison(err error) error {
	c.closed = true
	c.conn.Close()
	c.logger.Warn("session poisoned", "error", err)
	return err
}

// doOK issues a void command and asserts the robot acknowledged it.
func (c *Commander) doOK(name string, args ...any) error {
	resp, err := c.Do(args...)
	if err != nil {
		return err
	}
	if resp != "ok" {
		return &RemoteError{Cmd: name, Body: resp}
	}
	return nil
}

// doQuery issues a value query; an error phrase still maps to RemoteError.
func (c *Commander) doQuery(name string, args ...any) (string, error) {
	resp, err := c.Do(args...)
	if err != nil {
		return "", err
	}
	if remoteErrRe.MatchString(resp) {
		return "", &RemoteError{Cmd: name, Body: resp}
	}
	return resp, nil
}
