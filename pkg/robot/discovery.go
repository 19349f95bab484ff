package robot

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robofleet/go-robomaster/pkg/protocol"
)

// broadcastPrefix starts every IP announcement datagram.
const broadcastPrefix = "robot ip "

// FindRobotIP listens for the robot's UDP broadcast on port 40926 and
// returns its self-announced IPv4 address. It fails with
// ErrDiscoveryTimeout if no announcement arrives within timeout;
// timeout <= 0 waits forever.
func FindRobotIP(timeout time.Duration) (string, error) {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", protocol.IPPort))
	if err != nil {
		return "", fmt.Errorf("robot: bind broadcast port: %w", err)
	}
	defer conn.Close()
	return readBroadcast(conn, timeout)
}

// readBroadcast reads one announcement from conn and extracts the IP.
// The announced address must match the datagram's source.
func readBroadcast(conn net.PacketConn, timeout time.Duration) (string, error) {
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", fmt.Errorf("robot: set deadline: %w", err)
		}
	}

	buf := make([]byte, protocol.DefaultBufSize)
	n, addr, err := conn.ReadFrom(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return "", fmt.Errorf("%w after %s", ErrDiscoveryTimeout, timeout)
		}
		return "", fmt.Errorf("robot: read broadcast: %w", err)
	}

	msg := string(buf[:n])
	if !strings.HasPrefix(msg, broadcastPrefix) {
		return "", fmt.Errorf("robot: broken broadcast from %s: %q", addr, msg)
	}
	ip := strings.TrimSpace(msg[len(broadcastPrefix):])
	if udp, ok := addr.(*net.UDPAddr); ok && udp.IP.String() != ip {
		return "", fmt.Errorf("robot: unmatched source %s and reported IP %s", udp.IP, ip)
	}
	return ip, nil
}
