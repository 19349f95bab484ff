// Package video exposes the robot's H.264 stream as a sequence of decoded
// frames. The codec itself lives behind the Source interface; the shipped
// implementation pulls and decodes via OpenCV (GoCV).
package video

import (
	"errors"
	"image"
	"time"
)

// ErrStreamEnded is returned by Read once the stream is exhausted or the
// source is closed.
var ErrStreamEnded = errors.New("video: stream ended")

// Frame is one decoded video frame. Frames arrive in presentation order.
type Frame struct {
	Image    image.Image
	Width    int
	Height   int
	Received time.Time
}

// Source produces decoded frames. Read blocks until the next frame is
// available; implementations are not safe for concurrent Read.
type Source interface {
	Read() (*Frame, error)
	Close() error
}

// OpenFunc opens a frame source for the robot at ip. Open is the default;
// alternative decoders plug in here.
type OpenFunc func(ip string) (Source, error)
