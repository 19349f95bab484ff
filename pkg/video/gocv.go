package video

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/robofleet/go-robomaster/pkg/protocol"
)

// captureBufferSize keeps OpenCV's internal buffer small so frames stay
// close to live.
const captureBufferSize = 4

// Open connects to the robot's video port and decodes the H.264 stream
// with OpenCV. Enable the stream first with Commander.Stream(true).
func Open(ip string) (Source, error) {
	addr := fmt.Sprintf("tcp://%s:%d", ip, protocol.VideoPort)
	cap, err := gocv.OpenVideoCapture(addr)
	if err != nil {
		return nil, fmt.Errorf("video: open %s: %w", addr, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video: open %s: no stream", addr)
	}
	cap.Set(gocv.VideoCaptureBufferSize, captureBufferSize)
	return &captureSource{cap: cap, mat: gocv.NewMat()}, nil
}

type captureSource struct {
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

func (s *captureSource) Read() (*Frame, error) {
	if s.closed {
		return nil, ErrStreamEnded
	}
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, ErrStreamEnded
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("video: convert frame: %w", err)
	}
	return &Frame{
		Image:    img,
		Width:    s.mat.Cols(),
		Height:   s.mat.Rows(),
		Received: time.Now(),
	}, nil
}

func (s *captureSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.cap.Close()
}
