package framework

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robofleet/go-robomaster/pkg/video"
)

// stubSource produces numbered frames without a robot.
type stubSource struct {
	frames int
	reads  int
	closed bool
}

func (s *stubSource) Read() (*video.Frame, error) {
	if s.closed || s.reads >= s.frames {
		return nil, video.ErrStreamEnded
	}
	s.reads++
	return &video.Frame{
		Image:    image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Width:    4,
		Height:   4,
		Received: time.Now(),
	}, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func stubOpen(src *stubSource) video.OpenFunc {
	return func(ip string) (video.Source, error) {
		return src, nil
	}
}

func TestVisionProcessesFrames(t *testing.T) {
	src := &stubSource{frames: 3}
	out := NewQueue[int]("vision", 8)

	seen := 0
	d := NewVision("vision", "127.0.0.1", out, func(ctx *Context, frame *video.Frame) (int, bool) {
		seen++
		assert.Equal(t, 4, frame.Width)
		return seen, true
	}, VisionOptions{Open: stubOpen(src)})

	ctx, _ := workerContext(t, "vision")
	require.NoError(t, d.Hooks.Setup(ctx))
	defer d.Hooks.Teardown(ctx)

	for i := 0; i < 3; i++ {
		done, err := d.Hooks.Tick(ctx)
		require.NoError(t, err)
		require.False(t, done)
	}
	assert.Equal(t, 3, seen)
	assert.Equal(t, 3, out.Len())
}

func TestVisionDropsOldestOnBackpressure(t *testing.T) {
	src := &stubSource{frames: 10}
	// a slow consumer: capacity one, never drained
	out := NewQueue[int]("vision", 1)

	n := 0
	d := NewVision("vision", "127.0.0.1", out, func(ctx *Context, frame *video.Frame) (int, bool) {
		n++
		return n, true
	}, VisionOptions{Open: stubOpen(src)})

	ctx, _ := workerContext(t, "vision")
	require.NoError(t, d.Hooks.Setup(ctx))
	defer d.Hooks.Teardown(ctx)

	for i := 0; i < 10; i++ {
		_, err := d.Hooks.Tick(ctx)
		require.NoError(t, err)
	}

	// only the freshest product survives
	require.Equal(t, 1, out.Len())
	got, _ := out.TryGet()
	assert.Equal(t, 10, got)
}

func TestVisionSkipsUnemittedProducts(t *testing.T) {
	src := &stubSource{frames: 4}
	out := NewQueue[int]("vision", 8)

	n := 0
	d := NewVision("vision", "127.0.0.1", out, func(ctx *Context, frame *video.Frame) (int, bool) {
		n++
		return n, n%2 == 0
	}, VisionOptions{Open: stubOpen(src)})

	ctx, _ := workerContext(t, "vision")
	require.NoError(t, d.Hooks.Setup(ctx))
	defer d.Hooks.Teardown(ctx)

	for i := 0; i < 4; i++ {
		_, err := d.Hooks.Tick(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, out.Len())
}

func TestVisionStreamErrorEscalates(t *testing.T) {
	src := &stubSource{frames: 0}
	d := NewVision[int]("vision", "127.0.0.1", nil, func(ctx *Context, frame *video.Frame) (int, bool) {
		return 0, false
	}, VisionOptions{Open: stubOpen(src)})

	ctx, _ := workerContext(t, "vision")
	require.NoError(t, d.Hooks.Setup(ctx))
	defer d.Hooks.Teardown(ctx)

	_, err := d.Hooks.Tick(ctx)
	assert.ErrorIs(t, err, video.ErrStreamEnded)
}

func TestVisionCancellationEndsCleanly(t *testing.T) {
	src := &stubSource{frames: 0}
	d := NewVision[int]("vision", "127.0.0.1", nil, func(ctx *Context, frame *video.Frame) (int, bool) {
		return 0, false
	}, VisionOptions{Open: stubOpen(src)})

	ctx, cancel := workerContext(t, "vision")
	require.NoError(t, d.Hooks.Setup(ctx))
	defer d.Hooks.Teardown(ctx)

	cancel()
	done, err := d.Hooks.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestVisionSetupFailure(t *testing.T) {
	d := NewVision[int]("vision", "127.0.0.1", nil, func(ctx *Context, frame *video.Frame) (int, bool) {
		return 0, false
	}, VisionOptions{Open: func(ip string) (video.Source, error) {
		return nil, errors.New("no stream")
	}})

	ctx, _ := workerContext(t, "vision")
	assert.Error(t, d.Hooks.Setup(ctx))
}
