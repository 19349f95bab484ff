package framework

import (
	"github.com/robofleet/go-robomaster/pkg/video"
)

// VisionFunc processes one decoded frame. Its product goes to the vision
// queue when emit is true; return emit false to skip a frame.
type VisionFunc[T any] func(ctx *Context, frame *video.Frame) (product T, emit bool)

// VisionOptions tunes NewVision.
type VisionOptions struct {
	// Open overrides the frame source; defaults to the GoCV decoder.
	Open video.OpenFunc
}

// NewVision builds the worker that pulls the robot's video stream and runs
// fn on every frame, one frame at a time. Products go to out with PutLatest:
// when the consumer is slow and out is full, the oldest product is dropped,
// keeping the queue fresh.
// Enable the stream first with Commander.Stream(true); out may be nil when
// fn works purely by side effect.
func NewVision[T any](name, ip string, out *Queue[T], fn VisionFunc[T], opts VisionOptions) Descriptor {
	open := opts.Open
	if open == nil {
		open = video.Open
	}
	var src video.Source

	return Descriptor{
		Name: name,
		Loop: true,
		Hooks: Hooks{
			Setup: func(ctx *Context) error {
				s, err := open(ip)
				if err != nil {
					return err
				}
				src = s
				ctx.Logger.Info("video stream open", "robot", ip)
				return nil
			},
			Tick: func(ctx *Context) (bool, error) {
				frame, err := src.Read()
				if err != nil {
					if ctx.Canceled() {
						return true, nil
					}
					return false, err
				}
				product, emit := fn(ctx, frame)
				if emit && out != nil {
					out.PutLatest(product)
				}
				return false, nil
			},
			Teardown: func(ctx *Context) {
				if src != nil {
					src.Close()
				}
			},
		},
	}
}
