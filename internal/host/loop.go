package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/mj1618/winsync/internal/platform"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

// Ticker is the registry surface driven once per frame.
type Ticker interface {
	Update()
}

// LoopConfig configures Run.
type LoopConfig struct {
	Registry Ticker
	// Sampler is stepped before each tick when it implements platform.Stepper.
	Sampler platform.ShapeSampler
	// Interval between frames. Zero means DefaultFPS.
	Interval time.Duration
	// Wake, if set, triggers an extra Update between frames. The sampler is
	// not stepped and no frame is counted.
	Wake <-chan struct{}
	// OnFrame, if set, runs after each tick with the frame number.
	OnFrame func(frame int)
	Logger  *slog.Logger
}

// FrameInterval converts a frame rate into a ticker interval.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Run ticks the registry until ctx is done and returns the number of frames
// run. Cancellation is the normal way to stop, so it is not an error.
func Run(ctx context.Context, cfg LoopConfig) int {
	interval := cfg.Interval
	if interval <= 0 {
		interval = FrameInterval(DefaultFPS)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stepper, _ := cfg.Sampler.(platform.Stepper)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("host loop started", "interval", interval)
	frames := 0
	for {
		select {
		case <-ctx.Done():
			logger.Debug("host loop stopped", "frames", frames)
			return frames
		case <-cfg.Wake:
			cfg.Registry.Update()
			continue
		case <-ticker.C:
		}
		if stepper != nil {
			stepper.Step()
		}
		cfg.Registry.Update()
		frames++
		if cfg.OnFrame != nil {
			cfg.OnFrame(frames)
		}
	}
}
