package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mj1618/winsync/internal/config"
	"github.com/mj1618/winsync/internal/host"
	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/platform"
	"github.com/mj1618/winsync/internal/registry"
	"github.com/mj1618/winsync/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Run a window that joins the shared roster",
	Long: `Register a window in the shared roster and keep it reconciled once per frame
until interrupted or --duration elapses, then unregister it.

The window's geometry comes from --shape and, with --drift, moves every frame
(bouncing inside --bounds when given). What a renderer would consume is
streamed to stdout as JSONL regardless of --format:

  {"type":"joined",...}   the window registered
  {"type":"shape",...}    the local shape changed (easing=false means snap)
  {"type":"roster",...}   the set of window ids changed
  {"type":"left",...}     the window unregistered

Examples:
  winsync join --dir /tmp/roster --shape 0,0,800,600 --meta role=primary
  winsync join --dir /tmp/roster --shape 900,0,400,400 --drift 2,0 --bounds 0,0,1920,1080
  winsync join --config join.hcl --metrics-addr :9090`,
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().String("shape", "", "Window shape x,y,w,h in screen coordinates (default 0,0,800,600)")
	joinCmd.Flags().String("drift", "", "Move the window by dx,dy every frame")
	joinCmd.Flags().String("bounds", "", "Bounce a drifting window inside x,y,w,h")
	joinCmd.Flags().StringArray("meta", nil, "Metadata key=value (repeatable)")
	joinCmd.Flags().Int("fps", host.DefaultFPS, "Reconciliation ticks per second")
	joinCmd.Flags().Duration("duration", 0, "How long to stay joined (0 = until Ctrl+C)")
	joinCmd.Flags().String("metrics-addr", "", "Serve /metrics, /roster and /healthz on this address")
}

func applyJoinFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("shape") {
		v, _ := flags.GetString("shape")
		s, err := platform.ParseShape(v)
		if err != nil {
			return err
		}
		cfg.Shape = s
	}
	if flags.Changed("drift") {
		v, _ := flags.GetString("drift")
		d, err := platform.ParseDrift(v)
		if err != nil {
			return err
		}
		cfg.Drift = d
	}
	if flags.Changed("bounds") {
		v, _ := flags.GetString("bounds")
		b, err := platform.ParseShape(v)
		if err != nil {
			return fmt.Errorf("--bounds: %w", err)
		}
		cfg.Bounds = &b
	}
	if flags.Changed("meta") {
		pairs, _ := flags.GetStringArray("meta")
		kv, err := model.ParseMetaPairs(pairs)
		if err != nil {
			return err
		}
		merged := make(map[string]any, len(cfg.Metadata)+len(kv))
		for k, v := range cfg.Metadata {
			merged[k] = v
		}
		for k, v := range kv {
			merged[k] = v
		}
		cfg.Metadata = merged
	}
	if flags.Changed("fps") {
		cfg.FPS, _ = flags.GetInt("fps")
	}
	if flags.Changed("duration") {
		cfg.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	return nil
}

// eventWriter serializes JSONL events from the loop and callbacks.
type eventWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newEventWriter() *eventWriter {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return &eventWriter{enc: enc}
}

func (e *eventWriter) emit(eventType string, fields map[string]interface{}) {
	fields["type"] = eventType
	fields["ts"] = time.Now().Unix()
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(fields)
}

func runJoin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	cfg := activeConfig

	s, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	sampler, err := platform.NewSampler(platform.SamplerOptions{
		Shape:  cfg.Shape,
		Drift:  cfg.Drift,
		Bounds: cfg.Bounds,
	})
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg := registry.New(s, sampler,
		registry.WithKey(cfg.Key),
		registry.WithLogger(logger),
		registry.WithMetrics(registry.NewMetrics(promReg)),
	)

	events := newEventWriter()
	offset := host.NewOffset(host.DefaultFalloff)
	reg.SetShapeChangeCallback(func(easing bool) {
		shape := reg.Self().Shape
		offset.SetShape(shape, easing)
		events.emit("shape", map[string]interface{}{
			"id":     reg.ID(),
			"shape":  shape,
			"easing": easing,
		})
	})
	reg.SetRosterChangeCallback(func() {
		windows := reg.Windows()
		events.emit("roster", map[string]interface{}{
			"id":      reg.ID(),
			"count":   len(windows),
			"windows": windows,
		})
	})

	if err := reg.Init(cfg.Metadata); err != nil {
		return fmt.Errorf("join roster: %w", err)
	}
	events.emit("joined", map[string]interface{}{
		"id":    reg.ID(),
		"store": cfg.Store,
		"key":   cfg.Key,
		"shape": reg.Self().Shape,
	})

	ctx, cancel := timeoutContext(ctx, cfg.Duration.Seconds())
	defer cancel()

	if cfg.MetricsAddr != "" {
		router := server.NewDebugRouter(reg, promReg, logger)
		go func() {
			if err := server.ListenAndServe(ctx, cfg.MetricsAddr, router, logger); err != nil {
				logger.Error("debug server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	frames := host.Run(ctx, host.LoopConfig{
		Registry: reg,
		Wake:     reg.Changed(),
		Sampler:  sampler,
		Interval: host.FrameInterval(cfg.FPS),
		OnFrame: func(int) {
			offset.Step()
		},
		Logger: logger,
	})

	closeErr := reg.Close()
	if closeErr != nil {
		logger.Warn("could not unregister window", "id", reg.ID(), "error", closeErr)
	}
	final := offset.Current()
	events.emit("left", map[string]interface{}{
		"id":     reg.ID(),
		"frames": frames,
		"offset": map[string]float64{"x": final.X, "y": final.Y},
		"clean":  closeErr == nil,
	})
	return nil
}
