// Command canvas-bench runs terrain frames without a window: generation,
// both traversals, meshing and eviction over a perlin world, with the
// camera flying along +x.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mini-canvas/internal/config"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/profiling"
	"mini-canvas/internal/terrain"
	"mini-canvas/internal/world"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (defaults to $CANVAS_CONFIG)")
		frames      = flag.Int("frames", 600, "Frames to run")
		speed       = flag.Float64("speed", 0.5, "Camera blocks per frame along +x")
		columns     = flag.Int("columns", 8, "Section columns generated per frame")
		metricsAddr = flag.String("metrics", "", "Serve Prometheus /metrics on this address, e.g. :2112")
		report      = flag.Int("report", 100, "Log a frame summary every N frames")
		debug       = flag.Bool("debug", false, "Debug logging")
	)
	flag.Parse()

	if *debug {
		logging.SetLevel(logging.DEBUG)
	}
	if err := run(*configPath, *frames, float32(*speed), *columns, *metricsAddr, *report); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func run(configPath string, frames int, speed float32, columns int, metricsAddr string, report int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.Apply()

	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logging.Info("metrics on %s/metrics", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logging.Error("metrics server: %v", err)
			}
		}()
	}

	w := world.New(cfg.World)
	base, amp := config.TerrainShape()
	gen := world.NewGenerator(config.Seed(), base, amp, config.SeaLevel())
	r, err := terrain.NewRenderer(w, cfg, gen, reg)
	if err != nil {
		return err
	}
	defer r.Close()
	r.ColumnsPerFrame = columns

	camera := mgl32.Vec3{0, float32(float64(base) + amp + 8), 0}
	light := mgl32.Vec3{0.4, 1, 0.3}.Normalize()

	profiling.ResetRun()
	start := time.Now()
	var visible, shadow, scheduled, dropped, applied int
	for i := 1; i <= frames; i++ {
		profiling.ResetFrame()
		res, err := r.Frame(terrain.View{Camera: camera, LightVector: light})
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		visible += len(res.Visible)
		shadow += len(res.ShadowCasters)
		scheduled += res.Scheduled
		dropped += res.Dropped
		applied += res.Applied

		if report > 0 && i%report == 0 {
			logging.Info("frame %d at x=%.0f: visible %d, shadow %d, loaded %d, pending %d | %s",
				i, camera.X(), len(res.Visible), len(res.ShadowCasters), r.Storage().LoadedCount(), r.PendingJobs(), profiling.TopN(4))
		}
		camera[0] += speed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	profiling.ResetFrame()
	elapsed := time.Since(start)
	fmt.Printf("%d frames in %s (%.2f ms/frame)\n", frames, elapsed.Round(time.Millisecond), float64(elapsed.Microseconds())/1000/float64(frames))
	fmt.Printf("avg visible %.1f, avg shadow casters %.1f\n", float64(visible)/float64(frames), float64(shadow)/float64(frames))
	fmt.Printf("mesh jobs: %d scheduled, %d dropped, %d applied\n", scheduled, dropped, applied)
	fmt.Printf("per frame: %s\n", profiling.AverageTopN(8))
	return nil
}
