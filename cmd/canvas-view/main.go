// Command canvas-view opens a window on a generated world and flies a
// camera over it, drawing the regions the camera traversal finds visible.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/config"
	"mini-canvas/internal/graphics"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/profiling"
	"mini-canvas/internal/terrain"
	"mini-canvas/internal/world"
)

const (
	winWidth  = 1280
	winHeight = 720
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $CANVAS_CONFIG)")
	vsync := flag.Bool("vsync", true, "Wait for vertical sync")
	fps := flag.Int("fps", 0, "Frame limit when vsync is off, 0 for none")
	flag.Parse()

	if err := run(*configPath, *vsync, *fps); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func run(configPath string, vsync bool, fps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Render.VertexFetch {
		logging.Warn("vertex fetch is not drawable in the viewer, using the compact layout")
		cfg.Render.VertexFetch = false
	}
	cfg.Apply()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(vsync)
	if err != nil {
		return err
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	logging.Info("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	w := world.New(cfg.World)
	base, amp := config.TerrainShape()
	gen := world.NewGenerator(config.Seed(), base, amp, config.SeaLevel())
	r, err := terrain.NewRenderer(w, cfg, gen, nil)
	if err != nil {
		return err
	}
	defer r.Close()

	pass, err := graphics.NewTerrainPass(r.Format())
	if err != nil {
		return err
	}
	defer pass.Dispose()
	pass.Attach(r.Storage())

	cam := graphics.NewCamera(window.GetFramebufferSize())
	cam.Position = mgl32.Vec3{0, float32(gen.HeightAt(0, 0) + 12), 0}
	cam.Pitch = -20

	v := newViewer(window, cam, r, pass)
	if !vsync {
		v.limiter = newFPSLimiter(fps)
	}
	setupInputHandlers(window, v)
	v.loop()
	return nil
}

func setupWindow(vsync bool) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winWidth, winHeight, "mini-canvas", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}

// viewer is the per-window loop state.
type viewer struct {
	window *glfw.Window
	cam    *graphics.Camera
	r      *terrain.Renderer
	pass   *graphics.TerrainPass

	captured  bool
	firstLook bool
	lastX     float64
	lastY     float64
	wireframe bool
	shadows   bool
	limiter   *fpsLimiter

	frames           int
	lastFPSCheckTime time.Time
	lastTime         time.Time
}

func newViewer(window *glfw.Window, cam *graphics.Camera, r *terrain.Renderer, pass *graphics.TerrainPass) *viewer {
	return &viewer{
		window:           window,
		cam:              cam,
		r:                r,
		pass:             pass,
		captured:         true,
		firstLook:        true,
		shadows:          true,
		lastFPSCheckTime: time.Now(),
		lastTime:         time.Now(),
	}
}

func (v *viewer) loop() {
	for !v.window.ShouldClose() {
		if err := v.tick(); err != nil {
			logging.Error("frame: %v", err)
			return
		}
	}
}

func (v *viewer) tick() error {
	profiling.ResetFrame()
	now := time.Now()
	dt := float32(now.Sub(v.lastTime).Seconds())
	v.lastTime = now

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
	v.fly(dt)

	view := terrain.View{
		Camera:         v.cam.Position,
		ViewProjection: v.cam.ViewProjection(),
		HasFrustum:     true,
	}
	if v.shadows {
		view.LightVector = mgl32.Vec3{0.4, 1, 0.3}.Normalize()
	}
	res, err := v.r.Frame(view)
	if err != nil {
		return err
	}

	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	v.pass.Draw(v.cam, res.Visible)
	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	func() { defer profiling.Track("glfw.SwapBuffers")(); v.window.SwapBuffers() }()
	if v.limiter != nil {
		v.limiter.wait()
	}
	v.frames++

	if time.Since(v.lastFPSCheckTime) >= time.Second {
		logging.Info("FPS %d | visible %d, shadow %d, loaded %d, buffers %d, pending %d | %s",
			v.frames, len(res.Visible), len(res.ShadowCasters), v.r.Storage().LoadedCount(),
			v.pass.Buffers(), v.r.PendingJobs(), profiling.TopN(3))
		v.frames = 0
		v.lastFPSCheckTime = time.Now()
	}
	return nil
}
