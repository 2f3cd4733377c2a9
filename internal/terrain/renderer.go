// Package terrain drives the per-frame work of the region renderer: world
// generation around the camera, visibility traversals, mesh scheduling and
// applying finished builds.
package terrain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"

	"mini-canvas/internal/config"
	"mini-canvas/internal/encoding"
	"mini-canvas/internal/encoding/vf"
	"mini-canvas/internal/fastregion"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/material"
	"mini-canvas/internal/meshing"
	"mini-canvas/internal/occlusion"
	"mini-canvas/internal/profiling"
	"mini-canvas/internal/region"
	"mini-canvas/internal/world"
)

// View is what one frame is rendered from.
type View struct {
	Camera mgl32.Vec3
	// ViewProjection is used for frustum culling when HasFrustum is set.
	ViewProjection mgl32.Mat4
	HasFrustum     bool
	// LightVector points toward the light. The zero vector skips the shadow
	// pass.
	LightVector mgl32.Vec3
}

// DrawRegion pairs a drawable region with its last applied mesh.
type DrawRegion struct {
	Region *region.Region
	Mesh   *meshing.Mesh
}

// FrameResult reports what a frame found and changed.
type FrameResult struct {
	Frame         int
	Visible       []DrawRegion
	ShadowCasters []DrawRegion
	// Animated holds the animation slots used by visible regions.
	Animated encoding.AnimationBits

	Generated int
	Evicted   int
	Scheduled int
	Dropped   int
	Applied   int
}

// Renderer owns the region storage, both traversals and the mesh pool.
// Frame must be called from a single goroutine.
type Renderer struct {
	world     *world.World
	generator world.TerrainGenerator
	cfg       config.Config

	storage *region.Storage
	camera  *occlusion.CameraTraversal
	shadow  *occlusion.ShadowTraversal
	metrics *Metrics

	materials *material.Registry
	indexer   *material.Indexer
	tables    *vf.Tables

	pool      *meshing.WorkerPool
	results   chan meshing.MeshResult
	pending   map[region.ID]int
	requeue   map[region.ID]bool
	meshes    map[region.ID]*meshing.Mesh
	nextToken int
	queueFull bool
	current   *FrameResult

	columns  [][2]int // generation offsets, nearest first
	lastSort mgl32.Vec3

	changeMu sync.Mutex
	changes  [][3]int

	frame       int
	maxDistance int

	// ColumnsPerFrame bounds how many section columns are generated per
	// frame.
	ColumnsPerFrame int
}

// NewRenderer wires a renderer to a world. gen may be nil when the world is
// filled by other means. Metrics are registered on reg when it is non-nil.
func NewRenderer(w *world.World, cfg config.Config, gen world.TerrainGenerator, reg prometheus.Registerer) (*Renderer, error) {
	if err := cfg.World.Validate(); err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("terrain metrics: %w", err)
	}

	ix := region.NewIndexer(cfg.World)
	storage := region.NewStorage(ix)
	ring := occlusion.NewRingMap(max(ix.Radius, ix.MaxYRegions))

	r := &Renderer{
		world:           w,
		generator:       gen,
		cfg:             cfg,
		storage:         storage,
		camera:          occlusion.NewCameraTraversal(storage, ring, cfg.Render.AdvancedCulling),
		shadow:          occlusion.NewShadowTraversal(storage),
		metrics:         metrics,
		materials:       material.NewRegistry(),
		indexer:         material.NewIndexer(),
		results:         make(chan meshing.MeshResult, cfg.Render.MeshQueue+cfg.Render.MeshWorkers),
		pending:         make(map[region.ID]int),
		requeue:         make(map[region.ID]bool),
		meshes:          make(map[region.ID]*meshing.Mesh),
		columns:         columnOffsets(ix.Radius),
		maxDistance:     cfg.World.MaxRenderDistance(),
		ColumnsPerFrame: 4,
	}
	if cfg.Render.VertexFetch {
		r.tables = vf.NewTables()
	}

	r.pool, err = meshing.NewWorkerPool(cfg.Render.MeshWorkers, cfg.Render.MeshQueue, meshing.Options{
		Materials:   r.materials,
		Indexer:     r.indexer,
		Tables:      r.tables,
		VertexFetch: cfg.Render.VertexFetch,
	})
	if err != nil {
		return nil, err
	}

	r.camera.OnVisit = r.schedule
	storage.OnClose(r.forget)
	w.OnBlockChanged(r.blockChanged)
	return r, nil
}

func columnOffsets(radius int) [][2]int {
	var out [][2]int
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz <= radius*radius {
				out = append(out, [2]int{dx, dz})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i][0]*out[i][0]+out[i][1]*out[i][1] < out[j][0]*out[j][0]+out[j][1]*out[j][1]
	})
	return out
}

// Storage exposes the region arena.
func (r *Renderer) Storage() *region.Storage { return r.storage }

// Metrics returns the renderer's instruments.
func (r *Renderer) Metrics() *Metrics { return r.metrics }

// Tables returns the vertex fetch side tables, or nil when vertex fetch is
// off.
func (r *Renderer) Tables() *vf.Tables { return r.tables }

// Format is the layout of every mesh the renderer produces.
func (r *Renderer) Format() encoding.Format {
	return encoding.SelectTerrainConfig(r.cfg.Render.VertexFetch).Format
}

// Mesh returns the last applied mesh of a region, or nil.
func (r *Renderer) Mesh(id region.ID) *meshing.Mesh { return r.meshes[id] }

// PendingJobs counts submitted builds not yet applied.
func (r *Renderer) PendingJobs() int { return len(r.pending) }

// Close stops the mesh workers and closes every region.
func (r *Renderer) Close() {
	r.pool.Shutdown()
	r.storage.Clear()
}

func (r *Renderer) blockChanged(x, y, z int) {
	r.changeMu.Lock()
	r.changes = append(r.changes, [3]int{x, y, z})
	r.changeMu.Unlock()
}

func (r *Renderer) forget(reg *region.Region) {
	delete(r.meshes, reg.ID())
	delete(r.pending, reg.ID())
	delete(r.requeue, reg.ID())
}

// Frame runs one frame of terrain work and returns the drawable regions.
// The returned slices are valid until the next call.
func (r *Renderer) Frame(view View) (*FrameResult, error) {
	defer profiling.Track("terrain.Frame")()
	r.frame++
	res := &FrameResult{Frame: r.frame}
	r.current = res
	r.queueFull = false

	// the ring map only holds the loaded radius
	distance := min(config.RenderDistance(), r.maxDistance)
	r.storage.SetRenderDistance(distance)
	r.storage.SetCamera(view.Camera)

	cx := int(math.Floor(float64(view.Camera[0]))) >> 4
	cz := int(math.Floor(float64(view.Camera[2]))) >> 4
	res.Generated = r.generate(cx, cz, distance)

	evict := distance + 2
	r.world.EvictFar(cx, cz, evict)
	res.Evicted = r.storage.EvictOutside(evict)
	r.metrics.EvictedRegions.Add(float64(res.Evicted))

	r.applyBlockChanges()
	r.drainResults()

	var frustum *occlusion.Frustum
	if view.HasFrustum {
		frustum = occlusion.NewFrustum(view.ViewProjection)
	}
	start := time.Now()
	visible := r.camera.Run(view.Camera, frustum)
	r.metrics.TraversalTime.WithLabelValues("camera").Observe(time.Since(start).Seconds())

	resort := view.Camera.Sub(r.lastSort).Len() >= 1
	if resort {
		r.lastSort = view.Camera
	}
	for _, reg := range visible {
		mesh := r.meshes[reg.ID()]
		if mesh == nil {
			continue
		}
		if resort && len(mesh.Translucent) > 0 && mesh.Format.HasPosition {
			if err := mesh.SortTranslucent(view.Camera); err != nil {
				return nil, fmt.Errorf("frame %d: %w", r.frame, err)
			}
		}
		for _, slot := range mesh.AnimatedSprites {
			res.Animated.Set(slot)
		}
		res.Visible = append(res.Visible, DrawRegion{Region: reg, Mesh: mesh})
	}

	if view.LightVector != (mgl32.Vec3{}) {
		start = time.Now()
		casters := r.shadow.Run(view.Camera, view.LightVector)
		r.metrics.TraversalTime.WithLabelValues("shadow").Observe(time.Since(start).Seconds())
		for _, reg := range casters {
			if mesh := r.meshes[reg.ID()]; mesh != nil {
				res.ShadowCasters = append(res.ShadowCasters, DrawRegion{Region: reg, Mesh: mesh})
			}
		}
	}

	r.metrics.VisibleRegions.WithLabelValues("camera").Set(float64(len(res.Visible)))
	r.metrics.VisibleRegions.WithLabelValues("shadow").Set(float64(len(res.ShadowCasters)))
	r.metrics.LoadedRegions.Set(float64(r.storage.LoadedCount()))
	r.metrics.PendingMeshJobs.Set(float64(len(r.pending)))
	r.current = nil
	return res, nil
}

// generate populates the nearest missing columns and dirties the regions
// next to them, whose border cache just changed.
func (r *Renderer) generate(cx, cz, distance int) int {
	if r.generator == nil {
		return 0
	}
	defer profiling.Track("terrain.generate")()

	done := 0
	for _, off := range r.columns {
		if done >= r.ColumnsPerFrame {
			break
		}
		if off[0]*off[0]+off[1]*off[1] > distance*distance {
			break
		}
		x, z := cx+off[0], cz+off[1]
		if r.world.Generated(x, z) {
			continue
		}
		r.world.Populate(r.generator, x, z)
		done++
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				r.dirtyColumn(x+dx, z+dz)
			}
		}
	}
	return done
}

func (r *Renderer) dirtyColumn(cx, cz int) {
	ix := r.storage.Indexer()
	for y := ix.BottomY(); y < ix.TopY(); y += config.RegionSize {
		if reg := r.storage.Region(cx*config.RegionSize, y, cz*config.RegionSize); reg != nil {
			r.markDirty(reg)
		}
	}
}

func (r *Renderer) markDirty(reg *region.Region) {
	reg.MarkDirty()
	if _, ok := r.pending[reg.ID()]; ok {
		r.requeue[reg.ID()] = true
	}
}

// applyBlockChanges dirties the region of every changed block, and the
// neighbors whose border holds it. Edge and corner neighbors count: their
// light and AO samples reach diagonally.
func (r *Renderer) applyBlockChanges() {
	r.changeMu.Lock()
	changes := r.changes
	r.changes = nil
	r.changeMu.Unlock()

	for _, c := range changes {
		x, y, z := c[0], c[1], c[2]
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					nx, ny, nz := x+dx, y+dy, z+dz
					if (dx != 0 || dy != 0 || dz != 0) && nx>>4 == x>>4 && ny>>4 == y>>4 && nz>>4 == z>>4 {
						continue
					}
					if reg := r.storage.Region(nx, ny, nz); reg != nil {
						r.markDirty(reg)
					}
				}
			}
		}
	}
}

// schedule submits a build for a dirty region reached by the camera flood.
func (r *Renderer) schedule(reg *region.Region) {
	if !reg.IsDirty() || r.queueFull {
		return
	}
	if _, ok := r.pending[reg.ID()]; ok {
		return
	}

	p := fastregion.Capture(r.world, reg.Origin.X, reg.Origin.Y, reg.Origin.Z)
	r.nextToken++
	job := meshing.MeshJob{Region: reg.ID(), Version: r.nextToken, Proto: p, ResultChan: r.results}
	if !r.pool.SubmitJob(job) {
		p.Release()
		r.queueFull = true
		r.metrics.MeshJobs.WithLabelValues("dropped").Inc()
		if r.current != nil {
			r.current.Dropped++
		}
		return
	}
	r.pending[reg.ID()] = r.nextToken
	r.metrics.MeshJobs.WithLabelValues("submitted").Inc()
	if r.current != nil {
		r.current.Scheduled++
	}
}

func (r *Renderer) drainResults() {
	for {
		select {
		case res := <-r.results:
			r.apply(res)
		default:
			return
		}
	}
}

// Flush waits until every submitted build has been applied.
func (r *Renderer) Flush(ctx context.Context) error {
	for len(r.pending) > 0 {
		select {
		case res := <-r.results:
			r.apply(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Renderer) apply(res meshing.MeshResult) {
	token, ok := r.pending[res.Region]
	if !ok || token != res.Version {
		r.metrics.MeshJobs.WithLabelValues("stale").Inc()
		return
	}
	delete(r.pending, res.Region)

	reg := r.storage.ByID(res.Region)
	if reg == nil || reg.IsClosed() {
		r.metrics.MeshJobs.WithLabelValues("stale").Inc()
		return
	}
	if res.Error != nil {
		delete(r.requeue, res.Region)
		r.metrics.MeshJobs.WithLabelValues("failed").Inc()
		logging.Error("build %s: %v", reg, res.Error)
		return
	}

	reg.SetBuild(res.Mesh.Build)
	if res.Mesh.Build.HasGeometry {
		// sorted against the last sort position until the camera moves again
		if len(res.Mesh.Translucent) > 0 && res.Mesh.Format.HasPosition {
			if err := res.Mesh.SortTranslucent(r.lastSort); err != nil {
				logging.Warn("sort %s: %v", reg, err)
			}
		}
		r.meshes[res.Region] = res.Mesh
	} else {
		delete(r.meshes, res.Region)
	}
	if r.requeue[res.Region] {
		delete(r.requeue, res.Region)
		reg.MarkDirty()
	}

	r.metrics.MeshJobs.WithLabelValues("completed").Inc()
	r.metrics.EncodedQuads.Add(float64(res.Mesh.QuadCount))
	if r.current != nil {
		r.current.Applied++
	}
}
