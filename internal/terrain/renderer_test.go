package terrain

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/config"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/meshing"
	"mini-canvas/internal/world"
)

const groundHeight = 5

func testConfig() config.Config {
	cfg := config.Default()
	cfg.World = config.WorldConfig{BottomY: 0, Height: 64, MaxLoadedChunkRadius: 4}
	cfg.Render.MeshWorkers = 2
	cfg.Render.MeshQueue = 128
	return cfg
}

func newTestRenderer(t *testing.T, reg prometheus.Registerer) (*Renderer, *world.World) {
	t.Helper()
	prev := config.RenderDistance()
	config.SetRenderDistance(2)
	t.Cleanup(func() { config.SetRenderDistance(prev) })

	cfg := testConfig()
	w := world.New(cfg.World)
	r, err := NewRenderer(w, cfg, world.NewFlatGenerator(groundHeight), reg)
	require.NoError(t, err)
	r.ColumnsPerFrame = 64
	t.Cleanup(r.Close)
	return r, w
}

func flush(t *testing.T, r *Renderer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Flush(ctx))
	assert.Zero(t, r.PendingJobs())
}

var overhead = View{Camera: mgl32.Vec3{8, 20, 8}}

// settle runs frames until nothing is scheduled.
func settle(t *testing.T, r *Renderer, v View) *FrameResult {
	t.Helper()
	for i := 0; i < 8; i++ {
		res, err := r.Frame(v)
		require.NoError(t, err)
		if res.Scheduled == 0 && r.PendingJobs() == 0 {
			return res
		}
		flush(t, r)
	}
	t.Fatalf("frames did not settle")
	return nil
}

// columns within horizontal radius 2 of the camera column
const columnsInRadius2 = 13

func TestFrameBuildsVisibleRegions(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	first, err := r.Frame(overhead)
	require.NoError(t, err)
	assert.Equal(t, columnsInRadius2, first.Generated)
	assert.Empty(t, first.Visible, "nothing has been built yet")
	assert.Positive(t, first.Scheduled)

	flush(t, r)
	res := settle(t, r, overhead)
	require.Len(t, res.Visible, columnsInRadius2)
	for i, d := range res.Visible {
		assert.Zero(t, d.Region.Origin.Y, "only the ground region has geometry")
		assert.True(t, d.Region.Build().HasGeometry)
		assert.Positive(t, d.Mesh.QuadCount)
		assert.False(t, d.Region.IsDirty())
		if i > 0 {
			assert.LessOrEqual(t, res.Visible[i-1].Region.SquaredCameraChunkDistance(), d.Region.SquaredCameraChunkDistance())
		}
	}
}

func TestRenderDistanceLimitedByLoadedRadius(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	config.SetRenderDistance(12)

	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })

	first, err := r.Frame(overhead)
	require.NoError(t, err)
	assert.Equal(t, columnsInRadius2, first.Generated)

	flush(t, r)
	res := settle(t, r, overhead)
	require.Len(t, res.Visible, columnsInRadius2)
	for _, d := range res.Visible {
		assert.LessOrEqual(t, d.Region.HorizontalSquaredDistance(), 2*2)
	}
	assert.NotContains(t, buf.String(), "overrun")
}

func TestCloseTwice(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	settle(t, r, overhead)
	r.Close()
	assert.NotPanics(t, r.Close)
}

func TestBlockChangeRebuildsRegion(t *testing.T) {
	r, w := newTestRenderer(t, nil)
	settle(t, r, overhead)

	ground := r.Storage().Region(8, 0, 8)
	require.NotNil(t, ground)
	before := r.Mesh(ground.ID()).QuadCount
	version := ground.Build().Version

	require.True(t, w.SetBlock(8, groundHeight+1, 8, world.Stone))
	res, err := r.Frame(overhead)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scheduled)

	flush(t, r)
	assert.Greater(t, r.Mesh(ground.ID()).QuadCount, before)
	assert.Equal(t, version+1, ground.Build().Version)
}

func TestBorderChangeDirtiesNeighbor(t *testing.T) {
	r, w := newTestRenderer(t, nil)
	settle(t, r, overhead)

	require.True(t, w.SetBlock(16, groundHeight+1, 8, world.Stone))
	res, err := r.Frame(overhead)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scheduled, "the block's region and the region holding it in its border")
}

func TestChangeWhilePendingRequeues(t *testing.T) {
	r, w := newTestRenderer(t, nil)
	settle(t, r, overhead)

	w.SetBlock(8, groundHeight+1, 8, world.Stone)
	_, err := r.Frame(overhead)
	require.NoError(t, err)
	require.Equal(t, 1, r.PendingJobs())

	// changed again before the first build is applied
	w.SetBlock(9, groundHeight+1, 8, world.Stone)
	r.applyBlockChanges()
	flush(t, r)

	ground := r.Storage().Region(8, 0, 8)
	assert.True(t, ground.IsDirty(), "the applied build predates the second change")
	res, err := r.Frame(overhead)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scheduled)
}

func TestShadowCasters(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	settle(t, r, overhead)

	v := overhead
	v.LightVector = mgl32.Vec3{0.3, 1, 0.2}
	res, err := r.Frame(v)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ShadowCasters)
	for _, d := range res.ShadowCasters {
		assert.True(t, d.Region.Build().CastsShadow)
	}
}

func TestAnimatedSpritesReported(t *testing.T) {
	r, w := newTestRenderer(t, nil)
	settle(t, r, overhead)

	w.SetBlock(4, groundHeight+1, 4, world.Water)
	_, err := r.Frame(overhead)
	require.NoError(t, err)
	flush(t, r)
	res := settle(t, r, overhead)
	assert.True(t, res.Animated.Has(0))
}

func TestEvictsFarRegions(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	settle(t, r, overhead)
	loaded := r.Storage().LoadedCount()
	require.Positive(t, loaded)

	far := View{Camera: mgl32.Vec3{16 * 40, 20, 8}}
	res, err := r.Frame(far)
	require.NoError(t, err)
	assert.Equal(t, loaded, res.Evicted)
}

func TestStaleResultsAreDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, _ := newTestRenderer(t, reg)

	r.apply(meshing.MeshResult{Region: 3, Version: 99, Mesh: &meshing.Mesh{}})
	assert.Equal(t, 1.0, gathered(t, reg, "canvas_terrain_mesh_jobs_total", "stale"))
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, _ := newTestRenderer(t, reg)
	settle(t, r, overhead)

	assert.Positive(t, gathered(t, reg, "canvas_terrain_mesh_jobs_total", "submitted"))
	assert.Positive(t, gathered(t, reg, "canvas_terrain_encoded_quads_total", ""))
	assert.Equal(t, float64(columnsInRadius2), gathered(t, reg, "canvas_terrain_visible_regions", "camera"))
	assert.Equal(t, float64(r.Storage().LoadedCount()), gathered(t, reg, "canvas_terrain_loaded_regions", ""))

	_, err := NewMetrics(reg)
	assert.Error(t, err, "registering twice")
}

// gathered reads a counter or gauge value, matching the single label value
// when label is non-empty.
func gathered(t *testing.T, g prometheus.Gatherer, name, label string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestInvalidWorldConfig(t *testing.T) {
	cfg := testConfig()
	cfg.World.Height = 10
	_, err := NewRenderer(world.New(cfg.World), cfg, nil, nil)
	assert.Error(t, err)
}
