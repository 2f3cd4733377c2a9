package meshing

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-canvas/internal/config"
	"mini-canvas/internal/encoding"
	"mini-canvas/internal/encoding/vf"
	"mini-canvas/internal/fastregion"
	"mini-canvas/internal/material"
	"mini-canvas/internal/region"
	"mini-canvas/internal/world"
)

func testWorld() *world.World {
	return world.New(config.WorldConfig{BottomY: 0, Height: 64, MaxLoadedChunkRadius: 4})
}

func testOptions() Options {
	return Options{Materials: material.NewRegistry()}
}

func buildRegion(t *testing.T, w *world.World, opts Options, ox, oy, oz int) *Mesh {
	t.Helper()
	m, err := NewMesher("test", opts)
	require.NoError(t, err)
	s := fastregion.New()
	s.Prepare(fastregion.Capture(w, ox, oy, oz))
	mesh, err := m.Build(s)
	require.NoError(t, err)
	return mesh
}

func TestSingleBlockMesh(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)

	if mesh.QuadCount != 6 {
		t.Fatalf("single block: got %d quads, want %d", mesh.QuadCount, 6)
	}
	if len(mesh.Solid) != 6*encoding.CompactMaterial.QuadStrideInts {
		t.Fatalf("single block: got %d words, want %d", len(mesh.Solid), 6*32)
	}
	for f := region.Face(0); f < region.FaceCount; f++ {
		assert.Equal(t, 4, mesh.Buckets[f].VertexCount, "face %s", f)
		assert.Equal(t, int(f)*4, mesh.Buckets[f].VertexStart, "face %s", f)
	}
	assert.Zero(t, mesh.Buckets[encoding.FaceUnassigned].VertexCount)
	assert.True(t, mesh.Build.HasGeometry)
	assert.True(t, mesh.Build.CastsShadow)
	assert.Empty(t, mesh.Translucent)
}

func TestFaceWindingPointsOut(t *testing.T) {
	for f := region.Face(0); f < region.FaceCount; f++ {
		var q encoding.Quad
		q.Reset()
		for i, c := range faceCorners[f] {
			q.Pos[i][0], q.Pos[i][1], q.Pos[i][2] = float32(c[0]), float32(c[1]), float32(c[2])
		}
		assert.Equal(t, f, region.FaceFromNormal(q.FaceNormal()), "face %s", f)
		assert.Equal(t, f, q.EffectiveFace(), "face %s", f)
	}
}

func TestTwoBlocksSeparated(t *testing.T) {
	w := testWorld()
	w.SetBlock(0, 0, 0, world.Stone)
	w.SetBlock(2, 0, 0, world.Stone)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)
	if mesh.QuadCount != 12 {
		t.Fatalf("two separated blocks: got %d quads, want %d", mesh.QuadCount, 12)
	}
}

func TestTwoBlocksTouching(t *testing.T) {
	w := testWorld()
	w.SetBlock(0, 0, 0, world.Stone)
	w.SetBlock(1, 0, 0, world.Stone)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)
	// the shared faces are hidden, nothing is merged
	if mesh.QuadCount != 10 {
		t.Fatalf("two touching blocks: got %d quads, want %d", mesh.QuadCount, 10)
	}
	assert.Equal(t, 1, mesh.Buckets[region.East].VertexCount/4)
	assert.Equal(t, 1, mesh.Buckets[region.West].VertexCount/4)
}

func TestCrossRegionFaceCulling(t *testing.T) {
	w := testWorld()
	w.SetBlock(world.SectionSize-1, 0, 0, world.Stone)
	w.SetBlock(world.SectionSize, 0, 0, world.Stone)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)
	if mesh.QuadCount != 5 {
		t.Fatalf("cross-region culling: got %d quads, want %d", mesh.QuadCount, 5)
	}
	assert.Zero(t, mesh.Buckets[region.East].VertexCount)
}

func TestTranslucentBlocks(t *testing.T) {
	w := testWorld()
	w.SetBlock(3, 3, 3, world.Water)
	w.SetBlock(4, 3, 3, world.Water)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)

	assert.Equal(t, 10, mesh.QuadCount, "faces between water blocks are hidden")
	assert.Empty(t, mesh.Solid)
	assert.Len(t, mesh.Translucent, 10*32)
	assert.True(t, mesh.Build.HasGeometry)
	assert.False(t, mesh.Build.CastsShadow)
	assert.Equal(t, []int{0}, mesh.AnimatedSprites)
}

func TestCutoutNeighborsKeepFaces(t *testing.T) {
	w := testWorld()
	w.SetBlock(3, 3, 3, world.Stone)
	w.SetBlock(4, 3, 3, world.Glass)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)
	// stone keeps its east face behind glass, glass loses its west face
	assert.Equal(t, 11, mesh.QuadCount)
	assert.Equal(t, 2, mesh.Buckets[region.East].VertexCount/4)
	assert.Equal(t, 1, mesh.Buckets[region.West].VertexCount/4)
}

func TestVertexLightAndAO(t *testing.T) {
	w := testWorld()
	w.SetBlock(5, 5, 5, world.Stone)
	w.SetBlock(6, 6, 5, world.Stone)
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)

	stride := encoding.CompactMaterial.VertexStrideInts
	up := mesh.Buckets[region.Up].VertexStart * stride
	ao := func(v int) uint32 { return mesh.Solid[up+v*stride+6] >> 24 }
	light := func(v int) uint32 { return mesh.Solid[up+v*stride+5] & 0xFFFF }

	// corners toward x+1 touch the raised block
	assert.Equal(t, uint32(255), ao(0))
	assert.Equal(t, uint32(255), ao(1))
	assert.Equal(t, uint32(204), ao(2))
	assert.Equal(t, uint32(204), ao(3))

	for v := 0; v < 4; v++ {
		assert.Equal(t, uint32(0xF0<<8), light(v), "vertex %d sky", v)
	}
}

func TestEmissiveBlockMaterial(t *testing.T) {
	opts := testOptions()
	opts.Indexer = material.NewIndexer()
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Glowstone)
	w.SetBlock(5, 1, 1, world.Stone)
	mesh := buildRegion(t, w, opts, 0, 0, 0)

	require.Equal(t, 12, mesh.QuadCount)
	glow := mesh.Solid[5] >> 16
	stone := mesh.Solid[encoding.CompactMaterial.QuadStrideInts+5] >> 16
	assert.NotEqual(t, glow, stone)
	assert.Equal(t, 2, opts.Indexer.Len())
}

func TestRegionConnectivity(t *testing.T) {
	w := testWorld()
	for y := 0; y < world.SectionSize; y++ {
		for z := 0; z < world.SectionSize; z++ {
			w.SetBlock(8, y, z, world.Stone)
		}
	}
	mesh := buildRegion(t, w, testOptions(), 0, 0, 0)

	open := region.OpenFacesFlag(mesh.Build.OcclusionFlags, region.West.Flag())
	assert.Zero(t, open&region.East.Flag(), "a full wall splits west from east")
	assert.NotZero(t, open&region.Up.Flag())
	assert.NotZero(t, open&region.West.Flag())
}

func TestVertexFetchMesh(t *testing.T) {
	opts := testOptions()
	opts.VertexFetch = true
	_, err := NewMesher("vf", opts)
	assert.Error(t, err, "vertex fetch without tables")

	opts.Tables = vf.NewTables()
	w := testWorld()
	w.SetBlock(1, 2, 3, world.Stone)
	w.SetBlock(9, 2, 3, world.Stone)
	mesh := buildRegion(t, w, opts, 0, 0, 0)

	require.Equal(t, 12, mesh.QuadCount)
	assert.Len(t, mesh.Solid, 12*encoding.VFMaterial.QuadStrideInts)
	// block-relative positions share one vertex entry per face
	assert.Equal(t, 6, opts.Tables.Vertex.Len())
	assert.Equal(t, encoding.PackRelativeBlockPos(1, 2, 3), mesh.Solid[0]&0xFFF)
}

func TestMissingRegistry(t *testing.T) {
	_, err := NewMesher("bare", Options{})
	assert.Error(t, err)
}

func TestWorkerPool(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)

	pool, err := NewWorkerPool(2, 4, testOptions())
	require.NoError(t, err)
	defer pool.Shutdown()

	results := make(chan MeshResult, 2)
	require.True(t, pool.SubmitJob(MeshJob{Region: 7, Version: 3, Proto: fastregion.Capture(w, 0, 0, 0), ResultChan: results}))
	pool.SubmitJobBlocking(MeshJob{Region: 8, Version: 1, Proto: fastregion.Capture(w, 0, 32, 0), ResultChan: results})

	got := map[region.ID]MeshResult{}
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.Error)
		got[r.Region] = r
	}

	assert.Equal(t, 3, got[7].Version)
	assert.Equal(t, 6, got[7].Mesh.QuadCount)
	assert.False(t, got[8].Mesh.Build.HasGeometry)
	assert.Equal(t, region.FullyOpen, got[8].Mesh.Build.OcclusionFlags)
	assert.Equal(t, 32, got[8].Mesh.OriginY)
}

func TestWorkerPoolShutdownTwice(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)

	pool, err := NewWorkerPool(1, 4, testOptions())
	require.NoError(t, err)

	// nobody reads results, so the worker blocks and later jobs stay queued
	results := make(chan MeshResult)
	for i := 0; i < 3; i++ {
		pool.SubmitJob(MeshJob{Region: region.ID(i), Proto: fastregion.Capture(w, 0, 0, 0), ResultChan: results})
	}

	assert.NotPanics(t, pool.Shutdown)
	assert.NotPanics(t, pool.Shutdown)
	assert.Equal(t, 0, pool.GetQueueLength())

	proto := fastregion.Capture(w, 0, 0, 0)
	defer proto.Release()
	assert.False(t, pool.SubmitJob(MeshJob{Region: 9, Proto: proto, ResultChan: results}))
	assert.NotPanics(t, func() {
		pool.SubmitJobBlocking(MeshJob{Region: 9, Proto: proto, ResultChan: results})
	})
	assert.Equal(t, 0, pool.GetQueueLength())
}

func TestWorkerPoolRejectsNoWorkers(t *testing.T) {
	_, err := NewWorkerPool(0, 1, testOptions())
	assert.Error(t, err)
}

func TestBuildAll(t *testing.T) {
	w := testWorld()
	w.SetBlock(1, 1, 1, world.Stone)
	w.SetBlock(17, 1, 1, world.Stone)
	w.SetBlock(18, 1, 1, world.Stone)

	protos := []*fastregion.Proto{
		fastregion.Capture(w, 0, 0, 0),
		fastregion.Capture(w, 16, 0, 0),
		fastregion.Capture(w, 32, 0, 0),
	}
	meshes, err := BuildAll(context.Background(), protos, 2, testOptions())
	require.NoError(t, err)
	require.Len(t, meshes, 3)

	assert.Equal(t, 6, meshes[0].QuadCount)
	assert.Equal(t, 10, meshes[1].QuadCount)
	assert.Equal(t, 16, meshes[1].OriginX)
	assert.Zero(t, meshes[2].QuadCount)
}

func TestBuildAllCancelled(t *testing.T) {
	w := testWorld()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildAll(ctx, []*fastregion.Proto{fastregion.Capture(w, 0, 0, 0)}, 1, testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkMesherBuild(b *testing.B) {
	w := testWorld()
	gen := world.NewGenerator(1, 8, 6, 6)
	w.Populate(gen, 0, 0)

	m, err := NewMesher("bench", testOptions())
	if err != nil {
		b.Fatal(err)
	}
	s := fastregion.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Prepare(fastregion.Capture(w, 0, 0, 0))
		if _, err := m.Build(s); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSortTranslucent(t *testing.T) {
	w := testWorld()
	w.SetBlock(16+2, 2, 2, world.Water)
	w.SetBlock(16+2, 2, 10, world.Water)
	mesh := buildRegion(t, w, testOptions(), 16, 0, 0)
	require.Equal(t, 12, mesh.QuadCount)

	require.NoError(t, mesh.SortTranslucent(mgl32.Vec3{16 + 2.5, 2.5, 40}))
	firstZ := math.Float32frombits(mesh.Translucent[2])
	lastZ := math.Float32frombits(mesh.Translucent[len(mesh.Translucent)-32+2])
	assert.Less(t, firstZ, float32(5), "the far block is drawn first")
	assert.Greater(t, lastZ, float32(5))

	vfOpts := testOptions()
	vfOpts.VertexFetch = true
	vfOpts.Tables = vf.NewTables()
	vfMesh := buildRegion(t, w, vfOpts, 16, 0, 0)
	assert.ErrorIs(t, vfMesh.SortTranslucent(mgl32.Vec3{}), encoding.ErrUnsupported)
}
