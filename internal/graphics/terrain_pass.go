package graphics

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"mini-canvas/internal/encoding"
	"mini-canvas/internal/profiling"
	"mini-canvas/internal/region"
	"mini-canvas/internal/terrain"
	"mini-canvas/internal/world"
)

var (
	//go:embed shaders/terrain.vert
	terrainVert string
	//go:embed shaders/terrain.frag
	terrainFrag string
)

// maxRegionQuads bounds the quads one region can hold, every face of every
// block.
const maxRegionQuads = world.SectionSize * world.SectionSize * world.SectionSize * region.FaceCount

// Buffers of regions that were not drawn for this many frames are freed.
const staleBufferFrames = 600

// TerrainPass draws the regions a terrain frame found visible.
type TerrainPass struct {
	shader   *Shader
	pointers []AttribPointer
	ebo      uint32
	buffers  map[region.ID]*RegionBuffer
	closed   []region.ID
	frame    int

	// Daylight scales sky light, 0 to 1.
	Daylight float32
}

// NewTerrainPass compiles the terrain program for a positioned vertex
// format. It must be called with a current GL context.
func NewTerrainPass(format encoding.Format) (*TerrainPass, error) {
	if !format.HasPosition {
		return nil, fmt.Errorf("graphics: %s vertices need the fetch pipeline, which is not drawable here", format.Name)
	}
	pointers, err := Pointers(format)
	if err != nil {
		return nil, err
	}
	shader, err := NewShader(terrainVert, terrainFrag)
	if err != nil {
		return nil, err
	}

	p := &TerrainPass{
		shader:   shader,
		pointers: pointers,
		buffers:  make(map[region.ID]*RegionBuffer),
		Daylight: 1,
	}
	indices := QuadIndices(maxRegionQuads)
	gl.GenBuffers(1, &p.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, p.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	return p, nil
}

// Attach frees a region's buffers on the next draw after it is closed.
func (p *TerrainPass) Attach(s *region.Storage) {
	s.OnClose(func(r *region.Region) {
		p.closed = append(p.closed, r.ID())
	})
}

// Buffers is the number of regions with GPU buffers.
func (p *TerrainPass) Buffers() int { return len(p.buffers) }

// Draw renders the visible regions: solid buckets near to far, then
// translucent quads far to near.
func (p *TerrainPass) Draw(cam *Camera, visible []terrain.DrawRegion) {
	defer profiling.Track("graphics.terrain.draw")()
	p.frame++
	for _, id := range p.closed {
		if b := p.buffers[id]; b != nil {
			b.delete()
			delete(p.buffers, id)
		}
	}
	p.closed = p.closed[:0]

	// Positions are drawn relative to the camera; the view matrix has no
	// translation.
	view := mgl32.LookAtV(mgl32.Vec3{}, cam.Front(), mgl32.Vec3{0, 1, 0})
	viewProj := cam.ProjectionMatrix().Mul4(view)

	p.shader.Use()
	p.shader.SetMatrix4("u_view_proj", &viewProj[0])
	p.shader.SetFloat("u_daylight", p.Daylight)
	p.shader.SetFloat("u_alpha", 1)

	drawn := make([]*RegionBuffer, 0, len(visible))
	for _, d := range visible {
		if d.Mesh == nil {
			continue
		}
		id := d.Region.ID()
		b := p.buffers[id]
		if b == nil {
			b = newRegionBuffer(p.pointers, p.ebo)
			p.buffers[id] = b
		}
		b.sync(d.Mesh)
		b.lastSeen = p.frame
		drawn = append(drawn, b)

		p.setOrigin(b, cam.Position)
		faces := VisibleFaces(b.origin, world.SectionSize, cam.Position)
		for f, bucket := range b.buckets {
			if faces[f] {
				b.solid.draw(bucket.VertexStart, bucket.VertexCount)
			}
		}
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	p.shader.SetFloat("u_alpha", 0.75)
	for i := len(drawn) - 1; i >= 0; i-- {
		b := drawn[i]
		if b.translucent.vertices == 0 {
			continue
		}
		p.setOrigin(b, cam.Position)
		b.translucent.draw(0, b.translucent.vertices)
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)

	if p.frame%staleBufferFrames == 0 {
		for id, b := range p.buffers {
			if p.frame-b.lastSeen >= staleBufferFrames {
				b.delete()
				delete(p.buffers, id)
			}
		}
	}
}

func (p *TerrainPass) setOrigin(b *RegionBuffer, camera mgl32.Vec3) {
	p.shader.SetVector3("u_origin",
		float32(b.origin[0])-camera.X(),
		float32(b.origin[1])-camera.Y(),
		float32(b.origin[2])-camera.Z())
}

// Dispose frees every buffer and the program.
func (p *TerrainPass) Dispose() {
	for id, b := range p.buffers {
		b.delete()
		delete(p.buffers, id)
	}
	gl.DeleteBuffers(1, &p.ebo)
	p.shader.Delete()
}
