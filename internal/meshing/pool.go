package meshing

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"mini-canvas/internal/config"
	"mini-canvas/internal/fastregion"
	"mini-canvas/internal/logging"
	"mini-canvas/internal/region"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	Region region.ID
	// Version is echoed in the result so stale builds can be dropped.
	Version int
	Proto   *fastregion.Proto
	// Result channel - will be sent the result when done
	ResultChan chan<- MeshResult
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Region  region.ID
	Version int
	Mesh    *Mesh
	Error   error
}

// WorkerPool manages goroutines for mesh generation
type WorkerPool struct {
	jobQueue chan MeshJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorkerPool creates a new mesh worker pool. Every worker owns a
// snapshot and a mesher built from opts.
func NewWorkerPool(workers int, queueSize int, opts Options) (*WorkerPool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("mesh pool: need at least one worker, got %d", workers)
	}

	meshers := make([]*Mesher, workers)
	for i := range meshers {
		m, err := NewMesher(fmt.Sprintf("mesh-worker-%d", i), opts)
		if err != nil {
			return nil, err
		}
		meshers[i] = m
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobQueue: make(chan MeshJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Start worker goroutines
	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i, meshers[i])
	}

	if config.LifecycleDebug() {
		logging.Info("Lifecycle Event: mesh pool started with %d workers, queue %d", workers, queueSize)
	}
	return pool, nil
}

// SubmitJob submits a mesh generation job to the pool
// Returns true if job was submitted successfully, false if queue is full
// or the pool is shut down
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false // Queue is full
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued. It returns
// without queuing once the pool is shut down.
func (p *WorkerPool) SubmitJobBlocking(job MeshJob) {
	if p.ctx.Err() != nil {
		return
	}
	select {
	case p.jobQueue <- job:
	case <-p.ctx.Done():
	}
}

// worker is the worker goroutine that processes mesh jobs
func (p *WorkerPool) worker(id int, m *Mesher) {
	defer p.wg.Done()
	defer m.Close()

	snapshot := fastregion.New()
	for {
		select {
		case job := <-p.jobQueue:
			result := MeshResult{Region: job.Region, Version: job.Version}
			result.Mesh, result.Error = buildProto(m, snapshot, job.Proto)
			if result.Error != nil {
				logging.Warn("mesh worker %d: region %d: %v", id, job.Region, result.Error)
			}

			// Send result back
			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// buildProto prepares the snapshot from a proto and meshes it. Empty
// regions skip meshing and come back fully open.
func buildProto(m *Mesher, s *fastregion.Snapshot, p *fastregion.Proto) (*Mesh, error) {
	if p.IsEmpty() {
		p.Release()
		return &Mesh{
			OriginX: p.OriginX,
			OriginY: p.OriginY,
			OriginZ: p.OriginZ,
			Format:  m.config.Format,
			Build:   region.BuildState{OcclusionFlags: region.FullyOpen},
		}, nil
	}
	s.Prepare(p)
	return m.Build(s)
}

// Shutdown gracefully shuts down the worker pool. Jobs still queued are
// dropped and their protos released. Calling it again is a no-op.
func (p *WorkerPool) Shutdown() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		dropped := p.drain()
		if config.LifecycleDebug() {
			logging.Info("Lifecycle Event: mesh pool stopped, %d queued jobs dropped", dropped)
		}
	})
}

func (p *WorkerPool) drain() int {
	n := 0
	for {
		select {
		case job := <-p.jobQueue:
			if job.Proto != nil {
				job.Proto.Release()
			}
			n++
		default:
			return n
		}
	}
}

// GetQueueLength returns the current number of jobs in the queue
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}

// BuildAll meshes protos with at most limit builds in flight and returns
// the meshes in input order. The first error cancels the rest.
func BuildAll(ctx context.Context, protos []*fastregion.Proto, limit int, opts Options) ([]*Mesh, error) {
	if limit < 1 {
		limit = 1
	}

	type scratch struct {
		mesher   *Mesher
		snapshot *fastregion.Snapshot
	}
	idle := make(chan scratch, limit)
	defer func() {
		close(idle)
		for sc := range idle {
			sc.mesher.Close()
		}
	}()
	for i := 0; i < limit; i++ {
		m, err := NewMesher(fmt.Sprintf("mesh-batch-%d", i), opts)
		if err != nil {
			return nil, err
		}
		idle <- scratch{mesher: m, snapshot: fastregion.New()}
	}

	meshes := make([]*Mesh, len(protos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range protos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				p.Release()
				return err
			}
			sc := <-idle
			defer func() { idle <- sc }()

			mesh, err := buildProto(sc.mesher, sc.snapshot, p)
			if err != nil {
				return fmt.Errorf("build region at (%d, %d, %d): %w", p.OriginX, p.OriginY, p.OriginZ, err)
			}
			meshes[i] = mesh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}
