package loader

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

type prefetchResult struct {
	vertices []Vertex
	indices  []uint32
	image    Image
	err      error
}

// Prefetcher decodes asset files on a worker pool ahead of their first use.
// Results are handed to a Loader exactly once; only the decode runs off the calling goroutine.
type Prefetcher struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	pool    worker.DynamicWorkerPool
	workers int
	queue   int
	results map[string]prefetchResult
	pending map[string]struct{}
	dropped map[string]struct{}
	nextID  int
	log     *zap.Logger
}

// NewPrefetcher creates a Prefetcher backed by a dynamic worker pool.
//
// Parameters:
//   - options: a variadic list of PrefetcherBuilderOption functions
//
// Returns:
//   - *Prefetcher: the new prefetcher
func NewPrefetcher(options ...PrefetcherBuilderOption) *Prefetcher {
	p := &Prefetcher{
		workers: 4,
		queue:   256,
		results: make(map[string]prefetchResult),
		pending: make(map[string]struct{}),
		dropped: make(map[string]struct{}),
		log:     zap.NewNop(),
	}
	for _, option := range options {
		option(p)
	}
	p.pool = worker.NewDynamicWorkerPool(p.workers, p.queue, 1*time.Second)
	return p
}

// submit queues a decode of the file at the resolved path unless one is already
// pending or finished.
func (p *Prefetcher) submit(path string) {
	kind := kindOf(path)
	if kind == assetUnknown {
		p.log.Warn("prefetch skipped", zap.String("path", path), zap.Error(ErrUnsupportedFormat))
		return
	}

	p.mu.Lock()
	if _, ok := p.pending[path]; ok {
		p.mu.Unlock()
		return
	}
	if _, ok := p.results[path]; ok {
		p.mu.Unlock()
		return
	}
	p.pending[path] = struct{}{}
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	p.wg.Add(1)
	p.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer p.wg.Done()

			var res prefetchResult
			switch kind {
			case assetMesh:
				res.vertices, res.indices, res.err = loadOBJFile(path)
			case assetImage:
				res.image, res.err = loadImageFile(path)
			}

			p.mu.Lock()
			delete(p.pending, path)
			if _, ok := p.dropped[path]; ok {
				delete(p.dropped, path)
			} else {
				p.results[path] = res
			}
			p.mu.Unlock()
			return nil, res.err
		},
	})
}

// take removes and returns the finished result for path. A nil Prefetcher never has results.
func (p *Prefetcher) take(path string) (prefetchResult, bool) {
	if p == nil {
		return prefetchResult{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	res, ok := p.results[path]
	if ok {
		delete(p.results, path)
	}
	return res, ok
}

// discard throws away the finished result for path, and the result of a decode
// still in flight for it once that lands.
func (p *Prefetcher) discard(path string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.results, path)
	if _, ok := p.pending[path]; ok {
		p.dropped[path] = struct{}{}
	}
}

// Wait blocks until every submitted decode has finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

// Ready returns the number of finished results not yet consumed.
func (p *Prefetcher) Ready() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

// PrefetcherBuilderOption is a functional option for configuring a Prefetcher.
type PrefetcherBuilderOption func(*Prefetcher)

// WithWorkers is an option builder that sets the maximum number of decode workers.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - PrefetcherBuilderOption: a function that applies the worker option to a Prefetcher
func WithWorkers(n int) PrefetcherBuilderOption {
	return func(p *Prefetcher) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize is an option builder that sets the pool's task queue size.
func WithQueueSize(n int) PrefetcherBuilderOption {
	return func(p *Prefetcher) {
		if n > 0 {
			p.queue = n
		}
	}
}

// WithPrefetchLogger is an option builder that sets the prefetcher's logger.
func WithPrefetchLogger(log *zap.Logger) PrefetcherBuilderOption {
	return func(p *Prefetcher) {
		if log != nil {
			p.log = log
		}
	}
}
