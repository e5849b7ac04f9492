package eastlite

import (
	"sync"
)

// Pool is a simple detector pool for processing multiple images in
// parallel.  Each Detector owns its own network instance so images in
// flight share no state.
type Pool struct {
	// pool of detectors
	detectors chan *Detector
	// size of pool
	size   int
	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of size detectors all loaded from the same
// model file
func NewPool(size int, modelFile string, inputWidth, inputHeight int) (*Pool, error) {

	p := &Pool{
		detectors: make(chan *Detector, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		det, err := NewDetector(modelFile, inputWidth, inputHeight)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(det)
	}

	return p, nil
}

// Get a detector from the pool, blocking until one is free
func (p *Pool) Get() *Detector {
	return <-p.detectors
}

// Return a detector to the pool.  A detector handed back after the pool
// has been closed, or to a pool that is already full, is closed instead.
func (p *Pool) Return(det *Detector) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = det.Close()
		return
	}

	select {
	case p.detectors <- det:
	default:
		// pool is full
		_ = det.Close()
	}
}

// Size returns the number of detectors the pool was created with
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all detectors in it.  Closing more than once is a
// no-op.
func (p *Pool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	close(p.detectors)
	p.mu.Unlock()

	// close all detectors
	for next := range p.detectors {
		_ = next.Close()
	}
}
