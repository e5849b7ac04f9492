package postprocess

import "sync"

// idGenerator hands out incremental ID numbers for detection results
type idGenerator struct {
	id int64
	sync.Mutex
}

func newIDGenerator() *idGenerator {
	return &idGenerator{}
}

// next incremental number
func (g *idGenerator) next() int64 {
	g.Lock()
	defer g.Unlock()
	g.id++
	return g.id
}
