package searcher

// idAllocator hands out node ids in increasing order starting at 0.
type idAllocator struct {
	last int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{last: -1}
}

func (a *idAllocator) next() int {
	a.last++
	return a.last
}
