package mem

import (
	"sync"

	"github.com/wallkanda/exchange-svc/internal/data"
)

type blocks struct {
	mu   sync.Mutex
	last *uint64
}

func NewBlocks() data.Blocks {
	return &blocks{}
}

func (b *blocks) Set(block uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &block
	return nil
}

func (b *blocks) Get() (*uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil, nil
	}
	v := *b.last
	return &v, nil
}
