package mem

import (
	"math/big"
	"sync"

	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/types"
)

type fills struct {
	mu       sync.Mutex
	items    map[string]*data.Fill
	recorded map[data.LogID]struct{}
}

// NewFills returns a process-local store, used by tests and dry runs.
func NewFills() data.Fills {
	return &fills{
		items:    make(map[string]*data.Fill),
		recorded: make(map[data.LogID]struct{}),
	}
}

func (s *fills) Get(key types.OrderKey) (*data.Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[key.String()]
	if !ok {
		return nil, nil
	}
	return copyFill(f), nil
}

func (s *fills) Settle(key types.OrderKey, quantity, capacity *big.Int, apply func(*big.Int) error) (*data.Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := new(big.Int)
	if f, ok := s.items[key.String()]; ok {
		if f.Closed {
			return nil, data.ErrFillClosed
		}
		current = f.Filled
	}

	filled := new(big.Int).Add(current, quantity)
	if filled.Cmp(capacity) > 0 {
		return nil, data.ErrFillExceeded
	}
	if err := apply(filled); err != nil {
		return nil, err
	}

	f := &data.Fill{Key: key, Filled: filled, Closed: filled.Cmp(capacity) == 0}
	s.items[key.String()] = f
	return copyFill(f), nil
}

func (s *fills) Record(key types.OrderKey, quantity *big.Int, log data.LogID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recorded[log]; ok {
		return nil
	}
	s.recorded[log] = struct{}{}
	f, ok := s.items[key.String()]
	if !ok {
		f = &data.Fill{Key: key, Filled: new(big.Int)}
		s.items[key.String()] = f
	}
	f.Filled = new(big.Int).Add(f.Filled, quantity)
	return nil
}

func (s *fills) Close(key types.OrderKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[key.String()]
	if !ok {
		f = &data.Fill{Key: key, Filled: new(big.Int)}
		s.items[key.String()] = f
	}
	f.Closed = true
	return nil
}

func copyFill(f *data.Fill) *data.Fill {
	return &data.Fill{Key: f.Key, Filled: new(big.Int).Set(f.Filled), Closed: f.Closed}
}
