package cart

import (
	"context"
	"sync"

	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	opAdd       = "add"
	opRemove    = "remove"
	opIncrement = "increment"
	opDecrement = "decrement"
	opUpdate    = "update_quantity"
	opClear     = "clear"
)

type mutationRecorder interface {
	IncCartMutation(operation string)
}

// Listener receives the cart state after every change.
type Listener func(Snapshot)

// Store holds the cart of one visitor. Mutations are serialized and each one
// is written to Storage right after the state update. Persistence failures are
// logged and never returned.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	isOpen  bool
	storage Storage
	logg    *logger.Logger
	metrics mutationRecorder

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewStore rehydrates the cart from storage. Unreadable or malformed data is
// discarded with a warning and the cart starts empty.
func NewStore(ctx context.Context, storage Storage, logg *logger.Logger, metrics mutationRecorder) *Store {
	if storage == nil {
		storage = NewMemoryStorage(nil)
	}
	s := &Store{
		lines:     []Line{},
		storage:   storage,
		logg:      logg,
		metrics:   metrics,
		listeners: map[int]Listener{},
	}
	s.lines = s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) []Line {
	data, err := s.storage.Load(ctx)
	if err != nil {
		s.warn(ctx, "No se pudo restaurar el carrito", err)
		return []Line{}
	}
	if data == nil {
		return []Line{}
	}
	lines, err := Decode(data)
	if err != nil {
		s.warn(ctx, "No se pudo restaurar el carrito", err)
		return []Line{}
	}
	return lines
}

// AddItem adds one unit of product and opens the cart panel.
func (s *Store) AddItem(ctx context.Context, p Product) Snapshot {
	return s.mutate(ctx, opAdd, func() bool {
		s.isOpen = true
		for i := range s.lines {
			if s.lines[i].ID == p.ID {
				s.lines[i].Quantity++
				return true
			}
		}
		s.lines = append(s.lines, lineFromProduct(p))
		return true
	})
}

func (s *Store) RemoveItem(ctx context.Context, id string) Snapshot {
	return s.mutate(ctx, opRemove, func() bool {
		return s.filter(func(l Line) bool { return l.ID != id })
	})
}

func (s *Store) IncrementItem(ctx context.Context, id string) Snapshot {
	return s.mutate(ctx, opIncrement, func() bool {
		for i := range s.lines {
			if s.lines[i].ID == id {
				s.lines[i].Quantity++
				return true
			}
		}
		return false
	})
}

// DecrementItem removes one unit; a line that reaches zero is dropped.
func (s *Store) DecrementItem(ctx context.Context, id string) Snapshot {
	return s.mutate(ctx, opDecrement, func() bool {
		found := false
		for i := range s.lines {
			if s.lines[i].ID == id {
				s.lines[i].Quantity = max(0, s.lines[i].Quantity-1)
				found = true
			}
		}
		if !found {
			return false
		}
		s.filter(func(l Line) bool { return l.Quantity > 0 })
		return true
	})
}

// UpdateQuantity sets an absolute quantity. Zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) Snapshot {
	return s.mutate(ctx, opUpdate, func() bool {
		if quantity <= 0 {
			return s.filter(func(l Line) bool { return l.ID != id })
		}
		for i := range s.lines {
			if s.lines[i].ID == id {
				if s.lines[i].Quantity == quantity {
					return false
				}
				s.lines[i].Quantity = quantity
				return true
			}
		}
		return false
	})
}

func (s *Store) Clear(ctx context.Context) Snapshot {
	return s.mutate(ctx, opClear, func() bool {
		s.lines = []Line{}
		return true
	})
}

func (s *Store) OpenCart() Snapshot { return s.setOpen(func(bool) bool { return true }) }
func (s *Store) CloseCart() Snapshot { return s.setOpen(func(bool) bool { return false }) }
func (s *Store) ToggleCart() Snapshot { return s.setOpen(func(open bool) bool { return !open }) }

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, _ := totals(s.lines)
	return items
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, price := totals(s.lines)
	return price
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) mutate(ctx context.Context, op string, apply func() bool) Snapshot {
	s.mu.Lock()
	changed := apply()
	if changed {
		s.persistLocked(ctx)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		if s.metrics != nil {
			s.metrics.IncCartMutation(op)
		}
		s.notify(snap)
	}
	return snap
}

func (s *Store) setOpen(next func(bool) bool) Snapshot {
	s.mu.Lock()
	prev := s.isOpen
	s.isOpen = next(prev)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if prev != snap.IsOpen {
		s.notify(snap)
	}
	return snap
}

func (s *Store) filter(keep func(Line) bool) bool {
	out := s.lines[:0]
	for _, line := range s.lines {
		if keep(line) {
			out = append(out, line)
		}
	}
	changed := len(out) != len(s.lines)
	s.lines = out
	return changed
}

func (s *Store) persistLocked(ctx context.Context) {
	data, err := Encode(s.lines)
	if err == nil {
		err = s.storage.Save(ctx, data)
	}
	if err != nil {
		s.warn(ctx, "No se pudo guardar el carrito", err)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items, price := totals(s.lines)
	return Snapshot{
		Items:      cloneLines(s.lines),
		TotalItems: items,
		TotalPrice: price,
		IsOpen:     s.isOpen,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}
