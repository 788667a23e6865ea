package theme

import (
	"sync"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// DefaultTransition is how long Transitioning stays set after a change.
const DefaultTransition = 800 * time.Millisecond

// Snapshot is the observable theme state.
type Snapshot struct {
	Mode          enums.ThemeMode `json:"theme"`
	Transitioning bool            `json:"isTransitioning"`
}

// Listener is called on every state change, including the end of a transition.
type Listener func(Snapshot)

type Option func(*Switch)

// WithDelay overrides the transition duration.
func WithDelay(d time.Duration) Option {
	return func(s *Switch) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// Switch is the two-valued gold/silver presentation mode of a visitor.
type Switch struct {
	mu            sync.Mutex
	mode          enums.ThemeMode
	transitioning bool
	delay         time.Duration
	timer         *time.Timer
	generation    uint64
	closed        bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewSwitch starts in initial, or gold when initial is not a valid mode.
func NewSwitch(initial enums.ThemeMode, opts ...Option) *Switch {
	if !initial.IsValid() {
		initial = enums.ThemeModeGold
	}
	s := &Switch{
		mode:      initial,
		delay:     DefaultTransition,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTheme switches to mode. Setting the current mode does nothing.
func (s *Switch) SetTheme(mode enums.ThemeMode) Snapshot {
	s.mu.Lock()
	if s.closed || mode == s.mode || !mode.IsValid() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.mode = mode
	s.transitioning = true
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.finish(gen) })
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

func (s *Switch) ToggleTheme() Snapshot {
	s.mu.Lock()
	next := s.mode.Opposite()
	s.mu.Unlock()
	return s.SetTheme(next)
}

func (s *Switch) Mode() enums.ThemeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Switch) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn and returns its unsubscribe function.
func (s *Switch) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Close stops the pending transition timer. The mode stays readable.
func (s *Switch) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.transitioning = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Switch) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.transitioning {
		s.mu.Unlock()
		return
	}
	s.transitioning = false
	s.timer = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Switch) snapshotLocked() Snapshot {
	return Snapshot{Mode: s.mode, Transitioning: s.transitioning}
}

func (s *Switch) notify(snap Snapshot) {
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
