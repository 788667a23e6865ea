package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/theme"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// Session is the in-memory state of one visitor.
type Session struct {
	visitor string
	cart    *cart.Store
	theme   *theme.Switch
	wizard  *checkout.Wizard

	mu       sync.Mutex
	seenMu   sync.Mutex
	lastSeen time.Time
	stopSave func()
}

func (s *Session) VisitorID() string { return s.visitor }
func (s *Session) Cart() *cart.Store { return s.cart }
func (s *Session) Wizard() *checkout.Wizard { return s.wizard }
func (s *Session) Theme() *theme.Switch { return s.theme }
func (s *Session) Material() enums.Material { return s.theme.Mode().Material() }

// Do runs fn with the session locked so multi-step operations of one visitor
// never interleave.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

func (s *Session) touch(now time.Time) {
	s.seenMu.Lock()
	s.lastSeen = now
	s.seenMu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	if s.stopSave != nil {
		s.stopSave()
	}
	s.theme.Close()
}
