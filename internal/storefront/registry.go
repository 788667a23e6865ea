// Package storefront keeps the per-visitor cart, theme and checkout wizard.
package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/theme"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	redisclient "github.com/diegojoyero/joyeria-backend/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const (
	defaultIdleTTL   = 30 * time.Minute
	themeSaveTimeout = 2 * time.Second
)

type visitorStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(storageKey, visitor string) string
	ThemeKey(visitor string) string
}

type cartMetrics interface {
	IncCartMutation(operation string)
}

// Options configures a Registry. A nil Store keeps every visitor in memory.
type Options struct {
	Store          visitorStore
	States         checkout.StateStore
	CartStorageKey string
	CartTTL        time.Duration
	IdleTTL        time.Duration
	ThemeDelay     time.Duration
	Metrics        cartMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

// Registry owns the visitor sessions of this process.
type Registry struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
	group    singleflight.Group
}

// NewRegistry builds an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.ThemeDelay <= 0 {
		opts.ThemeDelay = theme.DefaultTransition
	}
	if opts.CartStorageKey == "" {
		opts.CartStorageKey = "diego-joyero-cart"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{opts: opts, sessions: map[string]*Session{}}
}

// Session returns the session of visitor, rehydrating it on first use.
func (r *Registry) Session(ctx context.Context, visitor string) (*Session, error) {
	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return nil, fmt.Errorf("visitor token required")
	}
	if sess := r.lookup(visitor); sess != nil {
		return sess, nil
	}

	v, err, _ := r.group.Do(visitor, func() (any, error) {
		if sess := r.lookup(visitor); sess != nil {
			return sess, nil
		}
		sess, err := r.build(ctx, visitor)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[visitor] = sess
		r.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the idle TTL and returns how many
// were removed. Their persisted state stays in the store.
func (r *Registry) Sweep() int {
	now := r.opts.Now()
	var evicted []*Session

	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.idleSince(now) > r.opts.IdleTTL {
			delete(r.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range evicted {
		sess.close()
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.opts.Logger.Info(r.opts.Logger.WithField(ctx, "evicted", n), "storefront.sessions_swept")
			}
		}
	}
}

// Close releases every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

func (r *Registry) lookup(visitor string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[visitor]
	if ok {
		sess.touch(r.opts.Now())
	}
	return sess
}

func (r *Registry) build(ctx context.Context, visitor string) (*Session, error) {
	ctx = r.opts.Logger.WithVisitor(ctx, visitor)

	storage, err := r.cartStorage(visitor)
	if err != nil {
		return nil, err
	}
	store := cart.NewStore(ctx, storage, r.opts.Logger, r.opts.Metrics)

	state := checkout.NewState()
	if r.opts.States != nil {
		saved, err := r.opts.States.Load(ctx, visitor)
		if err != nil {
			r.opts.Logger.Warn(r.opts.Logger.WithField(ctx, "error", err.Error()), "storefront.checkout_restore_failed")
		} else if saved != nil {
			state = *saved
		}
	}

	sess := &Session{
		visitor: visitor,
		cart:    store,
		theme:   theme.NewSwitch(r.restoreTheme(ctx, visitor), theme.WithDelay(r.opts.ThemeDelay)),
		wizard:  checkout.NewWizard(state),
	}
	sess.touch(r.opts.Now())
	sess.stopSave = r.persistTheme(ctx, sess)
	return sess, nil
}

func (r *Registry) cartStorage(visitor string) (cart.Storage, error) {
	if r.opts.Store == nil {
		return cart.NewMemoryStorage(nil), nil
	}
	storage, err := cart.NewRedisStorage(r.opts.Store, r.opts.Store.CartKey(r.opts.CartStorageKey, visitor), r.opts.CartTTL)
	if err != nil {
		return nil, err
	}
	return storage, nil
}

func (r *Registry) restoreTheme(ctx context.Context, visitor string) enums.ThemeMode {
	if r.opts.Store == nil {
		return enums.ThemeModeGold
	}
	raw, err := r.opts.Store.Get(ctx, r.opts.Store.ThemeKey(visitor))
	if err != nil {
		if !redisclient.IsNil(err) {
			r.opts.Logger.Warn(r.opts.Logger.WithField(ctx, "error", err.Error()), "storefront.theme_restore_failed")
		}
		return enums.ThemeModeGold
	}
	mode, err := enums.ParseThemeMode(strings.TrimSpace(raw))
	if err != nil {
		return enums.ThemeModeGold
	}
	return mode
}

// persistTheme writes the mode whenever it changes. The transition tail is
// ignored since the mode is already saved.
func (r *Registry) persistTheme(ctx context.Context, sess *Session) func() {
	if r.opts.Store == nil {
		return nil
	}
	detached := context.WithoutCancel(ctx)
	last := sess.theme.Mode()
	var mu sync.Mutex
	return sess.theme.Subscribe(func(snap theme.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Mode == last {
			return
		}
		last = snap.Mode
		sctx, cancel := context.WithTimeout(detached, themeSaveTimeout)
		defer cancel()
		if err := r.opts.Store.Set(sctx, r.opts.Store.ThemeKey(sess.visitor), snap.Mode.String(), r.opts.CartTTL); err != nil {
			r.opts.Logger.Warn(r.opts.Logger.WithField(sctx, "error", err.Error()), "storefront.theme_persist_failed")
		}
	})
}
