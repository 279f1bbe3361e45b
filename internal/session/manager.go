package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/clock"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/stock"
)

// Remote is a store API client bound to one shopper's credentials.
type Remote interface {
	cart.Remote
	orders.Remote
	stock.Lookup
}

// Dialer returns a client that authenticates with token.
type Dialer func(token string) Remote

type Options struct {
	MaxParallel      int
	PickupWindowDays int
	Clock            clock.Clock
	Logger           *logger.Logger
	Metrics          *metrics.Metrics
}

// Session is everything bound to one signed-in shopper.
type Session struct {
	UserID string
	Cart   *cart.Synchronizer
	Stock  *stock.Reconciler
	Orders *orders.Tracker

	token string
}

// Manager keeps one session per user. Replacing or ending a session ends its
// synchronizer, so responses still in flight for it are discarded.
type Manager struct {
	dial Dialer
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(dial Dialer, opts Options) *Manager {
	return &Manager{
		dial:     dial,
		opts:     opts,
		sessions: map[string]*Session{},
	}
}

// Establish starts a session and loads the user's cart. When the load fails
// the session stays established with an empty cart and the error is returned.
func (m *Manager) Establish(ctx context.Context, userID, token string) (*Session, error) {
	if userID == "" || token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}

	client := m.dial(token)
	sess := &Session{
		UserID: userID,
		Cart:   cart.NewSynchronizer(client, m.opts.Logger, m.opts.Metrics),
		Stock:  stock.NewReconciler(client, m.opts.MaxParallel, m.opts.Logger, m.opts.Metrics),
		Orders: orders.NewTracker(client, m.opts.Clock, m.opts.PickupWindowDays, m.opts.Logger, m.opts.Metrics),
		token:  token,
	}

	m.mu.Lock()
	prev := m.sessions[userID]
	m.sessions[userID] = sess
	m.mu.Unlock()
	if prev != nil {
		prev.Cart.End()
	}

	ctx = m.opts.Logger.WithUserID(ctx, userID)
	m.opts.Logger.Info(ctx, "session established")
	if err := sess.Cart.Establish(ctx, userID); err != nil {
		return sess, fmt.Errorf("establish session: %w", err)
	}
	return sess, nil
}

// End drops the user's session and clears its cart immediately.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	sess := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if sess != nil {
		sess.Cart.End()
	}
}

// Lookup returns the session of userID if token matches the one it was
// established with.
func (m *Manager) Lookup(userID, token string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()

	if !ok || subtle.ConstantTimeCompare([]byte(sess.token), []byte(token)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	return sess, nil
}

func (m *Manager) Cart(userID string) (*cart.Synchronizer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	return sess.Cart, true
}

// Reload re-fetches the cart of userID. Users without a session here are skipped.
func (m *Manager) Reload(ctx context.Context, userID string) error {
	synchronizer, ok := m.Cart(userID)
	if !ok {
		m.opts.Logger.Debug(m.opts.Logger.WithUserID(ctx, userID), "no active session, skipping cart reload")
		return nil
	}
	if err := synchronizer.Load(ctx); err != nil {
		return fmt.Errorf("reload cart for %s: %w", userID, err)
	}
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
