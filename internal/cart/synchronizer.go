package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/validate"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Remote is the part of the store API the synchronizer depends on.
type Remote interface {
	FetchCart(ctx context.Context) ([]domain.CartLine, error)
	AddToCart(ctx context.Context, req remote.AddCartRequest) ([]domain.CartLine, error)
	RemoveFromCart(ctx context.Context, productID, color string) error
	UpdateCartQuantity(ctx context.Context, productID string, quantity int, color string) error
	ClearCart(ctx context.Context) error
}

// Synchronizer holds the active cart of one shopper and keeps it consistent
// with the server. Overlapping mutations are not sequenced: local state
// reflects the most recently issued optimistic write until the next Load.
type Synchronizer struct {
	remote  Remote
	log     *logger.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	cart   domain.Cart
	userID string
	active bool
	epoch  uint64
}

func NewSynchronizer(client Remote, log *logger.Logger, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{
		remote:  client,
		log:     log,
		metrics: m,
	}
}

type addLineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// Establish starts a session for userID and loads its cart.
func (s *Synchronizer) Establish(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.epoch++
	s.userID = userID
	s.active = true
	s.cart = domain.Cart{}
	s.mu.Unlock()

	return s.Load(ctx)
}

// End drops the session and its cart. Responses still in flight are discarded.
func (s *Synchronizer) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.userID = ""
	s.active = false
	s.cart = domain.Cart{}
}

func (s *Synchronizer) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Synchronizer) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Snapshot returns the current cart. The returned value must not be modified.
func (s *Synchronizer) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

func (s *Synchronizer) Total() decimal.Decimal {
	return s.Snapshot().Total()
}

func (s *Synchronizer) Count() int {
	return s.Snapshot().Count()
}

// Load replaces the local cart with the server's.
func (s *Synchronizer) Load(ctx context.Context) error {
	epoch, ctx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	lines, err := s.remote.FetchCart(ctx)
	if err != nil {
		s.metrics.CartMutation("load", "failed")
		return fmt.Errorf("load cart: %w", err)
	}
	if err := s.commit(ctx, epoch, func(domain.Cart) domain.Cart { return fromLines(lines) }); err != nil {
		return err
	}
	s.metrics.CartMutation("load", "ok")
	return nil
}

// AddLine asks the server to add quantity units of product and adopts the
// cart it returns. Local preconditions are checked before any request.
func (s *Synchronizer) AddLine(ctx context.Context, product domain.Product, quantity int, color string) error {
	epoch, ctx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	if err := validate.Struct(addLineInput{ProductID: product.ID, Quantity: quantity}); err != nil {
		s.metrics.CartMutation("add", "rejected_locally")
		return err
	}
	if product.RequiresColor() && color == "" {
		s.metrics.CartMutation("add", "rejected_locally")
		return pkgerrors.New(pkgerrors.CodeValidation, "please select a color").
			WithDetails(map[string]string{"color": "is required"})
	}
	if product.IsSoldOut() {
		s.metrics.CartMutation("add", "rejected_locally")
		return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock")
	}

	lines, err := s.remote.AddToCart(ctx, remote.AddCartRequest{
		ProductID:    product.ID,
		Quantity:     quantity,
		Name:         product.Name,
		Image:        product.Image,
		Price:        product.EffectivePrice(),
		CountInStock: product.CountInStock,
		Color:        color,
	})
	if err != nil {
		s.metrics.CartMutation("add", "failed")
		s.log.Warn(ctx, "add to cart failed", err)
		return fmt.Errorf("add line: %w", err)
	}
	if err := s.commit(ctx, epoch, func(domain.Cart) domain.Cart { return fromLines(lines) }); err != nil {
		return err
	}
	s.metrics.CartMutation("add", "ok")
	return nil
}

// RemoveLine drops the line locally, then deletes it on the server. A failed
// delete is followed by a reconciling Load.
func (s *Synchronizer) RemoveLine(ctx context.Context, productID, color string) error {
	epoch, ctx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	key := domain.CartLineKey{ProductID: productID, Color: color}
	if err := s.commit(ctx, epoch, func(c domain.Cart) domain.Cart { return withoutLine(c, key) }); err != nil {
		return err
	}

	if err := s.remote.RemoveFromCart(ctx, productID, color); err != nil {
		return s.reconcile(ctx, epoch, "remove", fmt.Errorf("remove line: %w", err))
	}
	return s.settle(ctx, epoch, "remove")
}

// UpdateQuantity sets the quantity of a line. Quantities below one are ignored.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, productID string, quantity int, color string) error {
	if quantity < 1 {
		return nil
	}
	epoch, ctx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	key := domain.CartLineKey{ProductID: productID, Color: color}
	if err := s.commit(ctx, epoch, func(c domain.Cart) domain.Cart { return withQuantity(c, key, quantity) }); err != nil {
		return err
	}

	if err := s.remote.UpdateCartQuantity(ctx, productID, quantity, color); err != nil {
		return s.reconcile(ctx, epoch, "update", fmt.Errorf("update quantity: %w", err))
	}
	return s.settle(ctx, epoch, "update")
}

// Clear empties the cart on the server and locally. The local cart ends up
// empty even when the server call fails.
func (s *Synchronizer) Clear(ctx context.Context) error {
	epoch, ctx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	clearErr := s.remote.ClearCart(ctx)
	if err := s.commit(ctx, epoch, func(domain.Cart) domain.Cart { return domain.Cart{} }); err != nil {
		return err
	}
	if clearErr != nil {
		s.metrics.CartMutation("clear", "failed")
		s.log.Warn(ctx, "clear cart failed, local cart emptied anyway", clearErr)
		return fmt.Errorf("clear cart: %w", clearErr)
	}
	s.metrics.CartMutation("clear", "ok")
	return nil
}

func (s *Synchronizer) begin(ctx context.Context) (uint64, context.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return 0, ctx, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	return s.epoch, s.log.WithUserID(ctx, s.userID), nil
}

// commit applies fn to the current cart unless the session changed since epoch.
func (s *Synchronizer) commit(ctx context.Context, epoch uint64, fn func(domain.Cart) domain.Cart) error {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return s.discard(ctx)
	}
	s.cart = fn(s.cart)
	s.mu.Unlock()
	return nil
}

// settle reports a successful server ack, unless it arrived for an old session.
func (s *Synchronizer) settle(ctx context.Context, epoch uint64, op string) error {
	if !s.current(epoch) {
		return s.discard(ctx)
	}
	s.metrics.CartMutation(op, "ok")
	return nil
}

// reconcile re-fetches the authoritative cart after a failed mutation and
// returns the mutation's error, joined with the reload's when that fails too.
func (s *Synchronizer) reconcile(ctx context.Context, epoch uint64, op string, cause error) error {
	if !s.current(epoch) {
		return s.discard(ctx)
	}
	s.metrics.CartMutation(op, "failed")
	s.metrics.CartRefetch()
	s.log.Warn(ctx, fmt.Sprintf("cart %s failed, reloading", op), cause)

	if err := s.Load(ctx); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeSessionChanged) {
			return err
		}
		s.log.Error(ctx, "reconciling cart reload failed", err)
		return multierr.Append(cause, err)
	}
	return cause
}

func (s *Synchronizer) current(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch
}

func (s *Synchronizer) discard(ctx context.Context) error {
	s.metrics.Discarded("cart")
	s.log.Debug(ctx, "discarding cart response from a previous session")
	return pkgerrors.New(pkgerrors.CodeSessionChanged, "session changed while the request was in flight")
}
