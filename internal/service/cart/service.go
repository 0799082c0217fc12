// Package cart manages open till sessions, each holding one cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"pharmacy-pos/internal/cart"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
)

const DefaultIdleTimeout = 2 * time.Hour

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
}

type session struct {
	mu        sync.Mutex
	id        uuid.UUID
	cashierID int64
	cart      *cart.Cart
	createdAt time.Time
	lastUsed  time.Time
	closed    bool
}

type Service struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*session
	productRepo productRepo
	logger      *zap.Logger
	idleTimeout time.Duration
	currency    string
	now         func() time.Time
}

type Options struct {
	IdleTimeout time.Duration
	Currency    string
	Logger      *zap.Logger
}

func New(productRepo productRepo, opts Options) *Service {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &Service{
		sessions:    make(map[uuid.UUID]*session),
		productRepo: productRepo,
		logger:      logging.OrNop(opts.Logger).Named("pos_sessions"),
		idleTimeout: opts.IdleTimeout,
		currency:    opts.Currency,
		now:         time.Now,
	}
}

// Snapshot is a point-in-time copy of a session's cart.
type Snapshot struct {
	ID         string            `json:"id"`
	CashierID  int64             `json:"cashierId"`
	State      string            `json:"state"`
	Currency   string            `json:"currency"`
	LineItems  []domain.LineItem `json:"lineItems"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	TotalItems int               `json:"totalItems"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

// UpdateAction is one cart mutation. addLineItem accepts either ProductID or
// Code (SKU or barcode).
type UpdateAction struct {
	Action    string           `json:"action"`
	ProductID int64            `json:"productId,omitempty"`
	Code      string           `json:"code,omitempty"`
	Quantity  int              `json:"quantity,omitempty"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

func (s *Service) Open(_ context.Context, cashierID int64) (*Snapshot, error) {
	if cashierID <= 0 {
		return nil, domain.ErrUnauthorized
	}
	now := s.now()
	sess := &session{
		id:        uuid.New(),
		cashierID: cashierID,
		cart:      cart.New(),
		createdAt: now,
		lastUsed:  now,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("session opened", zap.String("session_id", sess.id.String()), zap.Int64("cashier_id", cashierID))
	return s.snapshot(sess), nil
}

func (s *Service) Get(_ context.Context, cashierID int64, sessionID string) (*Snapshot, error) {
	sess, err := s.acquire(cashierID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.snapshot(sess), nil
}

// Update applies the actions in order. Either every action succeeds or the
// cart is left as it was.
func (s *Service) Update(ctx context.Context, cashierID int64, sessionID string, in UpdateInput) (*Snapshot, error) {
	if len(in.Actions) == 0 {
		return nil, fmt.Errorf("actions required: %w", domain.ErrInvalidInput)
	}
	sess, err := s.acquire(cashierID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	work := sess.cart.Clone()
	for i, action := range in.Actions {
		if err := s.apply(ctx, work, action); err != nil {
			s.logger.Debug("cart update rejected",
				zap.String("session_id", sess.id.String()),
				zap.Int("action_index", i),
				zap.String("action", action.Action),
				zap.Error(err))
			return nil, err
		}
	}
	sess.cart = work
	sess.lastUsed = s.now()
	return s.snapshot(sess), nil
}

func (s *Service) apply(ctx context.Context, c *cart.Cart, action UpdateAction) error {
	switch strings.ToLower(strings.TrimSpace(action.Action)) {
	case "addlineitem":
		if action.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		product, err := s.resolveProduct(ctx, action)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return fmt.Errorf("product %d inactive: %w", product.ID, domain.ErrNotFound)
		}
		return c.Add(*product, action.Quantity)
	case "changelineitemquantity":
		if action.ProductID <= 0 {
			return fmt.Errorf("productId required: %w", domain.ErrInvalidInput)
		}
		if _, ok := c.Line(action.ProductID); !ok {
			return domain.ErrLineNotFound
		}
		if action.Quantity < 1 {
			return c.UpdateQuantity(action.ProductID, action.Quantity, 0)
		}
		if s.productRepo == nil {
			return errors.New("product repository unavailable")
		}
		product, err := s.productRepo.GetByID(ctx, action.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return fmt.Errorf("product %d inactive: %w", product.ID, domain.ErrNotFound)
		}
		return c.UpdateQuantity(action.ProductID, action.Quantity, product.TotalStock)
	case "setlineitemdiscount":
		if action.ProductID <= 0 {
			return fmt.Errorf("productId required: %w", domain.ErrInvalidInput)
		}
		if action.Discount == nil {
			return fmt.Errorf("discount required: %w", domain.ErrInvalidInput)
		}
		return c.UpdateDiscount(action.ProductID, *action.Discount)
	case "removelineitem":
		c.RemoveItem(action.ProductID)
		return nil
	case "clearcart":
		c.Clear()
		return nil
	default:
		return fmt.Errorf("unsupported action %q: %w", action.Action, domain.ErrInvalidInput)
	}
}

func (s *Service) resolveProduct(ctx context.Context, action UpdateAction) (*domain.Product, error) {
	if s.productRepo == nil {
		return nil, errors.New("product repository unavailable")
	}
	if action.ProductID > 0 {
		return s.productRepo.GetByID(ctx, action.ProductID)
	}
	code := strings.TrimSpace(action.Code)
	if code == "" {
		return nil, fmt.Errorf("productId or code required: %w", domain.ErrInvalidInput)
	}
	return s.productRepo.GetByCode(ctx, code)
}

func (s *Service) Close(_ context.Context, cashierID int64, sessionID string) error {
	sess, err := s.acquire(cashierID, sessionID)
	if err != nil {
		return err
	}
	sess.closed = true
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	s.logger.Info("session closed", zap.String("session_id", sess.id.String()), zap.Int64("cashier_id", cashierID))
	return nil
}

// WithCart runs fn while holding the session exclusively. Changes fn makes to
// the cart are kept even when fn returns an error.
func (s *Service) WithCart(_ context.Context, cashierID int64, sessionID string, fn func(c *cart.Cart) error) error {
	sess, err := s.acquire(cashierID, sessionID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	err = fn(sess.cart)
	sess.lastUsed = s.now()
	return err
}

// Sweep drops sessions idle since before now - idle timeout and reports how
// many were dropped. Sessions busy in another call are left for the next pass.
func (s *Service) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTimeout)
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastUsed.Before(cutoff) {
			sess.closed = true
			delete(s.sessions, id)
			dropped++
			s.logger.Info("session expired",
				zap.String("session_id", id.String()),
				zap.Int64("cashier_id", sess.cashierID),
				zap.Int("lines", sess.cart.Len()))
		}
		sess.mu.Unlock()
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Debug("sweep finished", zap.Int("expired", n))
			}
		}
	}
}

// acquire returns the session locked. Unknown, closed and foreign sessions
// all report ErrNotFound.
func (s *Service) acquire(cashierID int64, sessionID string) (*session, error) {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.cashierID != cashierID {
		return nil, domain.ErrNotFound
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Service) snapshot(sess *session) *Snapshot {
	return &Snapshot{
		ID:         sess.id.String(),
		CashierID:  sess.cashierID,
		State:      sess.cart.State().String(),
		Currency:   s.currency,
		LineItems:  sess.cart.Lines(),
		Subtotal:   sess.cart.Subtotal(),
		TotalItems: sess.cart.TotalItems(),
		CreatedAt:  sess.createdAt,
		UpdatedAt:  sess.lastUsed,
	}
}
