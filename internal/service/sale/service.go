package sale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"pharmacy-pos/internal/cart"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
	salerepo "pharmacy-pos/internal/repository/sale"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type sessionStore interface {
	WithCart(ctx context.Context, cashierID int64, sessionID string, fn func(c *cart.Cart) error) error
}

type Service struct {
	repo     salerepo.Repository
	sessions sessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo salerepo.Repository, sessions sessionStore, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		logger:   logging.OrNop(logger).Named("sales"),
		now:      time.Now,
	}
}

// CheckoutInput carries the payment details entered at the till. Amounts
// left out default to zero.
type CheckoutInput struct {
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	PaymentMethod  string          `json:"paymentMethod"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// Checkout submits the session cart as a sale and clears the cart once the
// sale is stored. On any failure the cart is left as it was.
func (s *Service) Checkout(ctx context.Context, p domain.Principal, sessionID string, in CheckoutInput) (*domain.Sale, error) {
	method, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if in.DiscountAmount.IsNegative() {
		return nil, fmt.Errorf("sale discount must not be negative: %w", domain.ErrInvalidDiscount)
	}
	if in.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("tax must not be negative: %w", domain.ErrInvalidInput)
	}

	var sale *domain.Sale
	err = s.sessions.WithCart(ctx, p.UserID, sessionID, func(c *cart.Cart) error {
		if c.State() == cart.Empty {
			return domain.ErrEmptyCart
		}
		total := c.Subtotal().Sub(in.DiscountAmount).Add(in.TaxAmount)
		if total.IsNegative() {
			return fmt.Errorf("sale discount exceeds subtotal: %w", domain.ErrInvalidDiscount)
		}
		if in.AmountPaid.LessThan(total) {
			return fmt.Errorf("total %s, paid %s: %w", total.StringFixed(2), in.AmountPaid.StringFixed(2), domain.ErrInsufficientPayment)
		}

		created, err := s.repo.Create(ctx, domain.SaleInput{
			UserID:         p.UserID,
			Items:          c.Items(),
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			PaymentMethod:  method,
			AmountPaid:     in.AmountPaid,
			CustomerName:   strings.TrimSpace(in.CustomerName),
			CustomerPhone:  strings.TrimSpace(in.CustomerPhone),
			Notes:          strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return err
		}
		c.Clear()
		sale = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("checkout complete",
		zap.String("session_id", sessionID),
		zap.Int64("cashier_id", p.UserID),
		zap.String("invoice", sale.InvoiceNumber),
		zap.String("change", sale.ChangeAmount.StringFixed(2)))
	return sale, nil
}

type ListInput struct {
	Skip  int
	Limit int
	Start *time.Time
	End   *time.Time
}

func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Sale, error) {
	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if in.Limit < 1 || in.Limit > MaxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d: %w", MaxLimit, domain.ErrInvalidInput)
	}
	if in.Skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidInput)
	}
	if in.Start != nil && in.End != nil && in.End.Before(*in.Start) {
		return nil, fmt.Errorf("end date before start date: %w", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, salerepo.ListFilter{Skip: in.Skip, Limit: in.Limit, Start: in.Start, End: in.End})
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// TodaySummary totals sales since local midnight.
func (s *Service) TodaySummary(ctx context.Context) (*domain.SaleSummary, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Summary(ctx, midnight)
}

func paymentMethod(raw string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(raw)); m {
	case "":
		return domain.PaymentCash, nil
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentMobile:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported payment method %q: %w", raw, domain.ErrInvalidInput)
	}
}
