// Package notification raises and manages staff alerts. Low-stock alerts are
// generated from the catalog and repeat at most once per product per
// RepeatAfter window.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
	notificationrepo "pharmacy-pos/internal/repository/notification"
	productsvc "pharmacy-pos/internal/service/product"
)

const (
	RepeatAfter   = 24 * time.Hour
	lowStockBatch = 500
)

type lowStockSource interface {
	ListLowStock(ctx context.Context, limit int) ([]domain.Product, error)
}

type Service struct {
	repo     notificationrepo.Repository
	products lowStockSource
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo notificationrepo.Repository, products lowStockSource, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   logging.OrNop(logger).Named("notifications"),
		now:      time.Now,
	}
}

type ListInput struct {
	IsRead *bool
	Type   string
	Skip   int
	Limit  int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Notification, error) {
	limit, err := productsvc.NormalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}
	if in.Skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidInput)
	}
	kind := domain.NotificationType(strings.ToLower(strings.TrimSpace(in.Type)))
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("unknown notification type %q: %w", in.Type, domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, notificationrepo.ListFilter{IsRead: in.IsRead, Type: kind, Skip: in.Skip, Limit: limit})
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.UnreadCount(ctx)
}

func (s *Service) MarkRead(ctx context.Context, id int64, read bool) (*domain.Notification, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.SetRead(ctx, id, read)
}

func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkAllRead(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// CheckLowStock raises a low-stock alert for every active product at or
// below its threshold that has not been alerted on within RepeatAfter. It
// returns the number of alerts created. Out-of-stock products are critical.
func (s *Service) CheckLowStock(ctx context.Context) (int, error) {
	products, err := s.products.ListLowStock(ctx, lowStockBatch)
	if err != nil {
		return 0, fmt.Errorf("list low stock: %w", err)
	}
	since := s.now().Add(-RepeatAfter)
	created := 0
	for _, p := range products {
		seen, err := s.repo.ExistsSince(ctx, domain.NotificationLowStock, p.ID, since)
		if err != nil {
			return created, fmt.Errorf("check existing alert for product %d: %w", p.ID, err)
		}
		if seen {
			continue
		}
		if _, err := s.repo.Create(ctx, lowStockAlert(p)); err != nil {
			return created, fmt.Errorf("create alert for product %d: %w", p.ID, err)
		}
		created++
	}
	s.logger.Info("low stock checked", zap.Int("low_stock", len(products)), zap.Int("alerts_created", created))
	return created, nil
}

// RunChecker calls CheckLowStock once and then every interval until ctx is
// done. Failures are logged and retried on the next tick.
func (s *Service) RunChecker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	check := func() {
		if _, err := s.CheckLowStock(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("low stock check failed", zap.Error(err))
		}
	}
	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func lowStockAlert(p domain.Product) domain.Notification {
	priority := domain.PriorityHigh
	if p.TotalStock <= 0 {
		priority = domain.PriorityCritical
	}
	return domain.Notification{
		Type:            domain.NotificationLowStock,
		Priority:        priority,
		Title:           "Low Stock Alert: " + p.Name,
		Message:         fmt.Sprintf("Current stock: %d. Threshold: %d", p.TotalStock, p.LowStockThreshold),
		RelatedEntityID: p.ID,
	}
}
