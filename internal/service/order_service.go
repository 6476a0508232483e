package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"organico/internal/domain"
	"organico/internal/repository"
)

// OrderService запись и чтение заказов; заказы только добавляются
type OrderService struct {
	records *repository.Records
	log     *slog.Logger
}

func NewOrderService(records *repository.Records, log *slog.Logger) *OrderService {
	return &OrderService{records: records, log: log}
}

// Record добавляет заказ в коллекцию. Итог должен совпадать с суммой позиций.
func (s *OrderService) Record(ctx context.Context, o domain.Order) error {
	if o.ID == "" || o.UserID == "" || len(o.Items) == 0 {
		return ErrInvalidInput
	}
	sum := decimal.Zero
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return ErrInvalidInput
		}
		sum = sum.Add(it.Subtotal())
	}
	if !sum.Equal(o.Total) {
		return fmt.Errorf("%w: total %s, items sum %s", ErrInvalidInput, o.Total, sum)
	}
	if err := s.records.AppendOrder(ctx, o); err != nil {
		return err
	}
	if s.log != nil {
		s.log.InfoContext(ctx, "order recorded",
			slog.String("order", o.ID),
			slog.String("user", o.UserID),
			slog.String("total", o.Total.StringFixed(2)),
		)
	}
	return nil
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, repository.Outcome) {
	orders, out := s.records.Orders(ctx)
	logOutcome(ctx, s.log, "orders", out)
	return orders, out
}

// ListForUser заказы одного пользователя в порядке создания
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, repository.Outcome) {
	all, out := s.List(ctx)
	list := make([]domain.Order, 0)
	for _, o := range all {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	return list, out
}
