package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"organico/internal/domain"
	"organico/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг каталога
type ProductService struct {
	records *repository.Records
	log     *slog.Logger
}

func NewProductService(records *repository.Records, log *slog.Logger) *ProductService {
	return &ProductService{records: records, log: log}
}

var ErrInvalidInput = errors.New("invalid input")

// List каталог целиком (при первом обращении записывается сид), с фильтром
func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, repository.Outcome) {
	all, out := s.records.Products(ctx)
	logOutcome(ctx, s.log, "products", out)
	list := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			list = append(list, p)
		}
	}
	return list, out
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	all, out := s.records.Products(ctx)
	logOutcome(ctx, s.log, "products", out)
	for _, p := range all {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Save upsert по id: существующий товар заменяется на своём месте, новый добавляется в конец
func (s *ProductService) Save(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	err := s.records.UpdateProducts(ctx, func(list []domain.Product) ([]domain.Product, error) {
		for i := range list {
			if list[i].ID == cp.ID {
				list[i] = cp
				return list, nil
			}
		}
		return append(list, cp), nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Delete удаляет товар; отсутствующий id не ошибка
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.records.UpdateProducts(ctx, func(list []domain.Product) ([]domain.Product, error) {
		out := make([]domain.Product, 0, len(list))
		for _, p := range list {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out, nil
	})
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.Description) == "" ||
		strings.TrimSpace(p.Category) == "" ||
		strings.TrimSpace(p.Unit) == "" {
		return ErrInvalidInput
	}
	if p.Price.IsNegative() || p.Stock < 0 {
		return ErrInvalidInput
	}
	return nil
}

// logOutcome пишет в лог деградированное чтение; решение что показывать остаётся вызывающему
func logOutcome(ctx context.Context, log *slog.Logger, collection string, out repository.Outcome) {
	if out.OK() || log == nil {
		return
	}
	log.WarnContext(ctx, "record store read degraded",
		slog.String("collection", collection),
		slog.Bool("fallback", out.Fallback),
		slog.Any("error", out.Err),
	)
}
