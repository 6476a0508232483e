package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"organico/internal/domain"
)

// ErrNotFound возвращается, когда ключ или сущность не найдены
var ErrNotFound = errors.New("not found")

// Фиксированные ключи коллекций
const (
	KeyUsers       = "org_users"
	KeyProducts    = "org_products"
	KeyOrders      = "org_orders"
	keyCurrentUser = "org_current_user"
)

// CurrentUserKey ключ слота текущей сессии клиента
func CurrentUserKey(client domain.ClientID) string {
	return keyCurrentUser + ":" + string(client)
}

// BlobStore хранилище ключ-значение; каждая запись перезаписывает блоб целиком
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Outcome результат чтения коллекции. Ошибка уже обработана на месте:
// вызывающий получает пустое (или сидовое) значение и сам решает, что делать дальше.
type Outcome struct {
	Err      error
	Fallback bool
}

func (o Outcome) OK() bool { return o.Err == nil }

func degraded(err error) Outcome { return Outcome{Err: err, Fallback: true} }

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	Category      string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

// Match проверяет товар по всем заданным условиям
func (f ProductFilter) Match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
