package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"organico/internal/domain"
)

// Records типизированный доступ к четырём коллекциям поверх BlobStore.
// Каждая коллекция читается и пишется целиком одним JSON-блобом.
type Records struct {
	blobs BlobStore
	seed  []domain.Product

	// read-modify-write внутри процесса идут по одному; между процессами last writer wins
	mu sync.Mutex
}

func NewRecords(blobs BlobStore) *Records {
	return &Records{blobs: blobs, seed: SeedProducts()}
}

// WithSeed заменяет каталог по умолчанию
func (r *Records) WithSeed(seed []domain.Product) *Records {
	r.seed = cloneProducts(seed)
	return r
}

func readJSON[T any](ctx context.Context, blobs BlobStore, key string) (T, bool, error) {
	var zero T
	data, err := blobs.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, true, fmt.Errorf("read %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Records) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.blobs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Products при отсутствии блоба записывает сид и возвращает его.
// Повреждённый блоб не перезаписывается: возвращается сид с Fallback.
func (r *Records) Products(ctx context.Context) ([]domain.Product, Outcome) {
	list, found, err := readJSON[[]domain.Product](ctx, r.blobs, KeyProducts)
	if err != nil {
		return cloneProducts(r.seed), degraded(err)
	}
	if !found {
		seed := cloneProducts(r.seed)
		if err := r.writeJSON(ctx, KeyProducts, seed); err != nil {
			return seed, Outcome{Err: err}
		}
		return seed, Outcome{}
	}
	if list == nil {
		list = []domain.Product{}
	}
	return list, Outcome{}
}

func (r *Records) SaveProducts(ctx context.Context, products []domain.Product) error {
	return r.writeJSON(ctx, KeyProducts, products)
}

// UpdateProducts читает каталог, применяет fn и перезаписывает коллекцию
func (r *Records) UpdateProducts(ctx context.Context, fn func([]domain.Product) ([]domain.Product, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, _ := r.Products(ctx)
	next, err := fn(list)
	if err != nil {
		return err
	}
	return r.SaveProducts(ctx, next)
}

func (r *Records) Users(ctx context.Context) ([]domain.User, Outcome) {
	list, _, err := readJSON[[]domain.User](ctx, r.blobs, KeyUsers)
	if err != nil {
		return []domain.User{}, degraded(err)
	}
	if list == nil {
		list = []domain.User{}
	}
	return list, Outcome{}
}

func (r *Records) SaveUsers(ctx context.Context, users []domain.User) error {
	return r.writeJSON(ctx, KeyUsers, users)
}

// AppendUser добавляет пользователя без проверки уникальности
func (r *Records) AppendUser(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, _ := r.Users(ctx)
	return r.SaveUsers(ctx, append(users, u))
}

func (r *Records) Orders(ctx context.Context) ([]domain.Order, Outcome) {
	list, _, err := readJSON[[]domain.Order](ctx, r.blobs, KeyOrders)
	if err != nil {
		return []domain.Order{}, degraded(err)
	}
	if list == nil {
		list = []domain.Order{}
	}
	return list, Outcome{}
}

func (r *Records) SaveOrders(ctx context.Context, orders []domain.Order) error {
	return r.writeJSON(ctx, KeyOrders, orders)
}

func (r *Records) AppendOrder(ctx context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders, _ := r.Orders(ctx)
	return r.SaveOrders(ctx, append(orders, o))
}

// CurrentUser слот текущей сессии клиента; nil, если никто не вошёл
func (r *Records) CurrentUser(ctx context.Context, client domain.ClientID) (*domain.User, Outcome) {
	u, found, err := readJSON[*domain.User](ctx, r.blobs, CurrentUserKey(client))
	if err != nil {
		return nil, degraded(err)
	}
	if !found {
		return nil, Outcome{}
	}
	return u, Outcome{}
}

// SetCurrentUser сохраняет копию без пароля
func (r *Records) SetCurrentUser(ctx context.Context, client domain.ClientID, u domain.User) error {
	return r.writeJSON(ctx, CurrentUserKey(client), u.Stripped())
}

func (r *Records) ClearCurrentUser(ctx context.Context, client domain.ClientID) error {
	if err := r.blobs.Delete(ctx, CurrentUserKey(client)); err != nil {
		return fmt.Errorf("clear %s: %w", CurrentUserKey(client), err)
	}
	return nil
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
