// Package storefront связывает события клиента с каталогом, корзиной и оформлением заказа.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"organico/internal/cart"
	"organico/internal/checkout"
	"organico/internal/domain"
	"organico/internal/service"
)

var (
	ErrOutOfStock        = errors.New("product out of stock")
	ErrForbidden         = errors.New("admin access required")
	ErrNoCheckout        = errors.New("no checkout in progress")
	ErrUnknownView       = errors.New("unknown view")
	ErrRecipeUnavailable = errors.New("recipe suggestion unavailable")
)

// RecipeSuggester внешний сервис рецептов; может быть недоступен
type RecipeSuggester interface {
	Enabled() bool
	Suggest(ctx context.Context, ingredients []string) (*domain.Recipe, error)
}

// Deps общие для всех клиентов сервисы
type Deps struct {
	Products *service.ProductService
	Sessions *service.SessionService
	Orders   *service.OrderService
	Recipes  RecipeSuggester
	Log      *slog.Logger

	// опции для каждой новой попытки оформления
	CheckoutOptions []checkout.Option
}

// Workspace состояние одного клиента: экран, корзина, оформление, рецепт.
// Все операции клиента выполняются по очереди.
type Workspace struct {
	client domain.ClientID
	deps   *Deps

	mu       sync.Mutex
	view     *Coordinator
	cart     *cart.Cart
	cartOpen bool
	seq      *checkout.Sequencer

	recipe        *domain.Recipe
	recipeErr     string
	recipePending bool
	flight        singleflight.Group
}

func newWorkspace(client domain.ClientID, deps *Deps) *Workspace {
	return &Workspace{
		client: client,
		deps:   deps,
		view:   NewCoordinator(),
		cart:   cart.New(),
	}
}

// Snapshot то, что нужно клиенту для перерисовки
type Snapshot struct {
	View          View              `json:"view"`
	User          *domain.User      `json:"user"`
	Cart          []domain.CartItem `json:"cart"`
	CartTotal     decimal.Decimal   `json:"cartTotal"`
	CartCount     int64             `json:"cartCount"`
	CartOpen      bool              `json:"cartOpen"`
	Checkout      *checkout.Summary `json:"checkout,omitempty"`
	Recipe        *domain.Recipe    `json:"recipe,omitempty"`
	RecipeError   string            `json:"recipeError,omitempty"`
	RecipePending bool              `json:"recipePending"`
	Warning       string            `json:"warning,omitempty"`
}

func (w *Workspace) Client() domain.ClientID { return w.client }

func (w *Workspace) Snapshot(ctx context.Context) Snapshot {
	user, out := w.deps.Sessions.Current(ctx, w.client)
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		View:          w.view.Current(),
		User:          user,
		Cart:          w.cart.Items(),
		CartTotal:     w.cart.Total(),
		CartCount:     w.cart.Count(),
		CartOpen:      w.cartOpen,
		Recipe:        w.recipe,
		RecipeError:   w.recipeErr,
		RecipePending: w.recipePending,
	}
	if w.seq != nil {
		sum := w.seq.Summary()
		s.Checkout = &sum
	}
	if !out.OK() {
		s.Warning = "session storage unavailable"
	}
	return s
}

// Session текущий пользователь клиента
func (w *Workspace) Session(ctx context.Context) *domain.User {
	u, _ := w.deps.Sessions.Current(ctx, w.client)
	return u
}

func (w *Workspace) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := w.deps.Sessions.Authenticate(ctx, w.client, email, password)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.view.Show(ViewHome)
	w.mu.Unlock()
	return u, nil
}

func (w *Workspace) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	u, err := w.deps.Sessions.Register(ctx, w.client, name, email, password)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.view.Show(ViewHome)
	w.mu.Unlock()
	return u, nil
}

// Logout закрывает сессию и очищает корзину
func (w *Workspace) Logout(ctx context.Context) error {
	err := w.deps.Sessions.Logout(ctx, w.client)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cart.Clear()
	w.seq = nil
	w.cartOpen = false
	w.view.Show(ViewLogin)
	return err
}

// AddToCart товар с нулевым остатком не добавляется
func (w *Workspace) AddToCart(ctx context.Context, productID string) (domain.CartItem, error) {
	p, err := w.deps.Products.GetByID(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if p.Stock <= 0 {
		return domain.CartItem{}, ErrOutOfStock
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.cartLocked(); err != nil {
		return domain.CartItem{}, err
	}
	w.cart.Add(*p)
	w.cartOpen = true
	for _, it := range w.cart.Items() {
		if it.ID == p.ID {
			return it, nil
		}
	}
	return domain.CartItem{}, nil
}

func (w *Workspace) RemoveFromCart(productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.cartLocked(); err != nil {
		return err
	}
	w.cart.Remove(productID)
	return nil
}

func (w *Workspace) ClearCart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.cartLocked(); err != nil {
		return err
	}
	w.cart.Clear()
	return nil
}

// cartLocked корзина не меняется, пока выставлен платёжный код
func (w *Workspace) cartLocked() error {
	if w.seq != nil && w.seq.State() == checkout.StateAwaitingPayment {
		return fmt.Errorf("%w: cart is locked while awaiting payment", checkout.ErrInvalidTransition)
	}
	return nil
}

func (w *Workspace) SetCartOpen(open bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cartOpen = open
}

// Navigate переключает экран; админка только для администратора, оформление через StartCheckout
func (w *Workspace) Navigate(ctx context.Context, v View) error {
	switch v {
	case ViewCheckout:
		_, err := w.StartCheckout()
		return err
	case ViewAdminProducts:
		if !w.Session(ctx).IsAdmin() {
			return ErrForbidden
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view.Show(v)
	return nil
}

// StartCheckout открывает новую попытку или возвращается к незавершённой
func (w *Workspace) StartCheckout() (checkout.Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq != nil {
		switch w.seq.State() {
		case checkout.StateReview, checkout.StateAwaitingPayment:
			w.view.Show(ViewCheckout)
			return w.seq.Summary(), nil
		}
	}
	if w.cart.IsEmpty() {
		return checkout.Summary{}, checkout.ErrEmptyCart
	}
	w.seq = checkout.New(w.cart, w.deps.Orders, w.deps.CheckoutOptions...)
	w.cartOpen = false
	w.view.Show(ViewCheckout)
	return w.seq.Summary(), nil
}

func (w *Workspace) CheckoutSummary() (checkout.Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == nil {
		return checkout.Summary{}, ErrNoCheckout
	}
	return w.seq.Summary(), nil
}

func (w *Workspace) Pay() (checkout.Summary, error) {
	return w.step((*checkout.Sequencer).Pay)
}

func (w *Workspace) Back() (checkout.Summary, error) {
	return w.step((*checkout.Sequencer).Back)
}

func (w *Workspace) step(fn func(*checkout.Sequencer) error) (checkout.Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == nil {
		return checkout.Summary{}, ErrNoCheckout
	}
	if err := fn(w.seq); err != nil {
		return checkout.Summary{}, err
	}
	return w.seq.Summary(), nil
}

// CancelCheckout прерывает попытку и возвращает на главную; корзина остаётся
func (w *Workspace) CancelCheckout() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == nil {
		return ErrNoCheckout
	}
	if err := w.seq.Cancel(); err != nil {
		return err
	}
	w.seq = nil
	w.view.Show(ViewHome)
	return nil
}

// ConfirmCheckout без сессии отправляет на экран входа; попытка остаётся открытой
func (w *Workspace) ConfirmCheckout(ctx context.Context) (checkout.Receipt, error) {
	user := w.Session(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == nil {
		return checkout.Receipt{}, ErrNoCheckout
	}
	r, err := w.seq.Confirm(ctx, user)
	if errors.Is(err, checkout.ErrUnauthenticated) {
		w.view.Show(ViewLogin)
		return checkout.Receipt{}, err
	}
	if err != nil {
		return checkout.Receipt{}, err
	}
	if r.PersistErr != nil && w.deps.Log != nil {
		w.deps.Log.WarnContext(ctx, "order confirmed but not persisted",
			slog.String("client", string(w.client)),
			slog.String("order", r.Order.ID),
			slog.Any("error", r.PersistErr),
		)
	}
	return r, nil
}

// FinishCheckout закрывает подтверждённую попытку и возвращает в магазин
func (w *Workspace) FinishCheckout() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == nil {
		return ErrNoCheckout
	}
	if w.seq.State() != checkout.StateConfirmed {
		return fmt.Errorf("%w: %s -> finished", checkout.ErrInvalidTransition, w.seq.State())
	}
	w.seq = nil
	w.view.Show(ViewHome)
	return nil
}

// SuggestRecipe один запрос на клиента одновременно; повторные вызовы ждут тот же результат.
// Запрос не зависит от отмены контекста вызывающего, его ограничивает таймаут клиента рецептов.
// Ошибка внешнего сервиса не затрагивает корзину и оформление.
func (w *Workspace) SuggestRecipe(ctx context.Context) (*domain.Recipe, error) {
	if w.deps.Recipes == nil || !w.deps.Recipes.Enabled() {
		return nil, ErrRecipeUnavailable
	}
	w.mu.Lock()
	names := w.cart.Names()
	if len(names) == 0 {
		w.mu.Unlock()
		return nil, checkout.ErrEmptyCart
	}
	w.recipePending = true
	w.mu.Unlock()

	callCtx := context.WithoutCancel(ctx)
	ch := w.flight.DoChan("recipe", func() (any, error) {
		r, err := w.deps.Recipes.Suggest(callCtx, names)
		w.mu.Lock()
		defer w.mu.Unlock()
		w.recipePending = false
		if err != nil {
			w.recipe = nil
			w.recipeErr = "não foi possível gerar a receita"
			return nil, err
		}
		w.recipe = r
		w.recipeErr = ""
		return r, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecipeUnavailable, res.Err)
		}
		return res.Val.(*domain.Recipe), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
