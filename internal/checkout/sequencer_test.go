package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organico/internal/cart"
	"organico/internal/domain"
)

type fakeRecorder struct {
	orders []domain.Order
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, o domain.Order) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, o)
	return nil
}

func filledCart() *cart.Cart {
	c := cart.New()
	tomato := domain.Product{ID: "1", Name: "Tomate", Price: decimal.RequireFromString("8.50"), Stock: 50}
	lettuce := domain.Product{ID: "2", Name: "Alface", Price: decimal.RequireFromString("3.00"), Stock: 30}
	c.Add(tomato)
	c.Add(tomato)
	c.Add(lettuce)
	return c
}

var customer = &domain.User{ID: "u1", Name: "Maria", Role: domain.RoleCustomer}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	c := filledCart()
	rec := &fakeRecorder{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(c, rec, WithClock(func() time.Time { return fixed }), WithIDGenerator(func() string { return "order-1" }))

	require.Equal(t, StateReview, s.State())
	expectedItems := c.Items()

	require.NoError(t, s.Pay())
	require.Equal(t, StateAwaitingPayment, s.State())

	r, err := s.Confirm(ctx, customer)
	require.NoError(t, err)
	require.NoError(t, r.PersistErr)
	assert.Equal(t, StateConfirmed, s.State())

	require.Len(t, rec.orders, 1)
	o := rec.orders[0]
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, expectedItems, o.Items)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Equal(t, domain.PaymentPIX, o.PaymentMethod)
	assert.Equal(t, fixed, o.Date)
	assert.True(t, c.IsEmpty(), "cart must be cleared")

	// summary keeps showing the confirmed order
	sum := s.Summary()
	assert.Len(t, sum.Items, 2)
	assert.True(t, sum.Total.Equal(o.Total))
}

func TestConfirm_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	c := filledCart()
	rec := &fakeRecorder{}
	s := New(c, rec)
	require.NoError(t, s.Pay())

	_, err := s.Confirm(ctx, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, rec.orders)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, StateAwaitingPayment, s.State())

	// after logging in the same attempt can complete
	_, err = s.Confirm(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, rec.orders, 1)
}

func TestPaymentCode_StableAcrossBack(t *testing.T) {
	calls := 0
	gen := func(total decimal.Decimal) string {
		calls++
		return "code-" + total.String()
	}
	s := New(filledCart(), &fakeRecorder{}, WithCodeGenerator(gen))
	assert.Empty(t, s.PaymentCode())

	require.NoError(t, s.Pay())
	code := s.PaymentCode()
	require.NoError(t, s.Back())
	assert.Equal(t, StateReview, s.State())
	require.NoError(t, s.Pay())
	assert.Equal(t, code, s.PaymentCode())
	assert.Equal(t, 1, calls)
}

func TestPersistFailureStillConfirms(t *testing.T) {
	c := filledCart()
	boom := errors.New("disk full")
	s := New(c, &fakeRecorder{err: boom})
	require.NoError(t, s.Pay())
	r, err := s.Confirm(context.Background(), customer)
	require.NoError(t, err)
	assert.ErrorIs(t, r.PersistErr, boom)
	assert.Equal(t, StateConfirmed, s.State())
	assert.True(t, c.IsEmpty())
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	s := New(filledCart(), &fakeRecorder{})

	_, err := s.Confirm(ctx, customer)
	assert.ErrorIs(t, err, ErrInvalidTransition, "confirm from review")
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition, "back from review")

	require.NoError(t, s.Pay())
	assert.ErrorIs(t, s.Pay(), ErrInvalidTransition, "pay twice")

	_, err = s.Confirm(ctx, customer)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Cancel(), ErrInvalidTransition, "cancel after confirm")
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition, "back after confirm")
}

func TestCancel(t *testing.T) {
	c := filledCart()
	s := New(c, &fakeRecorder{})
	require.NoError(t, s.Pay())
	require.NoError(t, s.Cancel())
	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, 2, c.Len(), "cancel keeps cart")
	assert.ErrorIs(t, s.Pay(), ErrInvalidTransition)
}

func TestPay_EmptyCart(t *testing.T) {
	s := New(cart.New(), &fakeRecorder{})
	assert.ErrorIs(t, s.Pay(), ErrEmptyCart)
	assert.Equal(t, StateReview, s.State())
}

func TestPixCode(t *testing.T) {
	code := PixCode(decimal.RequireFromString("20"))
	assert.True(t, strings.HasPrefix(code, "00020126580014BR.GOV.BCB.PIX"))
	assert.Contains(t, code, "2000")
	assert.NotEqual(t, code, PixCode(decimal.RequireFromString("20")))
}
