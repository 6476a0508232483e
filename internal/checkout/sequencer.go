// Package checkout реализует оформление заказа: Review -> AwaitingPayment -> Confirmed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"organico/internal/cart"
	"organico/internal/domain"
)

// State шаг оформления
type State string

const (
	StateReview          State = "REVIEW"
	StateAwaitingPayment State = "AWAITING_PAYMENT"
	StateConfirmed       State = "CONFIRMED"
	StateCancelled       State = "CANCELLED"
)

var (
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrEmptyCart         = errors.New("cart is empty")
)

// OrderRecorder куда записывается подтверждённый заказ
type OrderRecorder interface {
	Record(ctx context.Context, o domain.Order) error
}

// CodeGenerator строит платёжный код по сумме
type CodeGenerator func(total decimal.Decimal) string

// Receipt результат подтверждения. PersistErr не отменяет подтверждение:
// заказ сформирован и корзина очищена, вызывающий решает, показывать ли предупреждение.
type Receipt struct {
	Order      domain.Order
	PersistErr error
}

// Summary содержимое корзины на экране проверки
type Summary struct {
	State       State             `json:"state"`
	Items       []domain.CartItem `json:"items"`
	Total       decimal.Decimal   `json:"total"`
	PaymentCode string            `json:"paymentCode,omitempty"`
}

// Sequencer одна попытка оформления заказа
type Sequencer struct {
	cart     *cart.Cart
	recorder OrderRecorder
	codes    CodeGenerator
	now      func() time.Time
	newID    func() string

	state State
	code  string
	order *domain.Order
}

type Option func(*Sequencer)

func WithCodeGenerator(g CodeGenerator) Option { return func(s *Sequencer) { s.codes = g } }

func WithClock(now func() time.Time) Option { return func(s *Sequencer) { s.now = now } }

func WithIDGenerator(f func() string) Option { return func(s *Sequencer) { s.newID = f } }

func New(c *cart.Cart, recorder OrderRecorder, opts ...Option) *Sequencer {
	s := &Sequencer{
		cart:     c,
		recorder: recorder,
		codes:    PixCode,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		state:    StateReview,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sequencer) State() State { return s.state }

// PaymentCode пусто до первого перехода к оплате
func (s *Sequencer) PaymentCode() string { return s.code }

// Order подтверждённый заказ или nil
func (s *Sequencer) Order() *domain.Order { return s.order }

func (s *Sequencer) Summary() Summary {
	sum := Summary{State: s.state, PaymentCode: s.code}
	if s.order != nil {
		sum.Items = s.order.Items
		sum.Total = s.order.Total
		return sum
	}
	sum.Items = s.cart.Items()
	sum.Total = s.cart.Total()
	return sum
}

// Pay Review -> AwaitingPayment. Код генерируется один раз на попытку.
func (s *Sequencer) Pay() error {
	if s.state != StateReview {
		return s.transitionErr(StateAwaitingPayment)
	}
	if s.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if s.code == "" {
		s.code = s.codes(s.cart.Total())
	}
	s.state = StateAwaitingPayment
	return nil
}

// Back AwaitingPayment -> Review
func (s *Sequencer) Back() error {
	if s.state != StateAwaitingPayment {
		return s.transitionErr(StateReview)
	}
	s.state = StateReview
	return nil
}

func (s *Sequencer) Cancel() error {
	if s.state != StateReview && s.state != StateAwaitingPayment {
		return s.transitionErr(StateCancelled)
	}
	s.state = StateCancelled
	return nil
}

// Confirm AwaitingPayment -> Confirmed. Без сессии заказ не создаётся и корзина не трогается.
func (s *Sequencer) Confirm(ctx context.Context, session *domain.User) (Receipt, error) {
	if s.state != StateAwaitingPayment {
		return Receipt{}, s.transitionErr(StateConfirmed)
	}
	if session == nil {
		return Receipt{}, ErrUnauthenticated
	}
	if s.cart.IsEmpty() {
		return Receipt{}, ErrEmptyCart
	}

	o := domain.Order{
		ID:            s.newID(),
		UserID:        session.ID,
		Items:         s.cart.Snapshot(),
		Total:         s.cart.Total(),
		Status:        domain.OrderStatusPaid,
		Date:          s.now(),
		PaymentMethod: domain.PaymentPIX,
	}
	r := Receipt{Order: o}
	if err := s.recorder.Record(ctx, o); err != nil {
		r.PersistErr = fmt.Errorf("record order %s: %w", o.ID, err)
	}
	s.cart.Clear()
	s.order = &o
	s.state = StateConfirmed
	return r, nil
}

func (s *Sequencer) transitionErr(to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
}

// PixCode код «copia e cola» для демонстрационной оплаты; содержимое непрозрачно
func PixCode(total decimal.Decimal) string {
	txid := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	amount := strings.ReplaceAll(total.StringFixed(2), ".", "")
	return "00020126580014BR.GOV.BCB.PIX0136" + txid +
		"520400005303986540" + amount +
		"5802BR5913ORGANICOVIDA6008BRASILIA62070503***6304"
}
