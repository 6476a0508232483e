package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// цены в JSON числами, как в исходных записях
	decimal.MarshalJSONWithoutQuotes = true
}

// ClientID идентификатор клиента (один «браузер»): свой слот сессии, корзина и экран
type ClientID string

// Role роль пользователя
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User учётная запись покупателя или администратора
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// Stripped копия без пароля, именно она хранится как текущая сессия
func (u User) Stripped() User {
	u.Password = ""
	return u
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Product товар каталога
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int64           `json:"stock"`
}

// CartItem позиция корзины: товар плюс количество (>= 1)
type CartItem struct {
	Product
	Quantity int64 `json:"quantity"`
}

// Subtotal price*quantity
func (it CartItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
)

// PaymentMethod способ оплаты; поддерживается только PIX
type PaymentMethod string

const PaymentPIX PaymentMethod = "PIX"

// Order сущность заказа, после записи не меняется
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	Date          time.Time       `json:"date"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

// Recipe предложение рецепта по содержимому корзины
type Recipe struct {
	Title          string   `json:"title"`
	Difficulty     string   `json:"difficulty"`
	Time           string   `json:"time"`
	Ingredients    []string `json:"ingredients"`
	Instructions   []string `json:"instructions"`
	HealthBenefits string   `json:"healthBenefits"`
}
