// Package cart хранит позиции корзины в памяти клиента.
package cart

import (
	"github.com/shopspring/decimal"

	"organico/internal/domain"
)

// Cart упорядоченные позиции, по одной на товар. Не потокобезопасна:
// доступ сериализует владелец (workspace клиента).
type Cart struct {
	items []domain.CartItem
}

func New() *Cart { return &Cart{} }

// Add увеличивает количество существующей позиции или добавляет новую в конец.
// Остатки на складе здесь не проверяются.
func (c *Cart) Add(p domain.Product) {
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, domain.CartItem{Product: p, Quantity: 1})
}

// Remove удаляет позицию целиком; отсутствующий id игнорируется
func (c *Cart) Remove(id string) {
	out := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	c.items = out
}

func (c *Cart) Clear() { c.items = nil }

// Total сумма price*quantity, пересчитывается при каждом вызове
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Count общее количество единиц товара
func (c *Cart) Count() int64 {
	var n int64
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Items копия позиций
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Snapshot то же, что Items; используется при оформлении заказа
func (c *Cart) Snapshot() []domain.CartItem { return c.Items() }

// Names названия товаров в порядке добавления
func (c *Cart) Names() []string {
	out := make([]string, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.Name)
	}
	return out
}
