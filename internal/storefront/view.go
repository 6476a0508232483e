package storefront

import (
	"fmt"
	"strings"
)

// View активный экран клиента
type View string

const (
	ViewHome          View = "HOME"
	ViewLogin         View = "LOGIN"
	ViewRegister      View = "REGISTER"
	ViewAdminProducts View = "ADMIN_PRODUCTS"
	ViewCart          View = "CART"
	ViewCheckout      View = "CHECKOUT"
	ViewProfile       View = "PROFILE"
)

var views = []View{ViewHome, ViewLogin, ViewRegister, ViewAdminProducts, ViewCart, ViewCheckout, ViewProfile}

func ParseView(s string) (View, error) {
	v := View(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Coordinator хранит единственное значение текущего экрана
type Coordinator struct {
	current View
}

func NewCoordinator() *Coordinator { return &Coordinator{current: ViewHome} }

func (c *Coordinator) Current() View { return c.current }

func (c *Coordinator) Show(v View) { c.current = v }
