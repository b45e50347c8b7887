package store

import (
	"fmt"
	"time"
)

// Product es un artículo de la tienda. El precio se guarda en centavos
// para no arrastrar flotantes por el dominio.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Category    string
	ImageURL    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Cart es el carrito de un cliente: a lo sumo uno por usuario.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem es una línea del carrito. PriceCents es el precio del
// producto al momento de agregarlo.
type CartItem struct {
	ID         string
	CartID     string
	ProductID  string
	Quantity   int
	PriceCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (i CartItem) SubtotalCents() int64 {
	return i.PriceCents * int64(i.Quantity)
}

// FormatCents imprime centavos como decimal con dos dígitos ("1234" →
// "12.34"). Los negativos no aparecen en este dominio pero se manejan.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
