package testsupport

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Customer places orders.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,unique" json:"email"`
}

// Product is referenced by order lines.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	SKU        string `bun:"sku,unique,notnull" json:"sku"`
	Name       string `bun:"name,notnull" json:"name"`
	PriceCents int64  `bun:"price_cents,notnull" json:"price_cents"`
}

// Order belongs to a customer and has many lines.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         int64       `bun:"id,pk,autoincrement" json:"id"`
	Number     string      `bun:"number,unique,notnull" json:"number"`
	Status     string      `bun:"status,notnull" json:"status"`
	CustomerID int64       `bun:"customer_id" json:"customer_id"`
	Customer   *Customer   `bun:"rel:belongs-to,join:customer_id=id" json:"-"`
	Lines      []OrderLine `bun:"rel:has-many,join:id=order_id" json:"-"`
}

// OrderLine is one product on an order.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines,alias:l"`

	ID        int64    `bun:"id,pk,autoincrement" json:"id"`
	OrderID   int64    `bun:"order_id,notnull" json:"order_id"`
	ProductID int64    `bun:"product_id,notnull" json:"product_id"`
	Quantity  int      `bun:"quantity,notnull" json:"quantity"`
	Product   *Product `bun:"rel:belongs-to,join:product_id=id" json:"-"`
}

// Event has a UUID key and no relationships.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        uuid.UUID `bun:"id,pk,type:text" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Models lists every sample model in creation order.
func Models() []any {
	return []any{
		(*Customer)(nil),
		(*Product)(nil),
		(*Order)(nil),
		(*OrderLine)(nil),
		(*Event)(nil),
	}
}
