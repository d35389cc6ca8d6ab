package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order é o cabeçalho comum de recebimentos (receipts) e entregas (deliveries).
// Partner é o fornecedor num recebimento e o cliente numa entrega.
type Order struct {
	ID           string      `json:"id" db:"id"`
	Kind         MoveKind    `json:"kind" db:"-"`
	Reference    string      `json:"reference" db:"reference"`
	Partner      string      `json:"partner" db:"partner"`
	ScheduleDate time.Time   `json:"schedule_date" db:"schedule_date"`
	WarehouseID  *string     `json:"warehouse_id,omitempty" db:"warehouse_id"`
	Notes        string      `json:"notes" db:"notes"`
	Status       Status      `json:"status" db:"status"`
	ItemCount    int         `json:"item_count" db:"item_count"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	Items        []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem é uma linha de um recebimento ou entrega.
// LocationID nulo significa "locação padrão".
type OrderItem struct {
	ID          string          `json:"id" db:"id"`
	OrderID     string          `json:"order_id" db:"order_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	SKU         string          `json:"sku" db:"sku"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity" swaggertype:"string" example:"5"`
	LocationID  *int64          `json:"location_id,omitempty" db:"location_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// CreateOrderRequest é o payload de criação de recebimento/entrega.
type CreateOrderRequest struct {
	Reference    string           `json:"reference"`
	Partner      string           `json:"partner"`
	ScheduleDate string           `json:"schedule_date" example:"2024-05-01"`
	WarehouseID  *string          `json:"warehouse_id,omitempty"`
	Notes        string           `json:"notes"`
	Items        []AddItemRequest `json:"items"`
}

// AddItemRequest é o payload para adicionar uma linha a um pedido.
type AddItemRequest struct {
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity" swaggertype:"string" example:"5"`
	LocationID *int64          `json:"location_id,omitempty"`
}

// TransitionResult é o retorno de um avanço de status.
type TransitionResult struct {
	Kind     MoveKind `json:"kind"`
	ID       string   `json:"id"`
	Previous Status   `json:"previous"`
	Status   Status   `json:"status"`
	Changed  bool     `json:"changed"`
}
