package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer move a quantidade de um produto entre duas (armazém, locação).
type Transfer struct {
	ID              string          `json:"id" db:"id"`
	Reference       string          `json:"reference" db:"reference"`
	ProductID       string          `json:"product_id" db:"product_id"`
	ProductName     string          `json:"product_name" db:"product_name"`
	SKU             string          `json:"sku" db:"sku"`
	FromWarehouseID string          `json:"from_warehouse_id" db:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id" db:"to_warehouse_id"`
	FromLocationID  int64           `json:"from_location_id" db:"from_location_id"`
	ToLocationID    int64           `json:"to_location_id" db:"to_location_id"`
	Quantity        decimal.Decimal `json:"quantity" db:"quantity" swaggertype:"string" example:"5"`
	Status          Status          `json:"status" db:"status"`
	TransferDate    time.Time       `json:"transfer_date" db:"transfer_date"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// SourceKey é a linha de estoque debitada ao despachar.
func (t Transfer) SourceKey() StockKey {
	return StockKey{ProductID: t.ProductID, WarehouseID: t.FromWarehouseID, LocationID: t.FromLocationID}
}

// DestinationKey é a linha de estoque creditada ao concluir.
func (t Transfer) DestinationKey() StockKey {
	return StockKey{ProductID: t.ProductID, WarehouseID: t.ToWarehouseID, LocationID: t.ToLocationID}
}

// CreateTransferRequest é o payload de criação de transferência.
type CreateTransferRequest struct {
	Reference       string          `json:"reference"`
	ProductID       string          `json:"product_id"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	FromLocationID  *int64          `json:"from_location_id,omitempty"`
	ToLocationID    *int64          `json:"to_location_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity" swaggertype:"string" example:"5"`
	TransferDate    string          `json:"transfer_date" example:"2024-05-01"`
	Notes           string          `json:"notes"`
}
