package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Move é uma linha do histórico unificado de movimentações.
// Recebimentos e entregas geram uma linha por item; pedidos sem itens aparecem com quantidade 0.
type Move struct {
	ID           string          `json:"id" db:"id"`
	LineID       *string         `json:"line_id,omitempty" db:"line_id"`
	MoveType     MoveKind        `json:"move_type" db:"move_type"`
	Reference    string          `json:"reference" db:"reference"`
	Date         time.Time       `json:"date" db:"date"`
	Contact      string          `json:"contact" db:"contact"`
	FromLocation string          `json:"from_location" db:"from_location"`
	ToLocation   string          `json:"to_location" db:"to_location"`
	ProductID    *string         `json:"product_id,omitempty" db:"product_id"`
	ProductName  *string         `json:"product_name,omitempty" db:"product_name"`
	SKU          *string         `json:"sku,omitempty" db:"sku"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity" swaggertype:"string"`
	Status       Status          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// MoveFilter são os filtros do histórico. Datas são inclusivas.
type MoveFilter struct {
	Reference string
	Contact   string
	Status    Status
	MoveType  MoveKind
	FromDate  *time.Time
	ToDate    *time.Time
}

// MoveStatistics alimenta o dashboard. Contagens são por pedido, quantidades por item.
type MoveStatistics struct {
	TotalReceipts     int             `json:"total_receipts" db:"total_receipts"`
	TotalDeliveries   int             `json:"total_deliveries" db:"total_deliveries"`
	TotalTransfers    int             `json:"total_transfers" db:"total_transfers"`
	DraftMoves        int             `json:"draft_moves" db:"draft_moves"`
	ReadyMoves        int             `json:"ready_moves" db:"ready_moves"`
	InTransitMoves    int             `json:"in_transit_moves" db:"in_transit_moves"`
	DoneMoves         int             `json:"done_moves" db:"done_moves"`
	TotalReceivedQty  decimal.Decimal `json:"total_received_qty" db:"total_received_qty" swaggertype:"string"`
	TotalDeliveredQty decimal.Decimal `json:"total_delivered_qty" db:"total_delivered_qty" swaggertype:"string"`
}

// MoveDetails é o detalhe de uma movimentação: um pedido (com itens) ou uma transferência.
type MoveDetails struct {
	MoveType      MoveKind   `json:"move_type"`
	Order         *Order     `json:"order,omitempty"`
	Transfer      *Transfer  `json:"transfer,omitempty"`
	WarehouseName string     `json:"warehouse_name,omitempty"`
	FromWarehouse *Warehouse `json:"from_warehouse,omitempty"`
	ToWarehouse   *Warehouse `json:"to_warehouse,omitempty"`
}

// StatusChangeRequest é o payload de PUT /api/moves/{type}/{id}/status.
type StatusChangeRequest struct {
	Status Status `json:"status" example:"ready"`
}
