package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry é a quantidade de um produto numa (armazém, locação).
// A chave (produto, armazém, locação) é única e a quantidade nunca fica negativa.
type StockEntry struct {
	ID          string          `json:"id" db:"id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	WarehouseID string          `json:"warehouse_id" db:"warehouse_id"`
	LocationID  int64           `json:"location_id" db:"location_id"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity" swaggertype:"string" example:"15"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Key devolve a chave composta da entrada.
func (e StockEntry) Key() StockKey {
	return StockKey{ProductID: e.ProductID, WarehouseID: e.WarehouseID, LocationID: e.LocationID}
}

// StockKey identifica uma linha do ledger.
type StockKey struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  int64  `json:"location_id"`
}

func (k StockKey) String() string {
	return fmt.Sprintf("%s@%s/%d", k.ProductID, k.WarehouseID, k.LocationID)
}

// Less define a ordem total usada para travar linhas sem deadlock.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.LocationID < o.LocationID
}

// SortStockKeys ordena as chaves in-place.
func SortStockKeys(keys []StockKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// DetailedStock é uma linha do estoque com os dados descritivos de produto e armazém.
type DetailedStock struct {
	ID                string          `json:"id" db:"id"`
	ProductID         string          `json:"product_id" db:"product_id"`
	ProductName       string          `json:"product_name" db:"product_name"`
	SKU               string          `json:"sku" db:"sku"`
	Category          string          `json:"category" db:"category"`
	UOM               string          `json:"uom" db:"uom"`
	UnitPrice         decimal.Decimal `json:"unit_price" db:"unit_price" swaggertype:"string"`
	ReorderLevel      decimal.Decimal `json:"reorder_level" db:"reorder_level" swaggertype:"string"`
	WarehouseID       string          `json:"warehouse_id" db:"warehouse_id"`
	WarehouseName     string          `json:"warehouse_name" db:"warehouse_name"`
	WarehouseLocation string          `json:"warehouse_location" db:"warehouse_location"`
	LocationID        int64           `json:"location_id" db:"location_id"`
	Quantity          decimal.Decimal `json:"quantity" db:"quantity" swaggertype:"string"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Location é uma locação interna de um armazém, sintetizada a partir do estoque.
type Location struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewLocation monta a representação exibida de um location_id.
func NewLocation(id int64) Location {
	return Location{ID: id, Code: fmt.Sprintf("LOC-%d", id), Name: fmt.Sprintf("Location %d", id)}
}

// CreateStockRequest é o payload de entrada manual de estoque.
type CreateStockRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	LocationID  int64           `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string" example:"10"`
}

// StockShortfall descreve um item de entrega sem saldo suficiente.
type StockShortfall struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	WarehouseID string          `json:"warehouse_id"`
	LocationID  int64           `json:"location_id"`
	Available   decimal.Decimal `json:"available" swaggertype:"string"`
	Required    decimal.Decimal `json:"required" swaggertype:"string"`
}

// LowStockItem é um produto cujo saldo total está no nível de reposição ou abaixo dele.
type LowStockItem struct {
	ProductID    string          `json:"product_id" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	SKU          string          `json:"sku" db:"sku"`
	Total        decimal.Decimal `json:"total" db:"total" swaggertype:"string"`
	ReorderLevel decimal.Decimal `json:"reorder_level" db:"reorder_level" swaggertype:"string"`
}
