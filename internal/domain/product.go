package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa o item do catálogo (a Entidade).
// A identidade é imutável; os campos descritivos podem ser atualizados.
type Product struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	SKU          string          `json:"sku" db:"sku"` // Stock Keeping Unit (código único de produto)
	Category     string          `json:"category" db:"category"`
	UOM          string          `json:"uom" db:"uom"` // unidade de medida
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price" swaggertype:"string" example:"12.50"`
	ReorderLevel decimal.Decimal `json:"reorder_level" db:"reorder_level" swaggertype:"string" example:"10"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductFilter define os parâmetros de busca e paginação.
type ProductFilter struct {
	Page     int
	Limit    int
	Name     string
	SKU      string
	Category string
}

// Offset calcula o deslocamento SQL a partir de Page e Limit.
func (f ProductFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
