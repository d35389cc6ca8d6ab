package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse representa um armazém físico ou lógico no sistema.
// As locações internas não são uma tabela própria: são os location_id distintos do estoque.
type Warehouse struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Location  string          `json:"location" db:"location"`
	Capacity  decimal.Decimal `json:"capacity" db:"capacity" swaggertype:"string" example:"1000"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
