package stockrepo

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

const stockColumns = `id, product_id, warehouse_id, location_id, quantity, updated_at`

// StockRepository acessa o ledger de estoque (tabela stock).
// Os métodos com sufixo Tx rodam dentro da transação do chamador e não abrem outra.
type StockRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// GetStock busca a entrada de estoque de uma chave (produto, armazém, locação).
func (r *StockRepository) GetStock(ctx context.Context, key domain.StockKey) (domain.StockEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + stockColumns + `
        FROM stock
        WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3`

	var entry domain.StockEntry
	err := r.DB.GetContext(ctxTimeout, &entry, query, key.ProductID, key.WarehouseID, key.LocationID)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Estoque não encontrado.", map[string]interface{}{"key": key.String()})
		return domain.StockEntry{}, errors.NewNotFoundError(fmt.Sprintf("Estoque para o produto %s no armazém %s, locação %d não encontrado.", key.ProductID, key.WarehouseID, key.LocationID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque no DB.", err)
		return domain.StockEntry{}, database.MapError("Falha ao buscar estoque", err)
	}
	return entry, nil
}

// CreateStock soma a quantidade a uma entrada existente ou cria a entrada, num único comando.
// created indica se a linha foi inserida.
func (r *StockRepository) CreateStock(ctx context.Context, key domain.StockKey, qty decimal.Decimal) (domain.StockEntry, bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO stock (id, product_id, warehouse_id, location_id, quantity, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT ON CONSTRAINT stock_key
        DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = NOW()
        RETURNING ` + stockColumns + `, (xmax = 0) AS created`

	var row struct {
		domain.StockEntry
		Created bool `db:"created"`
	}
	err := r.DB.GetContext(ctxTimeout, &row, query, uuid.New().String(), key.ProductID, key.WarehouseID, key.LocationID, qty)
	if err != nil {
		r.logger.Error("Falha ao gravar entrada de estoque.", err)
		return domain.StockEntry{}, false, database.MapError("Falha ao gravar estoque", err)
	}

	r.logger.Info("Entrada de estoque gravada.", map[string]interface{}{"key": key.String(), "quantity": row.Quantity.String(), "created": row.Created})
	return row.StockEntry, row.Created, nil
}

// ListDetailed lista todo o estoque com os dados de produto e armazém.
func (r *StockRepository) ListDetailed(ctx context.Context) ([]domain.DetailedStock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT s.id, s.product_id, p.name AS product_name, p.sku, p.category, p.uom, p.unit_price, p.reorder_level,
               s.warehouse_id, w.name AS warehouse_name, w.location AS warehouse_location,
               s.location_id, s.quantity, s.updated_at
        FROM stock s
        JOIN products p ON p.id = s.product_id
        JOIN warehouses w ON w.id = s.warehouse_id
        ORDER BY p.name, w.name, s.location_id`

	rows := []domain.DetailedStock{}
	if err := r.DB.SelectContext(ctxTimeout, &rows, query); err != nil {
		r.logger.Error("Falha ao listar estoque detalhado.", err)
		return nil, database.MapError("Falha ao listar estoque", err)
	}
	return rows, nil
}

// ListLocationIDs devolve os location_id distintos de um armazém.
func (r *StockRepository) ListLocationIDs(ctx context.Context, warehouseID string) ([]int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	ids := []int64{}
	err := r.DB.SelectContext(ctxTimeout, &ids,
		`SELECT DISTINCT location_id FROM stock WHERE warehouse_id = $1 ORDER BY location_id`, warehouseID)
	if err != nil {
		r.logger.Error("Falha ao listar locações.", err)
		return nil, database.MapError("Falha ao listar locações", err)
	}
	return ids, nil
}

// ListLowStock devolve os produtos cujo saldo total é menor ou igual ao nível de reposição.
func (r *StockRepository) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT p.id AS product_id, p.name AS product_name, p.sku,
               COALESCE(SUM(s.quantity), 0) AS total, p.reorder_level
        FROM products p
        LEFT JOIN stock s ON s.product_id = p.id
        GROUP BY p.id, p.name, p.sku, p.reorder_level
        HAVING COALESCE(SUM(s.quantity), 0) <= p.reorder_level
        ORDER BY total, p.name`

	items := []domain.LowStockItem{}
	if err := r.DB.SelectContext(ctxTimeout, &items, query); err != nil {
		r.logger.Error("Falha ao listar estoque baixo.", err)
		return nil, database.MapError("Falha ao listar estoque baixo", err)
	}
	return items, nil
}

// --- Operações transacionais (workflow) ---

// ResolveWarehouseTx procura o armazém de uma locação no estoque existente: primeiro uma linha
// do mesmo produto (a de maior saldo), depois qualquer linha da locação.
func (r *StockRepository) ResolveWarehouseTx(ctx context.Context, tx *sqlx.Tx, productID string, locationID int64) (string, bool, error) {
	var warehouseID string
	err := tx.GetContext(ctx, &warehouseID, `
        SELECT warehouse_id FROM stock
        WHERE product_id = $1 AND location_id = $2
        ORDER BY quantity DESC, warehouse_id
        LIMIT 1`, productID, locationID)
	if err == nil {
		return warehouseID, true, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return "", false, database.MapError("Falha ao resolver armazém", err)
	}

	err = tx.GetContext(ctx, &warehouseID, `
        SELECT warehouse_id FROM stock
        WHERE location_id = $1
        ORDER BY warehouse_id
        LIMIT 1`, locationID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.MapError("Falha ao resolver armazém", err)
	}
	return warehouseID, true, nil
}

// LockStockTx trava (FOR UPDATE) as linhas das chaves, uma a uma na ordem recebida.
// O chamador deve passar as chaves ordenadas para evitar deadlock.
func (r *StockRepository) LockStockTx(ctx context.Context, tx *sqlx.Tx, keys []domain.StockKey) (map[domain.StockKey]decimal.Decimal, error) {
	out := make(map[domain.StockKey]decimal.Decimal, len(keys))
	for _, key := range keys {
		var qty decimal.Decimal
		err := tx.GetContext(ctx, &qty, `
            SELECT quantity FROM stock
            WHERE product_id = $1 AND warehouse_id = $2 AND location_id = $3
            FOR UPDATE`, key.ProductID, key.WarehouseID, key.LocationID)
		if stderrors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, database.MapError(fmt.Sprintf("Falha ao travar estoque %s", key), err)
		}
		out[key] = qty
	}
	return out, nil
}

// AddStockTx soma qty à linha da chave, criando-a se não existir.
func (r *StockRepository) AddStockTx(ctx context.Context, tx *sqlx.Tx, key domain.StockKey, qty decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO stock (id, product_id, warehouse_id, location_id, quantity, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT ON CONSTRAINT stock_key
        DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		uuid.New().String(), key.ProductID, key.WarehouseID, key.LocationID, qty)
	if err != nil {
		return database.MapError(fmt.Sprintf("Falha ao creditar estoque %s", key), err)
	}
	return nil
}

// RemoveStockTx subtrai qty da linha da chave. A condição quantity >= qty impede saldo negativo
// mesmo que o chamador não tenha travado a linha antes.
func (r *StockRepository) RemoveStockTx(ctx context.Context, tx *sqlx.Tx, key domain.StockKey, qty decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, `
        UPDATE stock
        SET quantity = quantity - $1, updated_at = NOW()
        WHERE product_id = $2 AND warehouse_id = $3 AND location_id = $4 AND quantity >= $1`,
		qty, key.ProductID, key.WarehouseID, key.LocationID)
	if err != nil {
		return database.MapError(fmt.Sprintf("Falha ao debitar estoque %s", key), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewValidationError(fmt.Sprintf("Saldo insuficiente para debitar %s de %s.", qty.String(), key))
	}
	return nil
}
