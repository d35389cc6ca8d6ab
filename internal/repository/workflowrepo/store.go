package workflowrepo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/database"
	"stockflow/internal/repository/orderrepo"
	"stockflow/internal/repository/stockrepo"
	"stockflow/internal/repository/transferrepo"
)

// Store implementa domain.WorkflowStore sobre uma transação PostgreSQL, compondo os
// métodos transacionais dos repositórios de pedidos, transferências e estoque.
type Store struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	orders    *orderrepo.OrderRepository
	transfers *transferrepo.TransferRepository
	stock     *stockrepo.StockRepository
}

// NewStore cria o Store do workflow.
func NewStore(db *sqlx.DB, dbTimeout time.Duration, orders *orderrepo.OrderRepository, transfers *transferrepo.TransferRepository, stock *stockrepo.StockRepository) *Store {
	return &Store{
		DB:        db,
		DBTimeout: dbTimeout,
		orders:    orders,
		transfers: transfers,
		stock:     stock,
	}
}

// WithinTx abre a transação (READ COMMITTED + FOR UPDATE) e a encerra conforme o retorno de fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.WorkflowTx) error) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.DBTimeout)
	defer cancel()

	return database.WithTx(ctxTimeout, s.DB, nil, func(tx *sqlx.Tx) error {
		return fn(ctxTimeout, &workflowTx{tx: tx, store: s})
	})
}

type workflowTx struct {
	tx    *sqlx.Tx
	store *Store
}

func (w *workflowTx) LockOrder(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	return w.store.orders.LockOrderTx(ctx, w.tx, kind, id)
}

func (w *workflowTx) OrderItems(ctx context.Context, kind domain.MoveKind, orderID string) ([]domain.OrderItem, error) {
	return w.store.orders.ItemsTx(ctx, w.tx, kind, orderID)
}

func (w *workflowTx) LockTransfer(ctx context.Context, id string) (domain.Transfer, error) {
	return w.store.transfers.LockTransferTx(ctx, w.tx, id)
}

func (w *workflowTx) ResolveWarehouse(ctx context.Context, productID string, locationID int64) (string, bool, error) {
	return w.store.stock.ResolveWarehouseTx(ctx, w.tx, productID, locationID)
}

func (w *workflowTx) LockStock(ctx context.Context, keys []domain.StockKey) (map[domain.StockKey]decimal.Decimal, error) {
	return w.store.stock.LockStockTx(ctx, w.tx, keys)
}

func (w *workflowTx) AddStock(ctx context.Context, key domain.StockKey, qty decimal.Decimal) error {
	return w.store.stock.AddStockTx(ctx, w.tx, key, qty)
}

func (w *workflowTx) RemoveStock(ctx context.Context, key domain.StockKey, qty decimal.Decimal) error {
	return w.store.stock.RemoveStockTx(ctx, w.tx, key, qty)
}

func (w *workflowTx) SetOrderStatus(ctx context.Context, kind domain.MoveKind, id string, status domain.Status) error {
	return w.store.orders.SetStatusTx(ctx, w.tx, kind, id, status)
}

func (w *workflowTx) SetTransferStatus(ctx context.Context, id string, status domain.Status) error {
	return w.store.transfers.SetStatusTx(ctx, w.tx, id, status)
}
