package orderrepo

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

// tables descreve onde cada tipo de pedido é persistido.
type tables struct {
	header    string
	items     string
	fk        string
	sequence  string
	refPrefix string
}

var kindTables = map[domain.MoveKind]tables{
	domain.KindReceipt:  {header: "receipts", items: "receipt_items", fk: "receipt_id", sequence: "receipt_ref_seq", refPrefix: "WH/IN/"},
	domain.KindDelivery: {header: "deliveries", items: "delivery_items", fk: "delivery_id", sequence: "delivery_ref_seq", refPrefix: "WH/OUT/"},
}

func tablesFor(kind domain.MoveKind) (tables, error) {
	t, ok := kindTables[kind]
	if !ok {
		return tables{}, errors.NewValidationError(fmt.Sprintf("Tipo de pedido inválido: %q.", kind))
	}
	return t, nil
}

const headerColumns = `id, reference, partner, schedule_date, warehouse_id, notes, status, created_at, updated_at`

// OrderRepository persiste recebimentos e entregas (cabeçalho + itens).
type OrderRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere o cabeçalho e os itens numa transação. Referência vazia é gerada pela sequence
// do tipo (WH/IN/00001, WH/OUT/00001).
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	t, err := tablesFor(order.Kind)
	if err != nil {
		return domain.Order{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	insertHeader := fmt.Sprintf(`
        INSERT INTO %s (id, reference, partner, schedule_date, warehouse_id, notes, status, created_at, updated_at)
        VALUES ($1, COALESCE(NULLIF($2, ''), '%s' || LPAD(nextval('%s')::text, 5, '0')), $3, $4, $5, $6, $7, $8, $8)
        RETURNING %s`, t.header, t.refPrefix, t.sequence, headerColumns)

	var created domain.Order
	err = database.WithTx(ctxTimeout, r.DB, nil, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctxTimeout, &created, insertHeader,
			order.ID, order.Reference, order.Partner, order.ScheduleDate, order.WarehouseID,
			order.Notes, order.Status, order.CreatedAt,
		); err != nil {
			return database.MapError("Falha ao criar pedido", err)
		}

		created.Kind = order.Kind
		created.Items = make([]domain.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			item.OrderID = created.ID
			saved, err := r.insertItemTx(ctxTimeout, tx, t, item)
			if err != nil {
				return err
			}
			created.Items = append(created.Items, saved)
		}
		created.ItemCount = len(created.Items)
		return nil
	})
	if err != nil {
		r.logger.Error("Falha ao criar pedido.", err)
		return domain.Order{}, err
	}

	r.logger.Info("Pedido criado com sucesso.", map[string]interface{}{"kind": order.Kind, "id": created.ID, "reference": created.Reference})
	return created, nil
}

// FindByID busca um pedido com seus itens.
func (r *OrderRepository) FindByID(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return domain.Order{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var order domain.Order
	err = r.DB.GetContext(ctxTimeout, &order, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, headerColumns, t.header), id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido (%s) com ID %s não encontrado.", kind, id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, database.MapError("Falha ao buscar pedido", err)
	}

	items := []domain.OrderItem{}
	if err := r.DB.SelectContext(ctxTimeout, &items, itemsQuery(t), id); err != nil {
		r.logger.Error("Falha ao buscar itens do pedido.", err)
		return domain.Order{}, database.MapError("Falha ao buscar itens do pedido", err)
	}

	order.Kind = kind
	order.Items = items
	order.ItemCount = len(items)
	return order, nil
}

// List devolve os cabeçalhos com a contagem de itens, mais recentes primeiro.
func (r *OrderRepository) List(ctx context.Context, kind domain.MoveKind) ([]domain.Order, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
        SELECT o.id, o.reference, o.partner, o.schedule_date, o.warehouse_id, o.notes, o.status,
               o.created_at, o.updated_at, COUNT(i.id) AS item_count
        FROM %s o
        LEFT JOIN %s i ON i.%s = o.id
        GROUP BY o.id
        ORDER BY o.created_at DESC, o.id`, t.header, t.items, t.fk)

	orders := []domain.Order{}
	if err := r.DB.SelectContext(ctxTimeout, &orders, query); err != nil {
		r.logger.Error("Falha ao listar pedidos.", err)
		return nil, database.MapError("Falha ao listar pedidos", err)
	}
	for i := range orders {
		orders[i].Kind = kind
	}
	return orders, nil
}

// AddItem adiciona uma linha ao pedido se o status atual estiver em allowed.
// O cabeçalho fica travado até o commit, então um avanço concorrente espera.
func (r *OrderRepository) AddItem(ctx context.Context, kind domain.MoveKind, item domain.OrderItem, allowed []domain.Status) (domain.OrderItem, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return domain.OrderItem{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var saved domain.OrderItem
	err = database.WithTx(ctxTimeout, r.DB, nil, func(tx *sqlx.Tx) error {
		order, err := r.LockOrderTx(ctxTimeout, tx, kind, item.OrderID)
		if err != nil {
			return err
		}
		if !containsStatus(allowed, order.Status) {
			return errors.NewValidationError(fmt.Sprintf("Não é possível adicionar itens a um pedido com status %q.", order.Status))
		}
		saved, err = r.insertItemTx(ctxTimeout, tx, t, item)
		if err != nil {
			return err
		}
		return r.touchTx(ctxTimeout, tx, t, item.OrderID)
	})
	if err != nil {
		r.logger.Warn("Item não adicionado ao pedido.", map[string]interface{}{"order_id": item.OrderID, "error": err.Error()})
		return domain.OrderItem{}, err
	}

	r.logger.Info("Item adicionado ao pedido.", map[string]interface{}{"order_id": item.OrderID, "item_id": saved.ID})
	return saved, nil
}

// --- Operações transacionais (workflow) ---

// LockOrderTx trava o cabeçalho do pedido (FOR UPDATE).
func (r *OrderRepository) LockOrderTx(ctx context.Context, tx *sqlx.Tx, kind domain.MoveKind, id string) (domain.Order, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err = tx.GetContext(ctx, &order, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, headerColumns, t.header), id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido (%s) com ID %s não encontrado.", kind, id))
	}
	if err != nil {
		return domain.Order{}, database.MapError("Falha ao travar pedido", err)
	}
	order.Kind = kind
	return order, nil
}

// ItemsTx lê os itens do pedido dentro da transação.
func (r *OrderRepository) ItemsTx(ctx context.Context, tx *sqlx.Tx, kind domain.MoveKind, orderID string) ([]domain.OrderItem, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	items := []domain.OrderItem{}
	if err := tx.SelectContext(ctx, &items, itemsQuery(t), orderID); err != nil {
		return nil, database.MapError("Falha ao ler itens do pedido", err)
	}
	return items, nil
}

// SetStatusTx grava o novo status do pedido.
func (r *OrderRepository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, kind domain.MoveKind, id string, status domain.Status) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2`, t.header), status, id)
	if err != nil {
		return database.MapError("Falha ao atualizar status do pedido", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pedido (%s) com ID %s não encontrado.", kind, id))
	}
	return nil
}

func (r *OrderRepository) insertItemTx(ctx context.Context, tx *sqlx.Tx, t tables, item domain.OrderItem) (domain.OrderItem, error) {
	query := fmt.Sprintf(`
        WITH ins AS (
            INSERT INTO %s (id, %s, product_id, quantity, location_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, %s AS order_id, product_id, quantity, location_id, created_at
        )
        SELECT ins.id, ins.order_id, ins.product_id, p.name AS product_name, p.sku,
               ins.quantity, ins.location_id, ins.created_at
        FROM ins JOIN products p ON p.id = ins.product_id`, t.items, t.fk, t.fk)

	var saved domain.OrderItem
	err := tx.GetContext(ctx, &saved, query,
		item.ID, item.OrderID, item.ProductID, item.Quantity, item.LocationID, item.CreatedAt,
	)
	if err != nil {
		return domain.OrderItem{}, database.MapError("Falha ao inserir item do pedido", err)
	}
	return saved, nil
}

func (r *OrderRepository) touchTx(ctx context.Context, tx *sqlx.Tx, t tables, id string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, t.header), id); err != nil {
		return database.MapError("Falha ao atualizar pedido", err)
	}
	return nil
}

func itemsQuery(t tables) string {
	return fmt.Sprintf(`
        SELECT i.id, i.%s AS order_id, i.product_id, p.name AS product_name, p.sku,
               i.quantity, i.location_id, i.created_at
        FROM %s i
        JOIN products p ON p.id = i.product_id
        WHERE i.%s = $1
        ORDER BY i.created_at, i.id`, t.fk, t.items, t.fk)
}

func containsStatus(list []domain.Status, s domain.Status) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}
