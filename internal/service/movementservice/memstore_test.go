package movementservice_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
)

// memStore é um domain.WorkflowStore em memória. O mutex fica preso durante todo o WithinTx,
// o que equivale a travar todas as linhas; em erro o estado anterior é restaurado.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	items     map[string][]domain.OrderItem
	transfers map[string]domain.Transfer
	stock     map[domain.StockKey]decimal.Decimal
	failOn    string
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[string]domain.Order{},
		items:     map[string][]domain.OrderItem{},
		transfers: map[string]domain.Transfer{},
		stock:     map[domain.StockKey]decimal.Decimal{},
	}
}

type memSnapshot struct {
	orders    map[string]domain.Order
	transfers map[string]domain.Transfer
	stock     map[domain.StockKey]decimal.Decimal
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		orders:    make(map[string]domain.Order, len(m.orders)),
		transfers: make(map[string]domain.Transfer, len(m.transfers)),
		stock:     make(map[domain.StockKey]decimal.Decimal, len(m.stock)),
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	for k, v := range m.transfers {
		s.transfers[k] = v
	}
	for k, v := range m.stock {
		s.stock[k] = v
	}
	return s
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.WorkflowTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.orders, m.transfers, m.stock = snap.orders, snap.transfers, snap.stock
		return err
	}
	return nil
}

// helpers de seed/leitura (fora de transação)

func (m *memStore) putOrder(o domain.Order, items ...domain.OrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	m.items[o.ID] = items
}

func (m *memStore) putTransfer(t domain.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[t.ID] = t
}

func (m *memStore) setStock(key domain.StockKey, qty string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[key] = decimal.RequireFromString(qty)
}

func (m *memStore) quantity(key domain.StockKey) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.stock[key]
	return q, ok
}

func (m *memStore) status(id string) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return o.Status
	}
	return m.transfers[id].Status
}

func (m *memStore) stockCopy() map[domain.StockKey]decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot().stock
}

type memTx struct {
	m *memStore
}

func (t *memTx) LockOrder(_ context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	o, ok := t.m.orders[id]
	if !ok || o.Kind != kind {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido (%s) com ID %s não encontrado.", kind, id))
	}
	return o, nil
}

func (t *memTx) OrderItems(_ context.Context, _ domain.MoveKind, orderID string) ([]domain.OrderItem, error) {
	return t.m.items[orderID], nil
}

func (t *memTx) LockTransfer(_ context.Context, id string) (domain.Transfer, error) {
	tr, ok := t.m.transfers[id]
	if !ok {
		return domain.Transfer{}, apperror.NewNotFoundError(fmt.Sprintf("Transferência com ID %s não encontrada.", id))
	}
	return tr, nil
}

func (t *memTx) ResolveWarehouse(_ context.Context, productID string, locationID int64) (string, bool, error) {
	var sameProduct, anyProduct []domain.StockKey
	for k := range t.m.stock {
		if k.LocationID != locationID {
			continue
		}
		anyProduct = append(anyProduct, k)
		if k.ProductID == productID {
			sameProduct = append(sameProduct, k)
		}
	}
	if len(sameProduct) > 0 {
		sort.Slice(sameProduct, func(i, j int) bool {
			qi, qj := t.m.stock[sameProduct[i]], t.m.stock[sameProduct[j]]
			if !qi.Equal(qj) {
				return qi.GreaterThan(qj)
			}
			return sameProduct[i].WarehouseID < sameProduct[j].WarehouseID
		})
		return sameProduct[0].WarehouseID, true, nil
	}
	if len(anyProduct) > 0 {
		sort.Slice(anyProduct, func(i, j int) bool { return anyProduct[i].WarehouseID < anyProduct[j].WarehouseID })
		return anyProduct[0].WarehouseID, true, nil
	}
	return "", false, nil
}

func (t *memTx) LockStock(_ context.Context, keys []domain.StockKey) (map[domain.StockKey]decimal.Decimal, error) {
	out := make(map[domain.StockKey]decimal.Decimal, len(keys))
	for _, k := range keys {
		if q, ok := t.m.stock[k]; ok {
			out[k] = q
		}
	}
	return out, nil
}

func (t *memTx) AddStock(_ context.Context, key domain.StockKey, qty decimal.Decimal) error {
	if t.m.failOn == "AddStock" {
		return fmt.Errorf("falha simulada em AddStock")
	}
	t.m.stock[key] = t.m.stock[key].Add(qty)
	return nil
}

func (t *memTx) RemoveStock(_ context.Context, key domain.StockKey, qty decimal.Decimal) error {
	cur, ok := t.m.stock[key]
	if !ok || cur.LessThan(qty) {
		return apperror.NewValidationError("Saldo insuficiente.")
	}
	t.m.stock[key] = cur.Sub(qty)
	return nil
}

func (t *memTx) SetOrderStatus(_ context.Context, _ domain.MoveKind, id string, status domain.Status) error {
	if t.m.failOn == "SetOrderStatus" {
		return fmt.Errorf("falha simulada em SetOrderStatus")
	}
	o := t.m.orders[id]
	o.Status = status
	t.m.orders[id] = o
	return nil
}

func (t *memTx) SetTransferStatus(_ context.Context, id string, status domain.Status) error {
	tr := t.m.transfers[id]
	tr.Status = status
	t.m.transfers[id] = tr
	return nil
}
