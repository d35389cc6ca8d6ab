package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MoveKind identifica o tipo de movimentação.
type MoveKind string

const (
	KindReceipt  MoveKind = "receipt"
	KindDelivery MoveKind = "delivery"
	KindTransfer MoveKind = "transfer"
)

// ParseMoveKind valida o tipo vindo da URL ou da query string.
func ParseMoveKind(s string) (MoveKind, bool) {
	switch k := MoveKind(s); k {
	case KindReceipt, KindDelivery, KindTransfer:
		return k, true
	}
	return "", false
}

// IsOrder informa se o tipo é um pedido com itens (recebimento ou entrega).
func (k MoveKind) IsOrder() bool {
	return k == KindReceipt || k == KindDelivery
}

// Status é o estado de uma movimentação. O conjunto válido depende do MoveKind.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReady     Status = "ready"
	StatusInTransit Status = "in_transit"
	StatusDone      Status = "done"
)

// StateMachine é a sequência linear de estados de um tipo de movimentação.
// O último estado é terminal.
type StateMachine struct {
	states []Status
}

var (
	orderMachine    = StateMachine{states: []Status{StatusDraft, StatusReady, StatusDone}}
	transferMachine = StateMachine{states: []Status{StatusDraft, StatusInTransit, StatusDone}}
)

// Machine devolve a máquina de estados do tipo.
func (k MoveKind) Machine() StateMachine {
	if k == KindTransfer {
		return transferMachine
	}
	return orderMachine
}

// Initial é o estado de criação.
func (m StateMachine) Initial() Status {
	return m.states[0]
}

// Next devolve o estado seguinte. ok é false para estados terminais ou desconhecidos.
func (m StateMachine) Next(s Status) (Status, bool) {
	for i, st := range m.states {
		if st == s && i+1 < len(m.states) {
			return m.states[i+1], true
		}
	}
	return "", false
}

// IsTerminal informa se s é o último estado.
func (m StateMachine) IsTerminal(s Status) bool {
	return s == m.states[len(m.states)-1]
}

// Knows informa se s pertence a esta máquina.
func (m StateMachine) Knows(s Status) bool {
	for _, st := range m.states {
		if st == s {
			return true
		}
	}
	return false
}

// States devolve uma cópia da sequência de estados.
func (m StateMachine) States() []Status {
	out := make([]Status, len(m.states))
	copy(out, m.states)
	return out
}

// --- Contratos de persistência do workflow ---

// WorkflowStore abre o escopo transacional de uma transição.
// Se fn retornar erro, nada do que foi feito via WorkflowTx é persistido.
type WorkflowStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx WorkflowTx) error) error
}

// WorkflowTx são as operações disponíveis dentro de uma transição.
// Os métodos Lock* mantêm o bloqueio das linhas até o fim da transação.
type WorkflowTx interface {
	LockOrder(ctx context.Context, kind MoveKind, id string) (Order, error)
	OrderItems(ctx context.Context, kind MoveKind, orderID string) ([]OrderItem, error)
	LockTransfer(ctx context.Context, id string) (Transfer, error)

	// ResolveWarehouse procura, no estoque existente, o armazém de uma locação:
	// primeiro uma linha do mesmo produto, depois qualquer linha da locação.
	ResolveWarehouse(ctx context.Context, productID string, locationID int64) (string, bool, error)

	// LockStock trava as linhas existentes na ordem recebida e devolve seus saldos.
	// Chaves sem linha ficam fora do mapa.
	LockStock(ctx context.Context, keys []StockKey) (map[StockKey]decimal.Decimal, error)
	AddStock(ctx context.Context, key StockKey, qty decimal.Decimal) error
	RemoveStock(ctx context.Context, key StockKey, qty decimal.Decimal) error

	SetOrderStatus(ctx context.Context, kind MoveKind, id string, status Status) error
	SetTransferStatus(ctx context.Context, id string, status Status) error
}
