package movementservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
)

// Advance move a movimentação para o próximo estado da sua máquina.
// Em done não faz nada e devolve o status atual.
func (s *Service) Advance(ctx context.Context, kind domain.MoveKind, id string) (domain.TransitionResult, error) {
	return s.transition(ctx, kind, id, nil)
}

// SetStatus leva a movimentação ao status target. target igual ao atual é no-op; target igual
// ao próximo estado equivale a Advance; qualquer outro valor é recusado.
func (s *Service) SetStatus(ctx context.Context, kind domain.MoveKind, id string, target domain.Status) (domain.TransitionResult, error) {
	if !kind.Machine().Knows(target) {
		return domain.TransitionResult{}, apperror.NewValidationError(fmt.Sprintf("Status %q inválido para %s.", target, kind))
	}
	return s.transition(ctx, kind, id, &target)
}

func (s *Service) transition(ctx context.Context, kind domain.MoveKind, id string, target *domain.Status) (domain.TransitionResult, error) {
	if _, ok := domain.ParseMoveKind(string(kind)); !ok {
		return domain.TransitionResult{}, apperror.NewValidationError(fmt.Sprintf("Tipo de movimentação inválido: %q.", kind))
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.TransitionResult{}, apperror.NewValidationError("O ID da movimentação deve ser um UUID válido.")
	}

	s.logger.Debug("Iniciando transição de status.", map[string]interface{}{"kind": kind, "id": id})

	var result domain.TransitionResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.WorkflowTx) error {
		var err error
		if kind == domain.KindTransfer {
			result, err = s.advanceTransfer(ctx, tx, id, target)
		} else {
			result, err = s.advanceOrder(ctx, tx, kind, id, target)
		}
		return err
	})
	if err != nil {
		if apperror.IsValidation(err) || apperror.IsNotFound(err) {
			s.logger.Warn("Transição recusada.", map[string]interface{}{"kind": kind, "id": id, "error": err.Error()})
		} else {
			s.logger.Error("Falha na transição de status.", err)
		}
		return domain.TransitionResult{}, apperror.Ensure(err, "Falha interna ao atualizar status.")
	}

	if result.Changed {
		s.invalidateStats(ctx)
		s.logger.Info("Status atualizado.", map[string]interface{}{"kind": kind, "id": id, "from": result.Previous, "to": result.Status})
	}
	return result, nil
}

// plan decide o próximo estado a partir do atual. apply=false significa no-op.
func plan(kind domain.MoveKind, current domain.Status, target *domain.Status) (next domain.Status, apply bool, err error) {
	m := kind.Machine()

	if target != nil && *target == current {
		return current, false, nil
	}
	if m.IsTerminal(current) {
		if target != nil {
			return "", false, apperror.NewValidationError(fmt.Sprintf("Movimentação já concluída (%s); o status não pode mais ser alterado.", current))
		}
		return current, false, nil
	}

	next, ok := m.Next(current)
	if !ok {
		return "", false, apperror.NewValidationError(fmt.Sprintf("Status atual %q desconhecido para %s.", current, kind))
	}
	if target != nil && *target != next {
		return "", false, apperror.NewValidationError(fmt.Sprintf("Transição de %s para %s não permitida; o próximo status é %s.", current, *target, next))
	}
	return next, true, nil
}

func (s *Service) advanceOrder(ctx context.Context, tx domain.WorkflowTx, kind domain.MoveKind, id string, target *domain.Status) (domain.TransitionResult, error) {
	order, err := tx.LockOrder(ctx, kind, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Kind: kind, ID: id, Previous: order.Status, Status: order.Status}
	next, apply, err := plan(kind, order.Status, target)
	if err != nil || !apply {
		return result, err
	}

	if next == domain.StatusDone {
		items, err := tx.OrderItems(ctx, kind, id)
		if err != nil {
			return domain.TransitionResult{}, err
		}
		if len(items) == 0 {
			return domain.TransitionResult{}, apperror.NewValidationError("O pedido não possui itens e não pode ser concluído.")
		}

		lines, err := s.resolveLines(ctx, tx, order, items)
		if err != nil {
			return domain.TransitionResult{}, err
		}

		if kind == domain.KindReceipt {
			err = s.receive(ctx, tx, lines)
		} else {
			err = s.deliver(ctx, tx, lines)
		}
		if err != nil {
			return domain.TransitionResult{}, err
		}
	}

	if err := tx.SetOrderStatus(ctx, kind, id, next); err != nil {
		return domain.TransitionResult{}, err
	}

	result.Status = next
	result.Changed = true
	return result, nil
}

func (s *Service) advanceTransfer(ctx context.Context, tx domain.WorkflowTx, id string, target *domain.Status) (domain.TransitionResult, error) {
	t, err := tx.LockTransfer(ctx, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}

	result := domain.TransitionResult{Kind: domain.KindTransfer, ID: id, Previous: t.Status, Status: t.Status}
	next, apply, err := plan(domain.KindTransfer, t.Status, target)
	if err != nil || !apply {
		return result, err
	}

	switch next {
	case domain.StatusInTransit:
		// Despacho: a origem é debitada já na saída.
		src := t.SourceKey()
		line := stockLine{key: src, qty: t.Quantity, productName: t.ProductName, sku: t.SKU}
		if err := s.deliver(ctx, tx, []stockLine{line}); err != nil {
			return domain.TransitionResult{}, err
		}
	case domain.StatusDone:
		if err := tx.AddStock(ctx, t.DestinationKey(), t.Quantity); err != nil {
			return domain.TransitionResult{}, err
		}
	}

	if err := tx.SetTransferStatus(ctx, id, next); err != nil {
		return domain.TransitionResult{}, err
	}

	result.Status = next
	result.Changed = true
	return result, nil
}

// stockLine é a quantidade agregada de um pedido para uma chave do ledger.
type stockLine struct {
	key         domain.StockKey
	qty         decimal.Decimal
	productName string
	sku         string
}

// resolveLines resolve a chave de cada item e soma as quantidades por chave.
// O resultado sai ordenado pela chave, que é a ordem de travamento.
func (s *Service) resolveLines(ctx context.Context, tx domain.WorkflowTx, order domain.Order, items []domain.OrderItem) ([]stockLine, error) {
	byKey := make(map[domain.StockKey]*stockLine, len(items))
	keys := make([]domain.StockKey, 0, len(items))

	for _, item := range items {
		key, err := s.resolveKey(ctx, tx, order, item)
		if err != nil {
			return nil, err
		}
		if line, ok := byKey[key]; ok {
			line.qty = line.qty.Add(item.Quantity)
			continue
		}
		byKey[key] = &stockLine{key: key, qty: item.Quantity, productName: item.ProductName, sku: item.SKU}
		keys = append(keys, key)
	}

	domain.SortStockKeys(keys)
	lines := make([]stockLine, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, *byKey[k])
	}
	return lines, nil
}

// resolveKey determina (armazém, locação) de um item. Locação ausente usa a locação padrão.
// O armazém vem, nesta ordem: do cabeçalho do pedido, de uma linha de estoque do mesmo
// produto na locação, de qualquer linha da locação e, por fim, do armazém padrão configurado.
func (s *Service) resolveKey(ctx context.Context, tx domain.WorkflowTx, order domain.Order, item domain.OrderItem) (domain.StockKey, error) {
	location := s.opts.DefaultLocationID
	if item.LocationID != nil {
		location = *item.LocationID
	}
	key := domain.StockKey{ProductID: item.ProductID, LocationID: location}

	if order.WarehouseID != nil && *order.WarehouseID != "" {
		key.WarehouseID = *order.WarehouseID
		return key, nil
	}

	warehouseID, found, err := tx.ResolveWarehouse(ctx, item.ProductID, location)
	if err != nil {
		return domain.StockKey{}, err
	}
	if found {
		key.WarehouseID = warehouseID
		return key, nil
	}

	if s.opts.DefaultWarehouseID != "" {
		s.logger.Warn("Item sem armazém resolvido; usando armazém padrão.", map[string]interface{}{
			"order_id": order.ID, "product_id": item.ProductID, "location_id": location, "warehouse_id": s.opts.DefaultWarehouseID,
		})
		key.WarehouseID = s.opts.DefaultWarehouseID
		return key, nil
	}

	return domain.StockKey{}, apperror.NewValidationError(fmt.Sprintf(
		"Não foi possível determinar o armazém do produto %s (%s) na locação %d. Informe o armazém do pedido.",
		item.ProductName, item.SKU, location))
}

// receive credita cada linha no ledger, criando as entradas ausentes.
func (s *Service) receive(ctx context.Context, tx domain.WorkflowTx, lines []stockLine) error {
	for _, line := range lines {
		if err := tx.AddStock(ctx, line.key, line.qty); err != nil {
			return err
		}
	}
	return nil
}

// deliver trava as linhas, confere o saldo de todas e só então debita. Qualquer falta aborta
// a operação inteira com a lista completa de faltas.
func (s *Service) deliver(ctx context.Context, tx domain.WorkflowTx, lines []stockLine) error {
	keys := make([]domain.StockKey, len(lines))
	for i, line := range lines {
		keys[i] = line.key
	}

	available, err := tx.LockStock(ctx, keys)
	if err != nil {
		return err
	}

	var shortfalls []domain.StockShortfall
	for _, line := range lines {
		have := available[line.key]
		if have.LessThan(line.qty) {
			shortfalls = append(shortfalls, domain.StockShortfall{
				ProductID:   line.key.ProductID,
				ProductName: line.productName,
				SKU:         line.sku,
				WarehouseID: line.key.WarehouseID,
				LocationID:  line.key.LocationID,
				Available:   have,
				Required:    line.qty,
			})
		}
	}
	if len(shortfalls) > 0 {
		return apperror.NewValidationErrorWithDetails("Estoque insuficiente para concluir a operação.", shortfalls)
	}

	for _, line := range lines {
		if err := tx.RemoveStock(ctx, line.key, line.qty); err != nil {
			return err
		}
	}
	return nil
}
