package movementservice

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
)

const dateLayout = "2006-01-02"

// CreateOrder cria um recebimento ou entrega em draft, com os itens iniciais.
func (s *Service) CreateOrder(ctx context.Context, kind domain.MoveKind, req domain.CreateOrderRequest) (domain.Order, error) {
	s.logger.Debug("Iniciando criação de pedido no serviço.", map[string]interface{}{"kind": kind, "partner": req.Partner})

	if !kind.IsOrder() {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Tipo de pedido inválido: %q.", kind))
	}
	partner := strings.TrimSpace(req.Partner)
	if partner == "" {
		return domain.Order{}, apperror.NewValidationError("O parceiro (fornecedor ou cliente) é obrigatório.")
	}

	scheduleDate, err := parseDate(req.ScheduleDate, "schedule_date")
	if err != nil {
		return domain.Order{}, err
	}

	var warehouseID *string
	if req.WarehouseID != nil && *req.WarehouseID != "" {
		if _, err := uuid.Parse(*req.WarehouseID); err != nil {
			return domain.Order{}, apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
		}
		warehouseID = req.WarehouseID
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:           uuid.New().String(),
		Kind:         kind,
		Reference:    strings.TrimSpace(req.Reference),
		Partner:      partner,
		ScheduleDate: scheduleDate,
		WarehouseID:  warehouseID,
		Notes:        req.Notes,
		Status:       kind.Machine().Initial(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, itemReq := range req.Items {
		item, err := s.newItem(order.ID, itemReq)
		if err != nil {
			var vErr *apperror.ValidationError
			if stderrors.As(err, &vErr) {
				return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Item %d: %s", i+1, vErr.Msg))
			}
			return domain.Order{}, err
		}
		order.Items = append(order.Items, item)
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.logger.Error("Falha ao criar pedido no repositório.", err)
		return domain.Order{}, apperror.Ensure(err, "Falha interna ao criar pedido.")
	}

	s.invalidateStats(ctx)
	s.logger.Info("Pedido criado com sucesso.", map[string]interface{}{"kind": kind, "id": created.ID, "reference": created.Reference})
	return created, nil
}

// AddItem adiciona uma linha a um pedido em draft ou ready.
func (s *Service) AddItem(ctx context.Context, kind domain.MoveKind, orderID string, req domain.AddItemRequest) (domain.OrderItem, error) {
	if !kind.IsOrder() {
		return domain.OrderItem{}, apperror.NewValidationError(fmt.Sprintf("Tipo de pedido inválido: %q.", kind))
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return domain.OrderItem{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}

	item, err := s.newItem(orderID, req)
	if err != nil {
		return domain.OrderItem{}, err
	}

	saved, err := s.orders.AddItem(ctx, kind, item, []domain.Status{domain.StatusDraft, domain.StatusReady})
	if err != nil {
		return domain.OrderItem{}, apperror.Ensure(err, "Falha interna ao adicionar item.")
	}

	s.invalidateStats(ctx)
	return saved, nil
}

// GetOrder busca um pedido com seus itens.
func (s *Service) GetOrder(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	if !kind.IsOrder() {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Tipo de pedido inválido: %q.", kind))
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido deve ser um UUID válido.")
	}

	order, err := s.orders.FindByID(ctx, kind, id)
	if err != nil {
		return domain.Order{}, apperror.Ensure(err, "Falha interna ao buscar pedido.")
	}
	return order, nil
}

// ListOrders lista os pedidos de um tipo.
func (s *Service) ListOrders(ctx context.Context, kind domain.MoveKind) ([]domain.Order, error) {
	if !kind.IsOrder() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Tipo de pedido inválido: %q.", kind))
	}

	orders, err := s.orders.List(ctx, kind)
	if err != nil {
		s.logger.Error("Falha ao listar pedidos no repositório.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar pedidos.")
	}
	return orders, nil
}

func (s *Service) newItem(orderID string, req domain.AddItemRequest) (domain.OrderItem, error) {
	if _, err := uuid.Parse(req.ProductID); err != nil {
		return domain.OrderItem{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return domain.OrderItem{}, apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}
	if req.LocationID != nil && *req.LocationID < 1 {
		return domain.OrderItem{}, apperror.NewValidationError("A locação deve ser um inteiro positivo.")
	}

	return domain.OrderItem{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		LocationID: req.LocationID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// parseDate aceita YYYY-MM-DD; vazio vira a data de hoje (UTC).
func parseDate(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperror.NewValidationError(fmt.Sprintf("%s deve estar no formato YYYY-MM-DD.", field))
	}
	return d, nil
}
