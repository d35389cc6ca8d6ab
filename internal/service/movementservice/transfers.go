package movementservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
)

// CreateTransfer registra uma transferência em draft. Locações ausentes usam a locação padrão.
func (s *Service) CreateTransfer(ctx context.Context, req domain.CreateTransferRequest) (domain.Transfer, error) {
	s.logger.Debug("Iniciando criação de transferência no serviço.", map[string]interface{}{"product_id": req.ProductID})

	for _, id := range []string{req.ProductID, req.FromWarehouseID, req.ToWarehouseID} {
		if _, err := uuid.Parse(id); err != nil {
			return domain.Transfer{}, apperror.NewValidationError("product_id, from_warehouse_id e to_warehouse_id devem ser UUIDs válidos.")
		}
	}
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return domain.Transfer{}, apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}

	fromLoc, toLoc := s.opts.DefaultLocationID, s.opts.DefaultLocationID
	if req.FromLocationID != nil {
		fromLoc = *req.FromLocationID
	}
	if req.ToLocationID != nil {
		toLoc = *req.ToLocationID
	}
	if fromLoc < 1 || toLoc < 1 {
		return domain.Transfer{}, apperror.NewValidationError("As locações devem ser inteiros positivos.")
	}
	if req.FromWarehouseID == req.ToWarehouseID && fromLoc == toLoc {
		return domain.Transfer{}, apperror.NewValidationError("Origem e destino da transferência devem ser diferentes.")
	}

	transferDate, err := parseDate(req.TransferDate, "transfer_date")
	if err != nil {
		return domain.Transfer{}, err
	}

	now := time.Now().UTC()
	t := domain.Transfer{
		ID:              uuid.New().String(),
		Reference:       strings.TrimSpace(req.Reference),
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		FromLocationID:  fromLoc,
		ToLocationID:    toLoc,
		Quantity:        req.Quantity,
		Status:          domain.KindTransfer.Machine().Initial(),
		TransferDate:    transferDate,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.transfers.Create(ctx, t)
	if err != nil {
		s.logger.Error("Falha ao criar transferência no repositório.", err)
		return domain.Transfer{}, apperror.Ensure(err, "Falha interna ao criar transferência.")
	}

	s.invalidateStats(ctx)
	s.logger.Info("Transferência criada com sucesso.", map[string]interface{}{"id": created.ID, "reference": created.Reference})
	return created, nil
}

// GetTransfer busca uma transferência pelo ID.
func (s *Service) GetTransfer(ctx context.Context, id string) (domain.Transfer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Transfer{}, apperror.NewValidationError("O ID da transferência deve ser um UUID válido.")
	}

	t, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return domain.Transfer{}, apperror.Ensure(err, "Falha interna ao buscar transferência.")
	}
	return t, nil
}

// ListTransfers lista todas as transferências.
func (s *Service) ListTransfers(ctx context.Context) ([]domain.Transfer, error) {
	transfers, err := s.transfers.List(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar transferências no repositório.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar transferências.")
	}
	return transfers, nil
}
