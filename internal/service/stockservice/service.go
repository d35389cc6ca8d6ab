package stockservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	GetStock(ctx context.Context, key domain.StockKey) (domain.StockEntry, error)
	CreateStock(ctx context.Context, key domain.StockKey, qty decimal.Decimal) (domain.StockEntry, bool, error)
	ListDetailed(ctx context.Context) ([]domain.DetailedStock, error)
	ListLocationIDs(ctx context.Context, warehouseID string) ([]int64, error)
	ListLowStock(ctx context.Context) ([]domain.LowStockItem, error)
}

// Service expõe o acesso direto ao ledger de estoque.
type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetStock busca a entrada de estoque de uma chave.
func (s *Service) GetStock(ctx context.Context, key domain.StockKey) (domain.StockEntry, error) {
	if err := validateKey(key); err != nil {
		return domain.StockEntry{}, err
	}

	entry, err := s.repo.GetStock(ctx, key)
	if err != nil {
		return domain.StockEntry{}, apperror.Ensure(err, "Falha interna ao buscar estoque.")
	}
	return entry, nil
}

// CreateStock registra entrada manual de estoque: soma a uma entrada existente ou cria uma nova.
func (s *Service) CreateStock(ctx context.Context, req domain.CreateStockRequest) (domain.StockEntry, bool, error) {
	s.logger.Debug("Iniciando entrada manual de estoque no serviço.", map[string]interface{}{
		"product_id":   req.ProductID,
		"warehouse_id": req.WarehouseID,
		"location_id":  req.LocationID,
		"quantity":     req.Quantity.String(),
	})

	key := domain.StockKey{ProductID: req.ProductID, WarehouseID: req.WarehouseID, LocationID: req.LocationID}
	if err := validateKey(key); err != nil {
		s.logger.Warn("Entrada de estoque inválida.", map[string]interface{}{"error": err.Error()})
		return domain.StockEntry{}, false, err
	}
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return domain.StockEntry{}, false, apperror.NewValidationError("A quantidade deve ser maior que zero.")
	}

	entry, created, err := s.repo.CreateStock(ctx, key, req.Quantity)
	if err != nil {
		s.logger.Error("Falha ao gravar estoque no repositório.", err)
		if apperror.IsNotFound(err) {
			return domain.StockEntry{}, false, apperror.NewNotFoundError("Produto ou armazém informado não existe.")
		}
		return domain.StockEntry{}, false, apperror.Ensure(err, "Falha interna ao gravar estoque.")
	}

	s.logger.Info("Estoque gravado com sucesso.", map[string]interface{}{"key": key.String(), "quantity": entry.Quantity.String(), "created": created})
	return entry, created, nil
}

// ListDetailed lista o estoque com dados de produto e armazém.
func (s *Service) ListDetailed(ctx context.Context) ([]domain.DetailedStock, error) {
	rows, err := s.repo.ListDetailed(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar estoque detalhado.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar estoque.")
	}
	return rows, nil
}

// ListLocations devolve as locações conhecidas de um armazém.
func (s *Service) ListLocations(ctx context.Context, warehouseID string) ([]domain.Location, error) {
	if _, err := uuid.Parse(warehouseID); err != nil {
		return nil, apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
	}

	ids, err := s.repo.ListLocationIDs(ctx, warehouseID)
	if err != nil {
		s.logger.Error("Falha ao listar locações.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar locações.")
	}

	locations := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		locations = append(locations, domain.NewLocation(id))
	}
	return locations, nil
}

// ListLowStock devolve os produtos no nível de reposição ou abaixo dele.
func (s *Service) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar estoque baixo.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar estoque baixo.")
	}
	return items, nil
}

func validateKey(key domain.StockKey) error {
	if _, err := uuid.Parse(key.ProductID); err != nil {
		return apperror.NewValidationError("product_id é obrigatório e deve ser um UUID válido.")
	}
	if _, err := uuid.Parse(key.WarehouseID); err != nil {
		return apperror.NewValidationError("warehouse_id é obrigatório e deve ser um UUID válido.")
	}
	if key.LocationID < 1 {
		return apperror.NewValidationError(fmt.Sprintf("location_id deve ser um inteiro positivo (recebido %d).", key.LocationID))
	}
	return nil
}
