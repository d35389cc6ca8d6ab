package warehouseservice

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// WarehouseRepository define o contrato que o Serviço de Armazéns espera da camada de Persistência.
type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
	GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error
}

// Service implementa as regras de negócio de armazéns.
type Service struct {
	repo   WarehouseRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Armazéns.
func NewService(repo WarehouseRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateWarehouse cria um novo armazém após validações de negócio.
func (s *Service) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	s.logger.Debug("Iniciando criação de armazém no serviço.", map[string]interface{}{"name": warehouse.Name})

	if err := s.validateWarehouse(warehouse); err != nil {
		s.logger.Warn("Falha na validação do armazém.", map[string]interface{}{"name": warehouse.Name, "error": err.Error()})
		return domain.Warehouse{}, err
	}

	createdWarehouse, err := s.repo.CreateWarehouse(ctx, warehouse)
	if err != nil {
		s.logger.Error("Falha ao criar armazém no repositório.", err)
		return domain.Warehouse{}, apperror.Ensure(err, "Falha interna ao criar armazém.")
	}

	s.logger.Info("Armazém criado com sucesso.", map[string]interface{}{"id": createdWarehouse.ID, "name": createdWarehouse.Name})
	return createdWarehouse, nil
}

// GetWarehouseByID busca um armazém pelo ID após validações de formato.
func (s *Service) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	s.logger.Debug("Iniciando busca de armazém por ID no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de armazém inválido fornecido.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.Warehouse{}, apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
	}

	warehouse, err := s.repo.GetWarehouseByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar armazém no repositório.", err)
		return domain.Warehouse{}, apperror.Ensure(err, "Falha interna ao buscar armazém.")
	}

	return warehouse, nil
}

// GetAllWarehouses busca todos os armazéns.
func (s *Service) GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	warehouses, err := s.repo.GetAllWarehouses(ctx)
	if err != nil {
		s.logger.Error("Falha ao buscar todos os armazéns no repositório.", err)
		return nil, apperror.Ensure(err, "Falha interna ao buscar armazéns.")
	}

	s.logger.Debug("Armazéns listados.", map[string]interface{}{"count": len(warehouses)})
	return warehouses, nil
}

// UpdateWarehouse atualiza um armazém existente.
func (s *Service) UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	s.logger.Debug("Iniciando atualização de armazém no serviço.", map[string]interface{}{"id": warehouse.ID, "name": warehouse.Name})

	if _, err := uuid.Parse(warehouse.ID); err != nil {
		s.logger.Warn("ID de armazém inválido fornecido para atualização.", map[string]interface{}{"id": warehouse.ID, "error": err.Error()})
		return domain.Warehouse{}, apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
	}
	if err := s.validateWarehouse(warehouse); err != nil {
		return domain.Warehouse{}, err
	}

	updatedWarehouse, err := s.repo.UpdateWarehouse(ctx, warehouse)
	if err != nil {
		s.logger.Error("Falha ao atualizar armazém no repositório.", err)
		return domain.Warehouse{}, apperror.Ensure(err, "Falha interna ao atualizar armazém.")
	}

	s.logger.Info("Armazém atualizado com sucesso.", map[string]interface{}{"id": updatedWarehouse.ID, "name": updatedWarehouse.Name})
	return updatedWarehouse, nil
}

// DeleteWarehouse remove um armazém. Armazéns referenciados por estoque ou movimentações geram Conflict.
func (s *Service) DeleteWarehouse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de armazém inválido fornecido para exclusão.", map[string]interface{}{"id": id, "error": err.Error()})
		return apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
	}

	if err := s.repo.DeleteWarehouse(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar armazém no repositório.", err)
		return apperror.Ensure(err, "Falha interna ao deletar armazém.")
	}

	s.logger.Info("Armazém deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

func (s *Service) validateWarehouse(warehouse domain.Warehouse) error {
	name := strings.TrimSpace(warehouse.Name)
	if name == "" {
		return apperror.NewValidationError("O nome do armazém não pode ser vazio.")
	}
	if len(name) < 3 || len(name) > 100 {
		return apperror.NewValidationError("O nome do armazém deve ter entre 3 e 100 caracteres.")
	}
	if warehouse.Capacity.LessThan(decimal.Zero) {
		return apperror.NewValidationError("A capacidade do armazém não pode ser negativa.")
	}
	return nil
}
