package warehouserepo

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

const warehouseColumns = `id, name, location, capacity, created_at, updated_at`

// WarehouseRepository implementa as operações CRUD de armazéns.
type WarehouseRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewWarehouseRepository cria e retorna uma nova instância do Repositório de Armazéns.
func NewWarehouseRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *WarehouseRepository {
	return &WarehouseRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CreateWarehouse insere um novo armazém no banco de dados.
func (r *WarehouseRepository) CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	r.logger.Debug("Iniciando CreateWarehouse no repositório.", map[string]interface{}{"name": warehouse.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if warehouse.ID == "" {
		warehouse.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now

	query := `
        INSERT INTO warehouses (id, name, location, capacity, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + warehouseColumns

	var created domain.Warehouse
	err := r.DB.GetContext(ctxTimeout, &created, query,
		warehouse.ID, warehouse.Name, warehouse.Location, warehouse.Capacity, warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir armazém no DB.", err)
		return domain.Warehouse{}, database.MapError("Falha ao criar armazém", err)
	}

	r.logger.Info("Armazém criado com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// GetWarehouseByID busca um armazém pelo ID.
func (r *WarehouseRepository) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	r.logger.Debug("Iniciando GetWarehouseByID no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var warehouse domain.Warehouse
	err := r.DB.GetContext(ctxTimeout, &warehouse, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Armazém não encontrado.", map[string]interface{}{"id": id})
		return domain.Warehouse{}, errors.NewNotFoundError(fmt.Sprintf("Armazém com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar armazém no DB.", err)
		return domain.Warehouse{}, database.MapError("Falha ao buscar armazém", err)
	}

	return warehouse, nil
}

// GetAllWarehouses busca todos os armazéns.
func (r *WarehouseRepository) GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	r.logger.Debug("Iniciando GetAllWarehouses no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	warehouses := []domain.Warehouse{}
	if err := r.DB.SelectContext(ctxTimeout, &warehouses, `SELECT `+warehouseColumns+` FROM warehouses ORDER BY name, id`); err != nil {
		r.logger.Error("Falha ao executar GetAllWarehouses query.", err)
		return nil, database.MapError("Falha ao buscar todos os armazéns", err)
	}

	r.logger.Info("GetAllWarehouses concluído com sucesso.", map[string]interface{}{"total_warehouses": len(warehouses)})
	return warehouses, nil
}

// UpdateWarehouse atualiza um armazém existente.
func (r *WarehouseRepository) UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error) {
	r.logger.Debug("Iniciando UpdateWarehouse no repositório.", map[string]interface{}{"id": warehouse.ID, "name": warehouse.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE warehouses
        SET name = $1, location = $2, capacity = $3, updated_at = $4
        WHERE id = $5
        RETURNING ` + warehouseColumns

	var updated domain.Warehouse
	err := r.DB.GetContext(ctxTimeout, &updated, query,
		warehouse.Name, warehouse.Location, warehouse.Capacity, time.Now().UTC(), warehouse.ID,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Armazém não encontrado para atualização.", map[string]interface{}{"id": warehouse.ID})
		return domain.Warehouse{}, errors.NewNotFoundError(fmt.Sprintf("Armazém com ID %s não encontrado para atualização.", warehouse.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar armazém no DB.", err)
		return domain.Warehouse{}, database.MapError("Falha ao atualizar armazém", err)
	}

	r.logger.Info("Armazém atualizado com sucesso.", map[string]interface{}{"id": updated.ID, "name": updated.Name})
	return updated, nil
}

// DeleteWarehouse remove um armazém pelo ID. Armazéns referenciados por estoque ou
// movimentações não podem ser removidos.
func (r *WarehouseRepository) DeleteWarehouse(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando DeleteWarehouse no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM warehouses WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		r.logger.Warn("Armazém em uso, exclusão recusada.", map[string]interface{}{"id": id})
		return errors.NewConflictError(fmt.Sprintf("Armazém %s possui estoque ou movimentações vinculadas.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao deletar armazém do DB.", err)
		return database.MapError("Falha ao deletar armazém", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após DeleteWarehouse.", err)
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		r.logger.Info("Armazém não encontrado para exclusão.", map[string]interface{}{"id": id})
		return errors.NewNotFoundError(fmt.Sprintf("Armazém com ID %s não encontrado para exclusão.", id))
	}

	r.logger.Info("Armazém deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
