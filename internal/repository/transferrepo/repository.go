package transferrepo

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

const transferSelect = `
        SELECT t.id, t.reference, t.product_id, p.name AS product_name, p.sku,
               t.from_warehouse_id, t.to_warehouse_id, t.from_location_id, t.to_location_id,
               t.quantity, t.status, t.transfer_date, t.notes, t.created_at, t.updated_at, t.completed_at
        FROM transfers t
        JOIN products p ON p.id = t.product_id`

// TransferRepository persiste transferências entre armazéns/locações.
type TransferRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTransferRepository cria e retorna uma nova instância do Repositório de Transferências.
func NewTransferRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *TransferRepository {
	return &TransferRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere a transferência. Referência vazia vira WH/TR/00001.
func (r *TransferRepository) Create(ctx context.Context, t domain.Transfer) (domain.Transfer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO transfers (id, reference, product_id, from_warehouse_id, to_warehouse_id,
                               from_location_id, to_location_id, quantity, status, transfer_date, notes,
                               created_at, updated_at)
        VALUES ($1, COALESCE(NULLIF($2, ''), 'WH/TR/' || LPAD(nextval('transfer_ref_seq')::text, 5, '0')),
                $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		t.ID, t.Reference, t.ProductID, t.FromWarehouseID, t.ToWarehouseID,
		t.FromLocationID, t.ToLocationID, t.Quantity, t.Status, t.TransferDate, t.Notes, t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir transferência.", err)
		return domain.Transfer{}, database.MapError("Falha ao criar transferência", err)
	}

	var created domain.Transfer
	if err := r.DB.GetContext(ctxTimeout, &created, transferSelect+` WHERE t.id = $1`, t.ID); err != nil {
		return domain.Transfer{}, database.MapError("Falha ao ler transferência criada", err)
	}

	r.logger.Info("Transferência criada com sucesso.", map[string]interface{}{"id": created.ID, "reference": created.Reference})
	return created, nil
}

// FindByID busca uma transferência pelo ID.
func (r *TransferRepository) FindByID(ctx context.Context, id string) (domain.Transfer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var t domain.Transfer
	err := r.DB.GetContext(ctxTimeout, &t, transferSelect+` WHERE t.id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Transfer{}, errors.NewNotFoundError(fmt.Sprintf("Transferência com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar transferência.", err)
		return domain.Transfer{}, database.MapError("Falha ao buscar transferência", err)
	}
	return t, nil
}

// List devolve as transferências, mais recentes primeiro.
func (r *TransferRepository) List(ctx context.Context) ([]domain.Transfer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	transfers := []domain.Transfer{}
	if err := r.DB.SelectContext(ctxTimeout, &transfers, transferSelect+` ORDER BY t.transfer_date DESC, t.created_at DESC, t.id`); err != nil {
		r.logger.Error("Falha ao listar transferências.", err)
		return nil, database.MapError("Falha ao listar transferências", err)
	}
	return transfers, nil
}

// LockTransferTx trava a transferência (FOR UPDATE OF t).
func (r *TransferRepository) LockTransferTx(ctx context.Context, tx *sqlx.Tx, id string) (domain.Transfer, error) {
	var t domain.Transfer
	err := tx.GetContext(ctx, &t, transferSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Transfer{}, errors.NewNotFoundError(fmt.Sprintf("Transferência com ID %s não encontrada.", id))
	}
	if err != nil {
		return domain.Transfer{}, database.MapError("Falha ao travar transferência", err)
	}
	return t, nil
}

// SetStatusTx grava o novo status. Ao chegar em done, registra completed_at.
func (r *TransferRepository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status domain.Status) error {
	result, err := tx.ExecContext(ctx, `
        UPDATE transfers
        SET status = $1::varchar,
            updated_at = NOW(),
            completed_at = CASE WHEN $1::varchar = 'done' THEN NOW() ELSE completed_at END
        WHERE id = $2`, status, id)
	if err != nil {
		return database.MapError("Falha ao atualizar status da transferência", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Transferência com ID %s não encontrada.", id))
	}
	return nil
}
