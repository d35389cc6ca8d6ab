package moverepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

// movesUnion projeta recebimentos, entregas (uma linha por item) e transferências numa só forma.
const movesUnion = `
    SELECT * FROM (
        SELECT r.id, ri.id AS line_id, 'receipt' AS move_type, r.reference, r.schedule_date AS date,
               r.partner AS contact, 'vendor' AS from_location, COALESCE(w.name, '') AS to_location,
               ri.product_id, p.name AS product_name, p.sku, COALESCE(ri.quantity, 0) AS quantity,
               r.status, r.created_at
        FROM receipts r
        LEFT JOIN receipt_items ri ON ri.receipt_id = r.id
        LEFT JOIN products p ON p.id = ri.product_id
        LEFT JOIN warehouses w ON w.id = r.warehouse_id

        UNION ALL

        SELECT d.id, di.id, 'delivery', d.reference, d.schedule_date,
               d.partner, COALESCE(w.name, ''), 'customer',
               di.product_id, p.name, p.sku, COALESCE(di.quantity, 0),
               d.status, d.created_at
        FROM deliveries d
        LEFT JOIN delivery_items di ON di.delivery_id = d.id
        LEFT JOIN products p ON p.id = di.product_id
        LEFT JOIN warehouses w ON w.id = d.warehouse_id

        UNION ALL

        SELECT t.id, NULL, 'transfer', t.reference, t.transfer_date,
               'Internal Transfer', wf.name, wt.name,
               t.product_id, p.name, p.sku, t.quantity,
               t.status, t.created_at
        FROM transfers t
        JOIN products p ON p.id = t.product_id
        JOIN warehouses wf ON wf.id = t.from_warehouse_id
        JOIN warehouses wt ON wt.id = t.to_warehouse_id
    ) moves`

const statisticsQuery = `
    WITH headers AS (
        SELECT status, 'receipt' AS move_type FROM receipts
        UNION ALL
        SELECT status, 'delivery' FROM deliveries
        UNION ALL
        SELECT status, 'transfer' FROM transfers
    )
    SELECT
        COUNT(*) FILTER (WHERE move_type = 'receipt')    AS total_receipts,
        COUNT(*) FILTER (WHERE move_type = 'delivery')   AS total_deliveries,
        COUNT(*) FILTER (WHERE move_type = 'transfer')   AS total_transfers,
        COUNT(*) FILTER (WHERE status = 'draft')         AS draft_moves,
        COUNT(*) FILTER (WHERE status = 'ready')         AS ready_moves,
        COUNT(*) FILTER (WHERE status = 'in_transit')    AS in_transit_moves,
        COUNT(*) FILTER (WHERE status = 'done')          AS done_moves,
        (SELECT COALESCE(SUM(quantity), 0) FROM receipt_items)  AS total_received_qty,
        (SELECT COALESCE(SUM(quantity), 0) FROM delivery_items) AS total_delivered_qty
    FROM headers`

// MoveRepository é a leitura do histórico unificado de movimentações.
type MoveRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMoveRepository cria e retorna uma nova instância do Repositório de Movimentações.
func NewMoveRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *MoveRepository {
	return &MoveRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// List aplica os filtros e ordena por data desc, criação desc e desempate estável.
func (r *MoveRepository) List(ctx context.Context, filter domain.MoveFilter) ([]domain.Move, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query, args := buildListQuery(filter)

	moves := []domain.Move{}
	if err := r.DB.SelectContext(ctxTimeout, &moves, query, args...); err != nil {
		r.logger.Error("Falha ao listar histórico de movimentações.", err)
		return nil, database.MapError("Falha ao listar movimentações", err)
	}

	r.logger.Debug("Histórico de movimentações listado.", map[string]interface{}{"count": len(moves)})
	return moves, nil
}

// Statistics calcula os totais do dashboard.
func (r *MoveRepository) Statistics(ctx context.Context) (domain.MoveStatistics, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var stats domain.MoveStatistics
	if err := r.DB.GetContext(ctxTimeout, &stats, statisticsQuery); err != nil {
		r.logger.Error("Falha ao calcular estatísticas de movimentações.", err)
		return domain.MoveStatistics{}, database.MapError("Falha ao calcular estatísticas", err)
	}
	return stats, nil
}

func buildListQuery(filter domain.MoveFilter) (string, []interface{}) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	add := func(cond string, value interface{}) {
		args = append(args, value)
		sb.WriteString(" AND ")
		sb.WriteString(fmt.Sprintf(cond, len(args)))
	}

	sb.WriteString(movesUnion)
	sb.WriteString(" WHERE 1=1")

	if filter.Reference != "" {
		add(`reference ILIKE $%d ESCAPE '\'`, database.ContainsPattern(filter.Reference))
	}
	if filter.Contact != "" {
		add(`contact ILIKE $%d ESCAPE '\'`, database.ContainsPattern(filter.Contact))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.MoveType != "" {
		add("move_type = $%d", string(filter.MoveType))
	}
	if filter.FromDate != nil {
		add("date >= $%d::date", filter.FromDate.Format("2006-01-02"))
	}
	if filter.ToDate != nil {
		add("date <= $%d::date", filter.ToDate.Format("2006-01-02"))
	}

	sb.WriteString(" ORDER BY date DESC, created_at DESC, move_type, id, line_id NULLS FIRST")
	return sb.String(), args
}
