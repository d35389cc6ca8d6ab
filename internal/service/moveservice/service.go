package moveservice

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
)

// Chave das estatísticas no cache.
const (
	statsCacheKey = "moves:stats"
	statsGenKey   = "moves:stats:gen"
)

// MoveRepository define o contrato de leitura do histórico.
type MoveRepository interface {
	List(ctx context.Context, filter domain.MoveFilter) ([]domain.Move, error)
	Statistics(ctx context.Context) (domain.MoveStatistics, error)
}

// OrderReader busca recebimentos/entregas para o detalhe.
type OrderReader interface {
	FindByID(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error)
}

// TransferReader busca transferências para o detalhe.
type TransferReader interface {
	FindByID(ctx context.Context, id string) (domain.Transfer, error)
}

// WarehouseReader busca armazéns para enriquecer o detalhe.
type WarehouseReader interface {
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
}

// MoveQuery são os filtros crus vindos da query string.
type MoveQuery struct {
	Reference string
	Contact   string
	Status    string
	MoveType  string
	FromDate  string
	ToDate    string
}

// Service é o agregador de histórico de movimentações.
type Service struct {
	repo       MoveRepository
	orders     OrderReader
	transfers  TransferReader
	warehouses WarehouseReader
	cache      cache.Client
	statsTTL   time.Duration
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Histórico.
func NewService(repo MoveRepository, orders OrderReader, transfers TransferReader, warehouses WarehouseReader, cacheClient cache.Client, statsTTL time.Duration, logger logger.Logger) *Service {
	return &Service{
		repo:       repo,
		orders:     orders,
		transfers:  transfers,
		warehouses: warehouses,
		cache:      cacheClient,
		statsTTL:   statsTTL,
		logger:     logger,
	}
}

// ListMoves valida os filtros e devolve o histórico ordenado.
func (s *Service) ListMoves(ctx context.Context, q MoveQuery) ([]domain.Move, error) {
	filter, err := parseFilter(q)
	if err != nil {
		s.logger.Warn("Filtro de histórico inválido.", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	moves, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao listar histórico no repositório.", err)
		return nil, apperror.Ensure(err, "Falha interna ao listar movimentações.")
	}
	return moves, nil
}

// Statistics devolve os totais do dashboard, servidos do cache quando possível.
func (s *Service) Statistics(ctx context.Context) (domain.MoveStatistics, error) {
	var stats domain.MoveStatistics

	// A chave carrega a geração lida antes da consulta: um cálculo concorrente
	// com uma transição grava numa geração já descartada.
	key := s.statsKey(ctx)
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		if json.Unmarshal([]byte(cached), &stats) == nil {
			return stats, nil
		}
	} else if !stderrors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Falha ao ler estatísticas do cache.", map[string]interface{}{"error": err.Error()})
	}

	stats, err = s.repo.Statistics(ctx)
	if err != nil {
		s.logger.Error("Falha ao calcular estatísticas no repositório.", err)
		return domain.MoveStatistics{}, apperror.Ensure(err, "Falha interna ao calcular estatísticas.")
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, data, s.statsTTL); err != nil {
			s.logger.Warn("Falha ao gravar estatísticas no cache.", map[string]interface{}{"error": err.Error()})
		}
	}
	return stats, nil
}

func (s *Service) statsKey(ctx context.Context) string {
	gen, err := s.cache.GetInt(ctx, statsGenKey)
	if err != nil && !stderrors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Falha ao ler geração das estatísticas.", map[string]interface{}{"error": err.Error()})
	}
	return fmt.Sprintf("%s:%d", statsCacheKey, gen)
}

// InvalidateStatistics avança a geração das estatísticas e descarta a entrada atual.
func (s *Service) InvalidateStatistics(ctx context.Context) {
	old := s.statsKey(ctx)
	if _, err := s.cache.Incr(ctx, statsGenKey); err != nil {
		s.logger.Warn("Falha ao avançar geração das estatísticas.", map[string]interface{}{"error": err.Error()})
	}
	if err := s.cache.Delete(ctx, old); err != nil {
		s.logger.Warn("Falha ao invalidar estatísticas em cache.", map[string]interface{}{"error": err.Error()})
	}
}

// Details devolve o detalhe de uma movimentação pelo tipo e ID.
func (s *Service) Details(ctx context.Context, moveType, id string) (domain.MoveDetails, error) {
	kind, ok := domain.ParseMoveKind(moveType)
	if !ok {
		return domain.MoveDetails{}, apperror.NewValidationError(fmt.Sprintf("Tipo de movimentação inválido: %q.", moveType))
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.MoveDetails{}, apperror.NewValidationError("O ID da movimentação deve ser um UUID válido.")
	}

	details := domain.MoveDetails{MoveType: kind}

	if kind == domain.KindTransfer {
		t, err := s.transfers.FindByID(ctx, id)
		if err != nil {
			return domain.MoveDetails{}, apperror.Ensure(err, "Falha interna ao buscar transferência.")
		}
		details.Transfer = &t
		if w, err := s.warehouses.GetWarehouseByID(ctx, t.FromWarehouseID); err == nil {
			details.FromWarehouse = &w
		}
		if w, err := s.warehouses.GetWarehouseByID(ctx, t.ToWarehouseID); err == nil {
			details.ToWarehouse = &w
		}
		return details, nil
	}

	order, err := s.orders.FindByID(ctx, kind, id)
	if err != nil {
		return domain.MoveDetails{}, apperror.Ensure(err, "Falha interna ao buscar pedido.")
	}
	details.Order = &order
	if order.WarehouseID != nil {
		if w, err := s.warehouses.GetWarehouseByID(ctx, *order.WarehouseID); err == nil {
			details.WarehouseName = w.Name
		}
	}
	return details, nil
}

func parseFilter(q MoveQuery) (domain.MoveFilter, error) {
	filter := domain.MoveFilter{
		Reference: strings.TrimSpace(q.Reference),
		Contact:   strings.TrimSpace(q.Contact),
	}

	if q.MoveType != "" {
		kind, ok := domain.ParseMoveKind(q.MoveType)
		if !ok {
			return domain.MoveFilter{}, apperror.NewValidationError(fmt.Sprintf("move_type inválido: %q (use receipt, delivery ou transfer).", q.MoveType))
		}
		filter.MoveType = kind
	}

	if q.Status != "" {
		status := domain.Status(q.Status)
		known := domain.KindReceipt.Machine().Knows(status) || domain.KindTransfer.Machine().Knows(status)
		if filter.MoveType != "" {
			known = filter.MoveType.Machine().Knows(status)
		}
		if !known {
			return domain.MoveFilter{}, apperror.NewValidationError(fmt.Sprintf("status inválido: %q.", q.Status))
		}
		filter.Status = status
	}

	var err error
	if filter.FromDate, err = parseOptionalDate(q.FromDate, "from_date"); err != nil {
		return domain.MoveFilter{}, err
	}
	if filter.ToDate, err = parseOptionalDate(q.ToDate, "to_date"); err != nil {
		return domain.MoveFilter{}, err
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return domain.MoveFilter{}, apperror.NewValidationError("from_date não pode ser posterior a to_date.")
	}
	return filter, nil
}

func parseOptionalDate(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("%s deve estar no formato YYYY-MM-DD.", field))
	}
	return &d, nil
}
