package movementservice

import (
	"context"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// OrderRepository define o que o serviço precisa da persistência de recebimentos e entregas.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error)
	List(ctx context.Context, kind domain.MoveKind) ([]domain.Order, error)
	AddItem(ctx context.Context, kind domain.MoveKind, item domain.OrderItem, allowed []domain.Status) (domain.OrderItem, error)
}

// TransferRepository define o que o serviço precisa da persistência de transferências.
type TransferRepository interface {
	Create(ctx context.Context, t domain.Transfer) (domain.Transfer, error)
	FindByID(ctx context.Context, id string) (domain.Transfer, error)
	List(ctx context.Context) ([]domain.Transfer, error)
}

// StatsInvalidator é avisado sempre que uma movimentação muda, para descartar estatísticas em cache.
type StatsInvalidator interface {
	InvalidateStatistics(ctx context.Context)
}

// Options são os fallbacks de armazém/locação aplicados a itens sem destino explícito.
type Options struct {
	DefaultWarehouseID string
	DefaultLocationID  int64
}

// Service concentra o workflow de status (recebimentos, entregas e transferências) e a
// criação dos documentos que passam por ele.
type Service struct {
	store     domain.WorkflowStore
	orders    OrderRepository
	transfers TransferRepository
	stats     StatsInvalidator
	logger    logger.Logger
	opts      Options
}

// NewService cria e retorna uma nova instância do Serviço de Movimentações.
func NewService(store domain.WorkflowStore, orders OrderRepository, transfers TransferRepository, stats StatsInvalidator, logger logger.Logger, opts Options) *Service {
	if opts.DefaultLocationID < 1 {
		opts.DefaultLocationID = 1
	}
	return &Service{
		store:     store,
		orders:    orders,
		transfers: transfers,
		stats:     stats,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStatistics(ctx)
	}
}
