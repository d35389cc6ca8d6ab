package moveservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/moveservice"
)

// MockMoveRepository é uma implementação mock da interface MoveRepository
type MockMoveRepository struct {
	mock.Mock
}

func (m *MockMoveRepository) List(ctx context.Context, filter domain.MoveFilter) ([]domain.Move, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Move), args.Error(1)
}

func (m *MockMoveRepository) Statistics(ctx context.Context) (domain.MoveStatistics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.MoveStatistics), args.Error(1)
}

type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) FindByID(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

type MockTransferReader struct {
	mock.Mock
}

func (m *MockTransferReader) FindByID(ctx context.Context, id string) (domain.Transfer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Transfer), args.Error(1)
}

type MockWarehouseReader struct {
	mock.Mock
}

func (m *MockWarehouseReader) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Warehouse), args.Error(1)
}

type fixture struct {
	repo       *MockMoveRepository
	orders     *MockOrderReader
	transfers  *MockTransferReader
	warehouses *MockWarehouseReader
	cache      *cache.MemoryClient
	svc        *moveservice.Service
}

func newFixture() fixture {
	f := fixture{
		repo:       new(MockMoveRepository),
		orders:     new(MockOrderReader),
		transfers:  new(MockTransferReader),
		warehouses: new(MockWarehouseReader),
		cache:      cache.NewMemoryClient(),
	}
	f.svc = moveservice.NewService(f.repo, f.orders, f.transfers, f.warehouses, f.cache, time.Minute, logger.NewNop())
	return f
}

// --- ListMoves ---

func TestListMoves_ReceiptDoneFilter(t *testing.T) {
	f := newFixture()

	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Move{
		{ID: "b", MoveType: domain.KindReceipt, Status: domain.StatusDone, Date: newer},
		{ID: "a", MoveType: domain.KindReceipt, Status: domain.StatusDone, Date: older},
	}
	f.repo.On("List", mock.Anything, domain.MoveFilter{MoveType: domain.KindReceipt, Status: domain.StatusDone}).Return(rows, nil)

	moves, err := f.svc.ListMoves(context.Background(), moveservice.MoveQuery{MoveType: "receipt", Status: "done"})

	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, domain.KindReceipt, m.MoveType)
		assert.Equal(t, domain.StatusDone, m.Status)
	}
	assert.True(t, moves[0].Date.After(moves[1].Date))
	f.repo.AssertExpectations(t)
}

func TestListMoves_ParsesDates(t *testing.T) {
	f := newFixture()

	f.repo.On("List", mock.Anything, mock.MatchedBy(func(filter domain.MoveFilter) bool {
		return filter.FromDate != nil && filter.FromDate.Format("2006-01-02") == "2024-01-01" &&
			filter.ToDate != nil && filter.ToDate.Format("2006-01-02") == "2024-01-31" &&
			filter.Reference == "WH/IN"
	})).Return([]domain.Move{}, nil)

	_, err := f.svc.ListMoves(context.Background(), moveservice.MoveQuery{Reference: " WH/IN ", FromDate: "2024-01-01", ToDate: "2024-01-31"})

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestListMoves_Fail_InvalidFilters(t *testing.T) {
	tests := []struct {
		name string
		q    moveservice.MoveQuery
	}{
		{"unknown move type", moveservice.MoveQuery{MoveType: "adjustment"}},
		{"unknown status", moveservice.MoveQuery{Status: "cancelled"}},
		{"status of another kind", moveservice.MoveQuery{MoveType: "receipt", Status: "in_transit"}},
		{"bad date", moveservice.MoveQuery{FromDate: "2024-13-01"}},
		{"inverted range", moveservice.MoveQuery{FromDate: "2024-02-01", ToDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.ListMoves(context.Background(), tt.q)

			assert.IsType(t, &apperror.ValidationError{}, err)
			f.repo.AssertNotCalled(t, "List")
		})
	}
}

func TestListMoves_Fail_RepoError(t *testing.T) {
	f := newFixture()
	f.repo.On("List", mock.Anything, mock.Anything).Return([]domain.Move(nil), errors.New("timeout"))

	_, err := f.svc.ListMoves(context.Background(), moveservice.MoveQuery{})

	assert.IsType(t, &apperror.InternalError{}, err)
}

// --- Statistics ---

func TestStatistics_CachedUntilInvalidated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := domain.MoveStatistics{TotalReceipts: 1, TotalReceivedQty: decimal.NewFromInt(15)}
	second := domain.MoveStatistics{TotalReceipts: 2, TotalReceivedQty: decimal.NewFromInt(20)}
	f.repo.On("Statistics", mock.Anything).Return(first, nil).Once()
	f.repo.On("Statistics", mock.Anything).Return(second, nil).Once()

	got, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalReceipts)

	got, err = f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalReceipts)
	assert.True(t, got.TotalReceivedQty.Equal(decimal.NewFromInt(15)))

	f.svc.InvalidateStatistics(ctx)

	got, err = f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalReceipts)
	f.repo.AssertNumberOfCalls(t, "Statistics", 2)
}

func TestStatistics_InvalidatedDuringComputation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	stale := domain.MoveStatistics{TotalReceipts: 1}
	fresh := domain.MoveStatistics{TotalReceipts: 2}
	// uma transição confirma enquanto o primeiro cálculo ainda está em andamento
	f.repo.On("Statistics", mock.Anything).Run(func(args mock.Arguments) {
		f.svc.InvalidateStatistics(ctx)
	}).Return(stale, nil).Once()
	f.repo.On("Statistics", mock.Anything).Return(fresh, nil).Once()

	got, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalReceipts)

	got, err = f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalReceipts)
	f.repo.AssertNumberOfCalls(t, "Statistics", 2)
}

// --- Details ---

func TestDetails_Order(t *testing.T) {
	f := newFixture()
	id := uuid.New().String()
	wh := uuid.New().String()

	f.orders.On("FindByID", mock.Anything, domain.KindDelivery, id).Return(domain.Order{ID: id, WarehouseID: &wh}, nil)
	f.warehouses.On("GetWarehouseByID", mock.Anything, wh).Return(domain.Warehouse{ID: wh, Name: "Central"}, nil)

	details, err := f.svc.Details(context.Background(), "delivery", id)

	require.NoError(t, err)
	require.NotNil(t, details.Order)
	assert.Equal(t, "Central", details.WarehouseName)
	assert.Nil(t, details.Transfer)
}

func TestDetails_Transfer(t *testing.T) {
	f := newFixture()
	id := uuid.New().String()

	f.transfers.On("FindByID", mock.Anything, id).Return(domain.Transfer{ID: id, FromWarehouseID: "w1", ToWarehouseID: "w2"}, nil)
	f.warehouses.On("GetWarehouseByID", mock.Anything, "w1").Return(domain.Warehouse{ID: "w1", Name: "Origem"}, nil)
	f.warehouses.On("GetWarehouseByID", mock.Anything, "w2").Return(domain.Warehouse{}, apperror.NewNotFoundError("x"))

	details, err := f.svc.Details(context.Background(), "transfer", id)

	require.NoError(t, err)
	require.NotNil(t, details.FromWarehouse)
	assert.Equal(t, "Origem", details.FromWarehouse.Name)
	assert.Nil(t, details.ToWarehouse)
}

func TestDetails_Fail_InvalidType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Details(context.Background(), "adjustment", uuid.New().String())

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestDetails_Fail_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New().String()
	f.orders.On("FindByID", mock.Anything, domain.KindReceipt, id).Return(domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado"))

	_, err := f.svc.Details(context.Background(), "receipt", id)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}
