package stockservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetStock(ctx context.Context, key domain.StockKey) (domain.StockEntry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.StockEntry), args.Error(1)
}

func (m *MockStockRepository) CreateStock(ctx context.Context, key domain.StockKey, qty decimal.Decimal) (domain.StockEntry, bool, error) {
	args := m.Called(ctx, key, qty)
	return args.Get(0).(domain.StockEntry), args.Bool(1), args.Error(2)
}

func (m *MockStockRepository) ListDetailed(ctx context.Context) ([]domain.DetailedStock, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DetailedStock), args.Error(1)
}

func (m *MockStockRepository) ListLocationIDs(ctx context.Context, warehouseID string) ([]int64, error) {
	args := m.Called(ctx, warehouseID)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStockRepository) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LowStockItem), args.Error(1)
}

func validRequest() domain.CreateStockRequest {
	return domain.CreateStockRequest{
		ProductID:   uuid.New().String(),
		WarehouseID: uuid.New().String(),
		LocationID:  1,
		Quantity:    decimal.NewFromInt(10),
	}
}

// --- CreateStock ---

func TestCreateStock_Success_NewEntry(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	req := validRequest()
	key := domain.StockKey{ProductID: req.ProductID, WarehouseID: req.WarehouseID, LocationID: 1}
	expected := domain.StockEntry{ID: uuid.New().String(), ProductID: req.ProductID, WarehouseID: req.WarehouseID, LocationID: 1, Quantity: req.Quantity}

	mockRepo.On("CreateStock", mock.Anything, key, req.Quantity).Return(expected, true, nil)

	entry, created, err := svc.CreateStock(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, expected, entry)
	mockRepo.AssertExpectations(t)
}

func TestCreateStock_Success_ExistingEntry(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	req := validRequest()
	expected := domain.StockEntry{Quantity: decimal.NewFromInt(25)}
	mockRepo.On("CreateStock", mock.Anything, mock.Anything, req.Quantity).Return(expected, false, nil)

	entry, created, err := svc.CreateStock(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(25)))
}

func TestCreateStock_Fail_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.CreateStockRequest)
	}{
		{"zero quantity", func(r *domain.CreateStockRequest) { r.Quantity = decimal.Zero }},
		{"negative quantity", func(r *domain.CreateStockRequest) { r.Quantity = decimal.NewFromInt(-1) }},
		{"missing product", func(r *domain.CreateStockRequest) { r.ProductID = "" }},
		{"missing warehouse", func(r *domain.CreateStockRequest) { r.WarehouseID = "" }},
		{"missing location", func(r *domain.CreateStockRequest) { r.LocationID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockStockRepository)
			svc := stockservice.NewService(mockRepo, logger.NewNop())
			req := validRequest()
			tt.mutate(&req)

			_, _, err := svc.CreateStock(context.Background(), req)

			assert.IsType(t, &apperror.ValidationError{}, err)
			mockRepo.AssertNotCalled(t, "CreateStock")
		})
	}
}

func TestCreateStock_Fail_UnknownProductOrWarehouse(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("CreateStock", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.StockEntry{}, false, apperror.NewNotFoundError("Falha ao gravar estoque: referência inexistente"))

	_, _, err := svc.CreateStock(context.Background(), validRequest())

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestCreateStock_Fail_InternalError(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("CreateStock", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.StockEntry{}, false, errors.New("connection reset"))

	_, _, err := svc.CreateStock(context.Background(), validRequest())

	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Contains(t, err.Error(), "Falha interna ao gravar estoque")
}

// --- GetStock ---

func TestGetStock_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	key := domain.StockKey{ProductID: uuid.New().String(), WarehouseID: uuid.New().String(), LocationID: 2}
	mockRepo.On("GetStock", mock.Anything, key).Return(domain.StockEntry{}, apperror.NewNotFoundError("Estoque não encontrado"))

	_, err := svc.GetStock(context.Background(), key)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// --- Lists ---

func TestListLocations_Success(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())
	warehouseID := uuid.New().String()

	mockRepo.On("ListLocationIDs", mock.Anything, warehouseID).Return([]int64{1, 4}, nil)

	locations, err := svc.ListLocations(context.Background(), warehouseID)

	require.NoError(t, err)
	assert.Equal(t, []domain.Location{
		{ID: 1, Code: "LOC-1", Name: "Location 1"},
		{ID: 4, Code: "LOC-4", Name: "Location 4"},
	}, locations)
}

func TestListLocations_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	_, err := svc.ListLocations(context.Background(), "1")

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "ListLocationIDs")
}

func TestListLowStock_Fail_RepoError(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("ListLowStock", mock.Anything).Return([]domain.LowStockItem(nil), errors.New("boom"))

	_, err := svc.ListLowStock(context.Background())

	assert.IsType(t, &apperror.InternalError{}, err)
}
