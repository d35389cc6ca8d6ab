package productservice_test

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
	"stockflow/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

// TestGetProducts_Success_NoFilters testa a busca de produtos sem filtros.
func TestGetProducts_Success_NoFilters(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	expectedProducts := []domain.Product{
		{ID: uuid.New().String(), Name: "Product A", SKU: "SKU001"},
		{ID: uuid.New().String(), Name: "Product B", SKU: "SKU002"},
	}

	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10}).Return(expectedProducts, nil)

	products, err := svc.GetProducts(context.Background(), 1, 10, nil)

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_Success_WithFilters testa a busca de produtos com filtros.
func TestGetProducts_Success_WithFilters(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	expectedProducts := []domain.Product{
		{ID: uuid.New().String(), Name: "Filtered Product", SKU: "SKUFILT"},
	}
	filters := map[string]string{
		"name":     "Filtered",
		"sku":      " SKUFILT ",
		"category": "Tools",
	}
	expectedFilter := domain.ProductFilter{
		Page:     2,
		Limit:    10,
		Name:     "Filtered",
		SKU:      "SKUFILT",
		Category: "Tools",
	}

	mockRepo.On("FindAll", mock.Anything, expectedFilter).Return(expectedProducts, nil)

	products, err := svc.GetProducts(context.Background(), 2, 10, filters)

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_Fail_RepoError testa um erro do repositório.
func TestGetProducts_Fail_RepoError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	repoError := errors.New("database connection lost")
	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10}).Return([]domain.Product{}, repoError)

	_, err := svc.GetProducts(context.Background(), 1, 10, nil)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Contains(t, err.Error(), "Erro Interno: Falha interna ao buscar produtos.")
	assert.Contains(t, err.Error(), "database connection lost")
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_LimitSafeguard testa o limite máximo de itens por página.
func TestGetProducts_LimitSafeguard(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 100}).Return([]domain.Product{}, nil)

	_, err := svc.GetProducts(context.Background(), 1, 150, nil)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_InvalidPageOrLimit testa valores inválidos para page/limit
func TestGetProducts_InvalidPageOrLimit(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
	}{
		{"page zero", 0, 10},
		{"negative page", -3, 10},
		{"limit zero", 1, 0},
		{"negative limit", 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			svc := productservice.NewService(mockRepo, logger.NewNop())
			mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10}).Return([]domain.Product{}, nil).Once()

			_, err := svc.GetProducts(context.Background(), tt.page, tt.limit, nil)

			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

// --- CreateProduct ---

func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	input := domain.Product{Name: " Bolt ", SKU: "BLT-1", UnitPrice: decimal.RequireFromString("0.25")}

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		_, err := uuid.Parse(p.ID)
		return err == nil && p.Name == "Bolt" && p.UOM == "unit" && !p.CreatedAt.IsZero()
	})).Return(domain.Product{ID: uuid.New().String(), Name: "Bolt", SKU: "BLT-1", UOM: "unit"}, nil)

	created, err := svc.CreateProduct(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "Bolt", created.Name)
	assert.Equal(t, "unit", created.UOM)
	mockRepo.AssertExpectations(t)
}

func TestCreateProduct_Fail_Validation(t *testing.T) {
	tests := []struct {
		name    string
		product domain.Product
	}{
		{"missing name", domain.Product{SKU: "A"}},
		{"missing sku", domain.Product{Name: "A"}},
		{"negative price", domain.Product{Name: "A", SKU: "A", UnitPrice: decimal.NewFromInt(-1)}},
		{"negative reorder level", domain.Product{Name: "A", SKU: "A", ReorderLevel: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			svc := productservice.NewService(mockRepo, logger.NewNop())

			_, err := svc.CreateProduct(context.Background(), tt.product)

			assert.IsType(t, &apperror.ValidationError{}, err)
			mockRepo.AssertNotCalled(t, "Save")
		})
	}
}

func TestCreateProduct_Fail_DuplicateSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Product{}, apperror.NewConflictError("SKU já cadastrado"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{Name: "A", SKU: "DUP"})

	assert.IsType(t, &apperror.ConflictError{}, err)
}

// --- GetProductByID / UpdateProduct ---

func TestGetProductByID_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	_, err := svc.GetProductByID(context.Background(), "abc")

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID")
}

func TestGetProductByID_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	id := uuid.New().String()

	mockRepo.On("FindByID", mock.Anything, id).Return(domain.Product{}, apperror.NewNotFoundError("Produto não encontrado"))

	_, err := svc.GetProductByID(context.Background(), id)

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestUpdateProduct_Success_KeepsID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	id := uuid.New().String()

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID == id && p.Name == "Renamed" && !p.UpdatedAt.IsZero()
	})).Return(domain.Product{ID: id, Name: "Renamed", SKU: "S"}, nil)

	updated, err := svc.UpdateProduct(context.Background(), id, domain.Product{ID: uuid.New().String(), Name: "Renamed", SKU: "S"})

	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	mockRepo.AssertExpectations(t)
}
