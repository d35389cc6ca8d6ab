package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockflow/internal/api/order"
	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// MockOrderService é uma implementação mock da interface OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, kind domain.MoveKind, req domain.CreateOrderRequest) (domain.Order, error) {
	args := m.Called(ctx, kind, req)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderService) AddItem(ctx context.Context, kind domain.MoveKind, orderID string, req domain.AddItemRequest) (domain.OrderItem, error) {
	args := m.Called(ctx, kind, orderID, req)
	return args.Get(0).(domain.OrderItem), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, kind domain.MoveKind) ([]domain.Order, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderService) Advance(ctx context.Context, kind domain.MoveKind, id string) (domain.TransitionResult, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(domain.TransitionResult), args.Error(1)
}

func newRouter(kind domain.MoveKind, svc *MockOrderService) http.Handler {
	r := chi.NewRouter()
	r.Route("/orders", order.NewHandler(kind, svc, logger.NewNop()).Routes)
	return r
}

func TestValidateHandler_Success(t *testing.T) {
	svc := new(MockOrderService)
	id := uuid.New().String()
	svc.On("Advance", mock.Anything, domain.KindDelivery, id).Return(domain.TransitionResult{
		Kind: domain.KindDelivery, ID: id, Previous: domain.StatusReady, Status: domain.StatusDone, Changed: true,
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(domain.KindDelivery, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/"+id+"/validate", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body domain.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.StatusDone, body.Status)
	assert.Contains(t, body.Message, "ready para done")
	svc.AssertExpectations(t)
}

func TestValidateHandler_Fail_InsufficientStock(t *testing.T) {
	svc := new(MockOrderService)
	id := uuid.New().String()
	shortfalls := []domain.StockShortfall{{
		ProductID: uuid.New().String(), SKU: "SKU-A", LocationID: 1,
		Available: decimal.NewFromInt(15), Required: decimal.NewFromInt(20),
	}}
	svc.On("Advance", mock.Anything, domain.KindDelivery, id).
		Return(domain.TransitionResult{}, apperror.NewValidationErrorWithDetails("Estoque insuficiente para concluir a entrega.", shortfalls))

	rec := httptest.NewRecorder()
	newRouter(domain.KindDelivery, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/"+id+"/validate", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Category string                  `json:"category"`
		Details  []domain.StockShortfall `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Category)
	require.Len(t, body.Details, 1)
	assert.True(t, body.Details[0].Required.Equal(decimal.NewFromInt(20)))
}

func TestCreateOrderHandler_Success(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("CreateOrder", mock.Anything, domain.KindReceipt, mock.MatchedBy(func(req domain.CreateOrderRequest) bool {
		return req.Partner == "ACME" && len(req.Items) == 1 && req.Items[0].Quantity.Equal(decimal.NewFromInt(10))
	})).Return(domain.Order{ID: uuid.New().String(), Reference: "WH/IN/00001", Status: domain.StatusDraft}, nil)

	payload := `{"partner":"ACME","items":[{"product_id":"` + uuid.New().String() + `","quantity":"10"}]}`
	rec := httptest.NewRecorder()
	newRouter(domain.KindReceipt, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(payload)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "WH/IN/00001")
	svc.AssertExpectations(t)
}

func TestCreateOrderHandler_Fail_InvalidJSON(t *testing.T) {
	svc := new(MockOrderService)

	rec := httptest.NewRecorder()
	newRouter(domain.KindReceipt, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateOrder")
}

func TestGetOrderHandler_Fail_NotFound(t *testing.T) {
	svc := new(MockOrderService)
	id := uuid.New().String()
	svc.On("GetOrder", mock.Anything, domain.KindReceipt, id).Return(domain.Order{}, apperror.NewNotFoundError("Recebimento não encontrado"))

	rec := httptest.NewRecorder()
	newRouter(domain.KindReceipt, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
