// Package order expõe recebimentos e entregas; o mesmo Handler serve aos dois tipos.
package order

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	CreateOrder(ctx context.Context, kind domain.MoveKind, req domain.CreateOrderRequest) (domain.Order, error)
	AddItem(ctx context.Context, kind domain.MoveKind, orderID string, req domain.AddItemRequest) (domain.OrderItem, error)
	GetOrder(ctx context.Context, kind domain.MoveKind, id string) (domain.Order, error)
	ListOrders(ctx context.Context, kind domain.MoveKind) ([]domain.Order, error)
	Advance(ctx context.Context, kind domain.MoveKind, id string) (domain.TransitionResult, error)
}

// Handler atende um tipo de pedido (receipt ou delivery).
type Handler struct {
	Kind    domain.MoveKind
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria o Handler para o tipo informado.
func NewHandler(kind domain.MoveKind, svc OrderService, log logger.Logger) *Handler {
	return &Handler{Kind: kind, Service: svc, Logger: log}
}

// Routes monta as rotas do tipo de pedido.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListOrdersHandler)
	r.Post("/", h.CreateOrderHandler)
	r.Get("/{id}", h.GetOrderHandler)
	r.Post("/{id}/items", h.AddItemHandler)
	r.Post("/{id}/validate", h.ValidateHandler)
}

// CreateOrderHandler cria um pedido em draft.
// @Summary Cria um recebimento ou entrega
// @Tags receipts,deliveries
// @Accept json
// @Produce json
// @Param order body domain.CreateOrderRequest true "Cabeçalho e itens"
// @Success 201 {object} domain.Order
// @Failure 400 {object} domain.ErrorResponse
// @Router /receipts [post]
// @Router /deliveries [post]
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateOrder(r.Context(), h.Kind, req)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, created)
}

// GetOrderHandler devolve o pedido com os itens.
// @Summary Obtém um recebimento ou entrega
// @Tags receipts,deliveries
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 404 {object} domain.ErrorResponse
// @Router /receipts/{id} [get]
// @Router /deliveries/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetOrder(r.Context(), h.Kind, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, order)
}

// ListOrdersHandler lista os pedidos, mais recentes primeiro.
// @Summary Lista recebimentos ou entregas
// @Tags receipts,deliveries
// @Produce json
// @Success 200 {array} domain.Order
// @Router /receipts [get]
// @Router /deliveries [get]
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders(r.Context(), h.Kind)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, orders)
}

// AddItemHandler adiciona uma linha ao pedido.
// @Summary Adiciona item a um pedido em draft ou ready
// @Tags receipts,deliveries
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param item body domain.AddItemRequest true "Item"
// @Success 201 {object} domain.OrderItem
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /receipts/{id}/items [post]
// @Router /deliveries/{id}/items [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AddItemRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	item, err := h.Service.AddItem(r.Context(), h.Kind, chi.URLParam(r, "id"), req)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, item)
}

// ValidateHandler avança o pedido um passo no workflow.
// @Summary Avança o status (draft → ready → done)
// @Description Em ready → done o estoque é creditado (recebimento) ou debitado (entrega) atomicamente.
// @Tags receipts,deliveries
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse "Transição inválida ou estoque insuficiente"
// @Failure 404 {object} domain.ErrorResponse
// @Router /receipts/{id}/validate [post]
// @Router /deliveries/{id}/validate [post]
func (h *Handler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Advance(r.Context(), h.Kind, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, respond.Transition(result))
}
