package transfer

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// TransferService define o contrato que o Handler espera da camada de Serviço.
type TransferService interface {
	CreateTransfer(ctx context.Context, req domain.CreateTransferRequest) (domain.Transfer, error)
	GetTransfer(ctx context.Context, id string) (domain.Transfer, error)
	ListTransfers(ctx context.Context) ([]domain.Transfer, error)
	Advance(ctx context.Context, kind domain.MoveKind, id string) (domain.TransitionResult, error)
}

// Handler expõe as transferências internas.
type Handler struct {
	Service TransferService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc TransferService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// Routes monta as rotas de transferência.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListTransfersHandler)
	r.Post("/", h.CreateTransferHandler)
	r.Get("/{id}", h.GetTransferHandler)
	r.Post("/{id}/validate", h.ValidateHandler)
}

// CreateTransferHandler cria uma transferência em draft.
// @Summary Cria uma transferência interna
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body domain.CreateTransferRequest true "Origem, destino e quantidade"
// @Success 201 {object} domain.Transfer
// @Failure 400 {object} domain.ErrorResponse
// @Router /transfers [post]
func (h *Handler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransferRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateTransfer(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, created)
}

// GetTransferHandler devolve uma transferência.
// @Summary Obtém uma transferência
// @Tags transfers
// @Produce json
// @Param id path string true "ID da transferência"
// @Success 200 {object} domain.Transfer
// @Failure 404 {object} domain.ErrorResponse
// @Router /transfers/{id} [get]
func (h *Handler) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, t)
}

// ListTransfersHandler lista as transferências.
// @Summary Lista transferências
// @Tags transfers
// @Produce json
// @Success 200 {array} domain.Transfer
// @Router /transfers [get]
func (h *Handler) ListTransfersHandler(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.Service.ListTransfers(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, transfers)
}

// ValidateHandler avança a transferência um passo.
// @Summary Avança o status (draft → in_transit → done)
// @Description Em draft → in_transit debita a origem; em in_transit → done credita o destino.
// @Tags transfers
// @Produce json
// @Param id path string true "ID da transferência"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse "Estoque insuficiente na origem"
// @Failure 404 {object} domain.ErrorResponse
// @Router /transfers/{id}/validate [post]
func (h *Handler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Advance(r.Context(), domain.KindTransfer, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, respond.Transition(result))
}
