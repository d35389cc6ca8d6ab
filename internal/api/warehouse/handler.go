package warehouse

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// WarehouseService define o contrato que o Handler espera da camada de Serviço.
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
	GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error)
	UpdateWarehouse(ctx context.Context, warehouse domain.Warehouse) (domain.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de armazéns.
type Handler struct {
	Service WarehouseService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc WarehouseService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// Routes monta as rotas de armazém.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.GetAllWarehousesHandler)
	r.Post("/", h.CreateWarehouseHandler)
	r.Get("/{id}", h.GetWarehouseByIDHandler)
	r.Put("/{id}", h.UpdateWarehouseHandler)
	r.Delete("/{id}", h.DeleteWarehouseHandler)
}

// CreateWarehouseHandler lida com a requisição POST /api/warehouses.
// @Summary Cria um novo armazém
// @Description Cria um novo armazém no sistema.
// @Tags warehouses
// @Accept json
// @Produce json
// @Param warehouse body domain.Warehouse true "Dados do armazém para criação"
// @Success 201 {object} domain.Warehouse "Armazém criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /warehouses [post]
func (h *Handler) CreateWarehouseHandler(w http.ResponseWriter, r *http.Request) {
	var warehouse domain.Warehouse
	if err := respond.Decode(r, &warehouse); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateWarehouse(r.Context(), warehouse)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, created)
}

// GetWarehouseByIDHandler lida com a requisição GET /api/warehouses/{id}.
// @Summary Obtém um armazém por ID
// @Description Busca um armazém específico pelo seu ID.
// @Tags warehouses
// @Produce json
// @Param id path string true "ID do Armazém"
// @Success 200 {object} domain.Warehouse "Armazém encontrado"
// @Failure 404 {object} domain.ErrorResponse "Armazém não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /warehouses/{id} [get]
func (h *Handler) GetWarehouseByIDHandler(w http.ResponseWriter, r *http.Request) {
	warehouse, err := h.Service.GetWarehouseByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, warehouse)
}

// GetAllWarehousesHandler lida com a requisição GET /api/warehouses.
// @Summary Lista todos os armazéns
// @Tags warehouses
// @Produce json
// @Success 200 {array} domain.Warehouse "Lista de armazéns"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /warehouses [get]
func (h *Handler) GetAllWarehousesHandler(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.Service.GetAllWarehouses(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, warehouses)
}

// UpdateWarehouseHandler lida com a requisição PUT /api/warehouses/{id}.
// @Summary Atualiza um armazém existente
// @Tags warehouses
// @Accept json
// @Produce json
// @Param id path string true "ID do Armazém"
// @Param warehouse body domain.Warehouse true "Dados do armazém para atualização"
// @Success 200 {object} domain.Warehouse "Armazém atualizado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Armazém não encontrado"
// @Router /warehouses/{id} [put]
func (h *Handler) UpdateWarehouseHandler(w http.ResponseWriter, r *http.Request) {
	var warehouse domain.Warehouse
	if err := respond.Decode(r, &warehouse); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	warehouse.ID = chi.URLParam(r, "id")

	updated, err := h.Service.UpdateWarehouse(r.Context(), warehouse)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, updated)
}

// DeleteWarehouseHandler lida com a requisição DELETE /api/warehouses/{id}.
// @Summary Deleta um armazém
// @Tags warehouses
// @Param id path string true "ID do Armazém"
// @Success 204 "Armazém deletado com sucesso"
// @Failure 404 {object} domain.ErrorResponse "Armazém não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Armazém em uso"
// @Router /warehouses/{id} [delete]
func (h *Handler) DeleteWarehouseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteWarehouse(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
