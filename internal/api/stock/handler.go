package stock

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	GetStock(ctx context.Context, key domain.StockKey) (domain.StockEntry, error)
	CreateStock(ctx context.Context, req domain.CreateStockRequest) (domain.StockEntry, bool, error)
	ListDetailed(ctx context.Context) ([]domain.DetailedStock, error)
	ListLocations(ctx context.Context, warehouseID string) ([]domain.Location, error)
	ListLowStock(ctx context.Context) ([]domain.LowStockItem, error)
}

// Handler expõe o ledger de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// Routes monta as rotas de estoque.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateStockHandler)
	r.Get("/detailed", h.ListDetailedHandler)
	r.Get("/low", h.ListLowStockHandler)
	r.Get("/lookup", h.LookupHandler)
	r.Get("/locations/{warehouseId}", h.ListLocationsHandler)
}

// CreateStockHandler lida com a requisição POST /api/stock.
// Soma à entrada existente (200) ou cria uma nova (201).
// @Summary Entrada manual de estoque
// @Tags stock
// @Accept json
// @Produce json
// @Param stock body domain.CreateStockRequest true "Chave e quantidade"
// @Success 200 {object} domain.StockEntry "Quantidade somada a uma entrada existente"
// @Success 201 {object} domain.StockEntry "Entrada criada"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Produto ou armazém inexistente"
// @Router /stock [post]
func (h *Handler) CreateStockHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStockRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	entry, created, err := h.Service.CreateStock(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, h.Logger, status, entry)
}

// LookupHandler lida com a requisição GET /api/stock/lookup.
// @Summary Busca uma entrada de estoque pela chave
// @Tags stock
// @Produce json
// @Param product_id query string true "ID do produto"
// @Param warehouse_id query string true "ID do armazém"
// @Param location_id query int true "Locação"
// @Success 200 {object} domain.StockEntry
// @Failure 404 {object} domain.ErrorResponse
// @Router /stock/lookup [get]
func (h *Handler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID, err := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if err != nil {
		respond.Error(w, r, h.Logger, apperror.NewValidationError("location_id deve ser um inteiro."))
		return
	}

	entry, err := h.Service.GetStock(r.Context(), domain.StockKey{
		ProductID:   q.Get("product_id"),
		WarehouseID: q.Get("warehouse_id"),
		LocationID:  locationID,
	})
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, entry)
}

// ListDetailedHandler lida com a requisição GET /api/stock/detailed.
// @Summary Lista o estoque com dados de produto e armazém
// @Tags stock
// @Produce json
// @Success 200 {array} domain.DetailedStock
// @Router /stock/detailed [get]
func (h *Handler) ListDetailedHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.ListDetailed(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, rows)
}

// ListLocationsHandler lida com a requisição GET /api/stock/locations/{warehouseId}.
// @Summary Lista as locações de um armazém
// @Tags stock
// @Produce json
// @Param warehouseId path string true "ID do Armazém"
// @Success 200 {array} domain.Location
// @Router /stock/locations/{warehouseId} [get]
func (h *Handler) ListLocationsHandler(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Service.ListLocations(r.Context(), chi.URLParam(r, "warehouseId"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, locations)
}

// ListLowStockHandler lida com a requisição GET /api/stock/low.
// @Summary Produtos no nível de reposição ou abaixo
// @Tags stock
// @Produce json
// @Success 200 {array} domain.LowStockItem
// @Router /stock/low [get]
func (h *Handler) ListLowStockHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListLowStock(r.Context())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, items)
}
