package product

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/api/respond"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	GetProducts(ctx context.Context, page, limit int, filters map[string]string) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// Routes monta as rotas de produto.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListProductsHandler)
	r.Post("/", h.CreateProductHandler)
	r.Get("/{id}", h.GetProductByIDHandler)
	r.Put("/{id}", h.UpdateProductHandler)
}

// CreateProductHandler lida com a requisição POST /api/products.
// @Summary Cria um novo produto
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.Product true "Dados do produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "SKU duplicado"
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), p)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusCreated, created)
}

// GetProductByIDHandler lida com a requisição GET /api/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do Produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, p)
}

// ListProductsHandler lida com a requisição GET /api/products.
// @Summary Lista produtos
// @Tags products
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 10, máximo 100)"
// @Param name query string false "Filtro por nome"
// @Param sku query string false "Filtro por SKU"
// @Param category query string false "Filtro por categoria"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	filters := map[string]string{
		"name":     q.Get("name"),
		"sku":      q.Get("sku"),
		"category": q.Get("category"),
	}

	products, err := h.Service.GetProducts(r.Context(), page, limit, filters)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, products)
}

// UpdateProductHandler lida com a requisição PUT /api/products/{id}.
// @Summary Atualiza um produto
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do Produto"
// @Param product body domain.Product true "Campos descritivos"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	updated, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, updated)
}
