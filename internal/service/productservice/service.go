package productservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/logger"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	defaultUOM   = "unit"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
}

// Service implementa as regras de negócio do catálogo de produtos.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProduct valida e persiste um novo produto.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{"sku": product.SKU})

	product = normalize(product)
	if err := validate(product); err != nil {
		s.logger.Warn("Falha na validação do produto.", map[string]interface{}{"sku": product.SKU, "error": err.Error()})
		return domain.Product{}, err
	}

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return domain.Product{}, apperror.Ensure(err, "Falha interna ao criar produto.")
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": created.ID, "sku": created.SKU})
	return created, nil
}

// GetProductByID busca um produto pelo ID.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, apperror.Ensure(err, "Falha interna ao buscar produto.")
	}
	return product, nil
}

// GetProducts lista produtos paginados. Filtros aceitos: name, sku, category.
func (s *Service) GetProducts(ctx context.Context, page, limit int, filters map[string]string) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := domain.ProductFilter{
		Page:     page,
		Limit:    limit,
		Name:     strings.TrimSpace(filters["name"]),
		SKU:      strings.TrimSpace(filters["sku"]),
		Category: strings.TrimSpace(filters["category"]),
	}

	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao buscar produtos no repositório.", err)
		return nil, apperror.Ensure(err, "Falha interna ao buscar produtos.")
	}
	return products, nil
}

// UpdateProduct substitui os campos descritivos de um produto existente.
func (s *Service) UpdateProduct(ctx context.Context, id string, product domain.Product) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	product = normalize(product)
	if err := validate(product); err != nil {
		return domain.Product{}, err
	}
	product.ID = id
	product.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao atualizar produto no repositório.", err)
		return domain.Product{}, apperror.Ensure(err, "Falha interna ao atualizar produto.")
	}

	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": updated.ID})
	return updated, nil
}

func normalize(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Category = strings.TrimSpace(p.Category)
	p.UOM = strings.TrimSpace(p.UOM)
	if p.UOM == "" {
		p.UOM = defaultUOM
	}
	return p
}

func validate(p domain.Product) error {
	if p.Name == "" || p.SKU == "" {
		return apperror.NewValidationError("Nome e SKU são obrigatórios para o produto.")
	}
	if p.UnitPrice.LessThan(decimal.Zero) {
		return apperror.NewValidationError("O preço do produto não pode ser negativo.")
	}
	if p.ReorderLevel.LessThan(decimal.Zero) {
		return apperror.NewValidationError("O nível de reposição não pode ser negativo.")
	}
	return nil
}
