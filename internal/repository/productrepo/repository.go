package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stockflow/internal/domain"
	"stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

// Chave de cache de um produto.
const productCacheKey = "product:%s"

const productColumns = `id, name, sku, category, uom, unit_price, reorder_level, created_at, updated_at`

// ProductRepository acessa a tabela products, com cache-aside no Redis para leituras por ID.
type ProductRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria o repositório injetando DB e Cache.
func NewProductRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save persiste um novo produto.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO products (id, name, sku, category, uom, unit_price, reorder_level, created_at, updated_at)
        VALUES (:id, :name, :sku, :category, :uom, :unit_price, :reorder_level, :created_at, :updated_at)`

	if _, err := r.DB.NamedExecContext(ctxTimeout, query, product); err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, database.MapError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": product.ID, "sku": product.SKU})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// Cache HIT
	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cached), &product) == nil {
			r.logger.Debug("Produto servido pelo cache.", map[string]interface{}{"id": id})
			return product, nil
		}
		r.logger.Warn("Entrada de cache corrompida, consultando o DB.", map[string]interface{}{"key": key})
	} else if !stderrors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Falha ao ler do cache, consultando o DB.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err = r.DB.GetContext(ctxTimeout, &product, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Produto não encontrado.", map[string]interface{}{"id": id})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, database.MapError("Falha ao buscar produto", err)
	}

	// Cache WRITE
	if data, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, data, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}

	return product, nil
}

// FindAll lista produtos com filtros (ILIKE) e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query, args := buildFindAllQuery(filter)

	products := []domain.Product{}
	if err := r.DB.SelectContext(ctxTimeout, &products, query, args...); err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, database.MapError("Falha ao listar produtos", err)
	}

	r.logger.Debug("Produtos listados.", map[string]interface{}{"count": len(products), "page": filter.Page})
	return products, nil
}

func buildFindAllQuery(filter domain.ProductFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	addLike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, database.ContainsPattern(value))
		conds = append(conds, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, column, len(args)))
	}
	addLike("name", filter.Name)
	addLike("sku", filter.SKU)
	addLike("category", filter.Category)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	args = append(args, filter.Limit, filter.Offset())
	sb.WriteString(fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)))
	return sb.String(), args
}

// Update atualiza os campos descritivos e invalida a entrada de cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE products
        SET name = $1, sku = $2, category = $3, uom = $4, unit_price = $5, reorder_level = $6, updated_at = $7
        WHERE id = $8
        RETURNING ` + productColumns

	var updated domain.Product
	err := r.DB.GetContext(ctxTimeout, &updated, query,
		product.Name, product.SKU, product.Category, product.UOM,
		product.UnitPrice, product.ReorderLevel, product.UpdatedAt, product.ID,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para atualização.", product.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, database.MapError("Falha ao atualizar produto", err)
	}

	if delErr := r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, product.ID)); delErr != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"id": product.ID, "error": delErr.Error()})
	}

	r.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": updated.ID})
	return updated, nil
}
