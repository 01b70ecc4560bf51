package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/infrastructure/storage/postgres"
)

var productOrder = map[string]string{
	"itemCode":  "item_code",
	"modelName": "model_name",
	"price":     "price",
	"createdOn": "created_on",
	"category":  "category",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	baseRepo[product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{baseRepo: newBaseRepo[product.Product](txManager, "product", "products")}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.insert(ctx, p)
}

// Update keeps the creation stamp.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p, "created_on", "created_by")
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getByID(ctx, productID)
}

func (r *ProductRepo) List(ctx context.Context, filter product.Filter) (domain.ListResult[*product.Product], error) {
	q := r.selectQ()
	if filter.Search != "" {
		q = q.Where(postgres.SearchAny(filter.Search, "model_name", "model_sku", "item_code"))
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	q = q.OrderBy(postgres.OrderBy(filter.OrderBy, productOrder, "created_on DESC"), "id")

	return r.list(ctx, q, filter.ListFilter)
}
