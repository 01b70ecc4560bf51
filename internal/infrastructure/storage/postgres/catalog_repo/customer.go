package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/sales"
	"dsrsales/internal/infrastructure/storage/postgres"
)

var customerOrder = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

// CustomerRepo implements sales.CustomerRepository.
type CustomerRepo struct {
	baseRepo[sales.Customer]
}

var _ sales.CustomerRepository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{baseRepo: newBaseRepo[sales.Customer](txManager, "customer", "customers")}
}

func (r *CustomerRepo) Create(ctx context.Context, c *sales.Customer) error {
	return r.insert(ctx, c)
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*sales.Customer, error) {
	return r.getByID(ctx, customerID)
}

func (r *CustomerRepo) GetByIDNumber(ctx context.Context, idNumber string) (*sales.Customer, error) {
	return r.getWhere(ctx, squirrel.Eq{"id_number": idNumber}, idNumber)
}

func (r *CustomerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*sales.Customer], error) {
	q := r.selectQ()
	if filter.Search != "" {
		q = q.Where(postgres.SearchAny(filter.Search, "name", "phone", "id_number"))
	}
	q = q.OrderBy(postgres.OrderBy(filter.OrderBy, customerOrder, "created_at DESC"), "id")
	return r.list(ctx, q, filter)
}
