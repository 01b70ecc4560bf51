package sales_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/events"
	"dsrsales/internal/domain/inventory/inventorytest"
	"dsrsales/internal/domain/sales"
)

// ledger keeps customers, sales and published events next to an inventory store
// and rolls back with its transactions.
type ledger struct {
	store *inventorytest.Store

	mu        sync.Mutex
	customers map[id.ID]sales.Customer
	sales     map[id.ID]sales.Sale
	events    []events.Event
}

func newLedger(store *inventorytest.Store) *ledger {
	l := &ledger{
		store:     store,
		customers: make(map[id.ID]sales.Customer),
		sales:     make(map[id.ID]sales.Sale),
	}
	store.Join(l)
	return l
}

func (l *ledger) Snapshot() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	customers := make(map[id.ID]sales.Customer, len(l.customers))
	for k, v := range l.customers {
		customers[k] = v
	}
	saleRows := make(map[id.ID]sales.Sale, len(l.sales))
	for k, v := range l.sales {
		saleRows[k] = v
	}
	evts := append([]events.Event(nil), l.events...)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.customers = customers
		l.sales = saleRows
		l.events = evts
	}
}

func (l *ledger) customerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.customers)
}

func (l *ledger) saleCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sales)
}

func (l *ledger) sale(saleID id.ID) (sales.Sale, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sales[saleID]
	return s, ok
}

func (l *ledger) publishedTypes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.EventType)
	}
	return out
}

// --- events.Publisher ---

func (l *ledger) Publish(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

// --- sales.CustomerRepository ---

type customerRepo struct{ l *ledger }

func (r customerRepo) Create(_ context.Context, c *sales.Customer) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if c.IDNumber != nil {
		for _, existing := range r.l.customers {
			if existing.IDNumber != nil && *existing.IDNumber == *c.IDNumber {
				return apperror.NewDuplicate("customer", "id_number", *c.IDNumber)
			}
		}
	}
	r.l.customers[c.ID] = *c
	return nil
}

func (r customerRepo) GetByID(_ context.Context, customerID id.ID) (*sales.Customer, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	c, ok := r.l.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	return &c, nil
}

func (r customerRepo) GetByIDNumber(_ context.Context, idNumber string) (*sales.Customer, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, c := range r.l.customers {
		if c.IDNumber != nil && *c.IDNumber == idNumber {
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("customer", idNumber)
}

func (r customerRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*sales.Customer], error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	res := domain.ListResult[*sales.Customer]{Limit: filter.Limit, Offset: filter.Offset}
	for _, c := range r.l.customers {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		c := c
		res.Items = append(res.Items, &c)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

// --- sales.SaleRepository ---

type saleRepo struct{ l *ledger }

func (r saleRepo) CreateMany(_ context.Context, rows []*sales.Sale) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, s := range rows {
		for _, existing := range r.l.sales {
			if existing.StockID == s.StockID && !existing.IsReturned {
				return apperror.NewDuplicate("sale", "stock_id", s.StockID.String())
			}
		}
		r.l.sales[s.ID] = *s
	}
	return nil
}

func (r saleRepo) GetByID(_ context.Context, saleID id.ID) (*sales.Sale, error) {
	s, ok := r.l.sale(saleID)
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return &s, nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r saleRepo) MarkReturned(_ context.Context, saleID id.ID, at time.Time) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	s, ok := r.l.sales[saleID]
	if !ok {
		return apperror.NewNotFound("sale", saleID.String())
	}
	s.IsReturned = true
	s.ReturnedAt = &at
	r.l.sales[saleID] = s
	return nil
}

func (r saleRepo) Delete(_ context.Context, saleID id.ID) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.sales[saleID]; !ok {
		return apperror.NewNotFound("sale", saleID.String())
	}
	delete(r.l.sales, saleID)
	return nil
}

func (r saleRepo) ListByOrder(ctx context.Context, orderID string) ([]*sales.SaleView, error) {
	return r.list(ctx, func(s sales.Sale) bool { return s.OrderID == orderID })
}

func (r saleRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*sales.SaleView, error) {
	return r.list(ctx, func(s sales.Sale) bool { return s.CustomerID == customerID })
}

func (r saleRepo) list(ctx context.Context, match func(sales.Sale) bool) ([]*sales.SaleView, error) {
	r.l.mu.Lock()
	var rows []sales.Sale
	for _, s := range r.l.sales {
		if match(s) {
			rows = append(rows, s)
		}
	}
	customers := r.l.customers
	r.l.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID.String() < rows[j].ID.String() })

	out := make([]*sales.SaleView, 0, len(rows))
	for _, s := range rows {
		v := &sales.SaleView{Sale: s, CustomerName: customers[s.CustomerID].Name}
		if st, ok := r.l.store.Stock(s.StockID); ok {
			v.IMEI = st.IMEINumber
			v.SerialNumber = st.SerialNumber
			p, err := r.l.store.Products().GetByID(ctx, st.ProductID)
			if err != nil {
				return nil, err
			}
			v.ProductName = p.ModelName
			v.ModelSKU = p.ModelSKU
			v.Price = p.Price
		}
		if name, err := r.l.store.Directory().Username(ctx, s.SoldBy); err == nil {
			v.SellerUsername = name
		}
		out = append(out, v)
	}
	return out, nil
}
