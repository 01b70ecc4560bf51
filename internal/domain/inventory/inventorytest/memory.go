// Package inventorytest provides an in-memory ledger for exercising the
// inventory and sales services without a database.
package inventorytest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"dsrsales/internal/core/apperror"
	"dsrsales/internal/core/id"
	"dsrsales/internal/core/tx"
	"dsrsales/internal/domain"
	"dsrsales/internal/domain/catalog/product"
	"dsrsales/internal/domain/inventory"
)

// ErrInjected is returned by an operation named in Store.FailOn.
var ErrInjected = errors.New("injected storage failure")

// Participant is additional in-memory state that must roll back together with
// the store, such as sales rows kept by another fake.
type Participant interface {
	// Snapshot captures current state and returns a function restoring it.
	Snapshot() (restore func())
}

// Store is an in-memory ledger. Transactions are serialized, which stands in
// for row locks, and roll back on error.
type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	stocks   map[id.ID]inventory.Stock
	history  []inventory.HistoryEntry
	products map[id.ID]product.Product
	users    map[id.ID]string
	others   []Participant

	// FailOn names repository methods that return ErrInjected.
	FailOn map[string]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		stocks:   make(map[id.ID]inventory.Stock),
		products: make(map[id.ID]product.Product),
		users:    make(map[id.ID]string),
		FailOn:   make(map[string]bool),
	}
}

// Join adds p to the store's transactions.
func (s *Store) Join(p Participant) {
	s.others = append(s.others, p)
}

type txKey struct{}

// TxManager returns a manager that serializes transactions and restores the
// store when fn fails. Nested calls join the outer transaction.
func (s *Store) TxManager() tx.Manager {
	return tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
		if ctx.Value(txKey{}) != nil {
			return fn(ctx)
		}
		s.txMu.Lock()
		defer s.txMu.Unlock()

		restore := s.snapshot()
		if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
			restore()
			return err
		}
		return nil
	})
}

func (s *Store) snapshot() func() {
	s.mu.Lock()
	stocks := make(map[id.ID]inventory.Stock, len(s.stocks))
	for k, v := range s.stocks {
		stocks[k] = v
	}
	history := append([]inventory.HistoryEntry(nil), s.history...)
	s.mu.Unlock()

	restores := make([]func(), 0, len(s.others))
	for _, p := range s.others {
		restores = append(restores, p.Snapshot())
	}

	return func() {
		s.mu.Lock()
		s.stocks = stocks
		s.history = history
		s.mu.Unlock()
		for _, r := range restores {
			r()
		}
	}
}

func (s *Store) fail(op string) error {
	if s.FailOn[op] {
		return apperror.NewInfrastructure(ErrInjected)
	}
	return nil
}

// --- Seeding ---

// AddUser registers a user name and returns its ID.
func (s *Store) AddUser(username string) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := id.New()
	s.users[uid] = username
	return uid
}

// AddProduct stores p.
func (s *Store) AddProduct(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
}

// Stock returns a copy of the stored unit.
func (s *Store) Stock(stockID id.ID) (inventory.Stock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stocks[stockID]
	return st, ok
}

// StockByIMEI returns a copy of the unit with the given IMEI.
func (s *Store) StockByIMEI(imei string) (inventory.Stock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stocks {
		if st.IMEI() == imei {
			return st, true
		}
	}
	return inventory.Stock{}, false
}

// StockCount returns the number of stored units.
func (s *Store) StockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stocks)
}

// HistoryFor returns history rows of a unit in insertion order.
func (s *Store) HistoryFor(stockID id.ID) []inventory.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.HistoryEntry
	for _, e := range s.history {
		if e.StockID == stockID {
			out = append(out, e)
		}
	}
	return out
}

// HistoryCount returns the total number of history rows.
func (s *Store) HistoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// --- Repository views ---

// Stocks returns the store as an inventory.StockRepository.
func (s *Store) Stocks() inventory.StockRepository { return stockRepo{s} }

// History returns the store as an inventory.HistoryRepository.
func (s *Store) History() inventory.HistoryRepository { return historyRepo{s} }

// Products returns the store as an inventory.ProductReader.
func (s *Store) Products() inventory.ProductReader { return productRepo{s} }

// Directory returns the store as an inventory.Directory.
func (s *Store) Directory() inventory.Directory { return directory{s} }

type stockRepo struct{ s *Store }

func (r stockRepo) Create(_ context.Context, st *inventory.Stock) error {
	if err := r.s.fail("Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkUniqueLocked(st); err != nil {
		return err
	}
	r.s.stocks[st.ID] = *st
	return nil
}

func (r stockRepo) CreateMany(_ context.Context, stocks []*inventory.Stock) error {
	if err := r.s.fail("CreateMany"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range stocks {
		if err := r.s.checkUniqueLocked(st); err != nil {
			return err
		}
		r.s.stocks[st.ID] = *st
	}
	return nil
}

func (s *Store) checkUniqueLocked(st *inventory.Stock) error {
	for _, existing := range s.stocks {
		if existing.SerialNumber == st.SerialNumber {
			return apperror.NewDuplicate("stock", "serial_number", st.SerialNumber)
		}
		if st.IMEI() != "" && existing.IMEI() == st.IMEI() {
			return apperror.NewDuplicate("stock", "imei_number", st.IMEI())
		}
	}
	return nil
}

func (r stockRepo) GetByID(_ context.Context, stockID id.ID) (*inventory.Stock, error) {
	if err := r.s.fail("GetByID"); err != nil {
		return nil, err
	}
	st, ok := r.s.Stock(stockID)
	if !ok {
		return nil, apperror.NewNotFound("stock", stockID.String())
	}
	return &st, nil
}

func (r stockRepo) GetByIMEI(_ context.Context, imei string) (*inventory.Stock, error) {
	st, ok := r.s.StockByIMEI(imei)
	if !ok {
		return nil, apperror.NewNotFound("stock", imei)
	}
	return &st, nil
}

func (r stockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*inventory.Stock, error) {
	return r.GetByID(ctx, stockID)
}

func (r stockRepo) GetByIMEIsForUpdate(_ context.Context, imeis []string) (map[string]*inventory.Stock, error) {
	if err := r.s.fail("GetByIMEIsForUpdate"); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(imeis))
	for _, imei := range imeis {
		want[imei] = struct{}{}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*inventory.Stock)
	for _, st := range r.s.stocks {
		if _, ok := want[st.IMEI()]; ok && st.IMEI() != "" {
			st := st
			out[st.IMEI()] = &st
		}
	}
	return out, nil
}

func (r stockRepo) Readmit(_ context.Context, st *inventory.Stock) error {
	if err := r.s.fail("Readmit"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.stocks[st.ID]
	if !ok || !stored.IsReleased() {
		return apperror.NewConcurrentModification("stock", st.ID)
	}
	stored.ProductID = st.ProductID
	stored.StockInDate = st.StockInDate
	stored.AddedBy = copyID(st.AddedBy)
	stored.ReleasedAt = nil
	r.s.stocks[st.ID] = stored
	return nil
}

func (r stockRepo) CompareAndSwap(_ context.Context, t inventory.Transition) error {
	if err := r.s.fail("CompareAndSwap"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[t.StockID]
	if !ok || st.Status != t.FromStatus || !sameHolder(st.AssignedTo, t.FromHolder) {
		return apperror.NewConcurrentModification("stock", t.StockID)
	}
	st.Status = t.ToStatus
	st.AssignedTo = copyID(t.ToHolder)
	st.LastAssignedDate = t.LastAssignedDate
	st.ReleasedAt = t.ReleasedAt
	r.s.stocks[t.StockID] = st
	return nil
}

func (r stockRepo) GetView(ctx context.Context, stockID id.ID) (*inventory.StockView, error) {
	st, err := r.GetByID(ctx, stockID)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.viewLocked(*st), nil
}

func (r stockRepo) List(_ context.Context, filter inventory.Filter) (domain.ListResult[*inventory.StockView], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := domain.ListResult[*inventory.StockView]{Limit: filter.Limit, Offset: filter.Offset}
	needle := strings.ToLower(filter.Search)
	for _, st := range r.s.stocks {
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.HolderID != nil && !sameHolder(st.AssignedTo, filter.HolderID) {
			continue
		}
		if filter.ProductID != nil && st.ProductID != *filter.ProductID {
			continue
		}
		v := r.s.viewLocked(st)
		if needle != "" && !strings.Contains(strings.ToLower(st.IMEI()+" "+v.ProductName+" "+v.ModelSKU), needle) {
			continue
		}
		res.Items = append(res.Items, v)
	}
	sort.Slice(res.Items, func(i, j int) bool {
		return res.Items[i].CreatedAt.Before(res.Items[j].CreatedAt)
	})
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (s *Store) viewLocked(st inventory.Stock) *inventory.StockView {
	v := &inventory.StockView{Stock: st}
	if p, ok := s.products[st.ProductID]; ok {
		v.ProductName = p.ModelName
		v.ModelSKU = p.ModelSKU
		v.Category = string(p.Category)
		v.Price = p.Price
	}
	if st.AssignedTo != nil {
		if name, ok := s.users[*st.AssignedTo]; ok {
			v.HolderUsername = &name
		}
	}
	return v
}

type historyRepo struct{ s *Store }

func (r historyRepo) Append(_ context.Context, e *inventory.HistoryEntry) error {
	if err := r.s.fail("Append"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *e)
	return nil
}

func (r historyRepo) AppendMany(_ context.Context, entries []*inventory.HistoryEntry) error {
	if err := r.s.fail("AppendMany"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range entries {
		r.s.history = append(r.s.history, *e)
	}
	return nil
}

func (r historyRepo) ListByStock(_ context.Context, stockID id.ID) ([]*inventory.HistoryEntry, error) {
	rows := r.s.HistoryFor(stockID)
	out := make([]*inventory.HistoryEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		out = append(out, &e)
	}
	return out, nil
}

type productRepo struct{ s *Store }

func (r productRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

type directory struct{ s *Store }

func (d directory) Username(_ context.Context, userID id.ID) (string, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	name, ok := d.s.users[userID]
	if !ok {
		return "", apperror.NewNotFound("user", userID.String())
	}
	return name, nil
}

func sameHolder(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(v *id.ID) *id.ID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
