package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/catalog"
	"github.com/yashrajoria/storefront-service/models"
	"github.com/yashrajoria/storefront-service/repository"
)

// ---- in-memory store ----

type memState struct {
	users  map[uuid.UUID]models.User
	carts  map[uuid.UUID][]models.CartItem
	orders []models.Order
}

func (s *memState) clone() *memState {
	c := &memState{
		users:  make(map[uuid.UUID]models.User, len(s.users)),
		carts:  make(map[uuid.UUID][]models.CartItem, len(s.carts)),
		orders: append([]models.Order(nil), s.orders...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]models.CartItem(nil), v...)
	}
	return c
}

type memStore struct {
	mu    *sync.Mutex
	state *memState

	failClear   error
	failCreate  error
	failItems   error
	transaction int
}

func newMemStore(users ...uuid.UUID) *memStore {
	st := &memState{
		users: map[uuid.UUID]models.User{},
		carts: map[uuid.UUID][]models.CartItem{},
	}
	for _, id := range users {
		st.users[id] = models.User{ID: id, Email: id.String() + "@example.com"}
	}
	return &memStore{mu: &sync.Mutex{}, state: st}
}

func (s *memStore) Users() repository.UserRepository   { return memUsers{s} }
func (s *memStore) Carts() repository.CartRepository   { return memCarts{s} }
func (s *memStore) Orders() repository.OrderRepository { return memOrders{s} }

// WithinTransaction works on a copy and swaps it in only on success.
func (s *memStore) WithinTransaction(_ context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	s.transaction++
	working := s.state.clone()
	s.mu.Unlock()

	tx := &memStore{mu: &sync.Mutex{}, state: working, failClear: s.failClear, failCreate: s.failCreate, failItems: s.failItems}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *memStore) cartLines(userID uuid.UUID) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.state.carts[userID]...)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.state.users[id]
	return ok, nil
}

type memCarts struct{ s *memStore }

func (r memCarts) AddItem(_ context.Context, userID, productID uuid.UUID, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	lines := r.s.state.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			return nil
		}
	}
	r.s.state.carts[userID] = append(lines, models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity})
	return nil
}

func (r memCarts) RemoveItem(_ context.Context, userID, productID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := r.s.state.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			r.s.state.carts[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r memCarts) Clear(_ context.Context, userID uuid.UUID) error {
	if r.s.failClear != nil {
		return r.s.failClear
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.state.carts, userID)
	return nil
}

func (r memCarts) RemoveOrdered(_ context.Context, userID uuid.UUID, ordered []models.CartItem) error {
	if r.s.failClear != nil {
		return r.s.failClear
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	take := map[uuid.UUID]int{}
	for _, item := range ordered {
		take[item.ProductID] += item.Quantity
	}
	var kept []models.CartItem
	for _, line := range r.s.state.carts[userID] {
		line.Quantity -= take[line.ProductID]
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	r.s.state.carts[userID] = kept
	return nil
}

func (r memCarts) Items(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if r.s.failItems != nil {
		return nil, r.s.failItems
	}
	return r.s.cartLines(userID), nil
}

type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, order *models.Order) (bool, error) {
	if r.s.failCreate != nil {
		return false, r.s.failCreate
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.state.orders {
		if o.PaymentReference == order.PaymentReference {
			return false, nil
		}
	}
	r.s.state.orders = append(r.s.state.orders, *order)
	return true, nil
}

func (r memOrders) find(match func(models.Order) bool) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.state.orders {
		if match(o) {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(func(o models.Order) bool { return o.ID == id })
}

func (r memOrders) FindByReference(_ context.Context, reference string) (*models.Order, error) {
	return r.find(func(o models.Order) bool { return o.PaymentReference == reference })
}

func (r memOrders) FindByUserID(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Order
	for _, o := range r.s.state.orders {
		if o.User.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- catalog ----

type memCatalog struct {
	products map[uuid.UUID]models.Product
	err      error
}

func newMemCatalog(products ...models.Product) *memCatalog {
	c := &memCatalog{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *memCatalog) List(_ context.Context, _, _ int) (catalog.Page, error) {
	items := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		items = append(items, p)
	}
	return catalog.Page{Items: items, TotalCount: int64(len(items))}, nil
}

var errBoom = errors.New("boom")
