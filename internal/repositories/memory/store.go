// Package memory is an in-process implementation of repositories.Store used by tests and
// by local runs without a database. Transactions are serialized and all-or-nothing.
package memory

import (
	"context"
	"sync"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
)

type state struct {
	nextID      int64
	businesses  map[int64]models.Business
	products    map[int64]models.Product
	ingredients map[int64]models.Ingredient
	recipeLines []models.RecipeLine
	sales       []models.Sale
	saleLines   []models.SaleLineItem
	carts       map[int64]models.Cart
	cartItems   []models.CartItem
	movements   []models.InventoryMovement
}

func newState() *state {
	return &state{
		businesses:  map[int64]models.Business{},
		products:    map[int64]models.Product{},
		ingredients: map[int64]models.Ingredient{},
		carts:       map[int64]models.Cart{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// clone copies every table. Rows are values and pointer fields are never written through,
// so copying the containers is enough to isolate a transaction.
func (s *state) clone() *state {
	c := &state{
		nextID:      s.nextID,
		businesses:  make(map[int64]models.Business, len(s.businesses)),
		products:    make(map[int64]models.Product, len(s.products)),
		ingredients: make(map[int64]models.Ingredient, len(s.ingredients)),
		carts:       make(map[int64]models.Cart, len(s.carts)),
		recipeLines: append([]models.RecipeLine(nil), s.recipeLines...),
		sales:       append([]models.Sale(nil), s.sales...),
		saleLines:   append([]models.SaleLineItem(nil), s.saleLines...),
		cartItems:   append([]models.CartItem(nil), s.cartItems...),
		movements:   append([]models.InventoryMovement(nil), s.movements...),
	}
	for k, v := range s.businesses {
		c.businesses[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.ingredients {
		c.ingredients[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	return c
}

// Store implements repositories.Store in memory.
type Store struct {
	txMu sync.Mutex // held by every writer for its whole unit of work
	mu   sync.Mutex // guards st
	st   *state

	hookMu         sync.Mutex
	failSaleInsert error
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) Repos() repositories.Repositories {
	return bind(&repo{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	working := s.st.clone()
	s.mu.Unlock()

	if err := fn(bind(&repo{store: s, tx: working})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = working
	s.mu.Unlock()
	return nil
}

// FailNextSaleInsert makes the next CreateSale return err instead of inserting.
func (s *Store) FailNextSaleInsert(err error) {
	s.hookMu.Lock()
	s.failSaleInsert = err
	s.hookMu.Unlock()
}

func (s *Store) takeSaleInsertFailure() error {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	err := s.failSaleInsert
	s.failSaleInsert = nil
	return err
}

func bind(r *repo) repositories.Repositories {
	return repositories.Repositories{
		Businesses:  r,
		Products:    r,
		Ingredients: r,
		Recipes:     r,
		Sales:       r,
		Carts:       r,
		Movements:   r,
		Reports:     r,
	}
}

// repo serves every repository interface. Outside a transaction (tx == nil) each call
// locks the live state; inside one it works on the transaction's private copy.
type repo struct {
	store *Store
	tx    *state
}

func (r *repo) view(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.st)
}

func (r *repo) update(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.st)
}

// --- Seeding ---

// AddBusiness stores b and returns its id.
func (s *Store) AddBusiness(b models.Business) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.st.id()
	s.st.businesses[b.ID] = b
	return b.ID
}

// AddProduct stores p and returns its id.
func (s *Store) AddProduct(p models.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.st.id()
	p.StockOnHand = copyInt(p.StockOnHand)
	p.MinimumStock = copyInt(p.MinimumStock)
	s.st.products[p.ID] = p
	return p.ID
}

// AddIngredient stores i and returns its id.
func (s *Store) AddIngredient(i models.Ingredient) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.st.id()
	s.st.ingredients[i.ID] = i
	return i.ID
}

// AddRecipeLine stores a recipe line and returns its id. The ingredient does not need to exist.
func (s *Store) AddRecipeLine(line models.RecipeLine) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	line.ID = s.st.id()
	s.st.recipeLines = append(s.st.recipeLines, line)
	return line.ID
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
