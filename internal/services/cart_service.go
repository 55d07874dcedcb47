package services

import (
	"context"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"

	"github.com/google/uuid"
)

// CreateCartRequest identifies who the cart belongs to. Both identities may be empty,
// in which case an anonymous session token is issued.
type CreateCartRequest struct {
	BusinessID   int64   `json:"-"`
	CustomerID   *int64  `json:"customer_id"`
	SessionToken *string `json:"session_token"`
}

// AddCartItemRequest is used for adding a product to a cart.
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest sets an item quantity; zero removes the item.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartService accumulates prospective sale lines.
type CartService interface {
	CreateCart(ctx context.Context, req CreateCartRequest) (*models.Cart, error)
	GetCart(ctx context.Context, cartID int64) (*models.Cart, error)
	GetActiveCart(ctx context.Context, businessID int64, customerID *int64, sessionToken *string) (*models.Cart, error)
	AddItem(ctx context.Context, cartID int64, req AddCartItemRequest) (*models.CartItem, error)
	// UpdateItemQuantity returns nil when the quantity was zero and the item was removed.
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}

type cartService struct {
	store repositories.Store
}

// NewCartService creates a new instance of CartService.
func NewCartService(store repositories.Store) CartService {
	return &cartService{store: store}
}

func (s *cartService) CreateCart(ctx context.Context, req CreateCartRequest) (*models.Cart, error) {
	if req.SessionToken != nil && *req.SessionToken == "" {
		req.SessionToken = nil
	}

	var cart *models.Cart
	err := s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		if _, err := loadBusiness(ctx, repos, req.BusinessID); err != nil {
			return err
		}

		existing, err := findActiveCart(ctx, repos, req.BusinessID, req.CustomerID, req.SessionToken)
		if err == nil {
			cart = existing
			return nil
		}
		if !errors.Is(err, ErrCartNotFound) && !errors.Is(err, ErrCartIdentityRequired) {
			return err
		}

		cart = &models.Cart{
			BusinessID:   req.BusinessID,
			CustomerID:   req.CustomerID,
			SessionToken: req.SessionToken,
			Active:       true,
		}
		if cart.CustomerID == nil && cart.SessionToken == nil {
			token := uuid.NewString()
			cart.SessionToken = &token
		}
		if _, err := repos.Carts.CreateCart(ctx, cart); err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, s.store.Repos(), cart)
}

func (s *cartService) GetCart(ctx context.Context, cartID int64) (*models.Cart, error) {
	repos := s.store.Repos()
	cart, err := getCart(ctx, repos, cartID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, repos, cart)
}

func (s *cartService) GetActiveCart(ctx context.Context, businessID int64, customerID *int64, sessionToken *string) (*models.Cart, error) {
	repos := s.store.Repos()
	cart, err := findActiveCart(ctx, repos, businessID, customerID, sessionToken)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, repos, cart)
}

func (s *cartService) AddItem(ctx context.Context, cartID int64, req AddCartItemRequest) (*models.CartItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	var item *models.CartItem
	err := s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		cart, err := getActiveCart(ctx, repos, cartID)
		if err != nil {
			return err
		}
		product, err := repos.Products.GetProductByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrProductNotFound, req.ProductID)
			}
			return fmt.Errorf("failed to fetch product %d: %w", req.ProductID, err)
		}
		if product.BusinessID != cart.BusinessID {
			return fmt.Errorf("%w: ID %d does not belong to business %d", ErrProductNotFound, product.ID, cart.BusinessID)
		}

		item = &models.CartItem{
			CartID:    cartID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}
		if err := repos.Carts.UpsertCartItem(ctx, item); err != nil {
			return fmt.Errorf("failed to add product %d to cart %d: %w", product.ID, cartID, err)
		}
		item.ProductName = product.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	var item *models.CartItem
	err := s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		if _, err := getActiveCart(ctx, repos, cartID); err != nil {
			return err
		}
		if quantity == 0 {
			return deleteItem(ctx, repos, cartID, itemID)
		}
		if err := repos.Carts.UpdateCartItemQuantity(ctx, cartID, itemID, quantity); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d in cart %d", ErrCartItemNotFound, itemID, cartID)
			}
			return fmt.Errorf("failed to update cart item %d: %w", itemID, err)
		}
		updated, err := repos.Carts.GetCartItem(ctx, cartID, itemID)
		if err != nil {
			return fmt.Errorf("failed to reload cart item %d: %w", itemID, err)
		}
		item = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	return s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		if _, err := getActiveCart(ctx, repos, cartID); err != nil {
			return err
		}
		return deleteItem(ctx, repos, cartID, itemID)
	})
}

func (s *cartService) Clear(ctx context.Context, cartID int64) error {
	return s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		if _, err := getActiveCart(ctx, repos, cartID); err != nil {
			return err
		}
		if _, err := repos.Carts.DeleteCartItems(ctx, cartID); err != nil {
			return fmt.Errorf("failed to clear cart %d: %w", cartID, err)
		}
		return nil
	})
}

func (s *cartService) withItems(ctx context.Context, repos repositories.Repositories, cart *models.Cart) (*models.Cart, error) {
	items, err := repos.Carts.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for cart %d: %w", cart.ID, err)
	}
	cart.Items = items
	return cart, nil
}

func getCart(ctx context.Context, repos repositories.Repositories, cartID int64) (*models.Cart, error) {
	cart, err := repos.Carts.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCartNotFound, cartID)
		}
		return nil, fmt.Errorf("failed to get cart %d: %w", cartID, err)
	}
	return cart, nil
}

// getActiveCart loads a cart that can still be modified.
func getActiveCart(ctx context.Context, repos repositories.Repositories, cartID int64) (*models.Cart, error) {
	cart, err := getCart(ctx, repos, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Active {
		return nil, fmt.Errorf("%w: cart ID %d", ErrCartAlreadyFinalized, cartID)
	}
	return cart, nil
}

// findActiveCart resolves by customer first, then by session token.
func findActiveCart(ctx context.Context, repos repositories.Repositories, businessID int64, customerID *int64, sessionToken *string) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)
	switch {
	case customerID != nil:
		cart, err = repos.Carts.FindActiveCartByCustomer(ctx, businessID, *customerID)
	case sessionToken != nil && *sessionToken != "":
		cart, err = repos.Carts.FindActiveCartBySession(ctx, businessID, *sessionToken)
	default:
		return nil, ErrCartIdentityRequired
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active cart for business %d", ErrCartNotFound, businessID)
		}
		return nil, fmt.Errorf("failed to look up active cart: %w", err)
	}
	return cart, nil
}

func deleteItem(ctx context.Context, repos repositories.Repositories, cartID, itemID int64) error {
	if err := repos.Carts.DeleteCartItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d in cart %d", ErrCartItemNotFound, itemID, cartID)
		}
		return fmt.Errorf("failed to remove cart item %d: %w", itemID, err)
	}
	return nil
}
