package memory

import (
	"context"
	"fmt"
	"time"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
)

func (r *repo) CreateCart(ctx context.Context, cart *models.Cart) (int64, error) {
	err := r.update(func(st *state) error {
		if _, ok := st.businesses[cart.BusinessID]; !ok {
			return fmt.Errorf("%w: creating cart (constraint: carts_business_id_fkey)", repositories.ErrForeignKey)
		}
		now := time.Now()
		cart.CreatedAt = now
		cart.UpdatedAt = now
		cart.ID = st.id()
		row := *cart
		row.Items = nil
		st.carts[cart.ID] = row
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cart.ID, nil
}

func (r *repo) GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	var out *models.Cart
	err := r.view(func(st *state) error {
		c, ok := st.carts[cartID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

// GetCartForUpdate needs no extra locking: transactions are already serialized.
func (r *repo) GetCartForUpdate(ctx context.Context, cartID int64) (*models.Cart, error) {
	return r.GetCartByID(ctx, cartID)
}

func (r *repo) findActiveCart(match func(c models.Cart) bool) (*models.Cart, error) {
	var out *models.Cart
	err := r.view(func(st *state) error {
		for _, c := range st.carts {
			if !c.Active || !match(c) {
				continue
			}
			if out == nil || c.CreatedAt.After(out.CreatedAt) || (c.CreatedAt.Equal(out.CreatedAt) && c.ID > out.ID) {
				found := c
				out = &found
			}
		}
		if out == nil {
			return repositories.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *repo) FindActiveCartByCustomer(ctx context.Context, businessID, customerID int64) (*models.Cart, error) {
	return r.findActiveCart(func(c models.Cart) bool {
		return c.BusinessID == businessID && c.CustomerID != nil && *c.CustomerID == customerID
	})
}

func (r *repo) FindActiveCartBySession(ctx context.Context, businessID int64, sessionToken string) (*models.Cart, error) {
	return r.findActiveCart(func(c models.Cart) bool {
		return c.BusinessID == businessID && c.SessionToken != nil && *c.SessionToken == sessionToken
	})
}

func (r *repo) DeactivateCart(ctx context.Context, cartID int64) error {
	return r.update(func(st *state) error {
		c, ok := st.carts[cartID]
		if !ok || !c.Active {
			return repositories.ErrNotFound
		}
		c.Active = false
		c.UpdatedAt = time.Now()
		st.carts[cartID] = c
		return nil
	})
}

func (r *repo) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	return r.update(func(st *state) error {
		if _, ok := st.carts[item.CartID]; !ok {
			return fmt.Errorf("%w: upserting cart item (constraint: cart_items_cart_id_fkey)", repositories.ErrForeignKey)
		}
		now := time.Now()
		for i, existing := range st.cartItems {
			if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
				existing.Quantity += item.Quantity
				existing.UpdatedAt = now
				st.cartItems[i] = existing
				item.ID = existing.ID
				item.Quantity = existing.Quantity
				item.UnitPrice = existing.UnitPrice
				item.CreatedAt = existing.CreatedAt
				item.UpdatedAt = existing.UpdatedAt
				return nil
			}
		}
		item.ID = st.id()
		item.CreatedAt = now
		item.UpdatedAt = now
		row := *item
		row.ProductName = ""
		st.cartItems = append(st.cartItems, row)
		return nil
	})
}

func withProductName(st *state, item models.CartItem) models.CartItem {
	if p, ok := st.products[item.ProductID]; ok {
		item.ProductName = p.Name
	}
	return item
}

func (r *repo) GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.view(func(st *state) error {
		for _, item := range st.cartItems {
			if item.CartID == cartID && item.ID == itemID {
				found := withProductName(st, item)
				out = &found
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *repo) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := r.view(func(st *state) error {
		for _, item := range st.cartItems {
			if item.CartID == cartID {
				items = append(items, withProductName(st, item))
			}
		}
		return nil
	})
	return items, err
}

func (r *repo) UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error {
	return r.update(func(st *state) error {
		for i, item := range st.cartItems {
			if item.CartID == cartID && item.ID == itemID {
				item.Quantity = quantity
				item.UpdatedAt = time.Now()
				st.cartItems[i] = item
				return nil
			}
		}
		return repositories.ErrNotFound
	})
}

func (r *repo) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	return r.update(func(st *state) error {
		for i, item := range st.cartItems {
			if item.CartID == cartID && item.ID == itemID {
				st.cartItems = append(st.cartItems[:i:i], st.cartItems[i+1:]...)
				return nil
			}
		}
		return repositories.ErrNotFound
	})
}

func (r *repo) DeleteCartItems(ctx context.Context, cartID int64) (int64, error) {
	var removed int64
	err := r.update(func(st *state) error {
		kept := make([]models.CartItem, 0, len(st.cartItems))
		for _, item := range st.cartItems {
			if item.CartID == cartID {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		st.cartItems = kept
		return nil
	})
	return removed, err
}
