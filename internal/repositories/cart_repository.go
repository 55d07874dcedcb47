package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bizhub_backend/internal/models"
)

// CartRepository persists carts and their items.
type CartRepository interface {
	CreateCart(ctx context.Context, cart *models.Cart) (int64, error)
	GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error)
	// GetCartForUpdate reads the cart and locks it until the surrounding transaction ends.
	GetCartForUpdate(ctx context.Context, cartID int64) (*models.Cart, error)
	FindActiveCartByCustomer(ctx context.Context, businessID, customerID int64) (*models.Cart, error)
	FindActiveCartBySession(ctx context.Context, businessID int64, sessionToken string) (*models.Cart, error)
	DeactivateCart(ctx context.Context, cartID int64) error

	// UpsertCartItem inserts the item or, when the product is already in the cart, adds
	// item.Quantity to the existing row. The stored row (with its original price) is written back.
	UpsertCartItem(ctx context.Context, item *models.CartItem) error
	GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID, itemID int64) error
	DeleteCartItems(ctx context.Context, cartID int64) (int64, error)
}

type cartRepository struct {
	exec SQLExecutor
}

const cartColumns = `id, business_id, customer_id, session_token, active, created_at, updated_at`

func scanCart(s scanner) (*models.Cart, error) {
	var c models.Cart
	if err := s.Scan(&c.ID, &c.BusinessID, &c.CustomerID, &c.SessionToken, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepository) CreateCart(ctx context.Context, cart *models.Cart) (int64, error) {
	query := `INSERT INTO carts (business_id, customer_id, session_token, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	cart.CreatedAt = currentTime
	cart.UpdatedAt = currentTime

	err := r.exec.QueryRowContext(ctx, query,
		cart.BusinessID, cart.CustomerID, cart.SessionToken, cart.Active, cart.CreatedAt, cart.UpdatedAt,
	).Scan(&cart.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating cart")
	}
	return cart.ID, nil
}

func (r *cartRepository) getCart(ctx context.Context, query string, args ...interface{}) (*models.Cart, error) {
	cart, err := scanCart(r.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting cart: %v", ErrDatabaseError, err)
	}
	return cart, nil
}

func (r *cartRepository) GetCartByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, cartID)
}

func (r *cartRepository) GetCartForUpdate(ctx context.Context, cartID int64) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, cartID)
}

func (r *cartRepository) FindActiveCartByCustomer(ctx context.Context, businessID, customerID int64) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts
		WHERE business_id = $1 AND customer_id = $2 AND active = TRUE
		ORDER BY created_at DESC LIMIT 1`, businessID, customerID)
}

func (r *cartRepository) FindActiveCartBySession(ctx context.Context, businessID int64, sessionToken string) (*models.Cart, error) {
	return r.getCart(ctx, `SELECT `+cartColumns+` FROM carts
		WHERE business_id = $1 AND session_token = $2 AND active = TRUE
		ORDER BY created_at DESC LIMIT 1`, businessID, sessionToken)
}

func (r *cartRepository) DeactivateCart(ctx context.Context, cartID int64) error {
	result, err := r.exec.ExecContext(ctx,
		`UPDATE carts SET active = FALSE, updated_at = $1 WHERE id = $2 AND active = TRUE`, time.Now(), cartID)
	if err != nil {
		return fmt.Errorf("%w: deactivating cart ID %d: %v", ErrDatabaseError, cartID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for cart ID %d: %v", ErrDatabaseError, cartID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- CartItem Methods ---

func (r *cartRepository) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	          RETURNING id, quantity, unit_price, created_at, updated_at`
	err := r.exec.QueryRowContext(ctx, query,
		item.CartID, item.ProductID, item.Quantity, item.UnitPrice, time.Now(),
	).Scan(&item.ID, &item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "upserting cart item")
	}
	return nil
}

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.product_id, COALESCE(p.name, ''), ci.quantity, ci.unit_price,
	       ci.created_at, ci.updated_at
	FROM cart_items ci
	LEFT JOIN products p ON p.id = ci.product_id`

func scanCartItem(s scanner) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Quantity,
		&item.UnitPrice, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) GetCartItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	item, err := scanCartItem(r.exec.QueryRowContext(ctx, cartItemSelect+` WHERE ci.cart_id = $1 AND ci.id = $2`, cartID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting cart item %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

// ListCartItems returns items in insertion order.
func (r *cartRepository) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	rows, err := r.exec.QueryContext(ctx, cartItemSelect+` WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items for cart ID %d: %v", ErrDatabaseError, cartID, err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning cart item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cart items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *cartRepository) UpdateCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error {
	result, err := r.exec.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE cart_id = $3 AND id = $4`,
		quantity, time.Now(), cartID, itemID)
	if err != nil {
		return fmt.Errorf("%w: updating cart item %d: %v", ErrDatabaseError, itemID, err)
	}
	return requireRow(result, "updating cart item")
}

func (r *cartRepository) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting cart item %d: %v", ErrDatabaseError, itemID, err)
	}
	return requireRow(result, "deleting cart item")
}

func (r *cartRepository) DeleteCartItems(ctx context.Context, cartID int64) (int64, error) {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting items for cart ID %d: %v", ErrDatabaseError, cartID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for cart ID %d: %v", ErrDatabaseError, cartID, err)
	}
	return rowsAffected, nil
}

func requireRow(result sql.Result, action string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for %s: %v", ErrDatabaseError, action, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
