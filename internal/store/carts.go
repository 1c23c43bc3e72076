package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the read helpers can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadCart(ctx context.Context, q dbtx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price,
		        ci.created_at, ci.updated_at, p.name, p.image_url, p.price
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.id`,
		cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ProductName,
			&item.ProductImage,
			&item.ProductPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cart, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use.
func GetOrCreateCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO carts (user_id, created_at, updated_at)
		 VALUES ($1, NOW(), NOW())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return loadCart(ctx, db, userID)
}

// AddCartItem adds qty of a product to the user's cart, merging into an
// existing line for the same product. The merged line re-snapshots the unit
// price to the current product price, and the stock check runs against the
// merged total, not just the increment.
func AddCartItem(ctx context.Context, db *sql.DB, userID, productID int64, qty int) (*models.Cart, error) {
	if qty < 1 {
		qty = 1
	}

	var cart *models.Cart
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		product, err := GetProductTx(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !product.Purchasable() {
			return &database.ProductUnavailableError{ProductID: product.ID, Name: product.Name}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO carts (user_id, created_at, updated_at)
			 VALUES ($1, NOW(), NOW())
			 ON CONFLICT (user_id) DO NOTHING`,
			userID)
		if err != nil {
			return fmt.Errorf("create cart: %w", err)
		}

		var cartID int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
		if err != nil {
			return fmt.Errorf("get cart id: %w", err)
		}

		var existingQty int
		err = tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2 FOR UPDATE`,
			cartID, productID).Scan(&existingQty)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("get existing line: %w", err)
		}

		if product.Stock < existingQty+qty {
			return &database.StockError{ProductID: product.ID, Name: product.Name}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 ON CONFLICT (cart_id, product_id) DO UPDATE
			 SET quantity = cart_items.quantity + EXCLUDED.quantity,
			     unit_price = EXCLUDED.unit_price,
			     updated_at = NOW()`,
			cartID, productID, qty, product.Price)
		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}

		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// UpdateCartItemQty sets an absolute quantity on an existing line.
// Quantities below 1 are coerced to 1; stock is re-validated against the new
// absolute quantity and the unit price snapshot refreshes.
func UpdateCartItemQty(ctx context.Context, db *sql.DB, userID, itemID int64, qty int) (*models.Cart, error) {
	if qty < 1 {
		qty = 1
	}

	var cart *models.Cart
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var cartID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrCartNotFound
			}
			return fmt.Errorf("get cart id: %w", err)
		}

		var productID int64
		err = tx.QueryRowContext(ctx,
			`SELECT product_id FROM cart_items WHERE id = $1 AND cart_id = $2 FOR UPDATE`,
			itemID, cartID).Scan(&productID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrCartItemNotFound
			}
			return fmt.Errorf("get cart item: %w", err)
		}

		product, err := GetProductTx(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product.Stock < qty {
			return &database.StockError{ProductID: product.ID, Name: product.Name}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items
			 SET quantity = $1, unit_price = $2, updated_at = NOW()
			 WHERE id = $3`,
			qty, product.Price, itemID)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}

		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveCartItem deletes a single line. The cart itself must exist.
func RemoveCartItem(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	var cartID int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrCartNotFound
		}
		return fmt.Errorf("get cart id: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`,
		itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

// ClearCart deletes every line from the user's cart.
func ClearCart(ctx context.Context, db *sql.DB, userID int64) error {
	var cartID int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrCartNotFound
		}
		return fmt.Errorf("get cart id: %w", err)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}
