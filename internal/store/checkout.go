package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultCardBrand is recorded when a raw card comes in without a brand.
const DefaultCardBrand = "CARD"

var platformFeeRate = decimal.New(5, -2) // 5%

// SplitFees computes the platform's cut (5% of subtotal, rounded half-up to
// 2 decimals) and the remainder owed to sellers.
func SplitFees(subtotal decimal.Decimal) (platformFee, sellerAmount decimal.Decimal) {
	platformFee = subtotal.Mul(platformFeeRate).Round(2)
	sellerAmount = subtotal.Sub(platformFee)
	return platformFee, sellerAmount
}

type CheckoutRequest struct {
	BuyerID     int64
	SavedCardID *int64
	CardHolder  string
	CardNumber  string
	Brand       string
	SaveCard    bool
}

type checkoutLine struct {
	itemID    int64
	productID int64
	quantity  int
}

// Checkout converts the buyer's cart into an immutable order inside a single
// serializable transaction: validate every line against the live catalog,
// lock the products, create the order and its frozen line items, decrement
// stock (re-checked at mutation time), resolve the payment card, write the
// payment row and wipe the cart. Any failure rolls the whole thing back.
//
// The charged subtotal comes from current catalog prices, not the cart's
// snapshots; the cart shows an estimate, checkout is authoritative.
func Checkout(ctx context.Context, db *sql.DB, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
			req.BuyerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check buyer exists: %w", err)
		}
		if !exists {
			return database.ErrUserNotFound
		}

		var cartID int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE user_id = $1`, req.BuyerID).Scan(&cartID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrCartNotFound
			}
			return fmt.Errorf("get cart: %w", err)
		}

		lines, err := loadCheckoutLines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return database.ErrEmptyCart
		}

		// Lock every product up front and price the order off the live
		// catalog rows.
		subtotal := decimal.Zero
		products := make(map[int64]*models.Product, len(lines))
		for _, line := range lines {
			product, err := lockProduct(ctx, tx, line.productID)
			if err != nil {
				return err
			}
			if !product.Purchasable() {
				return &database.ProductUnavailableError{ProductID: product.ID, Name: product.Name}
			}
			if product.Stock < line.quantity {
				return &database.StockError{ProductID: product.ID, Name: product.Name}
			}

			products[line.productID] = product
			subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
		}

		platformFee, sellerAmount := SplitFees(subtotal)

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (buyer_id, status, subtotal, platform_fee, seller_amount, created_at, delivery_due_date)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW() + INTERVAL '5 days')
			 RETURNING id`,
			req.BuyerID, models.OrderStatusPlaced, subtotal, platformFee, sellerAmount).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range lines {
			product := products[line.productID]
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.quantity)))

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, line_total, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
				orderID, product.ID, product.Name, product.Price, line.quantity, lineTotal)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			if err := decrementStock(ctx, tx, product, line.quantity); err != nil {
				return err
			}
		}

		cardID, holder, number, brand, err := resolveCard(ctx, tx, req)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (order_id, card_holder, card_number, brand, amount, card_id, paid_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			orderID, holder, number, brand, subtotal, cardID)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order, err = getOrder(ctx, tx, orderID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func loadCheckoutLines(ctx context.Context, tx *sql.Tx, cartID int64) ([]checkoutLine, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY id`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var line checkoutLine
		if err := rows.Scan(&line.itemID, &line.productID, &line.quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// resolveCard picks the card data for the payment row: a saved card owned by
// the buyer, or the raw card from the request, optionally persisted as a new
// saved card when the buyer asked for it.
func resolveCard(ctx context.Context, tx *sql.Tx, req CheckoutRequest) (cardID *int64, holder, number, brand string, err error) {
	if req.SavedCardID != nil {
		var ownerID int64
		err = tx.QueryRowContext(ctx,
			`SELECT owner_id, card_holder, card_number, brand FROM saved_cards WHERE id = $1`,
			*req.SavedCardID).Scan(&ownerID, &holder, &number, &brand)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, "", "", "", database.ErrCardNotFound
			}
			return nil, "", "", "", fmt.Errorf("get saved card: %w", err)
		}
		if ownerID != req.BuyerID {
			return nil, "", "", "", fmt.Errorf("%w: card does not belong to buyer", database.ErrForbidden)
		}
		return req.SavedCardID, holder, number, brand, nil
	}

	holder = strings.TrimSpace(req.CardHolder)
	number = strings.TrimSpace(req.CardNumber)
	if holder == "" || number == "" {
		return nil, "", "", "", fmt.Errorf("%w: card data required", database.ErrInvalidInput)
	}
	brand = strings.TrimSpace(req.Brand)
	if brand == "" {
		brand = DefaultCardBrand
	}

	if req.SaveCard {
		var newID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO saved_cards (owner_id, card_holder, card_number, brand, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING id`,
			req.BuyerID, holder, number, brand).Scan(&newID)
		if err != nil {
			return nil, "", "", "", fmt.Errorf("save card: %w", err)
		}
		cardID = &newID
	}

	return cardID, holder, number, brand, nil
}
