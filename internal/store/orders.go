package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
)

const orderColumns = `id, buyer_id, status, subtotal, platform_fee, seller_amount, created_at, delivery_due_date`

func scanOrder(scan func(dest ...any) error) (*models.Order, error) {
	order := &models.Order{}
	err := scan(
		&order.ID,
		&order.BuyerID,
		&order.Status,
		&order.Subtotal,
		&order.PlatformFee,
		&order.SellerAmount,
		&order.CreatedAt,
		&order.DeliveryDueDate,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func getOrder(ctx context.Context, q dbtx, id int64) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return getOrder(ctx, db, id)
}

// GetPayment returns the payment record for an order.
func GetPayment(ctx context.Context, db *sql.DB, orderID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	err := db.QueryRowContext(ctx,
		`SELECT id, order_id, card_holder, card_number, brand, amount, card_id, paid_at
		 FROM payments WHERE order_id = $1`,
		orderID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.CardHolder,
		&payment.CardNumber,
		&payment.Brand,
		&payment.Amount,
		&payment.CardID,
		&payment.PaidAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return payment, nil
}

// ListOrdersCursor pages through a buyer's order history, newest first.
func ListOrdersCursor(ctx context.Context, db *sql.DB, buyerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE buyer_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, buyerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListOrdersByStatus is the logistics view. An empty status returns all orders.
func ListOrdersByStatus(ctx context.Context, db *sql.DB, status string, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, status, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(orders, total, page, pageSize), nil
}

// MarkOrderShipped advances PLACED -> SHIPPED. Orders already SHIPPED or
// DELIVERED are left alone; the call is a no-op, not an error.
func MarkOrderShipped(ctx context.Context, db *sql.DB, orderID int64) (*models.Order, error) {
	return advanceOrder(ctx, db, orderID, models.OrderStatusShipped,
		[]string{models.OrderStatusShipped, models.OrderStatusDelivered})
}

// MarkOrderDelivered sets DELIVERED unless the order already is. A PLACED
// order may go straight to DELIVERED without passing through SHIPPED.
func MarkOrderDelivered(ctx context.Context, db *sql.DB, orderID int64) (*models.Order, error) {
	return advanceOrder(ctx, db, orderID, models.OrderStatusDelivered,
		[]string{models.OrderStatusDelivered})
}

// advanceOrder moves the order to target unless its current status is in
// skip. Status only ever moves forward; there is no reverse transition.
func advanceOrder(ctx context.Context, db *sql.DB, orderID int64, target string, skip []string) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		for _, s := range skip {
			if status == s {
				order, err = getOrder(ctx, tx, orderID)
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1 WHERE id = $2`, target, orderID)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		order, err = getOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
