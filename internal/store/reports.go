package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
)

// Report row types. These are read-only aggregations over historical orders;
// nothing here mutates state or carries invariants.

type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type BuyerSpend struct {
	BuyerID    int64           `json:"buyer_id"`
	BuyerName  string          `json:"buyer_name"`
	Orders     int64           `json:"orders"`
	Items      int64           `json:"items"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type SellerSales struct {
	SellerID   int64           `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	ItemsSold  int64           `json:"items_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type BuyerOrders struct {
	BuyerID   int64  `json:"buyer_id"`
	BuyerName string `json:"buyer_name"`
	Orders    int64  `json:"orders"`
}

type SellerListings struct {
	SellerID       int64  `json:"seller_id"`
	SellerName     string `json:"seller_name"`
	ActiveProducts int64  `json:"active_products"`
}

// ReportRange is a half-open [From, To) interval. Zero values default to the
// last 30 days ending now.
type ReportRange struct {
	From time.Time
	To   time.Time
}

func (r ReportRange) bounds() (time.Time, time.Time) {
	from, to := r.From, r.To
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}

// TopProducts returns the best-selling products by units in the range.
func TopProducts(ctx context.Context, db *sql.DB, rng ReportRange, limit int) ([]ProductSales, error) {
	from, to := rng.bounds()
	rows, err := db.QueryContext(ctx,
		`SELECT oi.product_id, oi.product_name, SUM(oi.quantity) AS units, SUM(oi.line_total) AS revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY oi.product_id, oi.product_name
		 ORDER BY units DESC
		 LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var r ProductSales
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.UnitsSold, &r.Revenue); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopBuyersBySpend returns the buyers who spent the most in the range.
func TopBuyersBySpend(ctx context.Context, db *sql.DB, rng ReportRange, limit int) ([]BuyerSpend, error) {
	from, to := rng.bounds()
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.name, COUNT(DISTINCT o.id) AS orders, SUM(oi.quantity) AS items, SUM(oi.line_total) AS spent
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN users u ON u.id = o.buyer_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY u.id, u.name
		 ORDER BY spent DESC
		 LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top buyers by spend: %w", err)
	}
	defer rows.Close()

	var out []BuyerSpend
	for rows.Next() {
		var r BuyerSpend
		if err := rows.Scan(&r.BuyerID, &r.BuyerName, &r.Orders, &r.Items, &r.TotalSpent); err != nil {
			return nil, fmt.Errorf("scan buyer spend: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopSellersByUnits returns the sellers who moved the most units in the range.
func TopSellersByUnits(ctx context.Context, db *sql.DB, rng ReportRange, limit int) ([]SellerSales, error) {
	from, to := rng.bounds()
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.name, SUM(oi.quantity) AS items_sold, SUM(oi.line_total) AS revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 JOIN users u ON u.id = p.owner_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY u.id, u.name
		 ORDER BY items_sold DESC
		 LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top sellers by units: %w", err)
	}
	defer rows.Close()

	var out []SellerSales
	for rows.Next() {
		var r SellerSales
		if err := rows.Scan(&r.SellerID, &r.SellerName, &r.ItemsSold, &r.Revenue); err != nil {
			return nil, fmt.Errorf("scan seller sales: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopBuyersByOrders returns the buyers with the most orders in the range.
func TopBuyersByOrders(ctx context.Context, db *sql.DB, rng ReportRange, limit int) ([]BuyerOrders, error) {
	from, to := rng.bounds()
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.name, COUNT(*) AS orders
		 FROM orders o
		 JOIN users u ON u.id = o.buyer_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY u.id, u.name
		 ORDER BY orders DESC
		 LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top buyers by orders: %w", err)
	}
	defer rows.Close()

	var out []BuyerOrders
	for rows.Next() {
		var r BuyerOrders
		if err := rows.Scan(&r.BuyerID, &r.BuyerName, &r.Orders); err != nil {
			return nil, fmt.Errorf("scan buyer orders: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopSellersByActiveListings returns the sellers with the most APPROVED
// listings right now. Not date-ranged; it reflects the live catalog.
func TopSellersByActiveListings(ctx context.Context, db *sql.DB, limit int) ([]SellerListings, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.name, COUNT(*) AS active_products
		 FROM products p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.status = $1
		 GROUP BY u.id, u.name
		 ORDER BY active_products DESC
		 LIMIT $2`,
		models.ProductStatusApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("top sellers by listings: %w", err)
	}
	defer rows.Close()

	var out []SellerListings
	for rows.Next() {
		var r SellerListings
		if err := rows.Scan(&r.SellerID, &r.SellerName, &r.ActiveProducts); err != nil {
			return nil, fmt.Errorf("scan seller listings: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
