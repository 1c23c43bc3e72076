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

const productColumns = `id, owner_id, name, description, image_url, price, stock, condition, category, status, created_at, updated_at`

type ProductInput struct {
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	Condition   string
	Category    string
}

func validCondition(c string) bool {
	return c == models.ProductConditionNew || c == models.ProductConditionUsed
}

func validCategory(c string) bool {
	switch c {
	case models.CategoryTechnology, models.CategoryHome, models.CategoryAcademic,
		models.CategoryPersonal, models.CategoryDecoration, models.CategoryOther:
		return true
	}
	return false
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if len(in.Name) < 3 || len(in.Name) > 80 {
		return fmt.Errorf("%w: name must be 3-80 characters", database.ErrInvalidInput)
	}
	if len(in.Description) < 10 || len(in.Description) > 500 {
		return fmt.Errorf("%w: description must be 10-500 characters", database.ErrInvalidInput)
	}
	if in.ImageURL == "" {
		return fmt.Errorf("%w: image url required", database.ErrInvalidInput)
	}
	if in.Price.Sign() <= 0 {
		return fmt.Errorf("%w: price must be positive", database.ErrInvalidInput)
	}
	if in.Stock < 1 {
		return fmt.Errorf("%w: stock must be at least 1", database.ErrInvalidInput)
	}
	if !validCondition(in.Condition) {
		return fmt.Errorf("%w: invalid condition", database.ErrInvalidInput)
	}
	if !validCategory(in.Category) {
		return fmt.Errorf("%w: invalid category", database.ErrInvalidInput)
	}
	return nil
}

func scanProduct(scan func(dest ...any) error) (*models.Product, error) {
	product := &models.Product{}
	err := scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Description,
		&product.ImageURL,
		&product.Price,
		&product.Stock,
		&product.Condition,
		&product.Category,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// CreateProduct inserts a new listing owned by sellerID. Listings always start
// IN_REVIEW; a moderator has to approve them before they become purchasable.
func CreateProduct(ctx context.Context, db *sql.DB, sellerID int64, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO products (owner_id, name, description, image_url, price, stock, condition, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		sellerID, in.Name, in.Description, in.ImageURL, in.Price, in.Stock,
		in.Condition, in.Category, models.ProductStatusInReview).Scan)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// UpdateProduct replaces the mutable listing fields. Only the owner may edit,
// and every edit sends the listing back to IN_REVIEW.
func UpdateProduct(ctx context.Context, db *sql.DB, sellerID, productID int64, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := GetProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != sellerID {
		return nil, fmt.Errorf("%w: not the product owner", database.ErrForbidden)
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, image_url = $3, price = $4, stock = $5,
		    condition = $6, category = $7, status = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		in.Name, in.Description, in.ImageURL, in.Price, in.Stock,
		in.Condition, in.Category, models.ProductStatusInReview, productID).Scan)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetProductTx is GetProduct inside an open transaction.
func GetProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// SetProductStatus applies a moderation decision. Transitions are fully
// reversible (approve, reject, reopen); there is no terminal state.
func SetProductStatus(ctx context.Context, db *sql.DB, productID int64, status string) (*models.Product, error) {
	switch status {
	case models.ProductStatusInReview, models.ProductStatusApproved, models.ProductStatusRejected:
	default:
		return nil, fmt.Errorf("%w: invalid product status %q", database.ErrInvalidInput, status)
	}

	query := `
		UPDATE products
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query, status, productID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("set product status: %w", err)
	}

	return product, nil
}

func listProducts(ctx context.Context, db *sql.DB, where string, args []any, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// ListCatalog returns the public catalog: APPROVED listings only.
func ListCatalog(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	return listProducts(ctx, db, `WHERE status = $1`, []any{models.ProductStatusApproved}, page, pageSize)
}

// ListProductsByOwner returns a seller's own listings regardless of status.
func ListProductsByOwner(ctx context.Context, db *sql.DB, ownerID int64, page, pageSize int) (*OffsetPage, error) {
	return listProducts(ctx, db, `WHERE owner_id = $1`, []any{ownerID}, page, pageSize)
}

// ListProductsByStatus is the moderation queue view.
func ListProductsByStatus(ctx context.Context, db *sql.DB, status string, page, pageSize int) (*OffsetPage, error) {
	return listProducts(ctx, db, `WHERE status = $1`, []any{status}, page, pageSize)
}

// lockProduct takes a row lock on the product for the duration of the
// transaction. Checkout uses it so concurrent buyers serialize per product.
func lockProduct(ctx context.Context, tx *sql.Tx, productID int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := scanProduct(tx.QueryRowContext(ctx, query, productID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return product, nil
}

// decrementStock subtracts quantity inside the checkout transaction. The
// stock >= quantity guard re-checks at mutation time so a racing transaction
// that already drained the row fails here instead of committing negative stock.
func decrementStock(ctx context.Context, tx *sql.Tx, product *models.Product, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, product.ID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &database.StockError{ProductID: product.ID, Name: product.Name}
	}

	return nil
}
