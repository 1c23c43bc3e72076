package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

func TestAddCartItemMergesLines(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "cart-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "cart-buyer@example.com", models.RoleCommon)

	product := createApprovedProduct(t, db, seller.ID, "Merge Item", decimal.NewFromFloat(10.00), 10)

	if _, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 2); err != nil {
		t.Fatalf("First add: %v", err)
	}

	cart, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 3)
	if err != nil {
		t.Fatalf("Second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("Expected a single merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("Expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
	if !cart.Subtotal().Equal(decimal.NewFromFloat(50.00)) {
		t.Errorf("Expected subtotal 50.00, got %s", cart.Subtotal())
	}
}

func TestAddCartItemStockChecks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "stock-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "stock-buyer@example.com", models.RoleCommon)

	product := createApprovedProduct(t, db, seller.ID, "Limited Item", decimal.NewFromFloat(10.00), 5)

	if _, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 6); !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock on oversize add, got: %v", err)
	}

	if _, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 3); err != nil {
		t.Fatalf("Add within stock: %v", err)
	}

	// The merged quantity counts against stock, not just the increment.
	if _, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 3); !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock on merged add, got: %v", err)
	}
}

func TestAddCartItemRefreshesSnapshot(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "snap-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "snap-buyer@example.com", models.RoleCommon)

	product := createApprovedProduct(t, db, seller.ID, "Snapshot Item", decimal.NewFromFloat(10.00), 10)

	if _, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("First add: %v", err)
	}

	_, err := store.UpdateProduct(ctx, db, seller.ID, product.ID, store.ProductInput{
		Name:        "Snapshot Item",
		Description: "Integration test listing",
		ImageURL:    "https://img.test/p.png",
		Price:       decimal.NewFromFloat(15.00),
		Stock:       10,
		Condition:   models.ProductConditionNew,
		Category:    models.CategoryTechnology,
	})
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if _, err := store.SetProductStatus(ctx, db, product.ID, models.ProductStatusApproved); err != nil {
		t.Fatalf("Re-approve: %v", err)
	}

	cart, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("Second add: %v", err)
	}

	if !cart.Items[0].UnitPrice.Equal(decimal.NewFromFloat(15.00)) {
		t.Errorf("Expected refreshed unit price 15.00, got %s", cart.Items[0].UnitPrice)
	}
}

func TestAddCartItemRequiresApproval(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "appr-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "appr-buyer@example.com", models.RoleCommon)

	product, err := store.CreateProduct(ctx, db, seller.ID, store.ProductInput{
		Name:        "Pending Item",
		Description: "Integration test listing",
		ImageURL:    "https://img.test/p.png",
		Price:       decimal.NewFromFloat(10.00),
		Stock:       5,
		Condition:   models.ProductConditionNew,
		Category:    models.CategoryTechnology,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	_, err = store.AddCartItem(ctx, db, buyer.ID, product.ID, 1)

	var unavailable *database.ProductUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("Expected product unavailable for listing still in review, got: %v", err)
	}
}

func TestUpdateCartItemQty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "qty-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "qty-buyer@example.com", models.RoleCommon)

	product := createApprovedProduct(t, db, seller.ID, "Qty Item", decimal.NewFromFloat(10.00), 5)

	cart, err := store.AddCartItem(ctx, db, buyer.ID, product.ID, 2)
	if err != nil {
		t.Fatalf("Add item: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = store.UpdateCartItemQty(ctx, db, buyer.ID, itemID, 4)
	if err != nil {
		t.Fatalf("Update qty: %v", err)
	}
	if cart.Items[0].Quantity != 4 {
		t.Errorf("Expected quantity 4, got %d", cart.Items[0].Quantity)
	}

	// Quantities below one are clamped to one rather than rejected.
	cart, err = store.UpdateCartItemQty(ctx, db, buyer.ID, itemID, 0)
	if err != nil {
		t.Fatalf("Update qty to zero: %v", err)
	}
	if cart.Items[0].Quantity != 1 {
		t.Errorf("Expected quantity clamped to 1, got %d", cart.Items[0].Quantity)
	}

	if _, err := store.UpdateCartItemQty(ctx, db, buyer.ID, itemID, 9); !errors.Is(err, database.ErrInsufficientStock) {
		t.Errorf("Expected insufficient stock, got: %v", err)
	}

	if _, err := store.UpdateCartItemQty(ctx, db, buyer.ID, itemID+999, 2); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected cart item not found, got: %v", err)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "rm-seller@example.com", models.RoleCommon)
	buyer := createTestUser(t, db, "rm-buyer@example.com", models.RoleCommon)
	other := createTestUser(t, db, "rm-other@example.com", models.RoleCommon)

	productA := createApprovedProduct(t, db, seller.ID, "Remove A", decimal.NewFromFloat(10.00), 5)
	productB := createApprovedProduct(t, db, seller.ID, "Remove B", decimal.NewFromFloat(5.00), 5)

	cart, err := store.AddCartItem(ctx, db, buyer.ID, productA.ID, 1)
	if err != nil {
		t.Fatalf("Add A: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, buyer.ID, productB.ID, 1); err != nil {
		t.Fatalf("Add B: %v", err)
	}

	// Removing through another user's cart must miss.
	if err := store.RemoveCartItem(ctx, db, other.ID, cart.Items[0].ID); !errors.Is(err, database.ErrCartNotFound) {
		t.Errorf("Expected cart not found for other user, got: %v", err)
	}

	if err := store.RemoveCartItem(ctx, db, buyer.ID, cart.Items[0].ID); err != nil {
		t.Fatalf("Remove item: %v", err)
	}

	cart, err = store.GetOrCreateCart(ctx, db, buyer.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("Expected one remaining item, got %d", len(cart.Items))
	}

	if err := store.ClearCart(ctx, db, buyer.ID); err != nil {
		t.Fatalf("Clear cart: %v", err)
	}

	cart, err = store.GetOrCreateCart(ctx, db, buyer.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}

	if err := store.ClearCart(ctx, db, other.ID+999); !errors.Is(err, database.ErrCartNotFound) {
		t.Errorf("Expected cart not found for unknown user, got: %v", err)
	}
}
