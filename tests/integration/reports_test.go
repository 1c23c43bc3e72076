package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

func TestReports(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	sellerA := createTestUser(t, db, "rep-seller-a@example.com", models.RoleCommon)
	sellerB := createTestUser(t, db, "rep-seller-b@example.com", models.RoleCommon)
	buyerX := createTestUser(t, db, "rep-buyer-x@example.com", models.RoleCommon)
	buyerY := createTestUser(t, db, "rep-buyer-y@example.com", models.RoleCommon)

	cheap := createApprovedProduct(t, db, sellerA.ID, "Cheap Widget", decimal.NewFromFloat(10.00), 100)
	dear := createApprovedProduct(t, db, sellerB.ID, "Dear Widget", decimal.NewFromFloat(50.00), 100)
	createApprovedProduct(t, db, sellerA.ID, "Unsold Widget", decimal.NewFromFloat(5.00), 100)

	// Buyer X: 4 cheap units and 1 dear unit over two orders (90.00 total).
	if _, err := store.AddCartItem(ctx, db, buyerX.ID, cheap.ID, 4); err != nil {
		t.Fatalf("Add to cart: %v", err)
	}
	if _, err := store.Checkout(ctx, db, store.CheckoutRequest{BuyerID: buyerX.ID, CardHolder: "X", CardNumber: "4111111111111111"}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, buyerX.ID, dear.ID, 1); err != nil {
		t.Fatalf("Add to cart: %v", err)
	}
	if _, err := store.Checkout(ctx, db, store.CheckoutRequest{BuyerID: buyerX.ID, CardHolder: "X", CardNumber: "4111111111111111"}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// Buyer Y: 2 dear units in one order (100.00 total).
	if _, err := store.AddCartItem(ctx, db, buyerY.ID, dear.ID, 2); err != nil {
		t.Fatalf("Add to cart: %v", err)
	}
	if _, err := store.Checkout(ctx, db, store.CheckoutRequest{BuyerID: buyerY.ID, CardHolder: "Y", CardNumber: "4111111111111111"}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	topProducts, err := store.TopProducts(ctx, db, store.ReportRange{}, 10)
	if err != nil {
		t.Fatalf("Top products: %v", err)
	}
	if len(topProducts) != 2 {
		t.Fatalf("Expected 2 sold products, got %d", len(topProducts))
	}
	if topProducts[0].ProductID != cheap.ID || topProducts[0].UnitsSold != 4 {
		t.Errorf("Expected cheap widget first with 4 units, got %+v", topProducts[0])
	}
	if !topProducts[0].Revenue.Equal(decimal.NewFromFloat(40.00)) {
		t.Errorf("Expected cheap widget revenue 40.00, got %s", topProducts[0].Revenue)
	}

	topSpend, err := store.TopBuyersBySpend(ctx, db, store.ReportRange{}, 10)
	if err != nil {
		t.Fatalf("Top buyers by spend: %v", err)
	}
	if topSpend[0].BuyerID != buyerY.ID || !topSpend[0].TotalSpent.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("Expected buyer Y on top with 100.00, got %+v", topSpend[0])
	}
	if topSpend[1].BuyerID != buyerX.ID || topSpend[1].Orders != 2 {
		t.Errorf("Expected buyer X second with 2 orders, got %+v", topSpend[1])
	}

	topSellers, err := store.TopSellersByUnits(ctx, db, store.ReportRange{}, 10)
	if err != nil {
		t.Fatalf("Top sellers by units: %v", err)
	}
	if topSellers[0].SellerID != sellerA.ID || topSellers[0].ItemsSold != 4 {
		t.Errorf("Expected seller A first with 4 units, got %+v", topSellers[0])
	}

	topByOrders, err := store.TopBuyersByOrders(ctx, db, store.ReportRange{}, 10)
	if err != nil {
		t.Fatalf("Top buyers by orders: %v", err)
	}
	if topByOrders[0].BuyerID != buyerX.ID || topByOrders[0].Orders != 2 {
		t.Errorf("Expected buyer X first with 2 orders, got %+v", topByOrders[0])
	}

	listings, err := store.TopSellersByActiveListings(ctx, db, 10)
	if err != nil {
		t.Fatalf("Top sellers by listings: %v", err)
	}
	if listings[0].SellerID != sellerA.ID || listings[0].ActiveProducts != 2 {
		t.Errorf("Expected seller A first with 2 approved listings, got %+v", listings[0])
	}
}
