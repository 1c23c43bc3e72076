package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

func TestSavedCardLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	owner := createTestUser(t, db, "card-owner@example.com", models.RoleCommon)
	other := createTestUser(t, db, "card-other@example.com", models.RoleCommon)

	month, year := 12, 2030
	card, err := store.CreateSavedCard(ctx, db, owner.ID, store.SavedCardInput{
		CardHolder: "Card Owner",
		CardNumber: "4111111111111111",
		Brand:      "VISA",
		Label:      "everyday",
		ExpMonth:   &month,
		ExpYear:    &year,
	})
	if err != nil {
		t.Fatalf("Create card: %v", err)
	}
	if card.Label != "everyday" {
		t.Errorf("Expected label %q, got %q", "everyday", card.Label)
	}

	// Missing brand falls back to the default.
	plain, err := store.CreateSavedCard(ctx, db, owner.ID, store.SavedCardInput{
		CardHolder: "Card Owner",
		CardNumber: "4222222222222222",
	})
	if err != nil {
		t.Fatalf("Create card without brand: %v", err)
	}
	if plain.Brand != store.DefaultCardBrand {
		t.Errorf("Expected default brand %q, got %q", store.DefaultCardBrand, plain.Brand)
	}

	if _, err := store.CreateSavedCard(ctx, db, owner.ID, store.SavedCardInput{CardHolder: "No Number"}); !errors.Is(err, database.ErrInvalidInput) {
		t.Errorf("Expected invalid input for missing number, got: %v", err)
	}

	cards, err := store.ListSavedCards(ctx, db, owner.ID)
	if err != nil {
		t.Fatalf("List cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}

	if err := store.DeleteSavedCard(ctx, db, other.ID, card.ID); !errors.Is(err, database.ErrForbidden) {
		t.Errorf("Expected forbidden deleting someone else's card, got: %v", err)
	}

	if err := store.DeleteSavedCard(ctx, db, owner.ID, card.ID); err != nil {
		t.Fatalf("Delete card: %v", err)
	}

	if err := store.DeleteSavedCard(ctx, db, owner.ID, card.ID); !errors.Is(err, database.ErrCardNotFound) {
		t.Errorf("Expected card not found after delete, got: %v", err)
	}

	cards, err = store.ListSavedCards(ctx, db, owner.ID)
	if err != nil {
		t.Fatalf("List cards: %v", err)
	}
	if len(cards) != 1 {
		t.Errorf("Expected 1 remaining card, got %d", len(cards))
	}
}
