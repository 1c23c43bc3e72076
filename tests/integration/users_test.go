package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.CreateUser(ctx, db, "dup@example.com", "First", "hash", models.RoleCommon); err != nil {
		t.Fatalf("Create first user: %v", err)
	}

	_, err := store.CreateUser(ctx, db, "dup@example.com", "Second", "hash", models.RoleCommon)
	if !errors.Is(err, database.ErrEmailTaken) {
		t.Errorf("Expected email taken, got: %v", err)
	}
}

func TestSuspendAndReactivateUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "suspend@example.com", models.RoleCommon)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)

	if err := store.SetUserActive(ctx, db, user.ID, false); err != nil {
		t.Fatalf("Suspend user: %v", err)
	}

	suspended, err := store.GetUser(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get user: %v", err)
	}
	if suspended.Active {
		t.Error("Expected user to be suspended")
	}

	if err := store.SetUserActive(ctx, db, user.ID, true); err != nil {
		t.Fatalf("Reactivate user: %v", err)
	}

	restored, err := store.GetUser(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("Get user: %v", err)
	}
	if !restored.Active {
		t.Error("Expected user to be active again")
	}

	// Administrator accounts cannot be suspended.
	if err := store.SetUserActive(ctx, db, admin.ID, false); !errors.Is(err, database.ErrInvalidInput) {
		t.Errorf("Expected invalid input for admin suspension, got: %v", err)
	}

	if err := store.SetUserActive(ctx, db, user.ID+999, false); !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected user not found, got: %v", err)
	}
}

func TestListUsersActiveFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	createTestUser(t, db, "active1@example.com", models.RoleCommon)
	createTestUser(t, db, "active2@example.com", models.RoleCommon)
	suspended := createTestUser(t, db, "inactive@example.com", models.RoleCommon)

	if err := store.SetUserActive(ctx, db, suspended.ID, false); err != nil {
		t.Fatalf("Suspend user: %v", err)
	}

	activeOnly := true
	page, err := store.ListUsers(ctx, db, &activeOnly, 1, 20)
	if err != nil {
		t.Fatalf("List active users: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 active users, got %d", page.Total)
	}

	inactiveOnly := false
	page, err = store.ListUsers(ctx, db, &inactiveOnly, 1, 20)
	if err != nil {
		t.Fatalf("List inactive users: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 suspended user, got %d", page.Total)
	}

	page, err = store.ListUsers(ctx, db, nil, 1, 20)
	if err != nil {
		t.Fatalf("List all users: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("Expected 3 users total, got %d", page.Total)
	}
}
