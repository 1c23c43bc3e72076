package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-marketplace/internal/database"
	"github.com/safar/go-marketplace/internal/models"
)

const cardColumns = `id, owner_id, card_holder, card_number, brand, COALESCE(label, ''), exp_month, exp_year, created_at, updated_at`

type SavedCardInput struct {
	CardHolder string
	CardNumber string
	Brand      string
	Label      string
	ExpMonth   *int
	ExpYear    *int
}

func scanSavedCard(scan func(dest ...any) error) (*models.SavedCard, error) {
	card := &models.SavedCard{}
	err := scan(
		&card.ID,
		&card.OwnerID,
		&card.CardHolder,
		&card.CardNumber,
		&card.Brand,
		&card.Label,
		&card.ExpMonth,
		&card.ExpYear,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// ListSavedCards returns the user's cards, newest first.
func ListSavedCards(ctx context.Context, db *sql.DB, ownerID int64) ([]models.SavedCard, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM saved_cards WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list saved cards: %w", err)
	}
	defer rows.Close()

	var cards []models.SavedCard
	for rows.Next() {
		card, err := scanSavedCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan saved card: %w", err)
		}
		cards = append(cards, *card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cards, nil
}

func CreateSavedCard(ctx context.Context, db *sql.DB, ownerID int64, in SavedCardInput) (*models.SavedCard, error) {
	in.CardHolder = strings.TrimSpace(in.CardHolder)
	in.CardNumber = strings.TrimSpace(in.CardNumber)
	if in.CardHolder == "" || in.CardNumber == "" {
		return nil, fmt.Errorf("%w: card holder and number required", database.ErrInvalidInput)
	}
	if in.Brand = strings.TrimSpace(in.Brand); in.Brand == "" {
		in.Brand = DefaultCardBrand
	}

	query := `
		INSERT INTO saved_cards (owner_id, card_holder, card_number, brand, label, exp_month, exp_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NOW(), NOW())
		RETURNING ` + cardColumns

	card, err := scanSavedCard(db.QueryRowContext(ctx, query,
		ownerID, in.CardHolder, in.CardNumber, in.Brand, in.Label, in.ExpMonth, in.ExpYear).Scan)
	if err != nil {
		return nil, fmt.Errorf("create saved card: %w", err)
	}

	return card, nil
}

// DeleteSavedCard removes a card, refusing to touch another user's.
func DeleteSavedCard(ctx context.Context, db *sql.DB, ownerID, cardID int64) error {
	var actualOwner int64
	err := db.QueryRowContext(ctx,
		`SELECT owner_id FROM saved_cards WHERE id = $1`, cardID).Scan(&actualOwner)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrCardNotFound
		}
		return fmt.Errorf("get saved card: %w", err)
	}
	if actualOwner != ownerID {
		return fmt.Errorf("%w: card does not belong to user", database.ErrForbidden)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM saved_cards WHERE id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("delete saved card: %w", err)
	}

	return nil
}
