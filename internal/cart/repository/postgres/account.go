// Package postgres persists the per-user account cart: one row per user with
// the item list as JSONB, replaced wholesale on every push.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/pkg/database"
)

// AccountStore implements repository.AccountStore on PostgreSQL.
type AccountStore struct {
	pool database.DBTX
}

// NewAccountStore creates a Postgres-backed account cart store.
func NewAccountStore(pool database.DBTX) *AccountStore {
	return &AccountStore{pool: pool}
}

// Fetch retrieves the account cart. A missing row is an empty cart.
func (s *AccountStore) Fetch(ctx context.Context, userID string) ([]domain.LineItem, error) {
	query := `SELECT items FROM account_carts WHERE user_id = $1`

	var itemsJSON []byte
	err := s.pool.QueryRow(ctx, query, userID).Scan(&itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select account cart: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshal account cart items: %w", err)
	}
	return items, nil
}

// Replace upserts the full item list for a user.
func (s *AccountStore) Replace(ctx context.Context, userID string, items []domain.LineItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal account cart items: %w", err)
	}

	query := `
		INSERT INTO account_carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, userID, itemsJSON, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert account cart: %w", err)
	}
	return nil
}

// Delete removes the account cart row.
func (s *AccountStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM account_carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete account cart: %w", err)
	}
	return nil
}
