package repository

import (
	"context"

	"github.com/renovamx/storefront/internal/domain"
)

// SessionRepository persists checkout sessions across requests.
type SessionRepository interface {
	// Create inserts a new checkout session.
	Create(ctx context.Context, session *domain.CheckoutSession) error

	// GetByID retrieves a session by its ID.
	GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error)

	// Update replaces the stored session state.
	Update(ctx context.Context, session *domain.CheckoutSession) error
}
