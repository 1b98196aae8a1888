package repository

import (
	"context"

	"github.com/renovamx/storefront/internal/domain"
)

// SnapshotStore is the device-scoped cart replica: one serialized item list
// per device ID. Read once when a session starts, written through on every
// change. Failures here are never surfaced to the customer.
type SnapshotStore interface {
	// Load retrieves the snapshot for a device. A missing snapshot returns
	// an empty list and no error.
	Load(ctx context.Context, deviceID string) ([]domain.LineItem, error)

	// Save replaces the snapshot for a device wholesale.
	Save(ctx context.Context, deviceID string, items []domain.LineItem) error

	// Delete removes the snapshot for a device.
	Delete(ctx context.Context, deviceID string) error
}

// AccountStore is the per-user cart record held server side. The contract is
// wholesale replacement: no partial updates.
type AccountStore interface {
	// Fetch retrieves the account cart. A missing record returns an empty
	// list and no error.
	Fetch(ctx context.Context, userID string) ([]domain.LineItem, error)

	// Replace stores the full item list for a user, overwriting any record.
	Replace(ctx context.Context, userID string, items []domain.LineItem) error

	// Delete removes the account cart record.
	Delete(ctx context.Context, userID string) error
}
