package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/renovamx/storefront/internal/cart/repository"
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/session"
)

// Events publishes cart lifecycle events. Publish failures are logged and
// swallowed by the manager; the cart must stay usable against a dead broker.
type Events interface {
	PublishCartUpdated(ctx context.Context, ownerID string, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, ownerID string) error
}

// Manager owns one Store per device session and runs the reconciliation
// protocol across the three data locations: in-memory, snapshot replica, and
// the account record of an authenticated user.
//
// Ordering guarantees: hydration from the snapshot strictly precedes the
// first write-through; the account merge strictly precedes any ordinary
// account push. Both persisted locations receive idempotent whole-cart
// replacements, so the replicas may lag without risk.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	snapshots repository.SnapshotStore
	account   repository.AccountStore
	events    Events
	logger    *slog.Logger

	// maxQuantity caps the quantity of any single line. Zero or negative
	// means uncapped.
	maxQuantity int
}

// NewManager creates a cart manager. maxQuantity bounds the per-line quantity;
// pass 0 to leave it unbounded.
func NewManager(snapshots repository.SnapshotStore, account repository.AccountStore, events Events, maxQuantity int, logger *slog.Logger) *Manager {
	return &Manager{
		stores:      make(map[string]*Store),
		snapshots:   snapshots,
		account:     account,
		events:      events,
		maxQuantity: maxQuantity,
		logger:      logger,
	}
}

func (m *Manager) store(deviceID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[deviceID]
	if !ok {
		s = newStore(deviceID)
		m.stores[deviceID] = s
	}
	return s
}

// Items returns the current cart for the session, hydrating and syncing
// first when needed.
func (m *Manager) Items(ctx context.Context, sess session.Session) []domain.LineItem {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	return s.snapshot()
}

// AddItem adds an item (or increments the matching line) and mirrors the
// change. An item that cannot be sanitized is rejected with a warning and the
// cart is left unchanged.
func (m *Manager) AddItem(ctx context.Context, sess session.Session, item domain.LineItem, quantity int) []domain.LineItem {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	if !s.add(item, quantity, m.maxQuantity) {
		m.logger.WarnContext(ctx, "rejected cart item without id",
			slog.String("device_id", sess.DeviceID),
			slog.String("name", item.Name),
		)
		return s.snapshot()
	}
	m.persist(ctx, s, sess)
	return s.snapshot()
}

// DecreaseQuantity lowers the matching item's quantity by 1, floored at 1.
// Unknown ids are a no-op.
func (m *Manager) DecreaseQuantity(ctx context.Context, sess session.Session, id string) []domain.LineItem {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	if s.decrease(id) {
		m.persist(ctx, s, sess)
	}
	return s.snapshot()
}

// RemoveItem removes the matching item entirely. Unknown ids are a no-op.
func (m *Manager) RemoveItem(ctx context.Context, sess session.Session, id string) []domain.LineItem {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	if s.remove(id) {
		m.persist(ctx, s, sess)
	}
	return s.snapshot()
}

// Clear empties the cart and both replicas. Used after checkout completes.
func (m *Manager) Clear(ctx context.Context, sess session.Session) {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	s.clear()

	if err := m.snapshots.Delete(ctx, sess.DeviceID); err != nil {
		m.logger.WarnContext(ctx, "failed to delete cart snapshot",
			slog.String("device_id", sess.DeviceID),
			slog.String("error", err.Error()),
		)
	}
	if sess.Authenticated() {
		if err := m.account.Delete(ctx, sess.User.ID); err != nil {
			m.logger.WarnContext(ctx, "failed to delete account cart",
				slog.String("user_id", sess.User.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if m.events != nil {
		if err := m.events.PublishCartCleared(ctx, ownerID(sess)); err != nil {
			m.logger.WarnContext(ctx, "failed to publish cart.cleared event",
				slog.String("error", err.Error()),
			)
		}
	}
}

// ReplaceAll swaps the cart contents for a normalized copy of items and
// mirrors the result. For hydration-style bulk loads, never incremental use.
func (m *Manager) ReplaceAll(ctx context.Context, sess session.Session, items []domain.LineItem) []domain.LineItem {
	s := m.store(sess.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.observe(ctx, s, sess)
	s.replaceAll(items)
	m.persist(ctx, s, sess)
	return s.snapshot()
}

// observe brings the store in line with the session before a read or
// mutation: hydrate once per session, merge with the account cart on the
// first authenticated observation, and forget the sync mark on logout.
// Callers hold s.mu.
func (m *Manager) observe(ctx context.Context, s *Store, sess session.Session) {
	if !s.hydrated {
		items, err := m.snapshots.Load(ctx, sess.DeviceID)
		if err != nil {
			m.logger.WarnContext(ctx, "failed to load cart snapshot, starting empty",
				slog.String("device_id", sess.DeviceID),
				slog.String("error", err.Error()),
			)
			items = nil
		}
		s.replaceAll(items)
		s.hydrated = true
	}

	switch sess.Status {
	case session.StatusAuthenticated:
		if sess.User.ID != "" && s.syncedUser != sess.User.ID {
			m.mergeAccount(ctx, s, sess.User.ID)
		}
	case session.StatusUnauthenticated:
		s.syncedUser = ""
	case session.StatusLoading:
		// Auth state unresolved: neither merge nor reset.
	}
}

// mergeAccount pulls the account cart, additively merges it with the device
// cart, and pushes the result back. A fetch failure counts as an empty
// account cart. The snapshot replica is deliberately not rewritten here; it
// catches up on the next mutation, which spares one redundant round-trip per
// login. Callers hold s.mu.
func (m *Manager) mergeAccount(ctx context.Context, s *Store, userID string) {
	accountItems, err := m.account.Fetch(ctx, userID)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to fetch account cart, merging against empty",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		accountItems = nil
	}

	merged := domain.Merge(domain.Normalize(accountItems), s.items)
	s.replaceAll(merged)
	s.syncedUser = userID

	if err := m.account.Replace(ctx, userID, s.snapshot()); err != nil {
		m.logger.WarnContext(ctx, "failed to push merged cart to account",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	m.logger.InfoContext(ctx, "merged device cart with account cart",
		slog.String("user_id", userID),
		slog.Int("items", len(s.items)),
	)
}

// persist mirrors the in-memory cart to the snapshot replica and, for
// authenticated sessions, pushes it to the account record. Both writes are
// best-effort whole-cart replacements; failures are logged, never surfaced.
// Callers hold s.mu.
func (m *Manager) persist(ctx context.Context, s *Store, sess session.Session) {
	items := s.snapshot()

	if err := m.snapshots.Save(ctx, sess.DeviceID, items); err != nil {
		m.logger.WarnContext(ctx, "failed to mirror cart snapshot",
			slog.String("device_id", sess.DeviceID),
			slog.String("error", err.Error()),
		)
	}

	if sess.Authenticated() && s.syncedUser == sess.User.ID {
		if err := m.account.Replace(ctx, sess.User.ID, items); err != nil {
			m.logger.WarnContext(ctx, "failed to push cart to account",
				slog.String("user_id", sess.User.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if m.events != nil {
		cart := &domain.Cart{Items: items}
		if err := m.events.PublishCartUpdated(ctx, ownerID(sess), cart); err != nil {
			m.logger.WarnContext(ctx, "failed to publish cart.updated event",
				slog.String("error", err.Error()),
			)
		}
	}
}

func ownerID(sess session.Session) string {
	if sess.Authenticated() {
		return sess.User.ID
	}
	return sess.DeviceID
}
