package cart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/session"
)

// --- Mocks ---

type mockSnapshotStore struct {
	mock.Mock
}

func (m *mockSnapshotStore) Load(ctx context.Context, deviceID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *mockSnapshotStore) Save(ctx context.Context, deviceID string, items []domain.LineItem) error {
	args := m.Called(ctx, deviceID, items)
	return args.Error(0)
}

func (m *mockSnapshotStore) Delete(ctx context.Context, deviceID string) error {
	args := m.Called(ctx, deviceID)
	return args.Error(0)
}

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) Fetch(ctx context.Context, userID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *mockAccountStore) Replace(ctx context.Context, userID string, items []domain.LineItem) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

func (m *mockAccountStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type nopEvents struct{}

func (nopEvents) PublishCartUpdated(context.Context, string, *domain.Cart) error { return nil }
func (nopEvents) PublishCartCleared(context.Context, string) error               { return nil }

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func anonSession(deviceID string) session.Session {
	return session.Session{Status: session.StatusUnauthenticated, DeviceID: deviceID}
}

func authSession(deviceID, userID string) session.Session {
	return session.Session{
		Status:   session.StatusAuthenticated,
		DeviceID: deviceID,
		User:     session.User{ID: userID},
	}
}

func newTestManager(t *testing.T) (*Manager, *mockSnapshotStore, *mockAccountStore) {
	t.Helper()
	snaps := new(mockSnapshotStore)
	account := new(mockAccountStore)
	m := NewManager(snaps, account, nopEvents{}, 99, testLogger())
	return m, snaps, account
}

func item(id string, price int64, qty int) domain.LineItem {
	return domain.LineItem{ID: id, Name: id, Price: price, Quantity: qty}
}

// --- Reducer behavior ---

func TestAddItem_MissingIDLeavesCartUnchanged(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()

	items := m.AddItem(context.Background(), sess, domain.LineItem{Name: "sin id"}, 1)

	assert.Empty(t, items)
	// No Save expectation: a rejected item must not trigger a write-through.
	snaps.AssertExpectations(t)
}

func TestAddItem_MergesByID(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	m.AddItem(context.Background(), sess, item("ps5-a", 650000, 0), 2)
	items := m.AddItem(context.Background(), sess, item("ps5-a", 650000, 0), 3)

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItem_QuantityFlooredAtOne(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	items := m.AddItem(context.Background(), sess, item("ipad-9-b", 420000, 0), 0)

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddItem_QuantityCappedAtMax(t *testing.T) {
	snaps := new(mockSnapshotStore)
	account := new(mockAccountStore)
	m := NewManager(snaps, account, nopEvents{}, 5, testLogger())
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	items := m.AddItem(context.Background(), sess, item("ps5-a", 650000, 0), 4)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	items = m.AddItem(context.Background(), sess, item("ps5-a", 650000, 0), 4)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity, "repeated adds saturate at the ceiling")

	items = m.AddItem(context.Background(), sess, item("ipad-9-b", 420000, 0), 40)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[1].Quantity, "a single oversized add is clamped")
}

func TestAddItem_ZeroMaxLeavesQuantityUnbounded(t *testing.T) {
	snaps := new(mockSnapshotStore)
	account := new(mockAccountStore)
	m := NewManager(snaps, account, nopEvents{}, 0, testLogger())
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	items := m.AddItem(context.Background(), sess, item("ps5-a", 650000, 0), 500)

	require.Len(t, items, 1)
	assert.Equal(t, 500, items[0].Quantity)
}

func TestDecreaseQuantity_FloorsAtOne(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	m.AddItem(context.Background(), sess, item("xbox-x-a", 780000, 0), 1)
	items := m.DecreaseQuantity(context.Background(), sess, "xbox-x-a")

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDecreaseQuantity_UnknownIDIsNoop(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()

	items := m.DecreaseQuantity(context.Background(), sess, "missing")

	assert.Empty(t, items)
	snaps.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveItem_RemovesRegardlessOfQuantity(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	m.AddItem(context.Background(), sess, item("mbp-14-a", 2450000, 0), 4)
	items := m.RemoveItem(context.Background(), sess, "mbp-14-a")

	assert.Empty(t, items)
}

func TestReplaceAll_DeduplicatesFirstWins(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)

	items := m.ReplaceAll(context.Background(), sess, []domain.LineItem{
		item("a", 1000, 1),
		item("a", 1000, 5),
		item("b", 2000, 2),
	})

	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 2, items[1].Quantity)
}

// --- Hydration ---

func TestItems_HydratesFromSnapshotExactlyOnce(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").
		Return([]domain.LineItem{item("switch-oled-a", 550000, 2)}, nil).Once()

	first := m.Items(context.Background(), sess)
	second := m.Items(context.Background(), sess)

	require.Len(t, first, 1)
	assert.Equal(t, 2, first[0].Quantity)
	assert.Equal(t, first, second)
	snaps.AssertExpectations(t) // Load called exactly once
}

func TestItems_SnapshotLoadFailureStartsEmpty(t *testing.T) {
	m, snaps, _ := newTestManager(t)
	sess := anonSession("dev-1")
	snaps.On("Load", mock.Anything, "dev-1").Return(nil, errors.New("redis down")).Once()

	items := m.Items(context.Background(), sess)

	assert.Empty(t, items)
}

// --- Account merge protocol ---

func TestMerge_SumsQuantitiesForMatchingIDs(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)
	account.On("Fetch", mock.Anything, "user-1").
		Return([]domain.LineItem{item("a", 1000, 2)}, nil).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)

	// Build the device cart while anonymous.
	m.AddItem(ctx, anonSession("dev-1"), item("a", 1000, 0), 3)
	m.AddItem(ctx, anonSession("dev-1"), item("b", 2000, 0), 1)

	// First authenticated observation triggers the merge.
	items := m.Items(ctx, authSession("dev-1", "user-1"))

	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 5, items[0].Quantity) // 2 (account) + 3 (device)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)
	account.AssertExpectations(t)
}

func TestMerge_RunsOncePerAuthenticatedSession(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()
	sess := authSession("dev-1", "user-1")

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	account.On("Fetch", mock.Anything, "user-1").Return(nil, nil).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)

	m.Items(ctx, sess)
	m.Items(ctx, sess)
	m.Items(ctx, sess)

	account.AssertExpectations(t) // Fetch exactly once
}

func TestMerge_FetchFailureTreatedAsEmptyAccountCart(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)
	account.On("Fetch", mock.Anything, "user-1").Return(nil, errors.New("timeout")).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)

	m.AddItem(ctx, anonSession("dev-1"), item("a", 1000, 0), 2)
	items := m.Items(ctx, authSession("dev-1", "user-1"))

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestLogout_ResetsSyncSoNextLoginRemerges(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	account.On("Fetch", mock.Anything, "user-1").Return(nil, nil).Twice()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)

	m.Items(ctx, authSession("dev-1", "user-1"))
	m.Items(ctx, anonSession("dev-1")) // logout
	m.Items(ctx, authSession("dev-1", "user-1"))

	account.AssertExpectations(t) // Fetch ran again after logout
}

func TestLoadingStatus_DoesNotMergeOrReset(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	account.On("Fetch", mock.Anything, "user-1").Return(nil, nil).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)

	m.Items(ctx, authSession("dev-1", "user-1"))
	m.Items(ctx, session.Session{Status: session.StatusLoading, DeviceID: "dev-1"})
	m.Items(ctx, authSession("dev-1", "user-1"))

	account.AssertExpectations(t) // Fetch still exactly once
}

// --- Failure semantics ---

func TestPersistFailures_AreSwallowed(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()
	sess := authSession("dev-1", "user-1")

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(errors.New("redis down"))
	account.On("Fetch", mock.Anything, "user-1").Return(nil, nil).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(errors.New("pg down"))

	items := m.AddItem(ctx, sess, item("a", 1000, 0), 1)

	// The in-memory cart stays authoritative despite both replicas failing.
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestClear_EmptiesCartAndReplicas(t *testing.T) {
	m, snaps, account := newTestManager(t)
	ctx := context.Background()
	sess := authSession("dev-1", "user-1")

	snaps.On("Load", mock.Anything, "dev-1").Return(nil, nil).Once()
	snaps.On("Save", mock.Anything, "dev-1", mock.Anything).Return(nil)
	snaps.On("Delete", mock.Anything, "dev-1").Return(nil).Once()
	account.On("Fetch", mock.Anything, "user-1").Return(nil, nil).Once()
	account.On("Replace", mock.Anything, "user-1", mock.Anything).Return(nil)
	account.On("Delete", mock.Anything, "user-1").Return(nil).Once()

	m.AddItem(ctx, sess, item("a", 1000, 0), 2)
	m.Clear(ctx, sess)

	assert.Empty(t, m.Items(ctx, sess))
	snaps.AssertExpectations(t)
	account.AssertExpectations(t)
}
