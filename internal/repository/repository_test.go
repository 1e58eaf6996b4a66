package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/clinic-records/internal/config"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/persistence"
)

var at = time.Date(2025, 6, 1, 9, 30, 5, 0, time.UTC)

func newStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.NewStore(config.StoreConfig{DataDir: t.TempDir(), Locking: true}, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	return store
}

func booking(id, patient string) domain.Booking {
	return domain.Booking{
		BookingID:       id,
		PatientName:     patient,
		AppointmentDate: "2025-06-01",
		Services:        []domain.ServiceLine{{ServiceName: "Dental Cleaning", Quantity: 1, LineSubtotal: 1000}},
		TotalAmount:     1000,
		CreatedAt:       at,
		Status:          domain.BookingStatusConfirmed,
	}
}

func TestUserRepositoryReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newStore(t).Users)

	require.NoError(t, repo.Create(ctx, domain.User{Username: "alice", Password: "pw1", CreatedAt: at}))
	require.NoError(t, repo.Create(ctx, domain.User{Username: "bob", Password: "pw2", CreatedAt: at}))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	users[0].Password = "changed"
	require.NoError(t, repo.ReplaceAll(ctx, users))

	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, again)
}

func TestBookingRepositoryListByPatient(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newStore(t).Bookings)

	require.NoError(t, repo.Create(ctx, booking("BK1", "alice")))
	require.NoError(t, repo.Create(ctx, booking("BK2", "bob")))
	require.NoError(t, repo.Create(ctx, booking("BK3", "alice")))
	require.NoError(t, repo.Create(ctx, booking("BK4", "Alice")))

	got, err := repo.ListByPatient(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.Booking{booking("BK1", "alice"), booking("BK3", "alice")}, got)

	none, err := repo.ListByPatient(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCancellationRepositoryListByPatient(t *testing.T) {
	ctx := context.Background()
	repo := NewCancellationRepository(newStore(t).Cancellations)

	c1 := domain.NewCancellation("CN1", booking("BK1", "alice"), "", at)
	c2 := domain.NewCancellation("CN2", booking("BK1", "alice"), "again", at)
	c3 := domain.NewCancellation("CN3", booking("BK2", "bob"), "", at)
	for _, c := range []domain.Cancellation{c1, c2, c3} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.ListByPatient(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.Cancellation{c1, c2}, got)
}

func TestPasswordResetRepositoryHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ids := domain.NewIDGenerator(func() time.Time { return at }, false)
	repo := NewPasswordResetRepository(store.PasswordResets, ids)

	rec, err := repo.RecordReset(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.PasswordReset{
		ResetID:   "PR20250601093005",
		Username:  "alice",
		ResetDate: at,
		Status:    domain.ResetStatusCompleted,
	}, rec)

	_, err = repo.RecordReset(ctx, "bob")
	require.NoError(t, err)

	history, err := repo.ListHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.PasswordReset{rec}, history)
}

func TestPasswordResetHistoryToleratesCorruptLine(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ids := domain.NewIDGenerator(func() time.Time { return at }, true)
	repo := NewPasswordResetRepository(store.PasswordResets, ids)

	first, err := repo.RecordReset(ctx, "alice")
	require.NoError(t, err)

	f, err := os.OpenFile(store.PasswordResets.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("%%% not a record %%%\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second, err := repo.RecordReset(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.ResetID, second.ResetID)

	history, err := repo.ListHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.PasswordReset{first, second}, history)
}
