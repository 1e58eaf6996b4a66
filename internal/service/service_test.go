package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/clinic-records/internal/config"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/events"
	"github.com/spec-kit/clinic-records/internal/persistence"
	"github.com/spec-kit/clinic-records/internal/repository"
)

// stepClock advances one second per call so generated ids differ.
type stepClock struct {
	next time.Time
}

func (c *stepClock) Now() time.Time {
	t := c.next
	c.next = c.next.Add(time.Second)
	return t
}

type fixture struct {
	dir        string
	store      *persistence.Store
	ids        *domain.IDGenerator
	dispatcher events.Dispatcher
	auth       *AuthService
	bookings   *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return openFixture(t, t.TempDir())
}

func openFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := persistence.NewStore(config.StoreConfig{DataDir: dir, Locking: true}, logger, nil)
	require.NoError(t, err)

	clock := &stepClock{next: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	ids := domain.NewIDGenerator(clock.Now, false)
	dispatcher := events.NewInMemoryDispatcher()

	authSvc, err := NewAuthService(context.Background(), AuthDependencies{
		UserRepo:          repository.NewUserRepository(store.Users),
		PasswordResetRepo: repository.NewPasswordResetRepository(store.PasswordResets, ids),
		IDs:               ids,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	require.NoError(t, err)

	bookingSvc := NewBookingService(BookingDependencies{
		BookingRepo:      repository.NewBookingRepository(store.Bookings),
		CancellationRepo: repository.NewCancellationRepository(store.Cancellations),
		IDs:              ids,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})

	return &fixture{dir: dir, store: store, ids: ids, dispatcher: dispatcher, auth: authSvc, bookings: bookingSvc}
}

func appendRaw(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

type failingResetRepo struct {
	err error
}

func (f failingResetRepo) RecordReset(context.Context, string) (domain.PasswordReset, error) {
	return domain.PasswordReset{}, f.err
}

func (f failingResetRepo) ListHistory(context.Context, string) ([]domain.PasswordReset, error) {
	return []domain.PasswordReset{}, nil
}

type failingUserRepo struct {
	repository.UserRepository
	err error
}

func (f failingUserRepo) Create(context.Context, domain.User) error { return f.err }

func (f failingUserRepo) ReplaceAll(context.Context, []domain.User) error { return f.err }

var errDiskFull = errors.New("disk full")
