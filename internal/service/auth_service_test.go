package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/clinic-records/internal/auth"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/events"
	"github.com/spec-kit/clinic-records/internal/repository"
	"github.com/spec-kit/clinic-records/pkg/util"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := f.auth.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct{ username, password string }{
		{"", "pw"},
		{"alice", ""},
		{"   ", "pw"},
		{"alice", "\t"},
	}
	for _, tc := range cases {
		_, err := f.auth.Register(ctx, tc.username, tc.password)
		assert.ErrorIs(t, err, util.ErrInvalidInput, "%q/%q", tc.username, tc.password)
	}
	assert.Equal(t, 0, f.auth.UserCount())
}

func TestRegisterDuplicateKeepsOriginalPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, util.ErrDuplicateUsername)

	_, err = f.auth.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, "alice", "other")
	assert.ErrorIs(t, err, util.ErrAuthenticationFailed)

	users, err := f.store.Users.All(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// usernames are case-sensitive
	_, err = f.auth.Register(ctx, "Alice", "pw")
	assert.NoError(t, err)
}

func TestAuthenticateDoesNotLeakWhichPartFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, unknown := f.auth.Authenticate(ctx, "nobody", "pw1")
	_, wrong := f.auth.Authenticate(ctx, "alice", "nope")

	require.Error(t, unknown)
	require.Error(t, wrong)
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, util.ToDomainError(unknown).Code, util.ToDomainError(wrong).Code)
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = f.auth.ResetPassword(ctx, "alice", "pw2")
	require.NoError(t, err)

	reopened := openFixture(t, f.dir)
	assert.Equal(t, 1, reopened.auth.UserCount())
	_, err = reopened.auth.Authenticate(ctx, "alice", "pw2")
	assert.NoError(t, err)
	_, err = reopened.auth.Register(ctx, "alice", "pw3")
	assert.ErrorIs(t, err, util.ErrDuplicateUsername)
}

func TestSnapshotLoadSkipsCorruptLinesAndDedupes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.store.Users.Path()

	appendRaw(t, path, `{"username":"alice","password":"old","created_at":"2025-06-01T09:00:00Z"}`)
	appendRaw(t, path, `garbage`)
	appendRaw(t, path, `{"username":"bob","password":"pwb","created_at":"2025-06-01T09:00:01Z"}`)
	appendRaw(t, path, `{"username":"alice","password":"new","created_at":"2025-06-01T09:00:00Z"}`)

	reopened := openFixture(t, f.dir)
	assert.Equal(t, 2, reopened.auth.UserCount())
	_, err := reopened.auth.Authenticate(ctx, "alice", "new")
	assert.NoError(t, err)

	_, err = reopened.auth.ResetPassword(ctx, "bob", "pwb2")
	require.NoError(t, err)

	users, err := reopened.store.Users.All(ctx, nil)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "new", users[0].Password)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "pwb2", users[1].Password)
}

func TestResetPasswordIntegrity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, u := range [][2]string{{"alice", "pw1"}, {"bob", "pwb"}, {"carol", "pwc"}} {
		_, err := f.auth.Register(ctx, u[0], u[1])
		require.NoError(t, err)
	}

	out, err := f.auth.ResetPassword(ctx, "bob", "pwb2")
	require.NoError(t, err)
	assert.NoError(t, out.AuditErr)
	require.NotNil(t, out.Reset)
	assert.Equal(t, "bob", out.Reset.Username)
	assert.Equal(t, domain.ResetStatusCompleted, out.Reset.Status)

	_, err = f.auth.Authenticate(ctx, "bob", "pwb")
	assert.ErrorIs(t, err, util.ErrAuthenticationFailed)
	_, err = f.auth.Authenticate(ctx, "bob", "pwb2")
	assert.NoError(t, err)

	users, err := f.store.Users.All(ctx, nil)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{users[0].Username, users[1].Username, users[2].Username})
	assert.Equal(t, "pw1", users[0].Password)
	assert.Equal(t, "pwb2", users[1].Password)
	assert.Equal(t, "pwc", users[2].Password)

	history, err := f.auth.ListHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []domain.PasswordReset{*out.Reset}, history)

	none, err := f.auth.ListHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResetPasswordErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = f.auth.ResetPassword(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, util.ErrUnknownUser)

	_, err = f.auth.ResetPassword(ctx, "alice", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	// unknown user is reported before the empty password
	_, err = f.auth.ResetPassword(ctx, "nobody", "")
	assert.ErrorIs(t, err, util.ErrUnknownUser)

	history, err := f.auth.ListHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestResetPasswordAuditFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var seen []events.Event
	f.dispatcher.Subscribe(events.EventPasswordReset, func(_ context.Context, e events.Event) error {
		seen = append(seen, e)
		return nil
	})

	svc, err := NewAuthService(ctx, AuthDependencies{
		UserRepo:          repository.NewUserRepository(f.store.Users),
		PasswordResetRepo: failingResetRepo{err: errDiskFull},
		IDs:               f.ids,
		Dispatcher:        f.dispatcher,
		Logger:            zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	out, err := svc.ResetPassword(ctx, "alice", "pw2")
	require.NoError(t, err)
	assert.ErrorIs(t, out.AuditErr, errDiskFull)
	assert.Nil(t, out.Reset)

	_, err = svc.Authenticate(ctx, "alice", "pw2")
	assert.NoError(t, err)

	require.Len(t, seen, 1)
	payload, ok := seen[0].Payload.(events.PasswordResetPayload)
	require.True(t, ok)
	assert.Equal(t, "disk full", payload.AuditErr)
}

func TestResetPasswordRewriteFailureLeavesOldPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	svc, err := NewAuthService(ctx, AuthDependencies{
		UserRepo:          failingUserRepo{UserRepository: repository.NewUserRepository(f.store.Users), err: util.NewWriteFailure("users.log", errDiskFull)},
		PasswordResetRepo: repository.NewPasswordResetRepository(f.store.PasswordResets, f.ids),
		IDs:               f.ids,
	})
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, util.ErrWriteFailure)

	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)

	history, err := svc.ListHistory(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRegisterWriteFailureIsNotVisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	svc, err := NewAuthService(ctx, AuthDependencies{
		UserRepo:          failingUserRepo{UserRepository: repository.NewUserRepository(f.store.Users), err: util.NewWriteFailure("users.log", errDiskFull)},
		PasswordResetRepo: repository.NewPasswordResetRepository(f.store.PasswordResets, f.ids),
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, util.ErrWriteFailure)

	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, util.ErrAuthenticationFailed)
	assert.Equal(t, 0, svc.UserCount())
}

func TestAuthServiceWithBcrypt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	svc, err := NewAuthService(ctx, AuthDependencies{
		UserRepo:          repository.NewUserRepository(f.store.Users),
		PasswordResetRepo: repository.NewPasswordResetRepository(f.store.PasswordResets, f.ids),
		Hasher:            auth.BcryptHasher{Cost: bcrypt.MinCost},
		IDs:               f.ids,
	})
	require.NoError(t, err)

	u, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", u.Password)

	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)

	_, err = svc.ResetPassword(ctx, "alice", "pw2")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, util.ErrAuthenticationFailed)
	_, err = svc.Authenticate(ctx, "alice", "pw2")
	assert.NoError(t, err)
}

func TestRegisterPublishesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var seen []events.Event
	f.dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, e events.Event) error {
		seen = append(seen, e)
		return nil
	})

	_, err := f.auth.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "alice", seen[0].Subject)
	assert.NotEmpty(t, seen[0].ID)
}
