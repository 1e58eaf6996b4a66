package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/auth"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/events"
	"github.com/spec-kit/clinic-records/internal/repository"
	"github.com/spec-kit/clinic-records/pkg/util"
)

// AuthService is the identity store: registration, login and password
// reset over users.log. Users are held in a snapshot loaded once at
// construction and updated only by Register and ResetPassword.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	hasher     auth.Hasher
	ids        *domain.IDGenerator
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	snapshot map[string]domain.User
	order    []string
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Hasher            auth.Hasher
	IDs               *domain.IDGenerator
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// ResetOutcome describes a successful password reset. AuditErr is non-nil
// when the new password stands but the history entry was not written.
type ResetOutcome struct {
	User     domain.User
	Reset    *domain.PasswordReset
	AuditErr error
}

// NewAuthService builds the service and loads the user snapshot. When
// users.log holds the same username more than once, the last record wins.
func NewAuthService(ctx context.Context, deps AuthDependencies) (*AuthService, error) {
	s := &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		hasher:     deps.Hasher,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		snapshot:   make(map[string]domain.User),
	}
	if s.hasher == nil {
		s.hasher = auth.PlainHasher{}
	}
	if s.ids == nil {
		s.ids = domain.NewIDGenerator(nil, false)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if _, seen := s.snapshot[u.Username]; seen {
			s.logger.Warn("duplicate username in users log; keeping latest", zap.String("username", u.Username))
		} else {
			s.order = append(s.order, u.Username)
		}
		s.snapshot[u.Username] = u
	}
	s.logger.Debug("user snapshot loaded", zap.Int("users", len(s.order)))
	return s, nil
}

// Register creates a new identity.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.User, error) {
	if isBlank(username) || isBlank(password) {
		return domain.User{}, util.NewInvalidInput("username and password are required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshot[username]; exists {
		return domain.User{}, util.NewDuplicateUsername(username)
	}

	stored, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, util.NewInternalError(err)
	}
	user := domain.User{
		Username:  username,
		Password:  stored,
		CreatedAt: s.ids.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.snapshot[username] = user
	s.order = append(s.order, username)

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserRegistered,
		Subject:   username,
		Actor:     username,
		Timestamp: user.CreatedAt,
	})
	return user, nil
}

// Authenticate checks credentials against the snapshot. Unknown user and
// wrong password fail identically.
func (s *AuthService) Authenticate(_ context.Context, username, password string) (domain.User, error) {
	s.mu.Lock()
	user, ok := s.snapshot[username]
	s.mu.Unlock()

	if !ok || !s.hasher.Matches(user.Password, password) {
		return domain.User{}, util.NewAuthenticationFailed()
	}
	return user, nil
}

// ResetPassword replaces username's password by rewriting users.log, then
// records the reset in the history log. A failed history append is
// reported in the outcome and does not undo the reset.
func (s *AuthService) ResetPassword(ctx context.Context, username, newPassword string) (ResetOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.snapshot[username]
	if !ok {
		return ResetOutcome{}, util.NewUnknownUser(username)
	}
	if isBlank(newPassword) {
		return ResetOutcome{}, util.NewInvalidInput("new password is required", nil)
	}

	stored, err := s.hasher.Hash(newPassword)
	if err != nil {
		return ResetOutcome{}, util.NewInternalError(err)
	}
	updated := current
	updated.Password = stored

	all := make([]domain.User, 0, len(s.order))
	for _, name := range s.order {
		if name == username {
			all = append(all, updated)
			continue
		}
		all = append(all, s.snapshot[name])
	}
	if err := s.users.ReplaceAll(ctx, all); err != nil {
		return ResetOutcome{}, err
	}
	s.snapshot[username] = updated

	outcome := ResetOutcome{User: updated}
	payload := events.PasswordResetPayload{}
	reset, err := s.resets.RecordReset(ctx, username)
	if err != nil {
		outcome.AuditErr = err
		payload.AuditErr = err.Error()
		s.logger.Warn("password reset not recorded in history",
			zap.String("username", username),
			zap.Error(err))
	} else {
		outcome.Reset = &reset
		payload.ResetID = reset.ResetID
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventPasswordReset,
		Subject:   username,
		Actor:     username,
		Timestamp: s.ids.Now(),
		Payload:   payload,
	})
	return outcome, nil
}

// ListHistory returns username's password resets in the order they happened.
func (s *AuthService) ListHistory(ctx context.Context, username string) ([]domain.PasswordReset, error) {
	return s.resets.ListHistory(ctx, username)
}

// UserCount reports how many identities the snapshot holds.
func (s *AuthService) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}
