package persistence

import (
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/config"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/observability"
)

// Fixed file names inside the data directory.
const (
	UsersLogName          = "users.log"
	BookingsLogName       = "bookings.log"
	CancellationsLogName  = "cancellations.log"
	PasswordResetsLogName = "password_resets.log"
)

// Store groups the four record logs living in one data directory.
type Store struct {
	dir string

	Users          *Log[domain.User]
	Bookings       *Log[domain.Booking]
	Cancellations  *Log[domain.Cancellation]
	PasswordResets *Log[domain.PasswordReset]
}

// NewStore opens (creating when absent) every log under cfg.DataDir.
func NewStore(cfg config.StoreConfig, logger *zap.Logger, metrics *observability.Metrics) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := LogOptions{
		Locking: cfg.Locking,
		Logger:  logger,
		Metrics: metrics,
	}

	users, err := OpenLog(cfg.LogPath(UsersLogName), UserCodec, opts)
	if err != nil {
		return nil, err
	}
	bookings, err := OpenLog(cfg.LogPath(BookingsLogName), BookingCodec, opts)
	if err != nil {
		return nil, err
	}
	cancellations, err := OpenLog(cfg.LogPath(CancellationsLogName), CancellationCodec, opts)
	if err != nil {
		return nil, err
	}
	resets, err := OpenLog(cfg.LogPath(PasswordResetsLogName), PasswordResetCodec, opts)
	if err != nil {
		return nil, err
	}

	logger.Debug("record store opened", zap.String("dir", cfg.DataDir), zap.Bool("locking", cfg.Locking))

	return &Store{
		dir:            cfg.DataDir,
		Users:          users,
		Bookings:       bookings,
		Cancellations:  cancellations,
		PasswordResets: resets,
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}
