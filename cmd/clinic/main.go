package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/auth"
	"github.com/spec-kit/clinic-records/internal/config"
	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/events"
	"github.com/spec-kit/clinic-records/internal/observability"
	"github.com/spec-kit/clinic-records/internal/persistence"
	"github.com/spec-kit/clinic-records/internal/repository"
	"github.com/spec-kit/clinic-records/internal/service"
	"github.com/spec-kit/clinic-records/internal/worker"
	"github.com/spec-kit/clinic-records/pkg/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	a := &app{cfg: cfg}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		var de *util.DomainError
		if errors.As(err, &de) {
			fmt.Fprintf(stderr, "%s: %s\n", de.Code, de.Message)
		} else {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app holds everything a command needs. It is built lazily, after flags
// have been parsed.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	store    *persistence.Store
	auth     *service.AuthService
	bookings *service.BookingService
}

func (a *app) init(ctx context.Context) error {
	logger, err := observability.NewLogger(a.cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	a.logger = logger.With(zap.String("app", a.cfg.App.Name), zap.String("env", a.cfg.App.Env))
	a.metrics = observability.NewMetrics()

	store, err := persistence.NewStore(a.cfg.Store, a.logger, a.metrics)
	if err != nil {
		return err
	}
	a.store = store

	hasher, err := auth.NewHasher(a.cfg.Auth)
	if err != nil {
		return fmt.Errorf("password hashing: %w", err)
	}

	ids := domain.NewIDGenerator(time.Now, a.cfg.Store.UniqueIDs)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, a.logger))

	a.auth, err = service.NewAuthService(ctx, service.AuthDependencies{
		UserRepo:          repository.NewUserRepository(store.Users),
		PasswordResetRepo: repository.NewPasswordResetRepository(store.PasswordResets, ids),
		Hasher:            hasher,
		IDs:               ids,
		Dispatcher:        dispatcher,
		Logger:            a.logger,
	})
	if err != nil {
		return err
	}

	a.bookings = service.NewBookingService(service.BookingDependencies{
		BookingRepo:      repository.NewBookingRepository(store.Bookings),
		CancellationRepo: repository.NewCancellationRepository(store.Cancellations),
		IDs:              ids,
		Dispatcher:       dispatcher,
		Logger:           a.logger,
	})
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
