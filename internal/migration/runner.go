package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/docuseek/indexcore/internal/storage"
	"github.com/docuseek/indexcore/internal/version"
)

// Migrations should take on the order of seconds at a maximum, but we're
// going to be overly cautious just in case since this can prevent startup.
const migrationTimeout = 5 * time.Minute

// lockTTL bounds how long a crashed runner can hold the migration lock.
const lockTTL = 30 * time.Second

// Runner executes pending migrations in order under a store-wide lock, so
// that at most one process migrates (and therefore writes stage state) at a
// time.
type Runner struct {
	hostID      string
	client      *clientv3.Client
	store       *Store
	injector    *do.Injector
	logger      zerolog.Logger
	migrations  []Migration
	versionInfo *version.Info
}

// NewRunner creates a new migration runner.
func NewRunner(
	hostID string,
	client *clientv3.Client,
	store *Store,
	injector *do.Injector,
	logger zerolog.Logger,
	migrations []Migration,
) *Runner {
	return &Runner{
		hostID: hostID,
		client: client,
		store:  store,
		injector: injector,
		logger: logger.With().
			Str("component", "migration_runner").
			Logger(),
		migrations: migrations,
	}
}

// Run executes any pending migrations, blocking until they complete, the
// timeout elapses, or an error occurs.
func (r *Runner) Run(ctx context.Context) error {
	hasPendingMigrations, err := r.hasPendingMigrations(ctx)
	if err != nil {
		return err
	}
	if !hasPendingMigrations {
		return nil
	}

	// failure to get version info is non-fatal
	versionInfo, _ := version.GetInfo()
	r.versionInfo = versionInfo

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	session, err := concurrency.NewSession(r.client,
		concurrency.WithTTL(int(lockTTL.Seconds())),
		concurrency.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create lock session: %w", err)
	}
	defer session.Close()

	mutex := concurrency.NewMutex(session, r.store.LockKey())
	if err := mutex.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := mutex.Unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn().Err(err).Msg("failed to release migration lock")
		}
	}()

	return r.runMigrations(ctx)
}

func (r *Runner) runMigrations(ctx context.Context) error {
	currentRevision, err := r.getCurrentRevision(ctx)
	if err != nil {
		return err
	}

	startIndex := r.findStartIndex(currentRevision)
	if startIndex >= len(r.migrations) {
		r.logger.Info().Msg("store is up to date, no migrations to run")
		return nil
	}

	for i := startIndex; i < len(r.migrations); i++ {
		migration := r.migrations[i]
		identifier := migration.Identifier()

		if err := r.runMigration(ctx, migration); err != nil {
			r.logger.Err(err).
				Str("migration", identifier).
				Msg("run migrations error, stopping migrations")
			return err
		}

		if err := r.updateRevision(ctx, identifier); err != nil {
			return fmt.Errorf("failed to update revision: %w", err)
		}
	}

	return nil
}

func (r *Runner) getCurrentRevision(ctx context.Context) (string, error) {
	rev, err := r.store.Revision.Get().Exec(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current revision: %w", err)
	}
	return rev.Identifier, nil
}

func (r *Runner) findStartIndex(currentRevision string) int {
	if currentRevision == "" {
		return 0
	}

	for i := len(r.migrations) - 1; i >= 0; i-- {
		if r.migrations[i].Identifier() == currentRevision {
			return i + 1
		}
	}

	r.logger.Warn().
		Str("revision", currentRevision).
		Msg("current revision not found in migrations list, starting from beginning")
	return 0
}

func (r *Runner) hasPendingMigrations(ctx context.Context) (bool, error) {
	if len(r.migrations) == 0 {
		r.logger.Info().Msg("no migrations to run")
		return false, nil
	}

	currentRevision, err := r.getCurrentRevision(ctx)
	if err != nil {
		return false, err
	}

	startIndex := r.findStartIndex(currentRevision)
	if startIndex >= len(r.migrations) {
		r.logger.Info().Msg("store is up to date, no migrations to run")
		return false, nil
	}

	return true, nil
}

func (r *Runner) runMigration(ctx context.Context, migration Migration) error {
	identifier := migration.Identifier()
	r.logger.Info().Str("migration", identifier).Msg("running migration")

	stored := &StoredResult{
		Identifier: identifier,
		StartedAt:  time.Now(),
	}
	err := migration.Run(ctx, r.injector)
	if err != nil {
		stored.Error = err.Error()
	} else {
		stored.Successful = true
	}
	stored.CompletedAt = time.Now()
	stored.RunByHostID = r.hostID
	stored.RunByVersionInfo = r.versionInfo

	if storeErr := r.store.Result.Put(stored).Exec(ctx); storeErr != nil {
		return fmt.Errorf("failed to store migration result: %w", storeErr)
	}

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (r *Runner) updateRevision(ctx context.Context, identifier string) error {
	rev, err := r.store.Revision.Get().Exec(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return r.store.Revision.Create(&StoredRevision{Identifier: identifier}).Exec(ctx)
	}
	if err != nil {
		return err
	}
	rev.Identifier = identifier
	return r.store.Revision.Update(rev).Exec(ctx)
}
