// Package app wires the configuration, adapters and use cases shared by the
// lexshelf binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"lexshelf/internal/adapters/badger"
	"lexshelf/internal/adapters/filesystem"
	"lexshelf/internal/adapters/flock"
	"lexshelf/internal/adapters/minio"
	"lexshelf/internal/adapters/sqlite"
	"lexshelf/internal/application"
	"lexshelf/internal/config"
	"lexshelf/internal/domain"
	"lexshelf/internal/logging"
	"lexshelf/internal/ports"
)

// Options select the repository and override logging
type Options struct {
	Root       string // empty: LEXSHELF_ROOT, then the XDG data dir
	ConfigPath string // empty: <root>/.lexshelf.toml
	LogLevel   string
	LogFormat  string
	LogOutput  io.Writer

	// SkipResync leaves a stale dedup index as is
	SkipResync bool
}

// App holds the collaborators every entrypoint needs
type App struct {
	Config  *config.Config
	Rules   domain.Rules
	Log     *logrus.Logger
	Store   *filesystem.Repository
	Locker  ports.BucketLocker
	Dedup   ports.DedupIndex // nil with the "none" backend
	Mirror  ports.MirrorSink // nil when mirroring is off
	Placer  *application.Placer
	Indexer *application.IndexBuilder

	closers []io.Closer
}

// resyncer is implemented by indexes that know whether they were built
// for another tree
type resyncer interface {
	NeedsResync(ctx context.Context) bool
}

// Open loads the configuration for the selected root and builds the App
func Open(ctx context.Context, opts Options) (*App, error) {
	root := config.RepositoryRoot(opts.Root)
	cfg, err := config.Load(root, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: opts.LogOutput})
	if err != nil {
		return nil, err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Rules:  rules,
		Log:    log,
		Store:  filesystem.NewRepository(cfg.Root),
	}

	var locker ports.BucketLocker = application.NewKeyedLocker()
	if cfg.Locking.CrossProcess {
		locker = flock.New(cfg.LockDir(), locker)
	}
	a.Locker = locker

	if err := a.openDedup(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.openMirror(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Placer, err = application.NewPlacer(application.PlacerConfig{
		Rules:  rules,
		Store:  a.Store,
		Locker: a.Locker,
		Dedup:  a.Dedup,
		Mirror: a.Mirror,
		Logger: log,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Indexer = application.NewIndexBuilder(a.Store, a.Locker, rules, log)

	if !opts.SkipResync && a.Dedup != nil {
		stale, err := a.dedupStale(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if stale {
			log.WithField("backend", cfg.Dedup.Backend).Info("dedup index does not match the tree, rebuilding")
			if _, err := a.ResyncDedup(ctx); err != nil {
				_ = a.Close()
				return nil, err
			}
		}
	}

	log.WithFields(logrus.Fields{
		"root":     cfg.Root,
		"capacity": rules.Capacity,
		"dedup":    cfg.Dedup.Backend,
		"mirror":   cfg.Mirror.Backend,
	}).Debug("repository opened")
	return a, nil
}

func (a *App) openDedup() error {
	cfg := a.Config.Dedup
	switch cfg.Backend {
	case config.BackendSQLite:
		idx, err := sqlite.OpenDedupIndex(cfg.Path, a.Config.Root)
		if err != nil {
			return err
		}
		a.Dedup = idx
	case config.BackendBadger:
		idx, err := badger.Open(badger.Config{Path: cfg.Path, Logger: a.Log})
		if err != nil {
			return err
		}
		a.Dedup = idx
	case config.BackendMemory:
		a.Dedup = application.NewMemoryDedupIndex()
	case config.BackendNone:
		return nil
	default:
		return fmt.Errorf("unknown dedup backend %q", cfg.Backend)
	}
	a.closers = append(a.closers, a.Dedup)
	return nil
}

func (a *App) openMirror(ctx context.Context) error {
	cfg := a.Config.Mirror
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil
	case config.BackendSQLite:
		sink, err := sqlite.OpenMirrorSink(cfg.Path)
		if err != nil {
			return err
		}
		a.Mirror = sink
	case config.BackendMinio:
		sink, err := minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return err
		}
		// Unreachable object stores only cost the mirror copy
		if err := sink.EnsureBucket(ctx); err != nil {
			a.Log.WithField("bucket", cfg.Bucket).WithError(err).Warn("mirror bucket unavailable")
		}
		a.Mirror = sink
	default:
		return fmt.Errorf("unknown mirror backend %q", cfg.Backend)
	}
	a.closers = append(a.closers, a.Mirror)
	return nil
}

// dedupStale reports whether the dedup index must be rebuilt from the tree
func (a *App) dedupStale(ctx context.Context) (bool, error) {
	if r, ok := a.Dedup.(resyncer); ok && r.NeedsResync(ctx) {
		return true, nil
	}
	n, err := a.Dedup.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	buckets, err := a.Store.ListBuckets()
	if err != nil {
		return false, err
	}
	return len(buckets) > 0, nil
}

// ResyncDedup rebuilds the dedup index from the documents on disk
func (a *App) ResyncDedup(ctx context.Context) (domain.RebuildStats, error) {
	if a.Dedup == nil {
		return domain.RebuildStats{}, errors.New("no dedup index configured")
	}
	return application.ResyncDedup(ctx, a.Store, a.Dedup, a.Log)
}

// Close releases the dedup index and the mirror sink
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
