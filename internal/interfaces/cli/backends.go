package cli

import (
	"context"
	"io"
	"os"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/molstandardizer/internal/infrastructure/database/redis"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/internal/infrastructure/storage/minio"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// objectStore reads and writes s3:// locations.
type objectStore interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	Create(ctx context.Context, uri string) (io.WriteCloser, error)
}

// backends opens the optional infrastructure named in the config on first
// use and closes whatever was opened.
type backends struct {
	cfg    *config.Config
	logger logging.Logger

	store   objectStore
	pg      *postgres.Connection
	closers []func() error
}

func newBackends(cfg *config.Config, log logging.Logger) *backends {
	return &backends{cfg: cfg, logger: log}
}

func (b *backends) objectStore() (objectStore, error) {
	if b.store != nil {
		return b.store, nil
	}
	s, err := minio.NewStore(b.cfg.MinIO, b.logger.Named("minio"))
	if err != nil {
		return nil, err
	}
	b.store = s
	return s, nil
}

// postgres returns the database connection, failing when postgres is not
// enabled.
func (b *backends) postgres() (*postgres.Connection, error) {
	if b.pg != nil {
		return b.pg, nil
	}
	if !b.cfg.Postgres.Enabled {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "postgres is not enabled; set postgres.enabled in the config")
	}
	conn, err := postgres.NewConnection(b.cfg.Postgres, b.logger.Named("postgres"))
	if err != nil {
		return nil, err
	}
	b.pg = conn
	b.closers = append(b.closers, conn.Close)
	return conn, nil
}

// serviceDependencies wires the cache and repository when enabled.
func (b *backends) serviceDependencies() (standardization.Dependencies, error) {
	deps := standardization.DefaultDependencies(b.logger.Named("standardization"))

	if b.cfg.Redis.Enabled {
		client, err := redis.NewClient(b.cfg.Redis, b.logger.Named("redis"))
		if err != nil {
			return deps, err
		}
		b.closers = append(b.closers, client.Close)
		deps.Cache = redis.NewResultCache(client, b.logger.Named("cache"))
	}
	if b.cfg.Postgres.Enabled {
		conn, err := b.postgres()
		if err != nil {
			return deps, err
		}
		deps.Repository = repositories.NewResultRepository(conn, b.logger.Named("results"))
	}
	return deps, nil
}

// openInput opens a local file, stdin ("-") or an s3:// object.
func (b *backends) openInput(ctx context.Context, location string, stdin io.Reader) (io.ReadCloser, error) {
	switch {
	case location == "-":
		return io.NopCloser(stdin), nil
	case minio.IsObjectURI(location):
		store, err := b.objectStore()
		if err != nil {
			return nil, err
		}
		return store.Open(ctx, location)
	default:
		f, err := os.Open(location)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFound("input file not found").WithDetail(location)
			}
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "opening "+location)
		}
		return f, nil
	}
}

// createOutput creates a local file, stdout ("-") or an s3:// object.
func (b *backends) createOutput(ctx context.Context, location string, stdout io.Writer) (io.WriteCloser, error) {
	switch {
	case location == "-":
		return nopWriteCloser{stdout}, nil
	case minio.IsObjectURI(location):
		store, err := b.objectStore()
		if err != nil {
			return nil, err
		}
		return store.Create(ctx, location)
	default:
		f, err := os.Create(location)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "creating "+location)
		}
		return f, nil
	}
}

// Close releases everything opened, newest first.
func (b *backends) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
