package cmd

import (
	"context"
	"fmt"
	"time"

	"rental-directory/core/config"
	"rental-directory/core/database"
	"rental-directory/core/geocode"
	"rental-directory/core/logger"
	"rental-directory/core/metrics"
	"rental-directory/core/storage"
	"rental-directory/feature/catalog"
	"rental-directory/feature/importer"
	"rental-directory/feature/importer/session"
	"rental-directory/feature/integrity"
	"rental-directory/feature/search"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application bundles the services shared by the server and the CLI commands.
type application struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	store     storage.Client
	metrics   *metrics.Recorder
	sessions  session.Store
	catalog   *catalog.Service
	search    *search.Service
	importer  *importer.Service
	integrity *integrity.Service
}

// bootstrap loads the configuration and wires every service. The database is
// required; object storage is only connected when enabled.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}
	logg = logg.With(zap.String("driver", cfg.Database.Driver))

	repo := catalog.NewRepository(db)

	var store storage.Client
	if cfg.Storage.Enabled {
		store, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket: %w", err)
		}
	} else {
		logg.Info("Object storage disabled, import payloads will not be archived")
	}

	sessions, err := importer.NewSessionStore(ctx, cfg.Import)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	recorder := metrics.New()
	geocoder := geocode.NewNominatim(cfg.Geocoder)
	cat := catalog.NewService(repo, geocoder, cfg.Import.SnapshotTTL(), recorder, logg)

	return &application{
		cfg:       cfg,
		logger:    logg,
		db:        db,
		store:     store,
		metrics:   recorder,
		sessions:  sessions,
		catalog:   cat,
		search:    search.NewService(cat, logg),
		importer:  importer.NewService(cat, sessions, store, cfg.Storage.Bucket, recorder, logg),
		integrity: integrity.NewService(cat, store, cfg.Storage.Bucket, db, logg),
	}, nil
}

// migrate creates or updates the catalog tables.
func (a *application) migrate(ctx context.Context) error {
	if err := a.catalog.Repository().Migrate(ctx); err != nil {
		return err
	}
	a.logger.Info("Catalog schema migrated")
	return nil
}

// Close releases the database and session store connections.
func (a *application) Close() {
	if closer, ok := a.sessions.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("Failed to close session store", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

// timeout bounds one CLI command.
const timeout = 5 * time.Minute
