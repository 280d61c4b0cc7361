package integrity

import (
	"context"
	"errors"

	"rental-directory/core/storage"
	"rental-directory/feature/catalog"
	"rental-directory/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageDisabled is returned by storage checks when no client is configured.
var ErrStorageDisabled = errors.New("object storage is disabled")

// Service handles integrity checks.
type Service struct {
	catalog *catalog.Service
	client  storage.Client
	bucket  string
	db      *gorm.DB
	logger  *zap.Logger
}

// NewService creates a new integrity service. client may be nil when
// storage is disabled.
func NewService(cat *catalog.Service, client storage.Client, bucket string, db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: cat,
		client:  client,
		bucket:  bucket,
		db:      db,
		logger:  logger,
	}
}

// CheckCatalog checks a fresh catalog snapshot.
func (s *Service) CheckCatalog(ctx context.Context) (*checks.CatalogReport, error) {
	s.catalog.InvalidateSnapshot()
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return checks.CheckCatalog(snap), nil
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrStorageDisabled
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckArchives reports archived imports outside the dated layout.
func (s *Service) CheckArchives(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckArchives(ctx, s.client, s.bucket)
}

// CheckServer compares the database schema with the catalog models.
func (s *Service) CheckServer() (*checks.ServerReport, error) {
	return checks.CheckServerIntegrity(s.db, catalog.Models()...)
}

// Report runs every check. Failing checks are reported inline.
func (s *Service) Report(ctx context.Context) map[string]any {
	report := make(map[string]any)

	if res, err := s.CheckCatalog(ctx); err != nil {
		report["catalog"] = errorEntry(err)
	} else {
		report["catalog"] = res
	}

	if missing, err := s.CheckStructure(ctx); err != nil {
		report["structure"] = errorEntry(err)
	} else {
		report["structure"] = map[string]any{"status": "ok", "missing": missing}
	}

	if res, err := s.CheckArchives(ctx); err != nil {
		report["archives"] = errorEntry(err)
	} else {
		report["archives"] = res
	}

	if res, err := s.CheckServer(); err != nil {
		report["server"] = errorEntry(err)
	} else {
		report["server"] = res
	}

	return report
}

func errorEntry(err error) map[string]any {
	status := "error"
	if errors.Is(err, ErrStorageDisabled) {
		status = "skipped"
	}
	return map[string]any{"status": status, "error": err.Error()}
}
