package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"rental-directory/core/metrics"
	corereconcile "rental-directory/core/reconcile"
	"rental-directory/core/storage"
	"rental-directory/feature/catalog"
	"rental-directory/feature/importer/parser"
	"rental-directory/feature/importer/reconcile"
	"rental-directory/feature/importer/session"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchivePrefix is the storage folder holding archived import payloads.
const ArchivePrefix = "imports"

var (
	// ErrInvalidRequest is returned for payloads that cannot be processed at all.
	ErrInvalidRequest = errors.New("invalid import request")
	// ErrSessionNotFound is returned when resuming an unknown or expired session.
	ErrSessionNotFound = session.ErrNotFound
	// ErrStorageDisabled is returned when an object import is requested without storage.
	ErrStorageDisabled = errors.New("object storage is disabled")
)

// Request is a new import.
type Request struct {
	Data    []byte
	Format  string
	Options reconcile.Options
}

// CreatedCounts counts the entities written by an import.
type CreatedCounts struct {
	Manufacturers   int `json:"manufacturers"`
	Products        int `json:"products"`
	RentalCompanies int `json:"rentalCompanies"`
}

// UpdatedCounts counts the entities updated by an import.
type UpdatedCounts struct {
	RentalCompanies int `json:"rentalCompanies"`
}

// Response is the result of Import and Resume.
type Response struct {
	Success         bool                      `json:"success"`
	Outcome         string                    `json:"outcome"`
	DryRun          bool                      `json:"dryRun,omitempty"`
	Created         CreatedCounts             `json:"created"`
	Updated         UpdatedCounts             `json:"updated"`
	Errors          []string                  `json:"errors"`
	Warnings        []string                  `json:"warnings"`
	MissingEntities []reconcile.MissingEntity `json:"missingEntities,omitempty"`
	ImportSessionID string                    `json:"importSessionId,omitempty"`
	ArchiveKey      string                    `json:"archiveKey,omitempty"`
}

// Service runs imports against the catalog.
type Service struct {
	catalog    *catalog.Service
	reconciler *reconcile.Reconciler
	sessions   session.Store
	client     storage.Client
	bucket     string
	metrics    *metrics.Recorder
	logger     *zap.Logger

	// mu serializes imports within the process.
	mu  sync.Mutex
	now func() time.Time
}

// NewService creates an import service. client may be nil when storage is
// disabled; payloads are then not archived.
func NewService(cat *catalog.Service, sessions session.Store, client storage.Client, bucket string, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:    cat,
		reconciler: reconcile.New(cat, cat.Geocoder(), logger),
		sessions:   sessions,
		client:     client,
		bucket:     bucket,
		metrics:    recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Import parses and reconciles a new payload.
func (s *Service) Import(ctx context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, req.Data, req.Format, req.Options, nil)
}

// ImportObject imports a payload stored in object storage. The format is
// derived from the key when empty.
func (s *Service) ImportObject(ctx context.Context, key, format string, opts reconcile.Options) (*Response, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	if format == "" {
		format, _ = parser.DetectFormat(key)
	}
	data, err := storage.ReadObject(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, Request{Data: data, Format: format, Options: opts})
}

// Resume merges resolutions into a suspended import and runs it again.
func (s *Service) Resume(ctx context.Context, sessionID string, resolutions map[string]reconcile.Resolution) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	sess.Merge(resolutions)

	return s.run(ctx, sess.Data, sess.Format, sess.Options, sess)
}

// Session returns a suspended import.
func (s *Service) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, err
}

// DiscardSession drops a suspended import.
func (s *Service) DiscardSession(ctx context.Context, sessionID string) error {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// run executes the pipeline. sess is nil for new imports.
func (s *Service) run(ctx context.Context, data []byte, format string, opts reconcile.Options, sess *session.Session) (*Response, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidRequest)
	}
	format = resolveFormat(format, data)

	parsed, err := parser.Parse(format, data)
	if err != nil {
		s.metrics.ImportFinished(metrics.OutcomeValidation)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	s.metrics.RecordsParsed(len(parsed.Records))
	for _, w := range parsed.Warnings {
		s.logger.Warn("Skipped import line", zap.Int("line", w.Line), zap.String("reason", w.Message))
	}

	var resolutions map[string]reconcile.Resolution
	if sess != nil {
		resolutions = sess.Resolutions
	}

	outcome, err := s.reconciler.Plan(ctx, parsed.Records, opts, resolutions)
	if err != nil {
		s.metrics.ImportFinished(metrics.OutcomeError)
		return nil, err
	}

	resp := &Response{
		DryRun:   opts.DryRun,
		Errors:   []string{},
		Warnings: parsed.WarningStrings(),
	}

	switch {
	case outcome.Invalid():
		resp.Errors = outcome.ValidationErrors
		return s.finish(resp, metrics.OutcomeValidation), nil

	case outcome.Suspended():
		if sess == nil {
			sess = &session.Session{
				ID:        outcome.SessionID,
				Data:      data,
				Format:    format,
				Options:   opts,
				CreatedAt: s.now(),
			}
		}
		sess.Missing = outcome.MissingManufacturers
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.metrics.ImportFinished(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to save import session: %w", err)
		}
		resp.MissingEntities = outcome.MissingManufacturers
		resp.ImportSessionID = sess.ID
		s.logger.Info("Import waiting for resolutions",
			zap.String("session_id", sess.ID),
			zap.Int("missing", len(outcome.MissingManufacturers)))
		return s.finish(resp, metrics.OutcomeMissing), nil

	case outcome.Plan.HasErrors():
		resp.Errors = outcome.Plan.Errors
		if sess != nil {
			resp.ImportSessionID = sess.ID
		}
		if outcome.GeocodeFailures > 0 {
			s.metrics.GeocodeFailures(outcome.GeocodeFailures)
			return s.finish(resp, metrics.OutcomeGeocode), nil
		}
		return s.finish(resp, metrics.OutcomeValidation), nil
	}

	plan := outcome.Plan
	resp.Created = CreatedCounts{
		Manufacturers:   plan.Count(corereconcile.ActionCreateManufacturer),
		Products:        plan.Count(corereconcile.ActionCreateProduct),
		RentalCompanies: plan.Count(corereconcile.ActionCreateCompany),
	}
	resp.Updated = UpdatedCounts{RentalCompanies: plan.Count(corereconcile.ActionUpdateCompany)}

	if opts.DryRun {
		resp.Success = true
		return s.finish(resp, metrics.OutcomeDryRun), nil
	}

	if _, err := corereconcile.ApplyPlan(ctx, s.catalog.Repository(), plan, corereconcile.Options{}); err != nil {
		s.logger.Error("Import failed", zap.Error(err))
		resp.Created, resp.Updated = CreatedCounts{}, UpdatedCounts{}
		resp.Errors = []string{fmt.Sprintf("failed to save import: %v", err)}
		return s.finish(resp, metrics.OutcomeError), nil
	}
	s.catalog.InvalidateSnapshot()

	archiveID := uuid.NewString()
	if sess != nil {
		archiveID = sess.ID
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			s.logger.Warn("Failed to delete import session", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	resp.ArchiveKey = s.archive(ctx, archiveID, format, data)

	resp.Success = true
	s.logger.Info("Import committed",
		zap.Int("manufacturers", resp.Created.Manufacturers),
		zap.Int("products", resp.Created.Products),
		zap.Int("companies_created", resp.Created.RentalCompanies),
		zap.Int("companies_updated", resp.Updated.RentalCompanies))
	return s.finish(resp, metrics.OutcomeSuccess), nil
}

func (s *Service) finish(resp *Response, outcome string) *Response {
	resp.Outcome = outcome
	s.metrics.ImportFinished(outcome)
	return resp
}

// archive stores a committed payload. Failures are only logged.
func (s *Service) archive(ctx context.Context, id, format string, data []byte) string {
	if s.client == nil {
		return ""
	}
	key := ArchiveKey(s.now(), id, format)
	contentType := "text/csv"
	if format == parser.FormatJSON {
		contentType = "application/json"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.logger.Warn("Failed to archive import", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// ArchiveKey returns imports/YYYY/MM/DD/<id>.<format>.
func ArchiveKey(t time.Time, id, format string) string {
	return path.Join(ArchivePrefix, t.UTC().Format("2006/01/02"), id+"."+format)
}

// resolveFormat normalizes format, sniffing the payload when it is empty.
func resolveFormat(format string, data []byte) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" {
		return format
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return parser.FormatJSON
	}
	return parser.FormatCSV
}
