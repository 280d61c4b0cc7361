package integrity

import (
	"context"
	"testing"
	"time"

	"rental-directory/core/database"
	"rental-directory/core/metrics"
	"rental-directory/core/storage/mocks"
	"rental-directory/feature/catalog"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalog(t *testing.T) (*catalog.Service, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	repo := catalog.NewRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))

	return catalog.NewService(repo, nil, time.Minute, metrics.New(), zap.NewNop()), db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&catalog.Manufacturer{ID: "559", Name: "Green-GO", IsActive: true}).Error)
	require.NoError(t, db.Create(&catalog.Product{ID: "559-1065-2012", Name: "MCXEXT", ManufacturerID: "559", IsActive: true}).Error)
	require.NoError(t, db.Create(&catalog.RentalCompany{
		ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "DE",
		Latitude: 52.52, Longitude: 13.405, IsActive: true,
		Inventory: []catalog.InventoryItem{{ProductID: "559-1065-2012", Quantity: 15}},
	}).Error)
}

func emptyListing() <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func TestService_CheckCatalog(t *testing.T) {
	cat, db := setupCatalog(t)
	seed(t, db)
	svc := NewService(cat, nil, "", db, zap.NewNop())

	t.Run("Clean", func(t *testing.T) {
		report, err := svc.CheckCatalog(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Equal(t, 1, report.Manufacturers)
		assert.Equal(t, 1, report.Products)
		assert.Equal(t, 1, report.Companies)
	})

	t.Run("Detects rows written behind the service", func(t *testing.T) {
		require.NoError(t, db.Create(&catalog.RentalCompany{
			ID: "K9999", Name: "Nowhere", Address: "x", City: "y", PostalCode: "1", Country: "DE",
		}).Error)

		report, err := svc.CheckCatalog(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Matched)
		require.Len(t, report.Issues, 1)
		assert.Equal(t, "K9999", report.Issues[0].ID)
		assert.Equal(t, "missing coordinates", report.Issues[0].Problem)
	})
}

func TestService_Structure(t *testing.T) {
	cat, db := setupCatalog(t)
	mockClient := new(mocks.Client)
	svc := NewService(cat, mockClient, "test-bucket", db, zap.NewNop())

	t.Run("CheckStructure", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(emptyListing())

		missing, err := svc.CheckStructure(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"imports"}, missing)
	})

	t.Run("FixStructure", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, "test-bucket", "imports/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)
		err := svc.FixStructure(context.Background(), []string{"imports"})
		assert.NoError(t, err)
		mockClient.AssertCalled(t, "PutObject", mock.Anything, "test-bucket", "imports/", mock.Anything, int64(0), mock.Anything)
	})
}

func TestService_StorageDisabled(t *testing.T) {
	cat, db := setupCatalog(t)
	svc := NewService(cat, nil, "", db, zap.NewNop())

	_, err := svc.CheckStructure(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)

	assert.ErrorIs(t, svc.FixStructure(context.Background(), []string{"imports"}), ErrStorageDisabled)

	_, err = svc.CheckArchives(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestService_CheckArchives(t *testing.T) {
	cat, db := setupCatalog(t)
	mockClient := new(mocks.Client)
	svc := NewService(cat, mockClient, "test-bucket", db, zap.NewNop())

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "imports/"}
	ch <- minio.ObjectInfo{Key: "imports/2026/03/09/abc.csv"}
	ch <- minio.ObjectInfo{Key: "imports/stray.txt"}
	close(ch)

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	report, err := svc.CheckArchives(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, []string{"imports/stray.txt"}, report.Unexpected)
}

func TestService_CheckServer(t *testing.T) {
	cat, db := setupCatalog(t)
	svc := NewService(cat, nil, "", db, zap.NewNop())

	report, err := svc.CheckServer()
	require.NoError(t, err)
	assert.Equal(t, database.DriverSQLite, report.Driver)
	assert.True(t, report.Matched, "tables: %+v", report.Tables)
	assert.Len(t, report.Tables, len(catalog.Models()))
}

func TestService_Report(t *testing.T) {
	cat, db := setupCatalog(t)
	seed(t, db)
	svc := NewService(cat, nil, "", db, zap.NewNop())

	report := svc.Report(context.Background())

	assert.Contains(t, report, "catalog")
	assert.Contains(t, report, "server")
	structure, ok := report["structure"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "skipped", structure["status"])
	archives, ok := report["archives"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "skipped", archives["status"])
}
