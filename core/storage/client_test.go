package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"rental-directory/core/storage"
	"rental-directory/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "eu-central-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTP", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "b").Return(true, nil)

		require.NoError(t, storage.EnsureBucket(context.Background(), m, "b", ""))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "b").Return(false, nil)
		m.On("MakeBucket", mock.Anything, "b", minio.MakeBucketOptions{Region: "eu"}).Return(nil)

		require.NoError(t, storage.EnsureBucket(context.Background(), m, "b", "eu"))
		m.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "b").Return(false, errors.New("unreachable"))

		err := storage.EnsureBucket(context.Background(), m, "b", "")
		assert.ErrorContains(t, err, "unreachable")
	})
}

func TestReadObject(t *testing.T) {
	m := new(mocks.Client)
	m.On("GetObject", mock.Anything, "b", "imports/a.csv", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("K1234,Acme"))), nil)

	data, err := storage.ReadObject(context.Background(), m, "b", "imports/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "K1234,Acme", string(data))

	m2 := new(mocks.Client)
	m2.On("GetObject", mock.Anything, "b", "missing", mock.Anything).Return(nil, errors.New("NoSuchKey"))
	_, err = storage.ReadObject(context.Background(), m2, "b", "missing")
	assert.ErrorContains(t, err, "NoSuchKey")
}
