package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putErr error

	getRC  io.ReadCloser
	getErr error

	removeErr error

	statErr error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, _ string, _ io.Reader, _ int64, _ minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	return minioLib.UploadInfo{}, f.putErr
}
func (f *fakeMinio) GetObject(_ context.Context, _ string, _ string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	return f.getRC, f.getErr
}
func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}
func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return minioLib.ObjectInfo{}, f.statErr
}

func TestNewClientWithAPI_BucketExists(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	c, err := NewClientWithAPI(ctx, api, "exports")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, api.madeBucket)
}

func TestNewClientWithAPI_CreatesBucket(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: false}
	_, err := NewClientWithAPI(ctx, api, "exports")
	require.NoError(t, err)
	assert.True(t, api.madeBucket)
}

func TestNewClientWithAPI_BucketCheckError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExistsErr: errors.New("boom")}
	_, err := NewClientWithAPI(ctx, api, "exports")
	require.Error(t, err)
}

func TestClient_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{
		bucketExists: true,
		getRC:        io.NopCloser(bytes.NewBufferString(`{"memories":[]}`)),
	}
	c, err := NewClientWithAPI(ctx, api, "exports")
	require.NoError(t, err)

	require.NoError(t, c.Upload(ctx, "p/export.json", bytes.NewBufferString(`{"memories":[]}`)))

	rc, err := c.Download(ctx, "p/export.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"memories":[]}`, string(data))

	require.NoError(t, c.Delete(ctx, "p/export.json"))
}

func TestClient_UploadError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true, putErr: errors.New("denied")}
	c, err := NewClientWithAPI(ctx, api, "exports")
	require.NoError(t, err)

	err = c.Upload(ctx, "k", bytes.NewBufferString("x"))
	assert.Error(t, err)
}
