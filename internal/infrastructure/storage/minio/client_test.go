package minio

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/molstandardizer/internal/config"
	pkgerrors "github.com/turtacn/molstandardizer/pkg/errors"
)

type MockObjectAPI struct {
	mock.Mock
	uploaded string
}

func (m *MockObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucket, opts)
	return args.Error(0)
}

func (m *MockObjectAPI) StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucket, object, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, object, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectAPI) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(r)
	m.uploaded = string(data)
	args := m.Called(ctx, bucket, object, size, opts.ContentType)
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(data))}, args.Error(0)
}

type StoreTestSuite struct {
	suite.Suite
	api   *MockObjectAPI
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.api = new(MockObjectAPI)
	s.store = NewStoreWithAPI(s.api, "structures", nil)
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *StoreTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", s.ctx, "structures").Return(true, nil)
	s.NoError(s.store.EnsureBucket(s.ctx, "structures"))
}

func (s *StoreTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", s.ctx, "structures").Return(false, nil)
	s.api.On("MakeBucket", s.ctx, "structures", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	s.NoError(s.store.EnsureBucket(s.ctx, "structures"))
}

func (s *StoreTestSuite) TestEnsureBucket_Unreachable() {
	s.api.On("BucketExists", s.ctx, "structures").Return(false, errors.New("dial tcp: refused"))
	err := s.store.EnsureBucket(s.ctx, "structures")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func (s *StoreTestSuite) TestOpen() {
	s.api.On("StatObject", s.ctx, "in", "batch/a.sdf", minio.StatObjectOptions{}).Return(minio.ObjectInfo{Size: 4}, nil)
	s.api.On("GetObject", s.ctx, "in", "batch/a.sdf", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("$$$$")), nil)

	rc, err := s.store.Open(s.ctx, "s3://in/batch/a.sdf")
	s.Require().NoError(err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	s.NoError(err)
	s.Equal("$$$$", string(data))
}

func (s *StoreTestSuite) TestOpen_DefaultBucket() {
	s.api.On("StatObject", s.ctx, "structures", "a.smi", minio.StatObjectOptions{}).Return(minio.ObjectInfo{}, nil)
	s.api.On("GetObject", s.ctx, "structures", "a.smi", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("CCO")), nil)

	rc, err := s.store.Open(s.ctx, "s3:///a.smi")
	s.Require().NoError(err)
	s.NoError(rc.Close())
}

func (s *StoreTestSuite) TestOpen_NotFound() {
	s.api.On("StatObject", s.ctx, "in", "missing.sdf", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."})

	_, err := s.store.Open(s.ctx, "s3://in/missing.sdf")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func (s *StoreTestSuite) TestOpen_StatFailure() {
	s.api.On("StatObject", s.ctx, "in", "a.sdf", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, errors.New("timeout"))

	_, err := s.store.Open(s.ctx, "s3://in/a.sdf")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *StoreTestSuite) TestCreate() {
	s.api.On("PutObject", s.ctx, "out", "std/a.sdf", int64(-1), "chemical/x-mdl-sdfile").Return(nil)

	w, err := s.store.Create(s.ctx, "s3://out/std/a.sdf")
	s.Require().NoError(err)
	_, err = io.WriteString(w, "record one\n")
	s.Require().NoError(err)
	_, err = io.WriteString(w, "$$$$\n")
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
	s.Equal("record one\n$$$$\n", s.api.uploaded)
}

func (s *StoreTestSuite) TestCreate_UploadFailure() {
	s.api.On("PutObject", s.ctx, "out", "a.smi", int64(-1), "chemical/x-daylight-smiles").Return(errors.New("access denied"))

	w, err := s.store.Create(s.ctx, "s3://out/a.smi")
	s.Require().NoError(err)
	_, _ = io.WriteString(w, "CCO\n")
	err = w.Close()
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri, bucket, key string
		wantErr          bool
	}{
		{uri: "s3://b/k.sdf", bucket: "b", key: "k.sdf"},
		{uri: "s3://b/dir/k.sdf", bucket: "b", key: "dir/k.sdf"},
		{uri: "s3:///k.sdf", bucket: "def", key: "k.sdf"},
		{uri: "s3://b", wantErr: true},
		{uri: "s3://b/", wantErr: true},
		{uri: "s3://b/dir/", wantErr: true},
		{uri: "/tmp/k.sdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseURI(tt.uri, "def")
			if tt.wantErr {
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestIsObjectURI(t *testing.T) {
	assert.True(t, IsObjectURI("s3://b/k"))
	assert.False(t, IsObjectURI("in.sdf"))
	assert.False(t, IsObjectURI("-"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "chemical/x-mdl-sdfile", ContentTypeFor("a/b.SDF"))
	assert.Equal(t, "chemical/x-daylight-smiles", ContentTypeFor("a.smi"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("a.bin"))
}

func TestNewStore_RequiresEndpoint(t *testing.T) {
	_, err := NewStore(config.MinIOConfig{}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
}
