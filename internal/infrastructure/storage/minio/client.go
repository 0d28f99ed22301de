// Package minio reads and writes structure files held in S3-compatible
// object storage.  Objects are addressed as s3://bucket/key.
package minio

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

// URIScheme prefixes object locations.
const URIScheme = "s3://"

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidURI     = errors.New(errors.ErrCodeValidation, "invalid object URI")
)

// ObjectAPI is the subset of the MinIO client the store needs.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// clientAdapter narrows *minio.Client to ObjectAPI.
type clientAdapter struct {
	*minio.Client
}

func (a clientAdapter) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.Client.GetObject(ctx, bucket, object, opts)
}

// Store opens and creates objects.
type Store struct {
	api           ObjectAPI
	defaultBucket string
	region        string
	partSize      uint64
	logger        logging.Logger
}

// NewStore connects to the endpoint in cfg.  When cfg.Bucket is set it must
// be reachable; it is created if missing.
func NewStore(cfg config.MinIOConfig, log logging.Logger) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.InvalidParam("minio endpoint is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	s := NewStoreWithAPI(clientAdapter{client}, cfg.Bucket, log)
	s.region = cfg.Region
	if cfg.Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.EnsureBucket(ctx, cfg.Bucket); err != nil {
			return nil, err
		}
	}
	s.logger.Info("minio store ready", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return s, nil
}

// NewStoreWithAPI builds a store over an existing client.
func NewStoreWithAPI(api ObjectAPI, defaultBucket string, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{
		api:           api,
		defaultBucket: defaultBucket,
		region:        "us-east-1",
		partSize:      16 * 1024 * 1024,
		logger:        log,
	}
}

// EnsureBucket creates bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to reach minio")
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "creating bucket "+bucket)
	}
	s.logger.Info("bucket created", logging.String("bucket", bucket))
	return nil
}

// IsObjectURI reports whether location names an object rather than a file.
func IsObjectURI(location string) bool {
	return strings.HasPrefix(location, URIScheme)
}

// ParseURI splits s3://bucket/key.  An empty bucket ("s3:///key") selects
// defaultBucket.
func ParseURI(uri, defaultBucket string) (bucket, key string, err error) {
	if !IsObjectURI(uri) {
		return "", "", ErrInvalidURI.WithDetail(uri)
	}
	rest := strings.TrimPrefix(uri, URIScheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", ErrInvalidURI.WithDetail(uri)
	}
	return bucket, key, nil
}

// Open returns a reader over the object at uri.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(uri, s.defaultBucket)
	if err != nil {
		return nil, err
	}
	if _, err := s.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound.WithDetail(uri)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat "+uri)
	}
	obj, err := s.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "get "+uri)
	}
	return obj, nil
}

// Create returns a writer that streams into the object at uri.  The upload
// completes when Close returns nil.
func (s *Store) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	bucket, key, err := ParseURI(uri, s.defaultBucket)
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	w := &objectWriter{pw: pw, done: make(chan error, 1)}
	opts := minio.PutObjectOptions{
		ContentType: ContentTypeFor(key),
		PartSize:    s.partSize,
	}
	go func() {
		_, err := s.api.PutObject(ctx, bucket, key, pr, -1, opts)
		_ = pr.CloseWithError(err)
		if err != nil {
			err = errors.Wrap(err, errors.ErrCodeStorageError, "put "+uri)
		}
		w.done <- err
	}()
	return w, nil
}

type objectWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *objectWriter) Close() error {
	_ = w.pw.Close()
	return <-w.done
}

// ContentTypeFor returns the MIME type recorded for a structure file.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".sdf", ".sd", ".mol":
		return "chemical/x-mdl-sdfile"
	case ".smi", ".smiles":
		return "chemical/x-daylight-smiles"
	case ".json", ".jsonl":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
