package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/metrics"
)

// S3Client is the subset of the S3 API the blob store uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures NewS3Client. Static credentials are used when both keys are set;
// otherwise the default AWS credential chain applies.
type S3Options struct {
	Region          string
	Endpoint        string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client from the default AWS configuration plus opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// S3Blobs stores snapshots as objects:
//
//	<prefix>/<run id>/graph.json.sz
//	<prefix>/<run id>/manifest.json
type S3Blobs struct {
	client      S3Client
	bucket      string
	prefix      string
	compression string
	logger      logging.Logger
	metrics     *metrics.Registry
	now         func() time.Time
}

// NewS3Blobs creates a blob store over client.
func NewS3Blobs(client S3Client, bucket, prefix string, opts Options) *S3Blobs {
	return &S3Blobs{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		compression: opts.Compression,
		logger:      opts.logger("store.s3"),
		metrics:     opts.Metrics,
		now:         time.Now,
	}
}

// Name identifies the backend in logs and metrics.
func (s *S3Blobs) Name() string { return "s3" }

func (s *S3Blobs) key(runID uuid.UUID, name string) string {
	return path.Join(s.prefix, runID.String(), name)
}

// Put uploads the snapshot of runID: data object first, manifest last.
func (s *S3Blobs) Put(ctx context.Context, runID uuid.UUID, c *graph.Collection) (err error) {
	var written int64
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordStoreWrite(s.Name(), written, err)
		}
	}()

	data, m, err := Encode(runID, c, s.compression, s.now())
	if err != nil {
		return err
	}
	head, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.put(ctx, s.key(runID, m.File), data, "application/octet-stream"); err != nil {
		return err
	}
	if err := s.put(ctx, s.key(runID, manifestName), head, "application/json"); err != nil {
		return err
	}
	written = m.Bytes

	s.logger.Info("snapshot uploaded",
		logging.RunID(runID), logging.String("bucket", s.bucket),
		logging.Path(s.key(runID, "")), logging.Int64("bytes", m.Bytes))
	return nil
}

func (s *S3Blobs) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Get downloads and verifies the snapshot of runID.
func (s *S3Blobs) Get(ctx context.Context, runID uuid.UUID) (*graph.Collection, Manifest, error) {
	head, err := s.get(ctx, s.key(runID, manifestName))
	if err != nil {
		return nil, Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(head, &m); err != nil {
		return nil, Manifest{}, fmt.Errorf("%w: manifest of run %s: %v", ErrCorrupt, runID, err)
	}
	data, err := s.get(ctx, s.key(runID, m.File))
	if err != nil {
		return nil, Manifest{}, err
	}
	c, err := Decode(data, m)
	if err != nil {
		return nil, Manifest{}, err
	}
	return c, m, nil
}

func (s *S3Blobs) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
