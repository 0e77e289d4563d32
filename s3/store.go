// Package s3 serves media objects from an S3 bucket or any S3-compatible
// service (MinIO, R2) through aws-sdk-go-v2.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/invoicekit/mediagate"
)

// Config options for the S3 backend.
type Config struct {
	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	// Endpoint is set for S3-compatible services.
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// Client is the subset of *s3.Client used by Store.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store reads objects from a single bucket.
type Store struct {
	client Client
	bucket string
}

// New builds an S3 client from cfg. Static credentials are used when both
// keys are set, the default AWS credential chain otherwise.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient creates a Store on an existing client.
func NewWithClient(client Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Head returns the object's metadata. Returns mediagate.ErrNotFound if the
// key does not exist.
func (s *Store) Head(ctx context.Context, key string) (mediagate.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mediagate.ObjectInfo{}, mapError("head object", err)
	}

	return mediagate.ObjectInfo{
		Key:  key,
		Size: aws.ToInt64(out.ContentLength),
		ETag: unquote(aws.ToString(out.ETag)),
		HTTPMetadata: mediagate.HTTPMetadata{
			ContentType:        aws.ToString(out.ContentType),
			ContentLanguage:    aws.ToString(out.ContentLanguage),
			ContentEncoding:    aws.ToString(out.ContentEncoding),
			ContentDisposition: aws.ToString(out.ContentDisposition),
			CacheControl:       aws.ToString(out.CacheControl),
		},
		CustomMetadata: out.Metadata,
		LastModified:   aws.ToTime(out.LastModified),
	}, nil
}

// Get fetches the object, forwarding opts.Range to S3. Object.Range is set
// from the Content-Range S3 answers with; S3 ignores ranges it cannot parse,
// in which case the whole object is returned.
func (s *Store) Get(ctx context.Context, key string, opts mediagate.GetOptions) (*mediagate.Object, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if opts.Range != "" {
		in.Range = aws.String(opts.Range)
	}

	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		if isAPIError(err, "InvalidRange") {
			return nil, s.rangeError(ctx, key)
		}
		return nil, mapError("get object", err)
	}

	obj := &mediagate.Object{
		ObjectInfo: mediagate.ObjectInfo{
			Key:  key,
			Size: aws.ToInt64(out.ContentLength),
			ETag: unquote(aws.ToString(out.ETag)),
			HTTPMetadata: mediagate.HTTPMetadata{
				ContentType:        aws.ToString(out.ContentType),
				ContentLanguage:    aws.ToString(out.ContentLanguage),
				ContentEncoding:    aws.ToString(out.ContentEncoding),
				ContentDisposition: aws.ToString(out.ContentDisposition),
				CacheControl:       aws.ToString(out.CacheControl),
			},
			CustomMetadata: out.Metadata,
			LastModified:   aws.ToTime(out.LastModified),
		},
		Body: out.Body,
	}

	if cr := aws.ToString(out.ContentRange); cr != "" {
		r, size, err := mediagate.ParseContentRange(cr)
		if err != nil || size < 0 {
			_ = out.Body.Close()
			return nil, fmt.Errorf("get object: unusable content range %q", cr)
		}
		obj.Size = size
		obj.Range = &r
	}

	return obj, nil
}

// rangeError looks up the object size so the 416 response can carry it.
func (s *Store) rangeError(ctx context.Context, key string) error {
	info, err := s.Head(ctx, key)
	if err != nil {
		return &mediagate.RangeError{Size: -1}
	}
	return &mediagate.RangeError{Size: info.Size}
}

func mapError(op string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) ||
		isAPIError(err, "NoSuchKey") || isAPIError(err, "NotFound") {
		return mediagate.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isAPIError(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}

func unquote(etag string) string {
	return strings.Trim(etag, `"`)
}
