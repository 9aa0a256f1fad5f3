package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type putAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket string
	Region string
	// Endpoint targets an S3-compatible service (MinIO, LocalStack). Path-style
	// addressing is used when it is set.
	Endpoint string
	// PublicBaseURL overrides the URL prefix returned by Put.
	PublicBaseURL string
}

type Store struct {
	api  putAPI
	opts Options
}

// New loads the default AWS credential chain for opts.Region.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	if opts.Region == "" {
		return nil, errors.New("s3: region is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{api: client, opts: opts}, nil
}

func newWithAPI(api putAPI, opts Options) *Store {
	return &Store{api: api, opts: opts}
}

// Put uploads body under key and returns its public URL.
func (s *Store) Put(ctx context.Context, body []byte, contentType, key string) (string, error) {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", &types.StorageError{Key: key, Err: err}
	}
	return s.URL(key), nil
}

func (s *Store) Region() string { return s.opts.Region }

// URL is the virtual-hosted address of key, or PublicBaseURL/key when set.
func (s *Store) URL(key string) string {
	if s.opts.PublicBaseURL != "" {
		return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/" + key
	}
	if s.opts.Endpoint != "" {
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + s.opts.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}
