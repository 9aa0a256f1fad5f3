package s3store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type fakePut struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPut(t *testing.T) {
	api := &fakePut{}
	s := newWithAPI(api, Options{Bucket: "clips", Region: "eu-west-3"})

	url, err := s.Put(context.Background(), []byte("mp4"), "video/mp4", "public/videos/a.mp4")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://clips.s3.eu-west-3.amazonaws.com/public/videos/a.mp4" {
		t.Fatalf("unexpected url %q", url)
	}
	if *api.in.Bucket != "clips" || *api.in.Key != "public/videos/a.mp4" || *api.in.ContentType != "video/mp4" {
		t.Fatalf("unexpected input: bucket=%s key=%s ct=%s", *api.in.Bucket, *api.in.Key, *api.in.ContentType)
	}
	if string(api.body) != "mp4" {
		t.Fatalf("unexpected body %q", api.body)
	}
	if s.Region() != "eu-west-3" {
		t.Fatalf("region = %q", s.Region())
	}
}

func TestPut_WrapsStorageError(t *testing.T) {
	cause := errors.New("access denied")
	s := newWithAPI(&fakePut{err: cause}, Options{Bucket: "b", Region: "r"})

	_, err := s.Put(context.Background(), []byte("x"), "image/jpeg", "k.jpg")
	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Key != "k.jpg" || !errors.Is(err, cause) {
		t.Fatalf("unexpected error: %+v", se)
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"aws", Options{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com/x/y.jpg"},
		{"endpoint", Options{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000/"}, "http://localhost:9000/b/x/y.jpg"},
		{"public base", Options{Bucket: "b", Region: "us-east-1", Endpoint: "http://minio:9000", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com/x/y.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newWithAPI(nil, tt.opts).URL("x/y.jpg"); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_RequiresBucketAndRegion(t *testing.T) {
	if _, err := New(context.Background(), Options{Region: "r"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
	if _, err := New(context.Background(), Options{Bucket: "b"}); err == nil {
		t.Fatalf("expected error without region")
	}
}
