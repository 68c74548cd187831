package objectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"go.uber.org/zap"
)

type fakeS3 struct {
	putObjectFn     func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	deleteObjectFn  func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	deleteObjectsFn func(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	listObjectsFn   func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putObjectFn == nil {
		return &s3.PutObjectOutput{}, nil
	}
	return f.putObjectFn(ctx, params, optFns...)
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteObjectFn == nil {
		return &s3.DeleteObjectOutput{}, nil
	}
	return f.deleteObjectFn(ctx, params, optFns...)
}

func (f *fakeS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	if f.deleteObjectsFn == nil {
		return &s3.DeleteObjectsOutput{}, nil
	}
	return f.deleteObjectsFn(ctx, params, optFns...)
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listObjectsFn == nil {
		return &s3.ListObjectsV2Output{}, nil
	}
	return f.listObjectsFn(ctx, params, optFns...)
}

func newTestGateway(api s3API) *Gateway {
	return &Gateway{
		api:        api,
		bucket:     "academy-resources",
		region:     testRegion,
		publicBase: testPublicBase,
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func TestGatewayUpload(t *testing.T) {
	t.Parallel()

	var gotKey, gotContentType string
	api := &fakeS3{
		putObjectFn: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			gotKey = aws.ToString(params.Key)
			gotContentType = aws.ToString(params.ContentType)
			if aws.ToString(params.Bucket) != "academy-resources" {
				t.Fatalf("bucket = %s, want academy-resources", aws.ToString(params.Bucket))
			}
			return &s3.PutObjectOutput{}, nil
		},
	}
	g := newTestGateway(api)

	key := BatchCSVKey("roster.csv", 3, g.Now())
	url, err := g.Upload(context.Background(), []byte("a,b\n1,2\n"), "text/csv", key)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := testPublicBase + "/" + key
	if url != want {
		t.Fatalf("Upload() url = %q, want %q", url, want)
	}
	if gotKey != key {
		t.Fatalf("put key = %q, want %q", gotKey, key)
	}
	if gotContentType != "text/csv" {
		t.Fatalf("content type = %q, want text/csv", gotContentType)
	}
}

func TestGatewayUploadUnconfigured(t *testing.T) {
	t.Parallel()

	g := &Gateway{logger: zap.NewNop(), now: time.Now}

	_, err := g.Upload(context.Background(), []byte("x"), "text/csv", "some/key")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Upload() error = %v, want ErrStorageUnavailable", err)
	}
}

func TestGatewayDeleteByRefBestEffort(t *testing.T) {
	t.Parallel()

	deletes := 0
	api := &fakeS3{
		deleteObjectFn: func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			deletes++
			if deletes == 1 {
				return nil, errors.New("access denied")
			}
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	g := newTestGateway(api)

	ref := testPublicBase + "/generacion-diplomas/signatures/2026-03-15/firma.png"

	// First call fails inside S3, second succeeds; neither surfaces an error.
	g.DeleteByRef(context.Background(), ref)
	g.DeleteByRef(context.Background(), ref)
	if deletes != 2 {
		t.Fatalf("deletes = %d, want 2", deletes)
	}

	// Unresolvable ref is skipped without touching S3.
	g.DeleteByRef(context.Background(), "https://example.com/elsewhere.png")
	if deletes != 2 {
		t.Fatalf("deletes = %d after unresolvable ref, want 2", deletes)
	}
}

func TestGatewayDeleteByPrefixPaginates(t *testing.T) {
	t.Parallel()

	listCalls := 0
	var deletedKeys []string
	api := &fakeS3{
		listObjectsFn: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			listCalls++
			switch listCalls {
			case 1:
				if params.ContinuationToken != nil {
					t.Fatal("first list call should not carry a continuation token")
				}
				return &s3.ListObjectsV2Output{
					Contents: []s3types.Object{
						{Key: aws.String("p/a.pdf")},
						{Key: aws.String("p/b.pdf")},
					},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("tok-1"),
				}, nil
			case 2:
				if aws.ToString(params.ContinuationToken) != "tok-1" {
					t.Fatalf("continuation token = %q, want tok-1", aws.ToString(params.ContinuationToken))
				}
				return &s3.ListObjectsV2Output{
					Contents: []s3types.Object{
						{Key: aws.String("p/c.pdf")},
					},
					IsTruncated: aws.Bool(false),
				}, nil
			default:
				t.Fatal("unexpected extra list call")
				return nil, nil
			}
		},
		deleteObjectsFn: func(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			for _, obj := range params.Delete.Objects {
				deletedKeys = append(deletedKeys, aws.ToString(obj.Key))
			}
			return &s3.DeleteObjectsOutput{}, nil
		},
	}
	g := newTestGateway(api)

	g.DeleteByPrefix(context.Background(), "p")

	if listCalls != 2 {
		t.Fatalf("list calls = %d, want 2", listCalls)
	}
	if len(deletedKeys) != 3 {
		t.Fatalf("deleted keys = %v, want 3 entries", deletedKeys)
	}
}

func TestGatewayDeleteByPrefixEmptyListing(t *testing.T) {
	t.Parallel()

	deleteCalled := false
	api := &fakeS3{
		listObjectsFn: func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
		},
		deleteObjectsFn: func(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
			deleteCalled = true
			return &s3.DeleteObjectsOutput{}, nil
		},
	}
	g := newTestGateway(api)

	g.DeleteByPrefix(context.Background(), "empty/prefix")
	if deleteCalled {
		t.Fatal("DeleteObjects should not be called for an empty listing")
	}
}

type fakePresigner struct {
	presignFn func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return f.presignFn(ctx, params, optFns...)
}

func TestGatewayPresignClampsTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{name: "below minimum", ttl: 0, want: time.Minute},
		{name: "within bounds", ttl: 10 * time.Minute, want: 10 * time.Minute},
		{name: "above maximum", ttl: time.Hour, want: 15 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotExpires time.Duration
			g := newTestGateway(&fakeS3{})
			g.presigner = &fakePresigner{
				presignFn: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
					if aws.ToString(params.Key) != "generacion-diplomas/empty-templates/2026-03-15/12-00-00/plantilla.pdf" {
						t.Fatalf("presign key = %q", aws.ToString(params.Key))
					}
					opts := &s3.PresignOptions{}
					for _, fn := range optFns {
						fn(opts)
					}
					gotExpires = opts.Expires
					return &v4.PresignedHTTPRequest{URL: "https://academy-resources.s3.amazonaws.com/signed"}, nil
				},
			}

			ref := testPublicBase + "/generacion-diplomas/empty-templates/2026-03-15/12-00-00/plantilla.pdf"
			url, err := g.Presign(context.Background(), ref, tt.ttl)
			if err != nil {
				t.Fatalf("Presign() error = %v", err)
			}
			if url != "https://academy-resources.s3.amazonaws.com/signed" {
				t.Fatalf("Presign() url = %q", url)
			}
			if gotExpires != tt.want {
				t.Fatalf("presign expires = %v, want %v", gotExpires, tt.want)
			}
		})
	}
}

func TestGatewayPresignUnresolvableRef(t *testing.T) {
	t.Parallel()

	g := newTestGateway(&fakeS3{})
	g.presigner = &fakePresigner{
		presignFn: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			t.Fatal("presigner should not be called for an unresolvable ref")
			return nil, nil
		},
	}

	_, err := g.Presign(context.Background(), "https://example.com/elsewhere.pdf", time.Minute)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Presign() error = %v, want ErrValidation", err)
	}
}
