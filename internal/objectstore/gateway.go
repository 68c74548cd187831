package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"go.uber.org/zap"
)

const (
	minPresignTTL = time.Minute
	maxPresignTTL = 15 * time.Minute
)

// s3API is the slice of the S3 client the gateway needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Gateway builds deterministic storage keys and manages artifact lifecycle
// against S3. Objects are served through the public resources domain
// (CloudFront), so Upload returns an HTTPS URL rather than a bare key.
type Gateway struct {
	api        s3API
	presigner  s3Presigner
	bucket     string
	region     string
	publicBase string
	logger     *zap.Logger
	now        func() time.Time
}

func NewGateway(awsCfg aws.Config, bucket, region, resourcesDomain string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		bucket:     strings.TrimSpace(bucket),
		region:     strings.TrimSpace(region),
		publicBase: strings.TrimRight(strings.TrimSpace(resourcesDomain), "/"),
		logger:     logger,
		now:        time.Now,
	}

	if g.bucket == "" || g.region == "" {
		// Configuration error, surfaced on first use as ErrStorageUnavailable.
		logger.Warn("object storage not configured, uploads will fail",
			zap.String("bucket", g.bucket),
			zap.String("region", g.region),
		)
		return g
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.Region = g.region
	})
	g.api = client
	g.presigner = s3.NewPresignClient(client)
	return g
}

func (g *Gateway) configured() error {
	if g == nil || g.api == nil || g.bucket == "" {
		return fmt.Errorf("%w: missing bucket/region configuration", domain.ErrStorageUnavailable)
	}
	return nil
}

// Upload puts an object and returns its public reference. Keyed uploads are
// idempotent: retrying the same key overwrites the same object.
func (g *Gateway) Upload(ctx context.Context, body []byte, contentType, key string) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	if g.publicBase == "" {
		return "", fmt.Errorf("%w: resources domain is not configured", domain.ErrStorageUnavailable)
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: storage key is required", domain.ErrValidation)
	}

	_, err := g.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	return g.publicBase + "/" + key, nil
}

// DeleteByRef removes the object behind a reference, best-effort. Called from
// cleanup paths after the primary operation already succeeded; failures are
// logged, never returned.
func (g *Gateway) DeleteByRef(ctx context.Context, ref string) {
	if err := g.configured(); err != nil {
		g.logger.Warn("skipping object delete, storage not configured", zap.String("ref", ref))
		return
	}

	key := KeyFromRef(ref, g.publicBase, g.region)
	if key == "" {
		g.logger.Warn("could not infer storage key from ref, skipping delete", zap.String("ref", ref))
		return
	}

	_, err := g.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		g.logger.Error("failed to delete object",
			zap.String("bucket", g.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// DeleteByPrefix removes every object under a key prefix, paginating until
// the listing is exhausted. Best-effort, used when replacing a multi-object
// artifact set.
func (g *Gateway) DeleteByPrefix(ctx context.Context, prefix string) {
	if err := g.configured(); err != nil {
		g.logger.Warn("skipping prefix delete, storage not configured", zap.String("prefix", prefix))
		return
	}
	if strings.TrimSpace(prefix) == "" {
		return
	}

	var continuationToken *string
	for {
		listing, err := g.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(g.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			g.logger.Error("failed to list objects for prefix delete",
				zap.String("prefix", prefix),
				zap.Error(err),
			)
			return
		}

		if len(listing.Contents) > 0 {
			identifiers := make([]s3types.ObjectIdentifier, 0, len(listing.Contents))
			for _, obj := range listing.Contents {
				identifiers = append(identifiers, s3types.ObjectIdentifier{Key: obj.Key})
			}

			_, err = g.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(g.bucket),
				Delete: &s3types.Delete{
					Objects: identifiers,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				g.logger.Error("failed to delete objects under prefix",
					zap.String("prefix", prefix),
					zap.Error(err),
				)
				return
			}
		}

		if listing.IsTruncated == nil || !*listing.IsTruncated {
			return
		}
		continuationToken = listing.NextContinuationToken
	}
}

// Presign produces a time-limited read URL for a private object. The TTL is
// clamped to [1m, 15m] so a leaked link goes stale quickly.
func (g *Gateway) Presign(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	if g.presigner == nil {
		return "", fmt.Errorf("%w: presigner is not configured", domain.ErrStorageUnavailable)
	}

	key := KeyFromRef(ref, g.publicBase, g.region)
	if key == "" {
		return "", fmt.Errorf("%w: cannot resolve ref %q to a storage key", domain.ErrValidation, ref)
	}

	if ttl < minPresignTTL {
		ttl = minPresignTTL
	}
	if ttl > maxPresignTTL {
		ttl = maxPresignTTL
	}

	signed, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %q: %w", key, err)
	}

	return signed.URL, nil
}

// Now exposes the gateway clock for key construction at call sites.
func (g *Gateway) Now() time.Time {
	if g == nil || g.now == nil {
		return time.Now()
	}
	return g.now()
}
