package presigned

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// urlSigner is the slice of the MinIO client used here; narrowed for tests.
type urlSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Service hands out time-limited direct download URLs for stored objects.
type Service struct {
	signer urlSigner
	bucket string
	ttl    time.Duration
}

// NewService constructs a presigned URL service.
func NewService(signer urlSigner, bucket string, ttl time.Duration) *Service {
	return &Service{signer: signer, bucket: bucket, ttl: ttl}
}

// TTL returns the default link lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GetURL generates a presigned GET URL for the object. Access checks are the
// caller's job; this layer only signs.
func (s *Service) GetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > s.ttl {
		ttl = s.ttl
	}

	reqParams := make(url.Values)
	u, err := s.signer.PresignedGetObject(ctx, s.bucket, objectName, ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign object url: %w", err)
	}
	return u.String(), nil
}
