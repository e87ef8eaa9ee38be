package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/higujral/zcollabz/pkg/config"
	pkgerrors "github.com/higujral/zcollabz/pkg/errors"
)

const (
	ContentTypePDF = "application/pdf"

	// DefaultRetrievalTTL is how long signed retrieval URLs stay valid.
	DefaultRetrievalTTL = 604800 * time.Second
)

// objectClient is the subset of the GCS client the store needs.
type objectClient interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, data []byte) error
	SignedReadURL(bucket, object string, ttl time.Duration) (string, error)
	CanSign() bool
	Ping(ctx context.Context) error
}

// Store puts immutable documents and hands out retrieval URLs. A deployment
// runs either in public mode (PublicBaseURL set) or signed mode, never both.
type Store struct {
	client     objectClient
	bucket     string
	publicBase string
	defaultTTL time.Duration
}

func NewStore(client objectClient, cfg config.GCSConfig) (*Store, error) {
	if client == nil {
		return nil, errors.New("object storage client is required")
	}
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase == "" && !client.CanSign() {
		return nil, errors.New("signed retrieval urls require service account credentials when no public base url is configured")
	}
	ttl := cfg.DownloadURLExpiry
	if ttl <= 0 {
		ttl = DefaultRetrievalTTL
	}
	return &Store{
		client:     client,
		bucket:     cfg.BucketName,
		publicBase: publicBase,
		defaultTTL: ttl,
	}, nil
}

// Public reports whether retrieval URLs are deterministic public links.
func (s *Store) Public() bool {
	return s.publicBase != ""
}

// Put uploads data under key. Failures are returned to the caller.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}
	if len(data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "document is empty")
	}
	if err := s.client.UploadObject(ctx, s.bucket, key, contentType, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "upload document")
	}
	return nil
}

// RetrievalURL returns publicBase/key in public mode, otherwise a signed GET
// URL valid for ttl. A non-positive ttl uses the configured default.
func (s *Store) RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "storage key is required")
	}
	if s.Public() {
		return s.publicBase + "/" + key, nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	u, err := s.client.SignedReadURL(s.bucket, key, ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "sign retrieval url")
	}
	return u, nil
}

// Ping checks bucket reachability for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
