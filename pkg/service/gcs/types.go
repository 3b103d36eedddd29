package gcs

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrObjectNotFound is returned when the bucket or object does not exist
var ErrObjectNotFound = goerr.New("object not found")

// Service reads configuration objects from Cloud Storage
type Service interface {
	// Read returns the full content of an object
	Read(ctx context.Context, bucket, object string) ([]byte, error)
	Close() error
}

// URLScheme is the prefix of Cloud Storage object URLs
const URLScheme = "gs://"

// IsURL reports whether raw points at a Cloud Storage object
func IsURL(raw string) bool {
	return strings.HasPrefix(raw, URLScheme)
}

// ParseURL splits a gs://bucket/path/to/object URL
func ParseURL(raw string) (bucket, object string, err error) {
	if !IsURL(raw) {
		return "", "", goerr.New("not a gs:// URL", goerr.V("url", raw))
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(raw, URLScheme), "/")
	if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", goerr.New("gs:// URL must name a bucket and an object", goerr.V("url", raw))
	}
	return bucket, object, nil
}
