package gcs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/fairmed-lab/fairmed/pkg/utils/safe"
)

// maxObjectSize bounds how much of an object Read loads into memory
const maxObjectSize = 8 << 20

// client implements Service interface
type client struct {
	storage *storage.Client
}

// New creates a Cloud Storage service. endpoint overrides the API endpoint,
// e.g. for a local emulator; empty uses the production API with default
// credentials.
func New(ctx context.Context, endpoint string) (Service, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("endpoint", endpoint))
	}

	return &client{storage: c}, nil
}

// Read returns the full content of an object
func (c *client) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := c.storage.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "object does not exist",
				goerr.V("bucket", bucket), goerr.V("object", object))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("bucket", bucket), goerr.V("object", object))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(io.LimitReader(r, maxObjectSize+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("bucket", bucket), goerr.V("object", object))
	}
	if len(data) > maxObjectSize {
		return nil, goerr.New("object exceeds size limit",
			goerr.V("bucket", bucket), goerr.V("object", object), goerr.V("limit", maxObjectSize))
	}

	return data, nil
}

func (c *client) Close() error {
	if err := c.storage.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Cloud Storage client")
	}
	return nil
}
