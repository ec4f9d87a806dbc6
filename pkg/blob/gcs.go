package blob

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSOptions configures the Google Cloud Storage backend. Firebase Storage
// buckets are GCS buckets, so this backend covers both.
type GCSOptions struct {
	Bucket string
	// CredentialsJSON is a service-account key passed verbatim, the way the
	// deployment environment injects it. CredentialsFile points at the same
	// thing on disk. With neither set, application default credentials apply.
	CredentialsJSON   string
	CredentialsFile   string
	RequestsPerSecond float64
}

type gcsStore struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	limiter *rate.Limiter
}

// NewGCS creates a GCS-backed store. Credential and bucket problems surface
// here, before any listing or transfer is attempted.
func NewGCS(ctx context.Context, opts GCSOptions) (Store, error) {
	if opts.Bucket == "" {
		return nil, eris.New("blob: gcs bucket is required")
	}

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "blob: create gcs client")
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	return &gcsStore{
		client:  client,
		bucket:  client.Bucket(opts.Bucket),
		limiter: rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
	}, nil
}

func (s *gcsStore) wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

func (s *gcsStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "blob: rate limit")
	}

	var names []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "blob: list %q", prefix)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (s *gcsStore) Download(ctx context.Context, name string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "blob: rate limit")
	}

	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: open %q", name)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %q", name)
	}
	return content, nil
}

func (s *gcsStore) Upload(ctx context.Context, name string, content []byte, contentType string) error {
	if err := s.wait(ctx); err != nil {
		return eris.Wrap(err, "blob: rate limit")
	}

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(content); err != nil {
		w.Close()
		return eris.Wrapf(err, "blob: write %q", name)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "blob: finalize %q", name)
	}
	return nil
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}
