// Package blob abstracts the artifact store behind a small interface with
// Google Cloud Storage, FTP, and local-directory backends.
package blob

import "context"

// Store is the artifact store: a flat namespace of named byte blobs.
// Listings may include pseudo-directory placeholder entries (names ending in
// a slash) depending on the backend; callers filter what they need.
type Store interface {
	// List returns the object names under the prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Download returns the content of one object.
	Download(ctx context.Context, name string) ([]byte, error)
	// Upload writes an object, replacing any previous content.
	Upload(ctx context.Context, name string, content []byte, contentType string) error
	// Close releases backend resources.
	Close() error
}

// FilterNames drops pseudo-directory entries from a listing, keeping order.
func FilterNames(names []string) []string {
	out := names[:0:0]
	for _, name := range names {
		if len(name) > 0 && name[len(name)-1] != '/' {
			out = append(out, name)
		}
	}
	return out
}
