// Package naming maps artifact keys to blob object names and back. Each
// deployment picks one naming convention; encode and decode are inverses
// within it, which is what makes reconciliation idempotent.
package naming

import (
	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/serialize"
)

// Convention names accepted in config.
const (
	ConventionFlat         = "flat"
	ConventionTagDate      = "tag-date"
	ConventionTagComposite = "tag-composite"
)

// Codec maps parsed-artifact keys to object names under one naming
// convention. Decode returns false for any name the convention did not
// produce, including pseudo-directory entries.
type Codec interface {
	// Name returns the convention name.
	Name() string
	// PerTag reports whether the convention emits one object per type tag.
	// Flat conventions emit a single un-expanded object per recording.
	PerTag() bool
	// Encode returns the object name for a key. Keys carrying the reserved
	// location tag encode to the convention's pass-through shape.
	Encode(key model.ArtifactKey) string
	// Decode parses an object name back into its key.
	Decode(name string) (model.ArtifactKey, bool)
}

// New returns the codec for a convention name. The prefix is prepended
// verbatim to every encoded name, so it normally ends with a slash. The
// format decides the extension of data artifacts; location pass-through
// artifacts are always raw .csv.
func New(convention, prefix string, format serialize.Format) (Codec, error) {
	switch convention {
	case ConventionFlat:
		return &flatCodec{prefix: prefix, ext: format.Ext()}, nil
	case ConventionTagDate:
		return &tagDateCodec{prefix: prefix, ext: format.Ext()}, nil
	case ConventionTagComposite:
		return &tagCompositeCodec{prefix: prefix, ext: format.Ext()}, nil
	default:
		return nil, eris.Errorf("naming: unknown convention %q (want %s, %s, or %s)",
			convention, ConventionFlat, ConventionTagDate, ConventionTagComposite)
	}
}

// validDate reports whether s is an 8-digit YYYYMMDD day stamp.
func validDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
