// Package reconcile computes the incremental work between the raw and
// parsed sides of the store: which recordings still need processing, which
// location files still need copying, and which artifacts are already done.
package reconcile

import (
	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/naming"
)

// Options configure a planning pass.
type Options struct {
	// RawPrefix is the listing prefix of raw recordings, trailing slash
	// included.
	RawPrefix string
	// Subject restricts the plan to one subject when non-empty.
	Subject string
	// LocationPassthrough enables the verbatim copy branch for raw names
	// carrying the location suffix. When off those names are ignored.
	LocationPassthrough bool
}

// Plan is the outcome of one reconciliation pass. Slices keep the raw
// listing order, so plans are deterministic for a given pair of listings.
type Plan struct {
	// Process holds recordings that need the full parse pipeline.
	Process []model.RawRef
	// CopyThrough holds location files to copy verbatim.
	CopyThrough []model.RawRef
	// UpToDate counts raw artifacts already represented on the parsed side.
	UpToDate int
	// Duplicates counts raw recordings whose subject+date is already taken
	// by an earlier entry in the same plan.
	Duplicates int
	// Ignored counts listing entries that are not raw artifacts for this
	// pass: pseudo-directories, foreign files, filtered subjects.
	Ignored int
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool { return len(p.Process) == 0 && len(p.CopyThrough) == 0 }

// Total returns the number of artifacts the plan will touch.
func (p Plan) Total() int { return len(p.Process) + len(p.CopyThrough) }

// Build diffs a raw listing against a parsed listing under the given codec.
// A recording counts as done when any parsed artifact with its subject+date
// exists; a recording fans out into an unknown set of type tags, so presence
// cannot be checked more precisely than the key prefix. Location files count
// as done only on an exact key match.
func Build(rawNames, parsedNames []string, codec naming.Codec, opts Options) Plan {
	donePrefix := make(map[model.ArtifactKey]struct{})
	doneLocation := make(map[model.ArtifactKey]struct{})
	for _, name := range parsedNames {
		key, ok := codec.Decode(name)
		if !ok {
			continue
		}
		if key.Tag == model.LocationTag {
			doneLocation[key] = struct{}{}
		} else {
			donePrefix[key.Prefix()] = struct{}{}
		}
	}

	var plan Plan
	planned := make(map[model.ArtifactKey]struct{})
	for _, name := range rawNames {
		ref, ok := naming.ParseRawName(name, opts.RawPrefix)
		if !ok {
			plan.Ignored++
			continue
		}
		if opts.Subject != "" && ref.Subject != opts.Subject {
			plan.Ignored++
			continue
		}

		if ref.Location() {
			if !opts.LocationPassthrough {
				plan.Ignored++
				continue
			}
			if _, done := doneLocation[ref.Key()]; done {
				plan.UpToDate++
				continue
			}
			if _, dup := planned[ref.Key()]; dup {
				plan.Duplicates++
				continue
			}
			planned[ref.Key()] = struct{}{}
			plan.CopyThrough = append(plan.CopyThrough, ref)
			continue
		}

		if _, done := donePrefix[ref.Key()]; done {
			plan.UpToDate++
			continue
		}
		if _, dup := planned[ref.Key()]; dup {
			plan.Duplicates++
			continue
		}
		planned[ref.Key()] = struct{}{}
		plan.Process = append(plan.Process, ref)
	}
	return plan
}
