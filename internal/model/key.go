package model

// LocationTag is the reserved type tag for pass-through location artifacts.
// Raw recordings carrying a "-location" suffix are copied verbatim under this
// tag and never fed through the payload parser.
const LocationTag = "location"

// ArtifactKey identifies one parsed artifact in the output key space.
// Tag is empty for naming conventions whose keys carry no tag component.
type ArtifactKey struct {
	Subject string `json:"subject"`
	Date    string `json:"date"` // YYYYMMDD
	Tag     string `json:"tag,omitempty"`
}

// Prefix returns the key reduced to its subject+date component, the unit of
// reconciliation for raw artifacts (a raw recording fans out into an unknown
// set of tags, so presence is checked at the prefix level).
func (k ArtifactKey) Prefix() ArtifactKey {
	return ArtifactKey{Subject: k.Subject, Date: k.Date}
}

// RawRef is a raw artifact name decoded into its parts.
type RawRef struct {
	Name    string `json:"name"` // full object name as listed
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Suffix  string `json:"suffix,omitempty"` // trailing qualifier, e.g. "location"
}

// Location reports whether the raw artifact is a pass-through location file.
func (r RawRef) Location() bool { return r.Suffix == LocationTag }

// Key returns the artifact key the raw recording reconciles against.
// Location files key against the reserved location tag; data files key
// against the bare subject+date prefix.
func (r RawRef) Key() ArtifactKey {
	k := ArtifactKey{Subject: r.Subject, Date: r.Date}
	if r.Location() {
		k.Tag = LocationTag
	}
	return k
}
