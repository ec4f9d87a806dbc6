package naming

import (
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

// tagCompositeCodec nests one object per type tag with a self-describing
// file name: <prefix><subject>/<tag>/<subject>_<date>_<tag>.<ext>. The name
// repeats the subject and tag so a file stays identifiable after it leaves
// the tree. Location copies are <subject>_<date>_location.csv.
type tagCompositeCodec struct {
	prefix string
	ext    string
}

func (c *tagCompositeCodec) Name() string { return ConventionTagComposite }

func (c *tagCompositeCodec) PerTag() bool { return true }

func (c *tagCompositeCodec) Encode(key model.ArtifactKey) string {
	ext := c.ext
	if key.Tag == model.LocationTag {
		ext = "csv"
	}
	return c.prefix + key.Subject + "/" + key.Tag + "/" +
		key.Subject + "_" + key.Date + "_" + key.Tag + "." + ext
}

func (c *tagCompositeCodec) Decode(name string) (model.ArtifactKey, bool) {
	rel, ok := strings.CutPrefix(name, c.prefix)
	if !ok || strings.HasSuffix(rel, "/") {
		return model.ArtifactKey{}, false
	}
	parts := strings.Split(rel, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return model.ArtifactKey{}, false
	}
	subject, tag, file := parts[0], parts[1], parts[2]
	ext := c.ext
	if tag == model.LocationTag {
		ext = "csv"
	}

	// The directory names are authoritative; the file name must repeat them
	// exactly around a valid date.
	base, ok := strings.CutSuffix(file, "."+ext)
	if !ok {
		return model.ArtifactKey{}, false
	}
	mid, ok := strings.CutPrefix(base, subject+"_")
	if !ok {
		return model.ArtifactKey{}, false
	}
	date, ok := strings.CutSuffix(mid, "_"+tag)
	if !ok || !validDate(date) {
		return model.ArtifactKey{}, false
	}
	return model.ArtifactKey{Subject: subject, Date: date, Tag: tag}, true
}
