package naming

import (
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

// flatCodec lays one parsed object per recording directly under the subject
// folder: <prefix><subject>/<subject>-<date>.parsed.<ext>. Location
// pass-throughs keep the raw shape: <prefix><subject>/<subject>-<date>-location.csv.
type flatCodec struct {
	prefix string
	ext    string
}

func (c *flatCodec) Name() string { return ConventionFlat }

func (c *flatCodec) PerTag() bool { return false }

func (c *flatCodec) Encode(key model.ArtifactKey) string {
	if key.Tag == model.LocationTag {
		return c.prefix + key.Subject + "/" + key.Subject + "-" + key.Date + "-location.csv"
	}
	return c.prefix + key.Subject + "/" + key.Subject + "-" + key.Date + ".parsed." + c.ext
}

func (c *flatCodec) Decode(name string) (model.ArtifactKey, bool) {
	rel, ok := strings.CutPrefix(name, c.prefix)
	if !ok || strings.HasSuffix(rel, "/") {
		return model.ArtifactKey{}, false
	}
	subject, file, ok := strings.Cut(rel, "/")
	if !ok || subject == "" || strings.Contains(file, "/") {
		return model.ArtifactKey{}, false
	}
	rest, ok := strings.CutPrefix(file, subject+"-")
	if !ok {
		return model.ArtifactKey{}, false
	}
	if date, ok := strings.CutSuffix(rest, ".parsed."+c.ext); ok && validDate(date) {
		return model.ArtifactKey{Subject: subject, Date: date}, true
	}
	if date, ok := strings.CutSuffix(rest, "-location.csv"); ok && validDate(date) {
		return model.ArtifactKey{Subject: subject, Date: date, Tag: model.LocationTag}, true
	}
	return model.ArtifactKey{}, false
}
