package naming

import (
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

// tagDateCodec nests one object per type tag under the subject folder, named
// by date alone: <prefix><subject>/<tag>/<date>.<ext>. The reserved location
// folder holds verbatim raw copies as <date>.csv.
type tagDateCodec struct {
	prefix string
	ext    string
}

func (c *tagDateCodec) Name() string { return ConventionTagDate }

func (c *tagDateCodec) PerTag() bool { return true }

func (c *tagDateCodec) Encode(key model.ArtifactKey) string {
	ext := c.ext
	if key.Tag == model.LocationTag {
		ext = "csv"
	}
	return c.prefix + key.Subject + "/" + key.Tag + "/" + key.Date + "." + ext
}

func (c *tagDateCodec) Decode(name string) (model.ArtifactKey, bool) {
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
	date, ok := strings.CutSuffix(file, "."+ext)
	if !ok || !validDate(date) {
		return model.ArtifactKey{}, false
	}
	return model.ArtifactKey{Subject: subject, Date: date, Tag: tag}, true
}
