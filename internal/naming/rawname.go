package naming

import (
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

// ParseRawName decodes a raw recording name of the form
// <prefix><subject>/<subject>-<date>[-<suffix>].csv. Names outside that
// shape are not raw recordings: pseudo-directory entries, stray files, and
// anything not ending in .csv all return false and are skipped upstream.
func ParseRawName(name, prefix string) (model.RawRef, bool) {
	if strings.HasSuffix(name, "/") {
		return model.RawRef{}, false
	}
	rel, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return model.RawRef{}, false
	}
	subject, file, ok := strings.Cut(rel, "/")
	if !ok || subject == "" || strings.Contains(file, "/") {
		return model.RawRef{}, false
	}
	base, ok := strings.CutSuffix(file, ".csv")
	if !ok {
		return model.RawRef{}, false
	}
	rest, ok := strings.CutPrefix(base, subject+"-")
	if !ok {
		return model.RawRef{}, false
	}
	date, suffix, _ := strings.Cut(rest, "-")
	if !validDate(date) {
		return model.RawRef{}, false
	}
	return model.RawRef{Name: name, Subject: subject, Date: date, Suffix: suffix}, true
}
