// Package payload parses raw sensor recordings: the CSV envelope, the
// multi-line payload blobs embedded in it, and the numeric coercion applied
// to every non-payload cell.
package payload

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?$`)
)

// Coerce converts a raw cell token into its typed value: integer-looking
// tokens become integers, decimal and exponential forms become floats, the
// empty token becomes null, anything else stays a string. Tokens that look
// numeric but overflow int64/float64 stay strings so the digits survive
// verbatim. Coercion is total; it never fails.
func Coerce(tok string) model.Scalar {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return model.Null()
	}
	if intPattern.MatchString(tok) {
		if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return model.Int(v)
		}
		return model.Str(tok)
	}
	if floatPattern.MatchString(tok) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return model.Float(v)
		}
		return model.Str(tok)
	}
	return model.Str(tok)
}
