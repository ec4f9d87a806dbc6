// Package signals knows the type tags a wearable emits: channel names and
// nominal sample rates. The built-in table covers the standard EmotiBit tag
// set; deployments with custom firmware extend or override it from a YAML
// file. The registry is informational (reports compare measured against
// nominal rates); it never changes how recordings are processed.
package signals

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Signal describes one type tag.
type Signal struct {
	Tag       string  `yaml:"-"`
	Name      string  `yaml:"name"`
	NominalHz float64 `yaml:"nominal_hz"` // 0 = aperiodic or unknown
}

// Registry maps type tags to signal descriptions.
type Registry struct {
	signals map[string]Signal
}

// Defaults returns the built-in registry.
func Defaults() *Registry {
	r := &Registry{signals: make(map[string]Signal, len(builtin))}
	for _, s := range builtin {
		r.signals[s.Tag] = s
	}
	return r
}

// Load returns the built-in registry merged with the overrides in a YAML
// file. File entries win field-wise: an empty name or zero rate keeps the
// built-in value; unknown tags are added as-is.
func Load(path string) (*Registry, error) {
	r := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "signals: read registry %s", path)
	}

	// The YAML has a top-level "signals" key
	var wrapper struct {
		Signals map[string]Signal `yaml:"signals"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "signals: parse registry %s", path)
	}

	for tag, override := range wrapper.Signals {
		merged := Signal{Tag: tag, Name: override.Name, NominalHz: override.NominalHz}
		if base, ok := r.signals[tag]; ok {
			if merged.Name == "" {
				merged.Name = base.Name
			}
			if merged.NominalHz == 0 {
				merged.NominalHz = base.NominalHz
			}
		}
		r.signals[tag] = merged
	}
	return r, nil
}

// Lookup returns the signal for a tag.
func (r *Registry) Lookup(tag string) (Signal, bool) {
	s, ok := r.signals[tag]
	return s, ok
}

// Tags returns all known tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.signals))
	for tag := range r.signals {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of registered tags.
func (r *Registry) Len() int { return len(r.signals) }

// builtin is the standard EmotiBit tag set. Rates are the stock firmware
// output rates; derived per-beat and event channels carry no nominal rate.
var builtin = []Signal{
	{Tag: "EA", Name: "EDA (electrodermal activity)", NominalHz: 15},
	{Tag: "EL", Name: "EDL (skin conductance level)", NominalHz: 15},
	{Tag: "ER", Name: "EDR (skin conductance response)", NominalHz: 15},
	{Tag: "PI", Name: "PPG infrared", NominalHz: 25},
	{Tag: "PR", Name: "PPG red", NominalHz: 25},
	{Tag: "PG", Name: "PPG green", NominalHz: 25},
	{Tag: "T0", Name: "Temperature 0", NominalHz: 7.5},
	{Tag: "T1", Name: "Temperature 1", NominalHz: 7.5},
	{Tag: "TH", Name: "Thermopile", NominalHz: 7.5},
	{Tag: "AX", Name: "Accelerometer X", NominalHz: 25},
	{Tag: "AY", Name: "Accelerometer Y", NominalHz: 25},
	{Tag: "AZ", Name: "Accelerometer Z", NominalHz: 25},
	{Tag: "GX", Name: "Gyroscope X", NominalHz: 25},
	{Tag: "GY", Name: "Gyroscope Y", NominalHz: 25},
	{Tag: "GZ", Name: "Gyroscope Z", NominalHz: 25},
	{Tag: "MX", Name: "Magnetometer X", NominalHz: 25},
	{Tag: "MY", Name: "Magnetometer Y", NominalHz: 25},
	{Tag: "MZ", Name: "Magnetometer Z", NominalHz: 25},
	{Tag: "HR", Name: "Heart rate"},
	{Tag: "BI", Name: "Beat interval"},
	{Tag: "SA", Name: "SCR amplitude"},
	{Tag: "SR", Name: "SCR rise time"},
	{Tag: "SF", Name: "SCR frequency"},
}
