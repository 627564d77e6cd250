// Package config reads robot parameter files and binds named sections to
// subsystem configuration structs.
//
// A parameter file is a JSON object keyed by subsystem name:
//
//	{
//		"lift": {
//			"motor_channel": 3,
//			"encoder_threshold": 10
//		}
//	}
package config

import (
	"encoding/json"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// An AttributeMap is a convenience wrapper around one parameter section.
type AttributeMap map[string]interface{}

// Has returns whether the given name is in the map.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Int returns the named value as an int, or def when missing or not
// numeric. JSON numbers decode as float64 and are truncated.
func (am AttributeMap) Int(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}
	switch v := x.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// Float64 returns the named value as a float64, or def when missing or
// not numeric.
func (am AttributeMap) Float64(name string, def float64) float64 {
	x, has := am[name]
	if !has {
		return def
	}
	switch v := x.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// String returns the named value as a string, or def when missing.
func (am AttributeMap) String(name, def string) string {
	if v, ok := am[name].(string); ok {
		return v
	}
	return def
}

// Bool returns the named value as a bool, or def when missing.
func (am AttributeMap) Bool(name string, def bool) bool {
	if v, ok := am[name].(bool); ok {
		return v
	}
	return def
}

// Params holds the parsed contents of a parameter file, one section per
// subsystem. Mutation happens only through Reload, which the single
// control loop goroutine owns.
type Params struct {
	path     string
	sections map[string]AttributeMap
}

// Read parses the parameter file at path.
func Read(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read parameter file %q", path)
	}
	var sections map[string]AttributeMap
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, errors.Wrapf(err, "cannot parse parameter file %q", path)
	}
	return &Params{path: path, sections: sections}, nil
}

// FromSections builds params directly from in-memory sections; used by
// tests and simulations that have no backing file.
func FromSections(sections map[string]AttributeMap) *Params {
	return &Params{sections: sections}
}

// Path returns the file the parameters were read from, if any.
func (p *Params) Path() string {
	return p.path
}

// Section returns the attribute map for a subsystem and whether the
// section exists. A missing section yields an empty map so callers keep
// their defaults.
func (p *Params) Section(name string) (AttributeMap, bool) {
	am, ok := p.sections[name]
	if !ok {
		return AttributeMap{}, false
	}
	return am, true
}

// Reload re-reads the backing file, replacing all sections. The previous
// contents are kept on any error.
func (p *Params) Reload() error {
	if p.path == "" {
		return nil
	}
	fresh, err := Read(p.path)
	if err != nil {
		return err
	}
	p.sections = fresh.sections
	return nil
}

// BindSection decodes a section onto a typed config struct using weakly
// typed conversion. Keys missing from the section leave the struct fields
// untouched, so callers bind over their defaults.
func BindSection(am AttributeMap, dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]interface{}(am)); err != nil {
		return errors.Wrap(err, "cannot bind parameter section")
	}
	return nil
}
