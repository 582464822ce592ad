package grid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Field is a dense gridded forecast output for one model run: a set of named
// variables, each shaped (ensemble=1, step, lat, lon), plus the coordinate
// axes. Fields are produced by the upstream inference job and read-only here.
type Field struct {
	lats  []float64
	lons  []float64
	steps int
	vars  map[string][]float64
}

var (
	// ErrEmptyAxis indicates a coordinate axis with no values, which makes
	// any grid-point lookup meaningless.
	ErrEmptyAxis = errors.New("grid: empty coordinate axis")

	// ErrUnknownVariable indicates a read of a variable the field does not carry.
	ErrUnknownVariable = errors.New("grid: unknown variable")
)

// NewField constructs an empty field over the given axes and step count.
func NewField(lats, lons []float64, steps int) *Field {
	return &Field{
		lats:  lats,
		lons:  lons,
		steps: steps,
		vars:  make(map[string][]float64),
	}
}

// SetVar stores a variable's values, flattened in (step, lat, lon) order with
// the singleton ensemble axis collapsed.
func (f *Field) SetVar(name string, values []float64) error {
	want := f.steps * len(f.lats) * len(f.lons)
	if len(values) != want {
		return fmt.Errorf("grid: variable %s has %d values, want %d", name, len(values), want)
	}
	f.vars[name] = values
	return nil
}

// Has reports whether the field carries the named variable.
func (f *Field) Has(name string) bool {
	_, ok := f.vars[name]
	return ok
}

// At reads one value at (ensemble=0, step, latIdx, lonIdx).
func (f *Field) At(name string, step, latIdx, lonIdx int) (float64, error) {
	values, ok := f.vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	nlat, nlon := len(f.lats), len(f.lons)
	if step < 0 || step >= f.steps || latIdx < 0 || latIdx >= nlat || lonIdx < 0 || lonIdx >= nlon {
		return 0, fmt.Errorf("grid: index (%d,%d,%d) out of range for %s", step, latIdx, lonIdx, name)
	}
	return values[(step*nlat+latIdx)*nlon+lonIdx], nil
}

// Steps returns the number of forecast steps in the field.
func (f *Field) Steps() int {
	return f.steps
}

// Lats returns the latitude axis.
func (f *Field) Lats() []float64 {
	return f.lats
}

// Lons returns the longitude axis, in the field's native convention
// (typically 0-360 for global NWP output).
func (f *Field) Lons() []float64 {
	return f.lons
}

// fieldDocument is the JSON wire form the inference job publishes.
type fieldDocument struct {
	InitTime  string               `json:"init_time"`
	Lat       []float64            `json:"lat"`
	Lon       []float64            `json:"lon"`
	Steps     int                  `json:"steps"`
	Variables map[string][]float64 `json:"variables"`
}

// Decode parses a field document produced by the inference job.
func Decode(data []byte) (*Field, error) {
	var doc fieldDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode field document: %w", err)
	}
	if len(doc.Lat) == 0 || len(doc.Lon) == 0 {
		return nil, ErrEmptyAxis
	}
	if doc.Steps <= 0 {
		return nil, fmt.Errorf("grid: field document has %d steps", doc.Steps)
	}

	f := NewField(doc.Lat, doc.Lon, doc.Steps)
	for name, values := range doc.Variables {
		if err := f.SetVar(name, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
