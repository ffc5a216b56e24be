// internal/introspect/extract.go
package introspect

import (
	"fmt"

	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Per-sample value extraction.
 *
 * For every leaf, in index order: resolve the immediate parent in the current
 * data instance, then read the last path id with the typed reader for the
 * leaf kind. Results are index-aligned with the leaf lists.
 *
 * No partial results: the first failing leaf aborts the whole sample, since
 * consumers assume alignment across the full list. A destination slice whose
 * length differs from the leaf list is an ErrInconsistency, never resized.
 */

// Sample holds one extraction, aligned with Index.Numeric and Index.Strings.
type Sample struct {
	Numeric []float64
	Strings []string
}

// FillNumeric writes the value of every numeric leaf into dst.
// dst must have exactly len(leaves) elements; its contents are unspecified
// when an error is returned.
func FillNumeric(leaves []types.Leaf, data types.DataInstance, dst []float64) error {
	if len(leaves) != len(dst) {
		return fmt.Errorf("%w: %d numeric leaves but %d result slots", types.ErrInconsistency, len(leaves), len(dst))
	}
	for i, leaf := range leaves {
		parent, err := ResolveParent(data, leaf.Path, leaf.Kinds)
		if err != nil {
			return fmt.Errorf("leaf %s: %w", leaf.Name, err)
		}
		v, err := ReadNumeric(parent, leaf.Path[len(leaf.Path)-1], leaf.Kind)
		if err != nil {
			return fmt.Errorf("leaf %s: %w", leaf.Name, err)
		}
		dst[i] = v
	}
	return nil
}

// FillStrings writes the value of every string-like leaf into dst.
// Same length and failure contract as FillNumeric.
func FillStrings(leaves []types.Leaf, data types.DataInstance, dst []string) error {
	if len(leaves) != len(dst) {
		return fmt.Errorf("%w: %d string leaves but %d result slots", types.ErrInconsistency, len(leaves), len(dst))
	}
	for i, leaf := range leaves {
		parent, err := ResolveParent(data, leaf.Path, leaf.Kinds)
		if err != nil {
			return fmt.Errorf("leaf %s: %w", leaf.Name, err)
		}
		v, err := ReadString(parent, leaf.Path[len(leaf.Path)-1], leaf.Kind)
		if err != nil {
			return fmt.Errorf("leaf %s: %w", leaf.Name, err)
		}
		dst[i] = v
	}
	return nil
}

// Extract reads every leaf of ix from data.
func (ix *Index) Extract(data types.DataInstance) (Sample, error) {
	s := Sample{
		Numeric: make([]float64, len(ix.Numeric)),
		Strings: make([]string, len(ix.Strings)),
	}
	if err := FillNumeric(ix.Numeric, data, s.Numeric); err != nil {
		return Sample{}, err
	}
	if err := FillStrings(ix.Strings, data, s.Strings); err != nil {
		return Sample{}, err
	}
	return s, nil
}
