package dynamic

import (
	"fmt"
	"sort"

	"github.com/solatis/datastreamer/internal/types"
)

// Decode builds an instance of t from a generic value as produced by
// encoding/json, oj.Parse or structpb.AsMap: objects for structures, lists
// for arrays and sequences, numbers/strings/bools for scalars. Absent members
// and null values keep their defaults; unknown members are rejected.
func Decode(t *Type, v any) (*Data, error) {
	d := NewData(t)
	if err := fill(d, v, t.name); err != nil {
		return nil, err
	}
	return d, nil
}

func fill(d *Data, v any, path string) error {
	if v == nil {
		return nil
	}
	switch d.typ.kind {
	case types.KindStructure:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %w: expected object, got %T", path, types.ErrTypeMismatch, v)
		}
		known := make(map[string]bool, len(d.typ.fields))
		for _, f := range d.typ.fields {
			known[f.name] = true
			val, ok := obj[f.name]
			if !ok {
				continue
			}
			if err := d.assign(f.id, f.typ, val, path+"."+f.name); err != nil {
				return err
			}
		}
		if !allKnown(obj, known) {
			return fmt.Errorf("%s: %w: unknown member %q", path, types.ErrTypeMismatch, firstUnknown(obj, known))
		}
		return nil

	case types.KindArray, types.KindSequence:
		list, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: %w: expected list, got %T", path, types.ErrTypeMismatch, v)
		}
		if d.typ.kind == types.KindSequence {
			if err := d.Resize(uint32(len(list))); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		} else if len(list) > len(d.slots) {
			return fmt.Errorf("%s: %w: %d elements for array of %d", path, types.ErrTypeMismatch, len(list), len(d.slots))
		}
		for i, val := range list {
			if err := d.assign(types.MemberID(i), d.typ.elem, val, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%s: %w: %s cannot hold members", path, types.ErrTypeMismatch, d.typ.kind)
	}
}

func (d *Data) assign(id types.MemberID, t *Type, val any, path string) error {
	if val == nil {
		return nil
	}
	if types.IsContainer(t.kind) {
		child, err := d.child(id)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return fill(child, val, path)
	}
	if err := d.Set(id, val); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func allKnown(obj map[string]any, known map[string]bool) bool {
	for k := range obj {
		if !known[k] {
			return false
		}
	}
	return true
}

// firstUnknown reports the lexicographically first unknown key so errors are
// stable across runs.
func firstUnknown(obj map[string]any, known map[string]bool) string {
	var unknown []string
	for k := range obj {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	if len(unknown) == 0 {
		return ""
	}
	return unknown[0]
}
