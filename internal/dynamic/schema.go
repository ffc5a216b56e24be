package dynamic

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/datastreamer/internal/types"
)

// TypeSpec is the YAML form of a type:
//
//	name: Pose
//	kind: structure
//	members:
//	  - name: position
//	    type: {kind: array, element: {kind: float64}, dimensions: [3]}
//	  - name: mode
//	    type: {kind: enum, name: Mode, literals: [IDLE, RUN]}
//	  - name: samples
//	    type: {kind: sequence, element: {kind: int16}, bound: 16}
type TypeSpec struct {
	Name       string       `yaml:"name"`
	Kind       string       `yaml:"kind"`
	Element    *TypeSpec    `yaml:"element,omitempty"`
	Dimensions []uint32     `yaml:"dimensions,omitempty"`
	Bound      uint32       `yaml:"bound,omitempty"`
	Members    []MemberSpec `yaml:"members,omitempty"`
	Literals   []string     `yaml:"literals,omitempty"`
}

// MemberSpec is one structure member in a TypeSpec.
type MemberSpec struct {
	Name string   `yaml:"name"`
	ID   *uint32  `yaml:"id,omitempty"`
	Type TypeSpec `yaml:"type"`
}

// LoadSchema parses a YAML type definition.
func LoadSchema(r io.Reader) (*Type, error) {
	var spec TypeSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return spec.Build()
}

// LoadSchemaFile parses a YAML type definition from path.
func LoadSchemaFile(path string) (*Type, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSchema(f)
}

// Build converts the spec into a Type.
func (s TypeSpec) Build() (*Type, error) {
	return s.build(0)
}

func (s TypeSpec) build(depth int) (*Type, error) {
	if depth > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	kind, err := types.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case types.KindStructure:
		specs := make([]FieldSpec, 0, len(s.Members))
		for _, m := range s.Members {
			mt, err := m.Type.build(depth + 1)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", m.Name, err)
			}
			if m.ID != nil {
				specs = append(specs, FieldID(m.Name, types.MemberID(*m.ID), mt))
			} else {
				specs = append(specs, Field(m.Name, mt))
			}
		}
		return Struct(s.Name, specs...)

	case types.KindArray, types.KindSequence:
		if s.Element == nil {
			return nil, fmt.Errorf("%s %q requires an element type", kind, s.Name)
		}
		elem, err := s.Element.build(depth + 1)
		if err != nil {
			return nil, err
		}
		if kind == types.KindSequence {
			return SequenceOf(elem, s.Bound), nil
		}
		if len(s.Dimensions) == 0 {
			return nil, fmt.Errorf("array %q requires dimensions", s.Name)
		}
		return ArrayOf(elem, s.Dimensions...), nil

	case types.KindEnum:
		if len(s.Literals) == 0 {
			return nil, fmt.Errorf("enum %q requires literals", s.Name)
		}
		return EnumOf(s.Name, s.Literals...), nil

	default:
		return Primitive(kind), nil
	}
}
