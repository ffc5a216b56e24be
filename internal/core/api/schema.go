package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

// GetSchema returns the current leaf index:
//
//	{"root": "root", "type": "Pose", "generation": 1, "static": true,
//	 "schema_id": "...", "numeric": [leaf...], "strings": [leaf...]}
//
// with leaf = {"name", "kind", "path": [ids], "kinds": [container kinds]}.
// Dynamic types have no index until the first sample arrives.
func (s *IntrospectionService) GetSchema(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	idx, generation := s.engine.Index()
	if idx == nil {
		return nil, status.Error(codes.FailedPrecondition, "no sample ingested yet: layout of a dynamic type follows the data")
	}

	var schemaID types.SchemaID
	if s.catalog != nil {
		id, err := s.ensureSchema(ctx, generation, idx)
		if err != nil {
			return nil, status.Error(codes.Unavailable, fmt.Sprintf("failed to store schema: %v", err))
		}
		schemaID = id
	}

	doc := map[string]any{
		"root":       idx.Root,
		"type":       s.typ.Name(),
		"generation": generation,
		"static":     s.engine.Static(),
		"schema_id":  string(schemaID),
		"numeric":    leafList(idx.Numeric),
		"strings":    leafList(idx.Strings),
	}
	out, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ensureSchema returns the catalog ID of the index of one engine generation,
// storing it on first use.
func (s *IntrospectionService) ensureSchema(ctx context.Context, generation uint64, idx *introspect.Index) (types.SchemaID, error) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if id, ok := s.schemaIDs[generation]; ok {
		return id, nil
	}
	id, created, err := s.catalog.SaveSchema(ctx, s.typ.Name(), idx)
	if err != nil {
		return "", err
	}
	if created {
		s.logger.Info("schema stored", "schema_id", id, "generation", generation, "leaves", idx.Len())
	}
	s.schemaIDs[generation] = id
	return id, nil
}

func leafList(leaves []types.Leaf) []any {
	out := make([]any, len(leaves))
	for i, l := range leaves {
		path := make([]any, len(l.Path))
		for j, id := range l.Path {
			path[j] = uint32(id)
		}
		kinds := make([]any, len(l.Kinds))
		for j, k := range l.Kinds {
			kinds[j] = k.String()
		}
		out[i] = map[string]any{
			"name":  l.Name,
			"kind":  l.Kind.String(),
			"path":  path,
			"kinds": kinds,
		}
	}
	return out
}
