package api

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Sample ingestion.
 *
 * Each sample is decoded into an instance of the root type, run through the
 * engine (re-flattening dynamic types) and, when a catalog is configured,
 * stored with its schema. The response carries the extracted values:
 *
 *   {"generation": 2, "schema_changed": true, "schema_id": "...",
 *    "sample_id": "...", "numeric": [...], "strings": [...]}
 *
 * Batches are processed sample by sample so one bad sample does not reject
 * the rest. The JSONL log under <data_dir>/samples is a best-effort debugging
 * aid; the catalog is the source of truth.
 */

// PushSample extracts one sample.
func (s *IntrospectionService) PushSample(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := s.ingest(ctx, req.AsMap())
	if err != nil {
		return nil, err
	}
	return encodeResponse(doc)
}

// PushSamples extracts a batch: {"samples": [sample...]}. The response holds
// one result per sample, in order, plus the accepted count.
func (s *IntrospectionService) PushSamples(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list := req.GetFields()["samples"].GetListValue()
	if list == nil {
		return nil, status.Error(codes.InvalidArgument, "samples list required")
	}
	// Prevents transaction storms and memory exhaustion
	if len(list.Values) > s.cfg.MaxBatchSize {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("batch size exceeds maximum of %d samples", s.cfg.MaxBatchSize))
	}

	results := make([]any, len(list.Values))
	accepted := 0
	for i, v := range list.Values {
		sample := v.GetStructValue()
		if sample == nil {
			results[i] = map[string]any{"status": "rejected", "error": "sample must be an object"}
			continue
		}
		doc, err := s.ingest(ctx, sample.AsMap())
		if err != nil {
			results[i] = map[string]any{"status": "rejected", "error": status.Convert(err).Message()}
			continue
		}
		doc["status"] = "accepted"
		results[i] = doc
		accepted++
	}

	return encodeResponse(map[string]any{
		"accepted": accepted,
		"results":  results,
	})
}

// encodeResponse converts a response document, reporting failures as
// INTERNAL since the samples in it are already recorded.
func encodeResponse(doc map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return out, nil
}

// ingest decodes, extracts and records one sample. Errors are gRPC statuses.
func (s *IntrospectionService) ingest(ctx context.Context, fields map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, statusFromError(err)
	}

	data, err := dynamic.Decode(s.typ, fields)
	if err != nil {
		return nil, statusFromError(err)
	}

	res, err := s.engine.Ingest(data)
	if err != nil {
		s.logger.Debug("sample rejected", "error", err)
		return nil, statusFromError(err)
	}
	receivedAt := s.now().UTC()

	var schemaID types.SchemaID
	var sampleID types.SampleID
	if s.catalog != nil {
		schemaID, err = s.ensureSchema(ctx, res.Generation, res.Index)
		if err != nil {
			return nil, status.Error(codes.Unavailable, fmt.Sprintf("failed to store schema: %v", err))
		}
		sampleID, err = s.catalog.SaveSample(ctx, schemaID, res.Sample, receivedAt)
		if err != nil {
			return nil, status.Error(codes.Unavailable, fmt.Sprintf("failed to store sample: %v", err))
		}
	}

	numeric := make([]any, len(res.Numeric))
	for i, v := range res.Numeric {
		numeric[i] = numberValue(v)
	}
	strs := make([]any, len(res.Strings))
	for i, v := range res.Strings {
		// protobuf strings must be valid UTF-8; string8 members may hold any bytes
		strs[i] = strings.ToValidUTF8(v, "\uFFFD")
	}

	doc := map[string]any{
		"generation":     res.Generation,
		"schema_changed": res.SchemaChanged,
		"schema_id":      string(schemaID),
		"sample_id":      string(sampleID),
		"numeric":        numeric,
		"strings":        strs,
	}
	if err := s.appendJSONL(receivedAt, doc); err != nil {
		s.logger.Warn("failed to append sample log", "error", err)
	}
	return doc, nil
}

// numberValue spells non-finite numbers the way structpb.Value.AsInterface
// does; protojson cannot encode them as numbers.
func numberValue(v float64) any {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	default:
		return v
	}
}

// appendJSONL writes one protojson line to the daily sample log.
func (s *IntrospectionService) appendJSONL(receivedAt time.Time, doc map[string]any) error {
	line, err := structpb.NewStruct(map[string]any{
		"received_at": receivedAt.Format(time.RFC3339Nano),
		"root":        s.typ.Name(),
		"sample":      doc,
	})
	if err != nil {
		return err
	}
	b, err := protojson.Marshal(line)
	if err != nil {
		return err
	}

	filename := filepath.Join(s.cfg.DataDir, "samples", receivedAt.Format("2006-01-02.jsonl"))
	mu := s.getJSONLMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}
