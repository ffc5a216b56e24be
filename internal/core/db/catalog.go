package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

/*
 * Schema and sample catalog.
 *
 * Schemas are stored once per distinct leaf layout: the fingerprint is a
 * SHA256 over the type name, separator, container policy and rendered
 * layout, so re-publishing an unchanged index returns the existing ID and
 * every stored column matches the caller's index. Samples reference a schema
 * and store their values by leaf ordinal, which keeps them index-aligned
 * when read back. NaN is stored as NULL since SQLite cannot hold it in a
 * REAL column.
 *
 * Leaf paths and kind chains are stored as text ("2.1", "structure,array")
 * since they are only ever read back whole.
 */

const (
	classNumeric = "numeric"
	classString  = "string"
)

// SchemaRecord is the catalog metadata of one stored index.
type SchemaRecord struct {
	ID           types.SchemaID `db:"schema_id"`
	RootName     string         `db:"root_name"`
	TypeName     string         `db:"type_name"`
	Separator    string         `db:"name_separator"`
	MaxSize      int64          `db:"max_size"`
	Discard      bool           `db:"discard"`
	Fingerprint  string         `db:"fingerprint"`
	NumericCount int            `db:"numeric_count"`
	StringCount  int            `db:"string_count"`
	CreatedAtMs  int64          `db:"created_at_ms"`
}

// CreatedAt returns the creation time in UTC.
func (r SchemaRecord) CreatedAt() time.Time { return time.UnixMilli(r.CreatedAtMs).UTC() }

// SampleRecord is the catalog metadata of one stored sample.
type SampleRecord struct {
	ID           types.SampleID `db:"sample_id"`
	SchemaID     types.SchemaID `db:"schema_id"`
	ReceivedAtMs int64          `db:"received_at_ms"`
}

// ReceivedAt returns the time the sample was stored, in UTC.
func (r SampleRecord) ReceivedAt() time.Time { return time.UnixMilli(r.ReceivedAtMs).UTC() }

type leafRow struct {
	Class   string `db:"leaf_class"`
	Ordinal int    `db:"ordinal"`
	Name    string `db:"name"`
	Kind    string `db:"kind"`
	Path    string `db:"path"`
	Kinds   string `db:"kinds"`
}

// Catalog stores flattened schemas and extracted samples.
type Catalog struct {
	db      *sqlx.DB
	queries *Queries
}

// NewCatalog returns a catalog on a migrated database.
func NewCatalog(db *sqlx.DB) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db, queries: queries}, nil
}

// Fingerprint identifies an index of typeName independently of where it is
// stored. Indexes that differ only in policy hash differently.
func Fingerprint(typeName string, idx *introspect.Index) string {
	h := sha256.New()
	fmt.Fprintf(h, "type=%q root=%q separator=%q max_size=%d discard=%t\n",
		typeName, idx.Root, idx.Separator, idx.Policy.MaxSize, idx.Policy.Discard)
	for _, line := range idx.Layout() {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// SaveSchema stores idx unless a schema with the same fingerprint (type name,
// policy and layout) exists.
// Returns the schema ID and whether a new row was created.
func (c *Catalog) SaveSchema(ctx context.Context, typeName string, idx *introspect.Index) (types.SchemaID, bool, error) {
	fp := Fingerprint(typeName, idx)
	if id, err := c.findByFingerprint(ctx, fp); err == nil {
		return id, false, nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return "", false, err
	}

	id := types.NewSchemaID()
	err := c.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := c.queries.Exec(ctx, tx, "insert-schema",
			string(id), idx.Root, typeName, idx.Separator,
			int64(idx.Policy.MaxSize), idx.Policy.Discard, fp,
			len(idx.Numeric), len(idx.Strings), time.Now().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert schema: %w", err)
		}
		if err := c.insertLeaves(ctx, tx, id, classNumeric, idx.Numeric); err != nil {
			return err
		}
		return c.insertLeaves(ctx, tx, id, classString, idx.Strings)
	})
	if err != nil {
		// A concurrent writer may have stored the same layout first.
		if existing, lookupErr := c.findByFingerprint(ctx, fp); lookupErr == nil {
			return existing, false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (c *Catalog) insertLeaves(ctx context.Context, tx *sqlx.Tx, id types.SchemaID, class string, leaves []types.Leaf) error {
	for i, l := range leaves {
		_, err := c.queries.Exec(ctx, tx, "insert-leaf",
			string(id), class, i, l.Name, l.Kind.String(), encodePath(l.Path), encodeKinds(l.Kinds),
		)
		if err != nil {
			return fmt.Errorf("failed to insert leaf %s: %w", l.Name, err)
		}
	}
	return nil
}

func (c *Catalog) findByFingerprint(ctx context.Context, fp string) (types.SchemaID, error) {
	var id types.SchemaID
	err := c.queries.Get(ctx, "find-schema-by-fingerprint", &id, fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: schema with fingerprint %s", types.ErrNotFound, fp)
	}
	return id, err
}

// Schema returns the metadata of one schema.
func (c *Catalog) Schema(ctx context.Context, id types.SchemaID) (SchemaRecord, error) {
	var rec SchemaRecord
	err := c.queries.Get(ctx, "get-schema", &rec, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return SchemaRecord{}, fmt.Errorf("%w: schema %s", types.ErrNotFound, id)
	}
	if err != nil {
		return SchemaRecord{}, fmt.Errorf("failed to load schema %s: %w", id, err)
	}
	return rec, nil
}

// LoadIndex rebuilds the stored index of a schema.
func (c *Catalog) LoadIndex(ctx context.Context, id types.SchemaID) (*introspect.Index, SchemaRecord, error) {
	rec, err := c.Schema(ctx, id)
	if err != nil {
		return nil, SchemaRecord{}, err
	}

	var rows []leafRow
	if err := c.queries.Select(ctx, "list-leaves", &rows, string(id)); err != nil {
		return nil, SchemaRecord{}, fmt.Errorf("failed to load leaves of %s: %w", id, err)
	}

	idx := &introspect.Index{
		Root:      rec.RootName,
		Separator: rec.Separator,
		Policy:    types.ContainerPolicy{MaxSize: uint32(rec.MaxSize), Discard: rec.Discard},
		Numeric:   make([]types.Leaf, 0, rec.NumericCount),
		Strings:   make([]types.Leaf, 0, rec.StringCount),
	}
	for _, r := range rows {
		leaf, err := r.leaf()
		if err != nil {
			return nil, SchemaRecord{}, fmt.Errorf("schema %s: %w", id, err)
		}
		switch r.Class {
		case classNumeric:
			idx.Numeric = append(idx.Numeric, leaf)
		case classString:
			idx.Strings = append(idx.Strings, leaf)
		default:
			return nil, SchemaRecord{}, fmt.Errorf("%w: schema %s has leaf class %q", types.ErrInconsistency, id, r.Class)
		}
	}

	if len(idx.Numeric) != rec.NumericCount || len(idx.Strings) != rec.StringCount {
		return nil, SchemaRecord{}, fmt.Errorf("%w: schema %s stores %d/%d leaves, expected %d/%d",
			types.ErrInconsistency, id, len(idx.Numeric), len(idx.Strings), rec.NumericCount, rec.StringCount)
	}
	return idx, rec, nil
}

// ListSchemas returns all schemas, oldest first.
func (c *Catalog) ListSchemas(ctx context.Context) ([]SchemaRecord, error) {
	var recs []SchemaRecord
	if err := c.queries.Select(ctx, "list-schemas", &recs); err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return recs, nil
}

// SaveSample stores one extraction for a schema. The value lists must match
// the schema's leaf counts.
func (c *Catalog) SaveSample(ctx context.Context, schemaID types.SchemaID, s introspect.Sample, receivedAt time.Time) (types.SampleID, error) {
	rec, err := c.Schema(ctx, schemaID)
	if err != nil {
		return "", err
	}
	if len(s.Numeric) != rec.NumericCount || len(s.Strings) != rec.StringCount {
		return "", fmt.Errorf("%w: sample has %d/%d values, schema %s has %d/%d leaves",
			types.ErrInconsistency, len(s.Numeric), len(s.Strings), schemaID, rec.NumericCount, rec.StringCount)
	}

	id := types.NewSampleID()
	err = c.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := c.queries.Exec(ctx, tx, "insert-sample", string(id), string(schemaID), receivedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
		for i, v := range s.Numeric {
			if _, err := c.queries.Exec(ctx, tx, "insert-numeric-value", string(id), i, storedFloat(v)); err != nil {
				return fmt.Errorf("failed to insert numeric value %d: %w", i, err)
			}
		}
		for i, v := range s.Strings {
			if _, err := c.queries.Exec(ctx, tx, "insert-string-value", string(id), i, v); err != nil {
				return fmt.Errorf("failed to insert string value %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadSample returns a stored sample with its values in leaf order.
func (c *Catalog) LoadSample(ctx context.Context, id types.SampleID) (SampleRecord, introspect.Sample, error) {
	var rec SampleRecord
	err := c.queries.Get(ctx, "get-sample", &rec, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return SampleRecord{}, introspect.Sample{}, fmt.Errorf("%w: sample %s", types.ErrNotFound, id)
	}
	if err != nil {
		return SampleRecord{}, introspect.Sample{}, fmt.Errorf("failed to load sample %s: %w", id, err)
	}

	var numeric []sql.NullFloat64
	if err := c.queries.Select(ctx, "list-numeric-values", &numeric, string(id)); err != nil {
		return SampleRecord{}, introspect.Sample{}, fmt.Errorf("failed to load values of %s: %w", id, err)
	}
	s := introspect.Sample{Numeric: make([]float64, len(numeric)), Strings: []string{}}
	for i, v := range numeric {
		s.Numeric[i] = math.NaN()
		if v.Valid {
			s.Numeric[i] = v.Float64
		}
	}
	if err := c.queries.Select(ctx, "list-string-values", &s.Strings, string(id)); err != nil {
		return SampleRecord{}, introspect.Sample{}, fmt.Errorf("failed to load values of %s: %w", id, err)
	}
	return rec, s, nil
}

// ListSamples returns up to limit samples of a schema, oldest first.
func (c *Catalog) ListSamples(ctx context.Context, schemaID types.SchemaID, limit int) ([]SampleRecord, error) {
	var recs []SampleRecord
	if err := c.queries.Select(ctx, "list-samples-by-schema", &recs, string(schemaID), limit); err != nil {
		return nil, fmt.Errorf("failed to list samples of %s: %w", schemaID, err)
	}
	return recs, nil
}

// CountSamples returns the number of samples stored for a schema.
func (c *Catalog) CountSamples(ctx context.Context, schemaID types.SchemaID) (int, error) {
	var n int
	if err := c.queries.Get(ctx, "count-samples", &n, string(schemaID)); err != nil {
		return 0, fmt.Errorf("failed to count samples of %s: %w", schemaID, err)
	}
	return n, nil
}

// storedFloat maps NaN to NULL.
func storedFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func (c *Catalog) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r leafRow) leaf() (types.Leaf, error) {
	kind, err := types.ParseKind(r.Kind)
	if err != nil {
		return types.Leaf{}, fmt.Errorf("leaf %s: %w", r.Name, err)
	}
	path, err := decodePath(r.Path)
	if err != nil {
		return types.Leaf{}, fmt.Errorf("leaf %s: %w", r.Name, err)
	}
	kinds, err := decodeKinds(r.Kinds)
	if err != nil {
		return types.Leaf{}, fmt.Errorf("leaf %s: %w", r.Name, err)
	}
	if len(path) != len(kinds) {
		return types.Leaf{}, fmt.Errorf("%w: leaf %s has %d path steps and %d kinds", types.ErrInconsistency, r.Name, len(path), len(kinds))
	}
	return types.Leaf{Name: r.Name, Path: path, Kinds: kinds, Kind: kind}, nil
}

func encodePath(path []types.MemberID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ".")
}

func decodePath(s string) ([]types.MemberID, error) {
	if s == "" {
		return []types.MemberID{}, nil
	}
	parts := strings.Split(s, ".")
	path := make([]types.MemberID, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", s, err)
		}
		path[i] = types.MemberID(n)
	}
	return path, nil
}

func encodeKinds(kinds []types.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}

func decodeKinds(s string) ([]types.Kind, error) {
	if s == "" {
		return []types.Kind{}, nil
	}
	parts := strings.Split(s, ",")
	kinds := make([]types.Kind, len(parts))
	for i, p := range parts {
		k, err := types.ParseKind(p)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}
	return kinds, nil
}
