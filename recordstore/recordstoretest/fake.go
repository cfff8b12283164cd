// Package recordstoretest provides an in-memory recordstore.Client for tests.
//
// The fake mimics the behaviour the synchronizer depends on: attachment
// entries written by url get an id at patch time and keep the transient url
// until the store "ingests" them, after a configurable number of reads.
// Creating a record with an unknown select value registers a new choice,
// as typecast does.
package recordstoretest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/recordstore"
)

// HostedURLPrefix prefixes the urls of ingested attachments.
const HostedURLPrefix = "https://v5.airtableusercontent.com/"

// Method names accepted by Fail and Calls.
const (
	MethodGetRecord        = "GetRecord"
	MethodPatchRecord      = "PatchRecord"
	MethodCreateRecord     = "CreateRecord"
	MethodDeleteRecord     = "DeleteRecord"
	MethodFindRecords      = "FindRecords"
	MethodListTables       = "ListTables"
	MethodPatchFieldSchema = "PatchFieldSchema"
)

// Store is an in-memory record store.
type Store struct {
	mu sync.Mutex

	// IngestAfterReads is the number of GetRecord calls after which a newly
	// written attachment gets its hosted url. Zero ingests at patch time,
	// a negative value never ingests.
	IngestAfterReads int

	// FindFunc answers FindRecords. Nil returns no records.
	FindFunc func(table string, opts recordstore.FindOptions) []recordstore.Record

	seq      int
	records  map[string]map[string]*recordstore.Record // table -> id -> record
	tables   []recordstore.Table
	pending  map[string]int // attachment id -> reads left
	calls    map[string]int
	failures map[string]*failure
	patches  []Patch
}

// Patch is a recorded PatchRecord call.
type Patch struct {
	Table  string
	ID     string
	Fields map[string]any
}

type failure struct {
	remaining int
	err       error
}

var _ recordstore.Client = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		records:  map[string]map[string]*recordstore.Record{},
		pending:  map[string]int{},
		calls:    map[string]int{},
		failures: map[string]*failure{},
	}
}

// PutRecord stores a record as is.
func (s *Store) PutRecord(table string, rec recordstore.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[table] == nil {
		s.records[table] = map[string]*recordstore.Record{}
	}
	cp := clone(rec)
	s.records[table][rec.ID] = &cp
}

// PutTable stores a table schema.
func (s *Store) PutTable(tbl recordstore.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = append(s.tables, clone(tbl))
}

// Fail makes the next n calls of method return err. A negative n fails forever.
func (s *Store) Fail(method string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method] = &failure{remaining: n, err: err}
}

// Calls returns how many times method was called.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Patches returns every PatchRecord call.
func (s *Store) Patches() []Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Patch(nil), s.patches...)
}

// Record returns a copy of a stored record without counting as a read.
func (s *Store) Record(table, id string) (recordstore.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[table][id]
	if !ok {
		return recordstore.Record{}, false
	}
	return clone(*rec), true
}

// RecordCount returns the number of records in a table.
func (s *Store) RecordCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[table])
}

// GetRecord implements recordstore.Client.
func (s *Store) GetRecord(_ context.Context, table, id string) (*recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodGetRecord); err != nil {
		return nil, err
	}

	rec, ok := s.records[table][id]
	if !ok {
		return nil, notFound(table, id)
	}
	s.tickIngestion(rec)

	cp := clone(*rec)
	return &cp, nil
}

// PatchRecord implements recordstore.Client.
func (s *Store) PatchRecord(
	_ context.Context,
	table, id string,
	fields map[string]any,
) (*recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodPatchRecord); err != nil {
		return nil, err
	}
	s.patches = append(s.patches, Patch{Table: table, ID: id, Fields: clone(fields)})

	rec, ok := s.records[table][id]
	if !ok {
		return nil, notFound(table, id)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}

	for name, value := range fields {
		entries, isAttachments := value.([]map[string]any)
		if !isAttachments {
			rec.Fields[name] = clone(value)
			continue
		}
		rec.Fields[name] = s.mergeAttachments(rec.Fields[name], entries)
	}

	cp := clone(*rec)
	return &cp, nil
}

// CreateRecord implements recordstore.Client.
func (s *Store) CreateRecord(_ context.Context, table string, fields map[string]any) (*recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodCreateRecord); err != nil {
		return nil, err
	}

	s.registerChoices(table, fields)

	s.seq++
	rec := &recordstore.Record{
		ID:          fmt.Sprintf("rec%04d", s.seq),
		CreatedTime: "2026-01-01T00:00:00.000Z",
		Fields:      clone(fields),
	}
	if s.records[table] == nil {
		s.records[table] = map[string]*recordstore.Record{}
	}
	s.records[table][rec.ID] = rec

	cp := clone(*rec)
	return &cp, nil
}

// DeleteRecord implements recordstore.Client.
func (s *Store) DeleteRecord(_ context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodDeleteRecord); err != nil {
		return err
	}
	if _, ok := s.records[table][id]; !ok {
		return notFound(table, id)
	}
	delete(s.records[table], id)
	return nil
}

// FindRecords implements recordstore.Client.
func (s *Store) FindRecords(
	_ context.Context,
	table string,
	opts recordstore.FindOptions,
) ([]recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodFindRecords); err != nil {
		return nil, err
	}
	if s.FindFunc == nil {
		return nil, nil
	}

	found := s.FindFunc(table, opts)
	if opts.MaxRecords > 0 && len(found) > opts.MaxRecords {
		found = found[:opts.MaxRecords]
	}
	return clone(found), nil
}

// ListTables implements recordstore.Client.
func (s *Store) ListTables(_ context.Context) ([]recordstore.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodListTables); err != nil {
		return nil, err
	}
	return clone(s.tables), nil
}

// PatchFieldSchema implements recordstore.Client.
func (s *Store) PatchFieldSchema(_ context.Context, tableID string, def recordstore.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(MethodPatchFieldSchema); err != nil {
		return err
	}

	for ti := range s.tables {
		if s.tables[ti].ID != tableID {
			continue
		}
		for fi := range s.tables[ti].Fields {
			if s.tables[ti].Fields[fi].ID == def.ID {
				s.tables[ti].Fields[fi].Options = clone(def.Options)
				return nil
			}
		}
	}
	return docerr.NotFound("field not found", docerr.CodeFieldNotFound, errx.D{"table_id": tableID, "field_id": def.ID})
}

func (s *Store) enter(method string) error {
	s.calls[method]++

	f, ok := s.failures[method]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.err
}

// mergeAttachments resolves {id} references against the current value and
// assigns ids to new entries.
func (s *Store) mergeAttachments(current any, entries []map[string]any) []any {
	existing := lo.SliceToMap(cast.ToSlice(current), func(item any) (string, map[string]any) {
		m := cast.ToStringMap(item)
		return cast.ToString(m["id"]), m
	})

	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if id := cast.ToString(e["id"]); id != "" {
			if prev, ok := existing[id]; ok {
				out = append(out, prev)
			}
			continue
		}

		s.seq++
		att := map[string]any{
			"id":       fmt.Sprintf("att%04d", s.seq),
			"url":      cast.ToString(e["url"]),
			"filename": cast.ToString(e["filename"]),
		}
		switch {
		case s.IngestAfterReads == 0:
			ingest(att)
		case s.IngestAfterReads > 0:
			s.pending[cast.ToString(att["id"])] = s.IngestAfterReads
		}
		out = append(out, att)
	}
	return out
}

func (s *Store) tickIngestion(rec *recordstore.Record) {
	for _, value := range rec.Fields {
		for _, item := range cast.ToSlice(value) {
			att, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id := cast.ToString(att["id"])
			left, pending := s.pending[id]
			if !pending {
				continue
			}
			left--
			if left > 0 {
				s.pending[id] = left
				continue
			}
			delete(s.pending, id)
			ingest(att)
		}
	}
}

func ingest(att map[string]any) {
	att["url"] = HostedURLPrefix + cast.ToString(att["id"]) + "/" + cast.ToString(att["filename"])
}

func (s *Store) registerChoices(table string, fields map[string]any) {
	for ti := range s.tables {
		tbl := &s.tables[ti]
		if tbl.Name != table && tbl.ID != table {
			continue
		}
		for fi := range tbl.Fields {
			f := &tbl.Fields[fi]
			if f.Type != recordstore.FieldTypeSingleSelect && f.Type != recordstore.FieldTypeMultipleSelect {
				continue
			}
			value, ok := fields[f.Name]
			if !ok {
				continue
			}
			names := cast.ToStringSlice(value)
			if f.Type == recordstore.FieldTypeSingleSelect {
				names = []string{cast.ToString(value)}
			}
			s.addChoices(f, names)
		}
	}
}

func (s *Store) addChoices(f *recordstore.Field, names []string) {
	if f.Options == nil {
		f.Options = map[string]any{}
	}
	known := lo.Map(f.Choices(), func(c recordstore.Choice, _ int) string { return c.Name })
	choices := cast.ToSlice(f.Options["choices"])
	for _, name := range names {
		if name == "" || lo.Contains(known, name) {
			continue
		}
		s.seq++
		choices = append(choices, map[string]any{"id": fmt.Sprintf("sel%04d", s.seq), "name": name})
		known = append(known, name)
	}
	f.Options["choices"] = choices
}

func notFound(table, id string) error {
	return docerr.NotFound("record store: Could not find record "+id, docerr.CodeRecordNotFound, errx.D{
		"table":     table,
		"record_id": id,
	})
}

// clone deep-copies v through JSON so callers never share maps with the store.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err = json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
