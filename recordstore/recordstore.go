// Package recordstore provides an abstraction over the external record store.
//
// The record store is the system of truth for project records and owns the
// schema of their fields, including the choices of enumerated fields. Nothing
// returned here is cached: every read goes to the store.
package recordstore

import (
	"context"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Client defines the record store operations used by this service.
// Implementations must be safe for concurrent use.
type Client interface {
	// GetRecord returns the record with the given id.
	// A missing record fails with docerr.CodeRecordNotFound.
	GetRecord(ctx context.Context, table, id string) (*Record, error)

	// PatchRecord updates the given fields of a record with typecast enabled.
	// A rejected payload fails with docerr.CodeValidationRejected.
	PatchRecord(ctx context.Context, table, id string, fields map[string]any) (*Record, error)

	// CreateRecord creates a record with typecast enabled.
	CreateRecord(ctx context.Context, table string, fields map[string]any) (*Record, error)

	// DeleteRecord deletes a record.
	DeleteRecord(ctx context.Context, table, id string) error

	// FindRecords lists records matching opts.Formula.
	FindRecords(ctx context.Context, table string, opts FindOptions) ([]Record, error)

	// ListTables returns the schema of every table of the base.
	ListTables(ctx context.Context) ([]Table, error)

	// PatchFieldSchema rewrites one field definition. The options object is
	// replaced as a whole.
	PatchFieldSchema(ctx context.Context, tableID string, def FieldDefinition) error
}

// Record is a store record.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// Field returns the raw value of a field, nil when absent.
func (r *Record) Field(name string) any {
	if r == nil || r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// FindOptions filters FindRecords.
type FindOptions struct {
	Formula    string
	MaxRecords int
	Fields     []string
}

// Table is the schema of one table.
type Table struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PrimaryFieldID string  `json:"primaryFieldId,omitempty"`
	Fields         []Field `json:"fields"`
}

// FieldByName looks up a field by its display name.
func (t Table) FieldByName(name string) (Field, bool) {
	return lo.Find(t.Fields, func(f Field) bool { return f.Name == name })
}

// Field is the schema of one field.
type Field struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Options map[string]any `json:"options,omitempty"`
}

// Choice is one option of a select field. Attrs holds every attribute other
// than id and name (color, etc.) untouched.
type Choice struct {
	ID    string
	Name  string
	Attrs map[string]any
}

// Choices decodes options.choices.
func (f Field) Choices() []Choice {
	raw := cast.ToSlice(f.Options["choices"])
	choices := make([]Choice, 0, len(raw))
	for _, item := range raw {
		m := cast.ToStringMap(item)
		attrs := lo.OmitByKeys(m, []string{"id", "name"})
		choices = append(choices, Choice{
			ID:    cast.ToString(m["id"]),
			Name:  cast.ToString(m["name"]),
			Attrs: attrs,
		})
	}
	return choices
}

// ChoiceOrder decodes options.choiceOrder, nil when the field has no explicit order.
func (f Field) ChoiceOrder() []string {
	v, ok := f.Options["choiceOrder"]
	if !ok {
		return nil
	}
	return cast.ToStringSlice(v)
}

// FieldDefinition is the payload of a field schema patch.
type FieldDefinition struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Options map[string]any `json:"options"`
}

// Field types with enumerated choices.
const (
	FieldTypeSingleSelect   = "singleSelect"
	FieldTypeMultipleSelect = "multipleSelects"
	FieldTypeAttachments    = "multipleAttachments"
)
