// Package slot defines the attachment slots of a project record.
//
// The set of slots is closed: every key is a typed constant with a static
// definition, and the configuration may only rename the record store field
// a slot maps to. An unknown key in the configuration fails at startup, an
// unknown key in a request fails with a validation error.
package slot

import (
	"sort"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/projectdocs/docerr"
)

// Key is the logical name of a slot.
type Key string

// Known slots.
const (
	DraftMap      Key = "draftMap"
	FinalMap      Key = "finalMap"
	Invoice       Key = "invoice"
	ProjectPhotos Key = "projectPhotos"
	Contracts     Key = "contracts"

	// Comments is the pseudo-slot of the comments text field. It is not an
	// attachment slot and is never returned by Lookup.
	Comments Key = "comments"
)

// Cardinality describes how a slot holds its attachments.
type Cardinality int

const (
	// Single holds one active attachment. Writes replace it.
	Single Cardinality = iota
	// MultiAppend accumulates attachments under their original names.
	MultiAppend
	// MultiVersioned accumulates attachments under generated "{key}_v{N}" names.
	MultiVersioned
)

func (c Cardinality) String() string {
	switch c {
	case Single:
		return "single"
	case MultiAppend:
		return "multi_append"
	case MultiVersioned:
		return "multi_versioned"
	default:
		return "unknown"
	}
}

// Appends reports whether writes append to the current field value.
func (c Cardinality) Appends() bool {
	return c != Single
}

// Definition is the static configuration of a slot.
type Definition struct {
	Key         Key
	StoreField  string
	Cardinality Cardinality

	// OwnerEditable allows the record owner to insert and replace.
	OwnerEditable bool

	// VersionCounterField is a numeric record field holding the highest
	// version ever issued for the slot. Required for MultiVersioned slots.
	VersionCounterField string
}

// Config renames the record store fields of the slots.
type Config struct {
	// Fields maps a slot key to its record store field name.
	Fields map[Key]string `yaml:"fields"`

	// VersionCounters maps a versioned slot key to its counter field.
	VersionCounters map[Key]string `yaml:"version_counters"`
}

func builtin() map[Key]Definition {
	return map[Key]Definition{
		DraftMap: {
			Key:                 DraftMap,
			StoreField:          "Draft Map",
			Cardinality:         MultiVersioned,
			OwnerEditable:       true,
			VersionCounterField: "Draft Map Version",
		},
		FinalMap:      {Key: FinalMap, StoreField: "Final Map", Cardinality: Single},
		Invoice:       {Key: Invoice, StoreField: "Invoice", Cardinality: Single},
		ProjectPhotos: {Key: ProjectPhotos, StoreField: "Project Photos", Cardinality: MultiAppend},
		Contracts:     {Key: Contracts, StoreField: "Contracts", Cardinality: MultiAppend},
		Comments:      {Key: Comments, StoreField: "Comments", Cardinality: Single},
	}
}

// Registry holds the definitions of every known slot.
type Registry struct {
	defs map[Key]Definition
}

// NewRegistry builds the registry, applying the field names of cfg.
func NewRegistry(cfg Config) (*Registry, error) {
	defs := builtin()

	for key, field := range cfg.Fields {
		def, ok := defs[key]
		if !ok {
			return nil, unknownSlot(string(key))
		}
		if field != "" {
			def.StoreField = field
		}
		defs[key] = def
	}

	for key, field := range cfg.VersionCounters {
		def, ok := defs[key]
		if !ok {
			return nil, unknownSlot(string(key))
		}
		if def.Cardinality != MultiVersioned {
			return nil, errx.New(
				"version counter configured for a non-versioned slot",
				errx.WithCode(docerr.CodeConfiguration),
				errx.WithDetails(errx.D{"slot": key, "cardinality": def.Cardinality.String()}),
			)
		}
		def.VersionCounterField = field
		defs[key] = def
	}

	for _, def := range defs {
		if def.Cardinality == MultiVersioned && def.VersionCounterField == "" {
			return nil, errx.New(
				"versioned slot has no version counter field",
				errx.WithCode(docerr.CodeConfiguration),
				errx.WithDetails(errx.D{"slot": def.Key}),
			)
		}
	}

	return &Registry{defs: defs}, nil
}

// MustRegistry is NewRegistry that panics on error. Intended for startup.
func MustRegistry(cfg Config) *Registry {
	r, err := NewRegistry(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition of an attachment slot.
func (r *Registry) Lookup(key string) (Definition, error) {
	def, ok := r.defs[Key(key)]
	if !ok || def.Key == Comments {
		return Definition{}, unknownSlot(key)
	}
	return def, nil
}

// Comments returns the definition of the comments pseudo-slot.
func (r *Registry) Comments() Definition {
	return r.defs[Comments]
}

// Definitions returns the attachment slots sorted by key.
func (r *Registry) Definitions() []Definition {
	defs := lo.Filter(lo.Values(r.defs), func(d Definition, _ int) bool { return d.Key != Comments })
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

func unknownSlot(key string) error {
	return docerr.Validation("unknown document slot", docerr.CodeUnknownSlot, errx.D{"slot": key})
}
