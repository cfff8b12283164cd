package slot_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/slot"
)

func TestRegistry(t *testing.T) {
	r, err := slot.NewRegistry(slot.Config{
		Fields:          map[slot.Key]string{slot.FinalMap: "Final Site Map"},
		VersionCounters: map[slot.Key]string{slot.DraftMap: "Draft Map Version"},
	})
	require.NoError(t, err)

	def, err := r.Lookup("finalMap")
	require.NoError(t, err)
	assert.Equal(t, "Final Site Map", def.StoreField)
	assert.Equal(t, slot.Single, def.Cardinality)

	draft, err := r.Lookup("draftMap")
	require.NoError(t, err)
	assert.True(t, draft.OwnerEditable)
	assert.Equal(t, "Draft Map Version", draft.VersionCounterField)

	_, err = r.Lookup("comments")
	assert.True(t, errx.IsCodeIn(err, docerr.CodeUnknownSlot))

	_, err = r.Lookup("budget")
	require.Error(t, err)
	assert.Equal(t, errx.T_Validation, errx.GetType(err))

	assert.Equal(t, slot.Comments, r.Comments().Key)
	assert.Len(t, r.Definitions(), 5)
}

func TestRegistryDefaultVersionCounter(t *testing.T) {
	r, err := slot.NewRegistry(slot.Config{})
	require.NoError(t, err)

	draft, err := r.Lookup("draftMap")
	require.NoError(t, err)
	assert.Equal(t, "Draft Map Version", draft.VersionCounterField)
}

func TestRegistryRejectsUnknownConfig(t *testing.T) {
	_, err := slot.NewRegistry(slot.Config{Fields: map[slot.Key]string{"budget": "Budget"}})
	assert.True(t, errx.IsCodeIn(err, docerr.CodeUnknownSlot))

	_, err = slot.NewRegistry(slot.Config{VersionCounters: map[slot.Key]string{slot.FinalMap: "X"}})
	assert.True(t, errx.IsCodeIn(err, docerr.CodeConfiguration))

	_, err = slot.NewRegistry(slot.Config{VersionCounters: map[slot.Key]string{slot.DraftMap: ""}})
	assert.True(t, errx.IsCodeIn(err, docerr.CodeConfiguration))

	assert.Panics(t, func() {
		slot.MustRegistry(slot.Config{Fields: map[slot.Key]string{"budget": "Budget"}})
	})
}

func draftDef() slot.Definition {
	return slot.Definition{Key: slot.DraftMap, StoreField: "Draft Map", Cardinality: slot.MultiVersioned}
}

func TestResolveVersioned(t *testing.T) {
	tests := []struct {
		name        string
		current     []recordstore.Attachment
		counter     int
		file        slot.File
		wantName    string
		wantVersion int
	}{
		{
			name:        "first version",
			file:        slot.File{Filename: "Site Plan.PDF", ContentType: "application/pdf"},
			wantName:    "draftMap_v1.pdf",
			wantVersion: 1,
		},
		{
			name: "counts existing",
			current: []recordstore.Attachment{
				{Filename: "draftMap_v1.pdf"},
				{Filename: "draftMap_v2.pdf"},
			},
			file:        slot.File{Filename: "x.pdf"},
			wantName:    "draftMap_v3.pdf",
			wantVersion: 3,
		},
		{
			name:        "earlier versions deleted",
			current:     []recordstore.Attachment{{Filename: "draftMap_v4.pdf"}},
			file:        slot.File{Filename: "x.pdf"},
			wantName:    "draftMap_v5.pdf",
			wantVersion: 5,
		},
		{
			name:        "latest version deleted, counter remembers",
			current:     []recordstore.Attachment{{Filename: "draftMap_v1.pdf"}},
			counter:     2,
			file:        slot.File{Filename: "x.png"},
			wantName:    "draftMap_v3.png",
			wantVersion: 3,
		},
		{
			name:        "extension from content type",
			file:        slot.File{Filename: "scan", ContentType: "image/jpeg"},
			wantName:    "draftMap_v1.jpg",
			wantVersion: 1,
		},
		{
			name:        "unknown content type",
			file:        slot.File{Filename: "blob", ContentType: "application/x-made-up"},
			wantName:    "draftMap_v1.bin",
			wantVersion: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := slot.Resolve(draftDef(), tc.current, tc.counter, tc.file)
			assert.Equal(t, tc.wantName, res.Filename)
			assert.Equal(t, tc.wantVersion, res.Version)
			assert.Equal(t, slot.ModeAppend, res.Mode)
		})
	}
}

func TestResolvePlain(t *testing.T) {
	single := slot.Definition{Key: slot.FinalMap, Cardinality: slot.Single}
	res := slot.Resolve(single, []recordstore.Attachment{{Filename: "old.pdf"}}, 0, slot.File{Filename: "final.pdf"})
	assert.Equal(t, slot.Resolution{Filename: "final.pdf", Mode: slot.ModeReplace}, res)

	appendDef := slot.Definition{Key: slot.ProjectPhotos, Cardinality: slot.MultiAppend}
	res = slot.Resolve(appendDef, nil, 0, slot.File{Filename: "photo.jpg"})
	assert.Equal(t, slot.Resolution{Filename: "photo.jpg", Mode: slot.ModeAppend}, res)

	res = slot.Resolve(appendDef, nil, 0, slot.File{ContentType: "image/png"})
	assert.Equal(t, "projectPhotos.png", res.Filename)
}

func TestVersionMonotonicity(t *testing.T) {
	var current []recordstore.Attachment
	counter := 0

	for want := 1; want <= 4; want++ {
		res := slot.Resolve(draftDef(), current, counter, slot.File{Filename: "d.pdf"})
		require.Equal(t, want, res.Version)
		current = append(current, recordstore.Attachment{Filename: res.Filename})
		counter = res.Version

		// drop the oldest version after every second attach
		if want%2 == 0 {
			current = current[1:]
		}
	}

	// delete everything; numbering still continues
	res := slot.Resolve(draftDef(), nil, counter, slot.File{Filename: "d.pdf"})
	assert.Equal(t, 5, res.Version)
}

func TestResolveReplace(t *testing.T) {
	res := slot.ResolveReplace(draftDef(), recordstore.Attachment{Filename: "draftMap_v3.pdf"}, 0, slot.File{Filename: "n.docx"})
	assert.Equal(t, "draftMap_v3.docx", res.Filename)
	assert.Equal(t, 3, res.Version)

	res = slot.ResolveReplace(draftDef(), recordstore.Attachment{Filename: "legacy.pdf"}, 1, slot.File{Filename: "n.pdf"})
	assert.Equal(t, "draftMap_v2.pdf", res.Filename)

	photos := slot.Definition{Key: slot.ProjectPhotos, Cardinality: slot.MultiAppend}
	res = slot.ResolveReplace(photos, recordstore.Attachment{Filename: "a.jpg"}, 0, slot.File{Filename: "b.jpg"})
	assert.Equal(t, slot.Resolution{Filename: "b.jpg", Mode: slot.ModeReplace}, res)
}

func TestParseVersion(t *testing.T) {
	v, ok := slot.ParseVersion(slot.DraftMap, "draftMap_v12.pdf")
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = slot.ParseVersion(slot.DraftMap, "finalMap_v1.pdf")
	assert.False(t, ok)

	_, ok = slot.ParseVersion(slot.DraftMap, "draftMap_v1x.pdf")
	assert.False(t, ok)
}
