package recordstore_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/recordstore"
)

func TestAttachmentsFromField(t *testing.T) {
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"att1","url":"https://v5.airtableusercontent.com/a","filename":"draftMap_v1.pdf","type":"application/pdf","size":2048},
		{"url":"https://blobs.test/b","filename":"b.png"}
	]`), &decoded))

	got := recordstore.AttachmentsFromField(decoded)
	require.Len(t, got, 2)
	assert.Equal(t, recordstore.Attachment{
		ID:          "att1",
		URL:         "https://v5.airtableusercontent.com/a",
		Filename:    "draftMap_v1.pdf",
		ContentType: "application/pdf",
		Size:        2048,
	}, got[0])
	assert.Equal(t, "b.png", got[1].Filename)

	assert.Empty(t, recordstore.AttachmentsFromField(nil))
	assert.Empty(t, recordstore.AttachmentsFromField("not a list"))
}

func TestAttachmentsToField(t *testing.T) {
	got := recordstore.AttachmentsToField([]recordstore.Attachment{
		{ID: "att1", URL: "https://dl.airtable.com/x", Filename: "x.pdf"},
		{URL: "https://blobs.test/y", Filename: "y.pdf"},
	})

	assert.Equal(t, []map[string]any{
		{"id": "att1"},
		{"url": "https://blobs.test/y", "filename": "y.pdf"},
	}, got)
}

func TestHostedMatcher(t *testing.T) {
	m, err := recordstore.NewHostedMatcher("")
	require.NoError(t, err)

	assert.True(t, m.IsHosted("https://v5.airtableusercontent.com/v3/u/abc"))
	assert.True(t, m.IsHosted("https://dl.airtable.com/.attachments/abc/x.pdf"))
	assert.False(t, m.IsHosted("https://blobs.test/projects/rec1/x.pdf"))
	assert.False(t, m.IsHosted(""))

	_, err = recordstore.NewHostedMatcher("(")
	require.Error(t, err)
}

func TestFieldChoices(t *testing.T) {
	f := recordstore.Field{
		ID:   "fld1",
		Name: "Season",
		Type: recordstore.FieldTypeSingleSelect,
		Options: map[string]any{
			"choices": []any{
				map[string]any{"id": "sel1", "name": "23-24", "color": "blueLight2"},
				map[string]any{"id": "sel2", "name": "24-25"},
			},
			"choiceOrder": []any{"sel2", "sel1"},
		},
	}

	choices := f.Choices()
	require.Len(t, choices, 2)
	assert.Equal(t, "sel1", choices[0].ID)
	assert.Equal(t, "23-24", choices[0].Name)
	assert.Equal(t, map[string]any{"color": "blueLight2"}, choices[0].Attrs)
	assert.Equal(t, []string{"sel2", "sel1"}, f.ChoiceOrder())

	assert.Nil(t, recordstore.Field{}.ChoiceOrder())
}

func TestTableFieldByName(t *testing.T) {
	tbl := recordstore.Table{Fields: []recordstore.Field{{ID: "fld1", Name: "Season"}}}

	f, ok := tbl.FieldByName("Season")
	assert.True(t, ok)
	assert.Equal(t, "fld1", f.ID)

	_, ok = tbl.FieldByName("Nope")
	assert.False(t, ok)
}
