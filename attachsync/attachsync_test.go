package attachsync_test

import (
	"strings"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/attachsync"
	"github.com/rise-and-shine/projectdocs/blobstore/blobstoretest"
	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/recordstore/recordstoretest"
	"github.com/rise-and-shine/projectdocs/slot"
)

const table = "Projects"

var (
	finalMap = slot.Definition{Key: slot.FinalMap, StoreField: "Final Map", Cardinality: slot.Single}
	photos   = slot.Definition{Key: slot.ProjectPhotos, StoreField: "Project Photos", Cardinality: slot.MultiAppend}
	draftMap = slot.Definition{
		Key:                 slot.DraftMap,
		StoreField:          "Draft Map",
		Cardinality:         slot.MultiVersioned,
		OwnerEditable:       true,
		VersionCounterField: "Draft Map Version",
	}
)

type fixture struct {
	sync    *attachsync.Synchronizer
	blobs   *blobstoretest.Store
	records *recordstoretest.Store
}

func newFixture(t *testing.T, ingestAfterReads int) fixture {
	t.Helper()

	log, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	blobs := blobstoretest.New()
	records := recordstoretest.New()
	records.IngestAfterReads = ingestAfterReads
	records.PutRecord(table, recordstore.Record{ID: "rec1", Fields: map[string]any{"Name": "Orchard"}})

	s, err := attachsync.New(attachsync.Config{
		FolderPrefix:     "projects",
		ImageInterval:    time.Millisecond,
		ImageBudget:      5 * time.Millisecond,
		DocumentInterval: time.Millisecond,
		DocumentBudget:   5 * time.Millisecond,
	}, table, blobs, records, log)
	require.NoError(t, err)

	return fixture{sync: s, blobs: blobs, records: records}
}

func input(def slot.Definition, filename, contentType string) attachsync.Input {
	return attachsync.Input{
		RecordID:    "rec1",
		Slot:        def,
		Data:        []byte("content of " + filename),
		Filename:    filename,
		ContentType: contentType,
	}
}

func field(t *testing.T, f fixture, name string) []recordstore.Attachment {
	t.Helper()
	rec, ok := f.records.Record(table, "rec1")
	require.True(t, ok)
	return recordstore.AttachmentsFromField(rec.Fields[name])
}

func TestAttachSingleSlotReplaces(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.sync.Attach(t.Context(), input(finalMap, "first.png", "image/png"))
	require.NoError(t, err)

	res, err := f.sync.Attach(t.Context(), input(finalMap, "second.png", "image/png"))
	require.NoError(t, err)

	atts := field(t, f, "Final Map")
	require.Len(t, atts, 1)
	assert.Equal(t, "second.png", atts[0].Filename)

	assert.True(t, res.Hosted())
	assert.True(t, strings.HasPrefix(res.Attachment.URL, recordstoretest.HostedURLPrefix))
	assert.Zero(t, res.Version)
	assert.Empty(t, f.blobs.Deletes())
}

func TestAttachAppendSlotGrows(t *testing.T) {
	f := newFixture(t, -1)

	ids := map[string]bool{}
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		res, err := f.sync.Attach(t.Context(), input(photos, name, "image/jpeg"))
		require.NoError(t, err)
		assert.False(t, res.Hosted())
		assert.Len(t, field(t, f, "Project Photos"), i+1)
		ids[res.Pending.BlobID] = true
	}

	atts := field(t, f, "Project Photos")
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, []string{atts[0].Filename, atts[1].Filename, atts[2].Filename})
	assert.Len(t, ids, 3)

	// one read per attach to build the new value, no polling
	assert.Equal(t, 3, f.records.Calls(recordstoretest.MethodGetRecord))
}

func TestAttachVersionedWritesCounter(t *testing.T) {
	f := newFixture(t, -1)

	for want := 1; want <= 3; want++ {
		res, err := f.sync.Attach(t.Context(), input(draftMap, "plan.pdf", "application/pdf"))
		require.NoError(t, err)
		assert.Equal(t, want, res.Version)
	}

	// delete the latest version, the next one is still 4
	_, err := f.sync.DeleteAt(t.Context(), "rec1", draftMap, 2)
	require.NoError(t, err)

	res, err := f.sync.Attach(t.Context(), input(draftMap, "plan.pdf", "application/pdf"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Version)
	assert.Equal(t, "draftMap_v4.pdf", res.Attachment.Filename)

	rec, ok := f.records.Record(table, "rec1")
	require.True(t, ok)
	assert.EqualValues(t, 4, rec.Fields["Draft Map Version"])
}

func TestAttachCompensatesFailedPatch(t *testing.T) {
	f := newFixture(t, 0)
	f.records.Fail(recordstoretest.MethodPatchRecord, 1, errx.New("store unavailable"))

	_, err := f.sync.Attach(t.Context(), input(finalMap, "map.pdf", "application/pdf"))
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, docerr.CodeUpstream))

	uploads := f.blobs.Uploads()
	require.Len(t, uploads, 1)
	deletes := f.blobs.Deletes()
	require.Len(t, deletes, 1)
	assert.False(t, f.blobs.Has(deletes[0]))
}

func TestAttachKeepsRecordStoreErrorKind(t *testing.T) {
	f := newFixture(t, 0)

	in := input(photos, "a.jpg", "image/jpeg")
	in.RecordID = "recMissing"

	_, err := f.sync.Attach(t.Context(), in)
	assert.True(t, errx.IsCodeIn(err, docerr.CodeRecordNotFound))
	assert.Zero(t, f.blobs.Calls())
}

func TestAttachPolling(t *testing.T) {
	t.Run("hosted after a few reads", func(t *testing.T) {
		f := newFixture(t, 2)

		res, err := f.sync.Attach(t.Context(), input(finalMap, "map.pdf", "application/pdf"))
		require.NoError(t, err)

		assert.True(t, res.Hosted())
		assert.True(t, strings.HasPrefix(res.Attachment.URL, recordstoretest.HostedURLPrefix))
		assert.Equal(t, 2, f.records.Calls(recordstoretest.MethodGetRecord))
	})

	t.Run("budget exhausted", func(t *testing.T) {
		f := newFixture(t, -1)

		res, err := f.sync.Attach(t.Context(), input(finalMap, "photo.png", "image/png"))
		require.NoError(t, err)

		assert.False(t, res.Hosted())
		assert.Equal(t, res.Pending.BlobURL, res.Attachment.URL)
		assert.Equal(t, 5, f.records.Calls(recordstoretest.MethodGetRecord))
		assert.Empty(t, f.blobs.Deletes())
	})

	t.Run("read errors count as not hosted", func(t *testing.T) {
		f := newFixture(t, 1)
		f.records.Fail(recordstoretest.MethodGetRecord, 2, errx.New("timeout"))

		res, err := f.sync.Attach(t.Context(), input(finalMap, "photo.png", "image/png"))
		require.NoError(t, err)
		assert.True(t, res.Hosted())
		assert.Equal(t, 3, f.records.Calls(recordstoretest.MethodGetRecord))
	})
}

func TestAttachUnconfiguredBlobStore(t *testing.T) {
	f := newFixture(t, 0)
	f.blobs.Unconfigured = true

	_, err := f.sync.Attach(t.Context(), input(finalMap, "map.pdf", "application/pdf"))
	assert.True(t, errx.IsCodeIn(err, docerr.CodeConfiguration))
	assert.Zero(t, f.records.Calls(recordstoretest.MethodPatchRecord))
}

func TestAttachEmptyFile(t *testing.T) {
	f := newFixture(t, 0)

	in := input(finalMap, "map.pdf", "application/pdf")
	in.Data = nil

	_, err := f.sync.Attach(t.Context(), in)
	assert.True(t, errx.IsCodeIn(err, docerr.CodeEmptyFile))
	assert.Zero(t, f.blobs.Calls())
}

func TestReplaceAt(t *testing.T) {
	f := newFixture(t, -1)
	for range 2 {
		_, err := f.sync.Attach(t.Context(), input(draftMap, "plan.pdf", "application/pdf"))
		require.NoError(t, err)
	}

	t.Run("out of range", func(t *testing.T) {
		uploads := len(f.blobs.Uploads())
		_, err := f.sync.ReplaceAt(t.Context(), input(draftMap, "x.pdf", "application/pdf"), 5)
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, docerr.CodeIndexOutOfRange))
		assert.Equal(t, errx.T_NotFound, errx.GetType(err))
		assert.Len(t, f.blobs.Uploads(), uploads)
	})

	t.Run("keeps version of replaced entry", func(t *testing.T) {
		res, err := f.sync.ReplaceAt(t.Context(), input(draftMap, "revised.docx", ""), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Version)

		atts := field(t, f, "Draft Map")
		require.Len(t, atts, 2)
		assert.Equal(t, "draftMap_v1.docx", atts[0].Filename)
		assert.Equal(t, "draftMap_v2.pdf", atts[1].Filename)
	})

	t.Run("compensates failed patch", func(t *testing.T) {
		f.records.Fail(recordstoretest.MethodPatchRecord, 1, errx.New("boom"))
		deletes := len(f.blobs.Deletes())

		_, err := f.sync.ReplaceAt(t.Context(), input(draftMap, "again.pdf", "application/pdf"), 1)
		require.Error(t, err)
		assert.Len(t, f.blobs.Deletes(), deletes+1)
	})
}

func TestDeleteAtAndDetach(t *testing.T) {
	f := newFixture(t, -1)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		_, err := f.sync.Attach(t.Context(), input(photos, name, "image/jpeg"))
		require.NoError(t, err)
	}

	_, err := f.sync.DeleteAt(t.Context(), "rec1", photos, 1)
	require.NoError(t, err)

	atts := field(t, f, "Project Photos")
	require.Len(t, atts, 2)
	assert.Equal(t, "a.jpg", atts[0].Filename)
	assert.Equal(t, "c.jpg", atts[1].Filename)

	_, err = f.sync.DeleteAt(t.Context(), "rec1", photos, -1)
	assert.True(t, errx.IsCodeIn(err, docerr.CodeIndexOutOfRange))

	rec, err := f.sync.Detach(t.Context(), "rec1", photos)
	require.NoError(t, err)
	assert.Empty(t, recordstore.AttachmentsFromField(rec.Fields["Project Photos"]))
	assert.Empty(t, field(t, f, "Project Photos"))
}

func TestProfileFor(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		contentType string
		filename    string
		want        string
	}{
		{"application/pdf", "a.pdf", "document"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", "document"},
		{"", "contract.DOCX", "document"},
		{"application/zip", "bundle", "document"},
		{"image/png", "a.png", "image"},
		{"", "", "image"},
	}

	for _, tc := range tests {
		t.Run(tc.contentType+"|"+tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.want, f.sync.ProfileFor(tc.contentType, tc.filename).Name)
		})
	}
}

func TestPollProfileAttempts(t *testing.T) {
	assert.EqualValues(t, 10, attachsync.PollProfile{Interval: time.Second, Budget: 10 * time.Second}.Attempts())
	assert.EqualValues(t, 20, attachsync.PollProfile{Interval: 2 * time.Second, Budget: 40 * time.Second}.Attempts())
	assert.EqualValues(t, 1, attachsync.PollProfile{}.Attempts())
}
