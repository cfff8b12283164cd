// Package attachsync moves an uploaded file into an attachment field of a record.
//
// An attach runs through the states
//
//	start -> blob_uploaded -> record_patched -> host_confirmed | host_timed_out -> done
//
// and reaches failed from any of the first three. A failure after the upload
// deletes the blob exactly once before the error is returned, so no blob is
// left that no record references.
//
// Known limitations, left unresolved on purpose:
//   - Appending and index-based changes read the field, modify it and write it
//     back. Two concurrent calls on the same record and slot can both read the
//     same value and the later write discards the earlier one.
//   - Polling re-reads the field. A concurrent change of the same field while a
//     poll runs can make the poll misreport hosting.
//
// Operations are detached from the caller's cancellation: a client that goes
// away does not interrupt an upload, a patch or a poll.
package attachsync

import (
	"context"
	"regexp"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/blobstore"
	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/slot"
)

// documentPattern marks content the record store ingests slowly.
var documentPattern = regexp.MustCompile(`(?i)pdf|msword|officedocument|opendocument|rtf|zip`) //nolint:gochecknoglobals // compiled once

// Synchronizer implements the attach, replace, delete and detach operations.
type Synchronizer struct {
	blobs   blobstore.Store
	records recordstore.Client
	hosted  *recordstore.HostedMatcher
	table   string
	cfg     Config
	log     logger.Logger
}

// New creates a Synchronizer writing to records of table.
func New(
	cfg Config,
	table string,
	blobs blobstore.Store,
	records recordstore.Client,
	log logger.Logger,
) (*Synchronizer, error) {
	hosted, err := recordstore.NewHostedMatcher(cfg.HostedPattern)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &Synchronizer{
		blobs:   blobs,
		records: records,
		hosted:  hosted,
		table:   table,
		cfg:     cfg,
		log:     log.Named("attachsync"),
	}, nil
}

// Input is a file to store in a slot.
type Input struct {
	RecordID    string
	Slot        slot.Definition
	Data        []byte
	Filename    string
	ContentType string
}

// PendingUpload is the blob of one operation between upload and patch.
type PendingUpload struct {
	BlobID   string
	BlobURL  string
	RecordID string
	SlotKey  slot.Key
}

// Attachment is the stored file as seen by the caller.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
	Hosted      bool
}

// Result is the outcome of Attach and ReplaceAt.
type Result struct {
	Record     *recordstore.Record
	Attachment Attachment
	Pending    PendingUpload
	// Version is zero for non-versioned slots.
	Version int
}

// Hosted reports whether the record store confirmed its own copy.
func (r *Result) Hosted() bool {
	return r.Attachment.Hosted
}

// Attach uploads in.Data and writes it to the slot. Append-style slots get the
// file added to the current value, single slots get it as the only element
// and are polled until the record store hosts it or the budget runs out.
func (s *Synchronizer) Attach(ctx context.Context, in Input) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	run := s.start(ctx, "attach", in.RecordID, in.Slot)

	if len(in.Data) == 0 {
		return nil, run.fail(docerr.Validation("file is empty", docerr.CodeEmptyFile, nil))
	}

	var (
		current []recordstore.Attachment
		counter int
	)
	if in.Slot.Cardinality.Appends() {
		rec, err := s.records.GetRecord(ctx, s.table, in.RecordID)
		if err != nil {
			return nil, run.fail(docerr.Upstream(err, docerr.CodeUpstream, nil))
		}
		current = recordstore.AttachmentsFromField(rec.Field(in.Slot.StoreField))
		if in.Slot.VersionCounterField != "" {
			counter = cast.ToInt(rec.Field(in.Slot.VersionCounterField))
		}
	}

	res := slot.Resolve(in.Slot, current, counter, slot.File{Filename: in.Filename, ContentType: in.ContentType})

	pending, err := s.upload(ctx, in, res.Filename)
	if err != nil {
		return nil, run.fail(err)
	}
	run.to(StateBlobUploaded, "blob_id", pending.BlobID, "filename", res.Filename)

	entry := recordstore.Attachment{URL: pending.BlobURL, Filename: res.Filename}
	value := []recordstore.Attachment{entry}
	if res.Mode == slot.ModeAppend {
		value = append(current, entry)
	}

	fields := map[string]any{in.Slot.StoreField: recordstore.AttachmentsToField(value)}
	if res.Version > 0 && in.Slot.VersionCounterField != "" {
		fields[in.Slot.VersionCounterField] = res.Version
	}

	return s.finish(ctx, run, in, pending, res, fields)
}

// ReplaceAt replaces the element at index of the slot with a new upload.
// An index outside the current value fails with NotFound before any upload.
func (s *Synchronizer) ReplaceAt(ctx context.Context, in Input, index int) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	run := s.start(ctx, "replace_at", in.RecordID, in.Slot)

	if len(in.Data) == 0 {
		return nil, run.fail(docerr.Validation("file is empty", docerr.CodeEmptyFile, nil))
	}

	current, err := s.currentValue(ctx, in.RecordID, in.Slot)
	if err != nil {
		return nil, run.fail(err)
	}
	if err = checkIndex(current, index); err != nil {
		return nil, run.fail(err)
	}

	res := slot.ResolveReplace(in.Slot, current[index], index, slot.File{Filename: in.Filename, ContentType: in.ContentType})

	pending, err := s.upload(ctx, in, res.Filename)
	if err != nil {
		return nil, run.fail(err)
	}
	run.to(StateBlobUploaded, "blob_id", pending.BlobID, "filename", res.Filename, "index", index)

	value := append([]recordstore.Attachment(nil), current...)
	value[index] = recordstore.Attachment{URL: pending.BlobURL, Filename: res.Filename}

	fields := map[string]any{in.Slot.StoreField: recordstore.AttachmentsToField(value)}

	return s.finish(ctx, run, in, pending, res, fields)
}

// DeleteAt removes the element at index of the slot.
func (s *Synchronizer) DeleteAt(
	ctx context.Context,
	recordID string,
	def slot.Definition,
	index int,
) (*recordstore.Record, error) {
	ctx = context.WithoutCancel(ctx)
	run := s.start(ctx, "delete_at", recordID, def)

	current, err := s.currentValue(ctx, recordID, def)
	if err != nil {
		return nil, run.fail(err)
	}
	if err = checkIndex(current, index); err != nil {
		return nil, run.fail(err)
	}

	value := append(append([]recordstore.Attachment(nil), current[:index]...), current[index+1:]...)

	rec, err := s.records.PatchRecord(ctx, s.table, recordID, map[string]any{
		def.StoreField: recordstore.AttachmentsToField(value),
	})
	if err != nil {
		return nil, run.fail(docerr.Upstream(err, docerr.CodeUpstream, nil))
	}

	run.to(StateDone, "index", index)
	return rec, nil
}

// Detach clears the slot.
func (s *Synchronizer) Detach(ctx context.Context, recordID string, def slot.Definition) (*recordstore.Record, error) {
	ctx = context.WithoutCancel(ctx)
	run := s.start(ctx, "detach", recordID, def)

	rec, err := s.records.PatchRecord(ctx, s.table, recordID, map[string]any{
		def.StoreField: []map[string]any{},
	})
	if err != nil {
		return nil, run.fail(docerr.Upstream(err, docerr.CodeUpstream, nil))
	}

	run.to(StateDone)
	return rec, nil
}

// finish patches the record, compensates on failure and polls single slots.
func (s *Synchronizer) finish(
	ctx context.Context,
	run *run,
	in Input,
	pending PendingUpload,
	res slot.Resolution,
	fields map[string]any,
) (*Result, error) {
	rec, err := s.records.PatchRecord(ctx, s.table, in.RecordID, fields)
	if err != nil {
		err = docerr.Upstream(err, docerr.CodeUpstream, errx.D{"blob_id": pending.BlobID})
		s.compensate(ctx, run, pending)
		return nil, run.fail(err)
	}
	run.to(StateRecordPatched)

	result := &Result{
		Record: rec,
		Attachment: Attachment{
			URL:         pending.BlobURL,
			Filename:    res.Filename,
			ContentType: in.ContentType,
		},
		Pending: pending,
		Version: res.Version,
	}

	if in.Slot.Cardinality == slot.Single {
		profile := s.ProfileFor(in.ContentType, in.Filename)
		polled, hostedURL, hosted := s.awaitHosting(ctx, run, in, rec, pending, profile)
		if hosted {
			result.Record = polled
			result.Attachment.URL = hostedURL
			result.Attachment.Hosted = true
			run.to(StateHostConfirmed, "profile", profile.Name)
		} else {
			run.to(StateHostTimedOut, "profile", profile.Name)
		}
	}

	run.to(StateDone, "hosted", result.Attachment.Hosted, "version", res.Version)
	return result, nil
}

func (s *Synchronizer) upload(ctx context.Context, in Input, filename string) (PendingUpload, error) {
	if !s.blobs.IsConfigured() {
		return PendingUpload{}, errx.New(
			"blob store is not configured",
			errx.WithCode(docerr.CodeConfiguration),
			errx.WithType(errx.T_Internal),
		)
	}

	blob, err := s.blobs.Upload(ctx, in.Data, blobstore.UploadOptions{
		Folder:       blobstore.Folder(s.cfg.FolderPrefix, in.RecordID, string(in.Slot.Key)),
		Filename:     filename,
		ContentType:  in.ContentType,
		ResourceType: blobstore.ResourceTypeFor(in.ContentType, filename),
	})
	if err != nil {
		return PendingUpload{}, docerr.Upstream(err, docerr.CodeUploadFailed, errx.D{"filename": filename})
	}

	pending := PendingUpload{
		BlobID:   blob.ID,
		BlobURL:  blob.URL,
		RecordID: in.RecordID,
		SlotKey:  in.Slot.Key,
	}
	if blob.URL == "" {
		s.blobs.Delete(ctx, blob.ID)
		return PendingUpload{}, errx.New(
			"blob store returned an empty url",
			errx.WithCode(docerr.CodeUploadFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"blob_id": blob.ID}),
		)
	}
	return pending, nil
}

// compensate deletes the blob of a failed operation. Its own failure is only
// logged by the blob store and never replaces the original error.
func (s *Synchronizer) compensate(ctx context.Context, run *run, pending PendingUpload) {
	run.log.With("blob_id", pending.BlobID).Info("deleting blob of failed operation")
	s.blobs.Delete(ctx, pending.BlobID)
}

func (s *Synchronizer) currentValue(
	ctx context.Context,
	recordID string,
	def slot.Definition,
) ([]recordstore.Attachment, error) {
	rec, err := s.records.GetRecord(ctx, s.table, recordID)
	if err != nil {
		return nil, docerr.Upstream(err, docerr.CodeUpstream, nil)
	}
	return recordstore.AttachmentsFromField(rec.Field(def.StoreField)), nil
}

// ProfileFor picks the polling profile of a file.
func (s *Synchronizer) ProfileFor(contentType, filename string) PollProfile {
	ext := strings.TrimPrefix(strings.ToLower(slot.Extension(slot.File{Filename: filename})), ".")
	if documentPattern.MatchString(contentType) || lo.Contains(documentExtensions, ext) {
		return PollProfile{Name: "document", Interval: s.cfg.DocumentInterval, Budget: s.cfg.DocumentBudget}
	}
	return PollProfile{Name: "image", Interval: s.cfg.ImageInterval, Budget: s.cfg.ImageBudget}
}

//nolint:gochecknoglobals // static lookup
var documentExtensions = []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "zip"}

func checkIndex(current []recordstore.Attachment, index int) error {
	if index < 0 || index >= len(current) {
		return docerr.NotFound("no file at the given index", docerr.CodeIndexOutOfRange, errx.D{
			"index": index,
			"count": len(current),
		})
	}
	return nil
}
