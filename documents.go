package projectdocs

import (
	"context"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rise-and-shine/projectdocs/attachsync"
	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/permission"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/slot"
	"github.com/rise-and-shine/projectdocs/val"
)

// AttachInput is a file to put into a document slot.
type AttachInput struct {
	RecordID    string           `json:"record_id"    params:"id"   validate:"required"`
	Slot        string           `json:"slot"         params:"slot" validate:"required"`
	Filename    string           `json:"filename"                   validate:"required,safe_filename"`
	ContentType string           `json:"content_type"`
	Data        []byte           `json:"-"`
	Actor       permission.Actor `json:"-"                          validate:"-"`
}

// AttachOutput is the result of Attach and ReplaceAt.
type AttachOutput struct {
	Project  *recordstore.Record `json:"project"`
	Hosted   bool                `json:"hosted"`
	FileURL  string              `json:"fileUrl"`
	Filename string              `json:"filename"`
	Version  int                 `json:"version,omitempty"`

	// CleanupDelay is the wait before the transient blob is deleted.
	CleanupDelay time.Duration `json:"-"`
}

// DetachInput names a slot to clear.
type DetachInput struct {
	RecordID string           `json:"record_id" params:"id"   validate:"required"`
	Slot     string           `json:"slot"      params:"slot" validate:"required"`
	Actor    permission.Actor `json:"-"                       validate:"-"`
}

// ReplaceAtInput is a file replacing one element of a slot.
type ReplaceAtInput struct {
	RecordID    string           `json:"record_id"    params:"id"    validate:"required"`
	Slot        string           `json:"slot"         params:"slot"  validate:"required"`
	Index       int              `json:"index"        params:"index"`
	Filename    string           `json:"filename"                    validate:"required,safe_filename"`
	ContentType string           `json:"content_type"`
	Data        []byte           `json:"-"`
	Actor       permission.Actor `json:"-"                           validate:"-"`
}

// DeleteAtInput names one element of a slot to remove.
type DeleteAtInput struct {
	RecordID string           `json:"record_id" params:"id"    validate:"required"`
	Slot     string           `json:"slot"      params:"slot"  validate:"required"`
	Index    int              `json:"index"     params:"index"`
	Actor    permission.Actor `json:"-"                        validate:"-"`
}

// AddCommentInput is a comment to append to a project.
type AddCommentInput struct {
	RecordID string           `json:"record_id" params:"id" validate:"required"`
	Text     string           `json:"text"                  validate:"required,max=10000"`
	Actor    permission.Actor `json:"-"                     validate:"-"`
}

// ProjectOutput carries the project record after a change.
type ProjectOutput struct {
	Project *recordstore.Record `json:"project"`
}

// Attach uploads a file into a slot of a project. Versioned slots get a
// generated name, append-style slots keep earlier files and single slots are
// replaced and polled until the record store hosts the file.
func (s *Service) Attach(ctx context.Context, in *AttachInput) (_ *AttachOutput, err error) {
	ctx, done := s.begin(ctx, OpAttach, attribute.String("record_id", in.RecordID), attribute.String("slot", in.Slot))
	defer func() { done(err) }()

	def, err := s.authorizeFile(ctx, in, in.Actor, in.RecordID, in.Slot, in.Data, permission.ActionInsert)
	if err != nil {
		return nil, err
	}

	res, err := s.sync.Attach(ctx, attachsync.Input{
		RecordID:    in.RecordID,
		Slot:        def,
		Data:        in.Data,
		Filename:    in.Filename,
		ContentType: in.ContentType,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return s.attached(ctx, OpAttach, res), nil
}

// Detach clears a slot. No element is kept.
func (s *Service) Detach(ctx context.Context, in *DetachInput) (_ *ProjectOutput, err error) {
	ctx, done := s.begin(ctx, OpDetach, attribute.String("record_id", in.RecordID), attribute.String("slot", in.Slot))
	defer func() { done(err) }()

	def, err := s.authorize(ctx, in, in.Actor, in.RecordID, in.Slot, permission.ActionDelete)
	if err != nil {
		return nil, err
	}

	rec, err := s.sync.Detach(ctx, in.RecordID, def)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &ProjectOutput{Project: rec}, nil
}

// ReplaceAt replaces the element at Index of a slot with a new file.
func (s *Service) ReplaceAt(ctx context.Context, in *ReplaceAtInput) (_ *AttachOutput, err error) {
	ctx, done := s.begin(ctx, OpReplaceAt,
		attribute.String("record_id", in.RecordID),
		attribute.String("slot", in.Slot),
		attribute.Int("index", in.Index),
	)
	defer func() { done(err) }()

	def, err := s.authorizeFile(ctx, in, in.Actor, in.RecordID, in.Slot, in.Data, permission.ActionReplace)
	if err != nil {
		return nil, err
	}

	res, err := s.sync.ReplaceAt(ctx, attachsync.Input{
		RecordID:    in.RecordID,
		Slot:        def,
		Data:        in.Data,
		Filename:    in.Filename,
		ContentType: in.ContentType,
	}, in.Index)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return s.attached(ctx, OpReplaceAt, res), nil
}

// DeleteAt removes the element at Index of a slot.
func (s *Service) DeleteAt(ctx context.Context, in *DeleteAtInput) (_ *ProjectOutput, err error) {
	ctx, done := s.begin(ctx, OpDeleteAt,
		attribute.String("record_id", in.RecordID),
		attribute.String("slot", in.Slot),
		attribute.Int("index", in.Index),
	)
	defer func() { done(err) }()

	def, err := s.authorize(ctx, in, in.Actor, in.RecordID, in.Slot, permission.ActionDelete)
	if err != nil {
		return nil, err
	}

	rec, err := s.sync.DeleteAt(ctx, in.RecordID, def, in.Index)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &ProjectOutput{Project: rec}, nil
}

// AddComment appends a line to the comments field of a project.
func (s *Service) AddComment(ctx context.Context, in *AddCommentInput) (_ *ProjectOutput, err error) {
	ctx, done := s.begin(ctx, OpAddComment, attribute.String("record_id", in.RecordID))
	defer func() { done(err) }()
	ctx = context.WithoutCancel(ctx)

	if err = validate(in, in.Actor); err != nil {
		return nil, err
	}

	def := s.slots.Comments()
	if err = s.gate.Authorize(ctx, in.Actor, def, permission.ActionInsert, in.RecordID); err != nil {
		return nil, errx.Wrap(err)
	}

	rec, err := s.records.GetRecord(ctx, s.table, in.RecordID)
	if err != nil {
		return nil, docerr.Upstream(err, docerr.CodeUpstream, nil)
	}

	text := strings.TrimSpace(in.Text)
	if existing := strings.TrimRight(cast.ToString(rec.Field(def.StoreField)), "\n"); existing != "" {
		text = existing + "\n" + text
	}

	rec, err = s.records.PatchRecord(ctx, s.table, in.RecordID, map[string]any{def.StoreField: text})
	if err != nil {
		return nil, docerr.Upstream(err, docerr.CodeUpstream, nil)
	}
	return &ProjectOutput{Project: rec}, nil
}

// authorize validates the input, resolves the slot and runs the permission gate.
// Nothing here uploads or writes.
func (s *Service) authorize(
	ctx context.Context,
	in any,
	actor permission.Actor,
	recordID, slotKey string,
	action permission.Action,
) (slot.Definition, error) {
	if err := validate(in, actor); err != nil {
		return slot.Definition{}, err
	}

	def, err := s.slots.Lookup(slotKey)
	if err != nil {
		return slot.Definition{}, errx.Wrap(err)
	}

	if err = s.gate.Authorize(ctx, actor, def, action, recordID); err != nil {
		return slot.Definition{}, errx.Wrap(err)
	}
	return def, nil
}

// authorizeFile is authorize for operations that upload. An empty file and
// an unconfigured blob store fail before anything is read or written.
func (s *Service) authorizeFile(
	ctx context.Context,
	in any,
	actor permission.Actor,
	recordID, slotKey string,
	data []byte,
	action permission.Action,
) (slot.Definition, error) {
	if len(data) == 0 {
		if err := validate(in, actor); err != nil {
			return slot.Definition{}, err
		}
		return slot.Definition{}, docerr.Validation("file is empty", docerr.CodeEmptyFile, nil)
	}

	def, err := s.authorize(ctx, in, actor, recordID, slotKey, action)
	if err != nil {
		return slot.Definition{}, err
	}

	if !s.blobs.IsConfigured() {
		return slot.Definition{}, errx.New(
			"blob store is not configured",
			errx.WithCode(docerr.CodeConfiguration),
			errx.WithType(errx.T_Internal),
		)
	}
	return def, nil
}

// attached schedules the cleanup of the transient blob and builds the output.
func (s *Service) attached(ctx context.Context, op string, res *attachsync.Result) *AttachOutput {
	delay := s.cleanup.Schedule(res.Pending.BlobID, res.Hosted())

	s.log.WithContext(ctx).
		With("operation", op).
		With("record_id", res.Pending.RecordID).
		With("slot", string(res.Pending.SlotKey)).
		With("filename", res.Attachment.Filename).
		With("hosted", res.Hosted()).
		With("cleanup_delay", delay.String()).
		Info("document stored")

	return &AttachOutput{
		Project:      res.Record,
		Hosted:       res.Hosted(),
		FileURL:      res.Attachment.URL,
		Filename:     res.Attachment.Filename,
		Version:      res.Version,
		CleanupDelay: delay,
	}
}

func validate(in any, actor permission.Actor) error {
	if err := val.ValidateSchema(actor); err != nil {
		return errx.Wrap(err)
	}
	return errx.Wrap(val.ValidateSchema(in))
}
