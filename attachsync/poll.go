package attachsync

import (
	"context"
	"errors"

	"github.com/avast/retry-go/v4"

	"github.com/rise-and-shine/projectdocs/recordstore"
)

var errNotHosted = errors.New("attachment is not hosted by the record store yet")

// awaitHosting re-reads the record at a fixed interval until the new
// attachment carries a record store url or the profile budget is spent.
// It is a status check: nothing is written and read errors only mean
// "not hosted yet".
func (s *Synchronizer) awaitHosting(
	ctx context.Context,
	run *run,
	in Input,
	patched *recordstore.Record,
	pending PendingUpload,
	profile PollProfile,
) (*recordstore.Record, string, bool) {
	entry, found := locate(patched, in.Slot.StoreField, "", pending.BlobURL)
	if found && s.hosted.IsHosted(entry.URL) {
		return patched, entry.URL, true
	}

	var (
		latest    *recordstore.Record
		hostedURL string
		attempt   int
	)

	err := retry.Do(
		func() error {
			attempt++
			rec, err := s.records.GetRecord(ctx, s.table, in.RecordID)
			if err != nil {
				run.log.With("attempt", attempt).With("error", err.Error()).Debug("poll read failed")
				return errNotHosted
			}

			a, ok := locate(rec, in.Slot.StoreField, entry.ID, pending.BlobURL)
			if !ok || !s.hosted.IsHosted(a.URL) {
				return errNotHosted
			}

			latest, hostedURL = rec, a.URL
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(profile.Attempts()),
		retry.Delay(profile.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		run.log.With("attempts", attempt).With("budget", profile.Budget).Debug("hosting not confirmed within budget")
		return patched, "", false
	}
	return latest, hostedURL, true
}

// locate finds the new attachment in a record: by id when known, else by the
// transient url, else the only element of the field.
func locate(rec *recordstore.Record, field, id, blobURL string) (recordstore.Attachment, bool) {
	atts := recordstore.AttachmentsFromField(rec.Field(field))
	for _, a := range atts {
		if id != "" && a.ID == id {
			return a, true
		}
		if id == "" && a.URL == blobURL {
			return a, true
		}
	}
	if len(atts) == 1 {
		return atts[0], true
	}
	return recordstore.Attachment{}, false
}
