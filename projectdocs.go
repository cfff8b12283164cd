// Package projectdocs is the public surface of the project document service.
//
// A Service attaches, replaces and removes the documents of a project record
// and manages the season choices of the project table. Every operation
// validates its input, checks the permission gate and only then touches the
// blob store or the record store.
//
// Known limitations, left unresolved on purpose:
//   - Attach on append-style slots, ReplaceAt, DeleteAt and AddComment read the
//     current field value and write a modified copy. Concurrent calls on the
//     same record and field can lose an update: the last write wins.
//   - The hosting poll after an attach re-reads the field and can misreport
//     hosting when another call changes the same field meanwhile.
//
// Uploads, patches and polls are not interrupted when the caller goes away.
// Blob deletions scheduled after an attach live in process memory only.
package projectdocs

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rise-and-shine/projectdocs/attachsync"
	"github.com/rise-and-shine/projectdocs/blobstore"
	"github.com/rise-and-shine/projectdocs/cleanup"
	"github.com/rise-and-shine/projectdocs/observability/alert"
	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/observability/metrics"
	"github.com/rise-and-shine/projectdocs/observability/tracing"
	"github.com/rise-and-shine/projectdocs/permission"
	"github.com/rise-and-shine/projectdocs/recordstore"
	"github.com/rise-and-shine/projectdocs/schemaopt"
	"github.com/rise-and-shine/projectdocs/slot"
)

// Operation ids, used for spans, metrics and logs.
const (
	OpAttach             = "projectdocs.attach"
	OpDetach             = "projectdocs.detach"
	OpReplaceAt          = "projectdocs.replace_at"
	OpDeleteAt           = "projectdocs.delete_at"
	OpAddComment         = "projectdocs.add_comment"
	OpAddSeasonChoice    = "projectdocs.add_season_choice"
	OpDeleteSeasonChoice = "projectdocs.delete_season_choice"
)

// Service implements the document and season operations.
type Service struct {
	table   string
	slots   *slot.Registry
	gate    *permission.Gate
	blobs   blobstore.Store
	records recordstore.Client
	sync    *attachsync.Synchronizer
	cleanup *cleanup.Scheduler
	seasons *schemaopt.Mutator
	metrics *metrics.Recorder
	log     logger.Logger
}

// New wires a Service. The clients are constructed once by the caller and
// shared by every operation. Close must be called on shutdown.
func New(
	cfg Config,
	blobs blobstore.Store,
	records recordstore.Client,
	alerts alert.Provider,
	rec *metrics.Recorder,
	log logger.Logger,
) (*Service, error) {
	slots, err := slot.NewRegistry(cfg.Slots)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	sync, err := attachsync.New(cfg.Attach, cfg.Table, blobs, records, log)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Service{
		table:   cfg.Table,
		slots:   slots,
		gate:    permission.NewGate(permission.NewRecordOwnership(records, cfg.Table, cfg.OwnerField)),
		blobs:   blobs,
		records: records,
		sync:    sync,
		cleanup: cleanup.New(cfg.Cleanup, blobs, log),
		seasons: schemaopt.New(cfg.Seasons, records, alerts, log),
		metrics: rec,
		log:     log.Named("projectdocs"),
	}, nil
}

// Close stops the cleanup scheduler. Pending blob deletions are dropped.
func (s *Service) Close() {
	s.cleanup.Stop()
}

// Slots returns the document slots in key order.
func (s *Service) Slots() []slot.Definition {
	return s.slots.Definitions()
}

// PendingCleanups returns the scheduled blob deletions.
func (s *Service) PendingCleanups() []cleanup.Pending {
	return s.cleanup.Pending()
}

// begin opens the span of op and returns the function that closes it
// and records the outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, op, attrs...)

	return ctx, func(err error) {
		tracing.End(span, err)
		s.metrics.Outcome(op, start, err)
	}
}
