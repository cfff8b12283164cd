package attachsync

import (
	"context"

	"github.com/rise-and-shine/projectdocs/observability/logger"
	"github.com/rise-and-shine/projectdocs/slot"
)

// State of an attach operation.
type State string

// Attach states.
const (
	StateStart         State = "start"
	StateBlobUploaded  State = "blob_uploaded"
	StateRecordPatched State = "record_patched"
	StateHostConfirmed State = "host_confirmed"
	StateHostTimedOut  State = "host_timed_out"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// run logs the transitions of one operation.
type run struct {
	state State
	log   logger.Logger
}

func (s *Synchronizer) start(ctx context.Context, op, recordID string, def slot.Definition) *run {
	r := &run{
		state: StateStart,
		log: s.log.WithContext(ctx).
			With("operation", op).
			With("record_id", recordID).
			With("slot", string(def.Key)),
	}
	r.log.With("state", r.state).Debug("operation started")
	return r
}

func (r *run) to(state State, keysAndValues ...any) {
	r.log.With(keysAndValues...).With("from", r.state, "state", state).Debug("state changed")
	r.state = state
}

// fail moves to StateFailed and returns err unchanged.
func (r *run) fail(err error) error {
	r.log.With("from", r.state, "state", StateFailed).Warnx(err)
	r.state = StateFailed
	return err
}
