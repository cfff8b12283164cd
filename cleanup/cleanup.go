// Package cleanup deletes transient blobs some time after their attach finished.
//
// Deletions are kept in process timers only. A restart, or Stop, forgoes the
// pending ones: a stray blob is a storage cost, not a correctness problem, and
// a durable queue would change that trade-off. The delay is short when the
// record store already hosts its own copy and long when it may still be
// ingesting from the blob url.
package cleanup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rise-and-shine/projectdocs/blobstore"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

// Config defines the cleanup delays.
type Config struct {
	// HostedDelay applies when the record store confirmed its own copy.
	HostedDelay time.Duration `yaml:"hosted_delay" default:"2m"`

	// UnhostedDelay applies to append-style slots and to polls that timed out.
	UnhostedDelay time.Duration `yaml:"unhosted_delay" default:"30m"`
}

// Pending is a scheduled deletion.
type Pending struct {
	BlobID string
	Delay  time.Duration
	Due    time.Time
}

// Scheduler runs delayed blob deletions.
type Scheduler struct {
	blobs blobstore.Store
	cfg   Config
	log   logger.Logger

	mu      sync.Mutex
	pending map[string]*entry
	stopped bool
	running sync.WaitGroup
}

type entry struct {
	timer *time.Timer
	delay time.Duration
	due   time.Time
}

// New creates a Scheduler.
func New(cfg Config, blobs blobstore.Store, log logger.Logger) *Scheduler {
	return &Scheduler{
		blobs:   blobs,
		cfg:     cfg,
		log:     log.Named("cleanup"),
		pending: map[string]*entry{},
	}
}

// DelayFor returns the delay used for a blob with the given hosting state.
func (s *Scheduler) DelayFor(hosted bool) time.Duration {
	if hosted {
		return s.cfg.HostedDelay
	}
	return s.cfg.UnhostedDelay
}

// Schedule deletes blobID after DelayFor(hosted) and returns that delay.
// Scheduling the same blob again replaces the earlier deletion. After Stop
// nothing is scheduled.
func (s *Scheduler) Schedule(blobID string, hosted bool) time.Duration {
	delay := s.DelayFor(hosted)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || blobID == "" {
		return delay
	}

	if prev, ok := s.pending[blobID]; ok {
		prev.timer.Stop()
	}

	e := &entry{delay: delay, due: time.Now().Add(delay)}
	e.timer = time.AfterFunc(delay, func() { s.fire(blobID, e) })
	s.pending[blobID] = e

	s.log.With("blob_id", blobID).With("hosted", hosted).With("delay", delay).Debug("blob deletion scheduled")
	return delay
}

// Pending returns the scheduled deletions ordered by due time.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.pending))
	for id, e := range s.pending {
		out = append(out, Pending{BlobID: id, Delay: e.delay, Due: e.due})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// Stop cancels every pending deletion and waits for running ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	forgone := len(s.pending)
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if forgone > 0 {
		s.log.With("forgone", forgone).Warn("stopped with pending blob deletions")
	}
	s.running.Wait()
}

func (s *Scheduler) fire(blobID string, e *entry) {
	s.mu.Lock()
	if s.stopped || s.pending[blobID] != e {
		s.mu.Unlock()
		return
	}
	delete(s.pending, blobID)
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()

	s.blobs.Delete(context.Background(), blobID)
	s.log.With("blob_id", blobID).Debug("scheduled blob deletion ran")
}
