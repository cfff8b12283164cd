package cleanup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/projectdocs/blobstore/blobstoretest"
	"github.com/rise-and-shine/projectdocs/cleanup"
	"github.com/rise-and-shine/projectdocs/observability/logger"
)

func newScheduler(t *testing.T, cfg cleanup.Config) (*cleanup.Scheduler, *blobstoretest.Store) {
	t.Helper()

	log, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	blobs := blobstoretest.New()
	return cleanup.New(cfg, blobs, log), blobs
}

func TestDelayFor(t *testing.T) {
	s, _ := newScheduler(t, cleanup.Config{HostedDelay: 2 * time.Minute, UnhostedDelay: 30 * time.Minute})
	defer s.Stop()

	assert.Equal(t, 2*time.Minute, s.DelayFor(true))
	assert.Equal(t, 30*time.Minute, s.DelayFor(false))
}

func TestScheduleRunsDeletion(t *testing.T) {
	s, blobs := newScheduler(t, cleanup.Config{HostedDelay: 5 * time.Millisecond, UnhostedDelay: time.Hour})
	defer s.Stop()

	delay := s.Schedule("blob-hosted", true)
	assert.Equal(t, 5*time.Millisecond, delay)
	s.Schedule("blob-unhosted", false)

	assert.Eventually(t, func() bool {
		return len(blobs.Deletes()) == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"blob-hosted"}, blobs.Deletes())

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "blob-unhosted", pending[0].BlobID)
	assert.Equal(t, time.Hour, pending[0].Delay)
}

func TestRescheduleReplaces(t *testing.T) {
	s, blobs := newScheduler(t, cleanup.Config{HostedDelay: time.Millisecond, UnhostedDelay: time.Hour})
	defer s.Stop()

	s.Schedule("blob", false)
	s.Schedule("blob", true)

	assert.Eventually(t, func() bool {
		return len(blobs.Deletes()) == 1
	}, time.Second, time.Millisecond)
	assert.Empty(t, s.Pending())
}

func TestStopForgoesPending(t *testing.T) {
	s, blobs := newScheduler(t, cleanup.Config{HostedDelay: time.Hour, UnhostedDelay: time.Hour})

	s.Schedule("a", true)
	s.Schedule("b", false)
	require.Len(t, s.Pending(), 2)

	s.Stop()
	assert.Empty(t, s.Pending())

	s.Schedule("c", true)
	assert.Empty(t, s.Pending())
	assert.Empty(t, blobs.Deletes())
}
