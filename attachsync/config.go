package attachsync

import "time"

// Config defines the configuration options for the synchronizer.
type Config struct {
	// FolderPrefix is the blob folder prefix; blobs land in "{prefix}/{recordID}/{slotKey}".
	FolderPrefix string `yaml:"folder_prefix" default:"projects"`

	// HostedPattern matches urls served by the record store itself.
	// Empty means recordstore.DefaultHostedPattern.
	HostedPattern string `yaml:"hosted_pattern"`

	// ImageInterval and ImageBudget drive polling for fast-to-ingest content.
	ImageInterval time.Duration `yaml:"image_interval" default:"1s"`
	ImageBudget   time.Duration `yaml:"image_budget"   default:"10s"`

	// DocumentInterval and DocumentBudget drive polling for documents,
	// which the record store ingests more slowly.
	DocumentInterval time.Duration `yaml:"document_interval" default:"2s"`
	DocumentBudget   time.Duration `yaml:"document_budget"   default:"40s"`
}

// PollProfile is a fixed-interval polling plan.
type PollProfile struct {
	Name     string
	Interval time.Duration
	Budget   time.Duration
}

// Attempts is the number of reads that fit in the budget, at least one.
func (p PollProfile) Attempts() uint {
	if p.Interval <= 0 {
		return 1
	}
	n := int64(p.Budget / p.Interval)
	if n < 1 {
		return 1
	}
	return uint(n)
}
