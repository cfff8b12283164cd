package projectdocs

import (
	"github.com/rise-and-shine/projectdocs/attachsync"
	"github.com/rise-and-shine/projectdocs/cleanup"
	"github.com/rise-and-shine/projectdocs/schemaopt"
	"github.com/rise-and-shine/projectdocs/slot"
)

// Config defines the project table and the behaviour of every operation.
type Config struct {
	// Table is the record store table holding the projects.
	Table string `yaml:"table" validate:"required" default:"Projects"`

	// OwnerField is the project field naming the owner of a project,
	// either an actor id or a list of linked actor ids.
	OwnerField string `yaml:"owner_field" validate:"required" default:"Owner"`

	Slots   slot.Config       `yaml:"slots"`
	Attach  attachsync.Config `yaml:"attach"`
	Cleanup cleanup.Config    `yaml:"cleanup"`
	Seasons schemaopt.Config  `yaml:"seasons"`
}
