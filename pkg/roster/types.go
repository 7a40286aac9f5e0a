package roster

import (
	"image"

	"github.com/ish-xyz/roster-photocache/pkg/coordinator"
	"github.com/ish-xyz/roster-photocache/pkg/dispatch"
	"github.com/sirupsen/logrus"
)

const (
	GLYPH_NO_PHOTO    = "[no photo]"
	GLYPH_LOADING     = "[loading]"
	GLYPH_NOT_FOUND   = "[not found]"
	GLYPH_UNREADABLE  = "[unreadable]"
	GLYPH_TIMEOUT     = "[timed out]"
	GLYPH_UNAVAILABLE = "[unavailable]"
)

// Interfaces

type Requester interface {
	Request(locator string, consumer dispatch.ConsumerID) coordinator.Result
}

// Types

type Member struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
	Photo string `yaml:"photo"`
}

type membersFile struct {
	Members []Member `yaml:"members"`
}

// Cell is the photo slot of one table row.
type Cell struct {
	Row     int
	Member  Member
	Glyph   string
	Image   image.Image
	Settled bool
}

// Table is a headless roster view. Populate, Apply and Render must run on the control goroutine.
type Table struct {
	rows  []*Cell
	cells map[dispatch.ConsumerID]*Cell
	log   *logrus.Entry
}
