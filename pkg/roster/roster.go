package roster

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ish-xyz/roster-photocache/pkg/coordinator"
	"github.com/ish-xyz/roster-photocache/pkg/dispatch"
	"github.com/ish-xyz/roster-photocache/pkg/fetch"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

func LoadMembers(path string) ([]Member, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mf membersFile
	if err := yaml.UnmarshalStrict(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %v", path, err)
	}
	return mf.Members, nil
}

func NewTable(members []Member) *Table {
	t := &Table{
		rows:  make([]*Cell, 0, len(members)),
		cells: make(map[dispatch.ConsumerID]*Cell, len(members)),
		log:   logrus.WithField("name", "roster"),
	}
	for i, m := range members {
		cell := &Cell{Row: i, Member: m, Glyph: GLYPH_LOADING}
		t.rows = append(t.rows, cell)
		t.cells[ConsumerForRow(i)] = cell
	}
	return t
}

func ConsumerForRow(row int) dispatch.ConsumerID {
	return dispatch.ConsumerID("row-" + strconv.Itoa(row))
}

// Populate asks for the photo of every row. Rows resolved synchronously settle immediately.
func (t *Table) Populate(photos Requester) {
	for _, cell := range t.rows {
		cell.request(photos)
	}
	t.log.Debugf("populated %d rows, %d waiting for photos", len(t.rows), t.Unsettled())
}

// Apply has the dispatch.DeliverFunc signature.
// Deliveries for a locator the row no longer shows are ignored.
func (t *Table) Apply(consumer dispatch.ConsumerID, d dispatch.Delivery) {
	cell, ok := t.cells[consumer]
	if !ok {
		t.log.Debugf("delivery for unknown consumer %s", consumer)
		return
	}
	if cell.Member.Photo != d.Locator {
		t.log.Debugf("stale delivery for %s: %s", consumer, d.Locator)
		return
	}
	if d.Err != nil {
		cell.settle(GlyphFor(d.Err), nil)
		return
	}
	cell.settle(imageGlyph(d.Image), d.Image)
}

func (t *Table) Unsettled() int {
	n := 0
	for _, cell := range t.rows {
		if !cell.Settled {
			n++
		}
	}
	return n
}

func (t *Table) Rows() []*Cell {
	return t.rows
}

func (t *Table) Render() string {
	rows := make([][]string, 0, len(t.rows))
	for _, cell := range t.rows {
		rows = append(rows, []string{
			strconv.Itoa(cell.Row),
			cell.Member.Name,
			cell.Member.Title,
			cell.Glyph,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		}).
		Headers("#", "Name", "Title", "Photo").
		Rows(rows...)

	return tbl.String()
}

// GlyphFor picks the placeholder shown for a failed fetch.
func GlyphFor(err error) string {
	switch {
	case errors.Is(err, fetch.ErrFileNotFound):
		return GLYPH_NOT_FOUND
	case errors.Is(err, fetch.ErrNetworkTimeout):
		return GLYPH_TIMEOUT
	case errors.Is(err, fetch.ErrDecode), errors.Is(err, fetch.ErrTooLarge):
		return GLYPH_UNREADABLE
	}
	return GLYPH_UNAVAILABLE
}

func imageGlyph(img image.Image) string {
	if img == nil {
		return GLYPH_UNREADABLE
	}
	b := img.Bounds()
	return fmt.Sprintf("[%dx%d]", b.Dx(), b.Dy())
}

func (c *Cell) request(photos Requester) {
	res := photos.Request(c.Member.Photo, ConsumerForRow(c.Row))
	switch res.State {
	case coordinator.STATE_NO_PHOTO:
		c.settle(GLYPH_NO_PHOTO, nil)
	case coordinator.STATE_READY:
		c.settle(imageGlyph(res.Image), res.Image)
	default:
		c.Glyph = GLYPH_LOADING
		c.Image = nil
		c.Settled = false
	}
}

func (c *Cell) settle(glyph string, img image.Image) {
	c.Glyph = glyph
	c.Image = img
	c.Settled = true
}
