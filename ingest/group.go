package ingest

import (
	"strings"

	"github.com/arloliu/arps/internal/collision"
	"github.com/arloliu/arps/internal/hash"
	"github.com/arloliu/arps/series"
)

// grouper collects samples per well in first-seen order.
type grouper struct {
	tracker *collision.Tracker
	wells   []series.Well
}

func newGrouper() *grouper {
	return &grouper{tracker: collision.NewTracker()}
}

// add appends a sample to the well identified by id. The status of the first
// row of a well is kept.
func (g *grouper) add(id, status string, s series.Sample) error {
	id = strings.TrimSpace(id)

	idx, err := g.tracker.Track(id, hash.WellKey(id))
	if err != nil {
		return err
	}
	if idx == len(g.wells) {
		g.wells = append(g.wells, series.Well{ID: id, Status: strings.TrimSpace(status)})
	}
	g.wells[idx].Samples = append(g.wells[idx].Samples, s)

	return nil
}

func (g *grouper) result() []series.Well {
	return g.wells
}
