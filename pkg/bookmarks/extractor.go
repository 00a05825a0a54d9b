// Package bookmarks turns the bookmarks set while reviewing an insertion
// video into per-insertion planning, insertion and total durations.
package bookmarks

import (
	"strings"

	"cryotrack/internal/models"
)

// DefaultInvalidMarker flags bookmarks of takes the operator marked as bad
const DefaultInvalidMarker = "invalid"

// Options controls the extraction of one recording
type Options struct {
	// ExcludeInvalid drops insertions whose end bookmark contains InvalidMarker
	ExcludeInvalid bool

	// InvalidMarker defaults to DefaultInvalidMarker when empty
	InvalidMarker string

	// Recording is copied into every emitted duration
	Recording string
}

// extractor folds a bookmark sequence keeping a single set of "current"
// timestamps, so only one insertion can be in flight at a time. Repeated P or
// S bookmarks overwrite the previous value (last seen wins) and an end
// bookmark reuses whatever planning and start are current, so a retake can
// set a new start without a new planning bookmark.
type extractor struct {
	opts Options

	tP, tS       int64
	seenP, seenS bool

	out []models.InsertionDuration
}

func (x *extractor) step(ev Event) error {
	switch ev.Label.Phase {
	case models.PhasePlanning:
		x.tP, x.seenP = ev.TimestampMS, true
	case models.PhaseStart:
		x.tS, x.seenS = ev.TimestampMS, true
	case models.PhaseEnd:
		if !x.seenP || !x.seenS {
			var missing []string
			if !x.seenP {
				missing = append(missing, string(models.PhasePlanning))
			}
			if !x.seenS {
				missing = append(missing, string(models.PhaseStart))
			}
			return &MissingPhaseError{Event: ev.Name, Missing: missing}
		}
		x.emit(ev)
	}
	return nil
}

func (x *extractor) emit(ev Event) {
	marker := x.opts.InvalidMarker
	if marker == "" {
		marker = DefaultInvalidMarker
	}
	if x.opts.ExcludeInvalid && strings.Contains(ev.Name, marker) {
		return
	}

	tE := ev.TimestampMS
	x.out = append(x.out, models.InsertionDuration{
		Recording:     x.opts.Recording,
		Name:          strings.TrimPrefix(ev.Name, string(ev.Label.Phase)+"_"),
		Target:        ev.Label.Target,
		TargetIndex:   ev.Label.TargetIndex,
		Operator:      ev.Label.Operator,
		Plane:         ev.Label.Plane,
		Attempt:       ev.Label.Attempt,
		PlanningTime:  float64(x.tS-x.tP) / 1000,
		InsertionTime: float64(tE-x.tS) / 1000,
		TotalTime:     float64(tE-x.tP) / 1000,
	})
}

// Extract emits one InsertionDuration per insertion end bookmark, in input
// order. Out-of-order planning and start bookmarks are tolerated; an end
// bookmark seen before any planning or any start bookmark fails with
// MissingPhaseError.
func Extract(events []Event, opts Options) ([]models.InsertionDuration, error) {
	x := &extractor{opts: opts}
	for _, ev := range events {
		if err := x.step(ev); err != nil {
			return nil, err
		}
	}
	return x.out, nil
}
