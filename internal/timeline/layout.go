package timeline

import "time"

// Entity is anything with a label and a date range that can be drawn as a
// bar on the timeline. Callers adapt projects or credits into this shape
// per render; the engine keeps no state across calls.
type Entity struct {
	ID    int64
	Label string
	Start time.Time
	End   time.Time
}

// Placement positions an entity's bar inside a view, as percentages of the
// view's span. For any entity overlapping the view, 0 <= Offset and
// Offset+Width <= 100 within floating-point tolerance.
type Placement struct {
	OffsetPercent float64
	WidthPercent  float64
}

// LayoutEntity clips the entity's span to the view bounds and converts it
// to a proportional placement. It returns nil when the entity does not
// overlap the view, and also for a malformed range (end before start):
// such an entity has no visible span and must not break the layout pass
// for its neighbours.
func LayoutEntity(e Entity, b Bounds) *Placement {
	start := midnight(e.Start)
	end := midnight(e.End)
	if end.Before(start) {
		return nil
	}
	if !overlaps(start, end, b) {
		return nil
	}

	effStart := maxTime(start, b.Start)
	effEnd := minTime(end, b.End)

	total := b.Days()
	offset := effStart.Sub(b.Start).Hours() / 24 / total * 100
	width := effEnd.Sub(effStart).Hours() / 24 / total * 100
	return &Placement{OffsetPercent: offset, WidthPercent: width}
}

// VisibleEntities filters the entities overlapping the view, preserving
// input order. It is the cheap pre-filter run before per-entity layout.
func VisibleEntities(entities []Entity, b Bounds) []Entity {
	visible := make([]Entity, 0, len(entities))
	for _, e := range entities {
		start := midnight(e.Start)
		end := midnight(e.End)
		if end.Before(start) {
			continue
		}
		if overlaps(start, end, b) {
			visible = append(visible, e)
		}
	}
	return visible
}

// overlaps is the inclusive overlap test on normalized dates. Bounds.End is
// exclusive, so "starts before End" matches "starts on or before the last
// day of the period".
func overlaps(start, end time.Time, b Bounds) bool {
	return start.Before(b.End) && !end.Before(b.Start)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
