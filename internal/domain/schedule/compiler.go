package schedule

import (
	"sort"
	"time"
)

// ExclusionReason tags why a portion of time was removed from the sellable
// slot set.
type ExclusionReason string

const (
	ExclusionOverrideBlock ExclusionReason = "availability_override_block"
	ExclusionBooking       ExclusionReason = "booking"
	ExclusionExternalBusy  ExclusionReason = "external_calendar_busy"
)

// Exclusion is one removed portion of time with the reason it was removed.
type Exclusion struct {
	Range  TimeRange       `json:"range"`
	Reason ExclusionReason `json:"reason"`
}

// ComputeSellableSlots compiles a provider's recurring windows, overrides,
// occupying bookings and external busy blocks into the final list of sellable
// slots inside the requested window.
//
// The result is deterministic, sorted ascending by start, and maximally
// merged: no two returned ranges overlap or touch. A window whose end does
// not lie after its start yields an empty result. Malformed rows contribute
// nothing instead of failing the computation.
//
// Day-of-week matching for recurring windows happens against the UTC
// calendar. The loc parameter is accepted so callers can record the
// provider's timezone at the boundary, but it deliberately does not shift
// which UTC day a weekly window lands on; see the package tests that pin this
// behavior down.
func ComputeSellableSlots(
	window TimeRange,
	loc *time.Location,
	recurring []RecurringWindow,
	overrides []Override,
	occupying []TimeRange,
	busy []TimeRange,
) []TimeRange {
	slots, _ := compile(window, recurring, overrides, occupying, busy, false)
	return slots
}

// ComputeSellableSlotsDebug is ComputeSellableSlots plus a report of every
// excluded portion of time tagged with its reason. The slot output is
// identical to the non-debug variant.
func ComputeSellableSlotsDebug(
	window TimeRange,
	loc *time.Location,
	recurring []RecurringWindow,
	overrides []Override,
	occupying []TimeRange,
	busy []TimeRange,
) ([]TimeRange, []Exclusion) {
	return compile(window, recurring, overrides, occupying, busy, true)
}

func compile(
	window TimeRange,
	recurring []RecurringWindow,
	overrides []Override,
	occupying []TimeRange,
	busy []TimeRange,
	debug bool,
) ([]TimeRange, []Exclusion) {
	if window.IsZero() {
		return nil, nil
	}

	// Expand weekly windows into concrete UTC ranges and merge into the base
	// slot set.
	slots := mergeRanges(expandRecurring(window, recurring))

	// Add-overrides union extra time in; they can be the only source of
	// sellable time when no recurring window exists.
	var blocks []TimeRange
	for _, o := range overrides {
		r := o.Range().Clip(window)
		if r.IsZero() {
			continue
		}
		if o.IsAvailable {
			slots = mergeRanges(append(slots, r))
		} else {
			blocks = append(blocks, r)
		}
	}

	var exclusions []Exclusion

	// Block-overrides run after add-overrides so a block always removes time,
	// no matter which source produced it.
	slots, exclusions = subtractAll(slots, blocks, ExclusionOverrideBlock, exclusions, debug)
	slots, exclusions = subtractAll(slots, occupying, ExclusionBooking, exclusions, debug)
	slots, exclusions = subtractAll(slots, busy, ExclusionExternalBusy, exclusions, debug)

	return mergeRanges(slots), exclusions
}

// expandRecurring turns each active weekly window into concrete UTC ranges
// for every calendar day that intersects the requested window, clipped to it.
func expandRecurring(window TimeRange, recurring []RecurringWindow) []TimeRange {
	var out []TimeRange

	day := time.Date(
		window.Start.UTC().Year(), window.Start.UTC().Month(), window.Start.UTC().Day(),
		0, 0, 0, 0, time.UTC,
	)
	for ; day.Before(window.End); day = day.AddDate(0, 0, 1) {
		for _, w := range recurring {
			if !w.IsActive || w.DayOfWeek != day.Weekday() {
				continue
			}
			startMin, ok := parseClock(w.StartClock)
			if !ok {
				continue
			}
			endMin, ok := parseClock(w.EndClock)
			if !ok {
				continue
			}
			r := TimeRange{
				Start: day.Add(time.Duration(startMin) * time.Minute),
				End:   day.Add(time.Duration(endMin) * time.Minute),
			}.Clip(window)
			if r.IsZero() {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// mergeRanges sorts the ranges ascending by start and combines any two that
// overlap or touch. Zero-width ranges are dropped. The result is the
// canonical, maximally merged form; running it again on its own output is a
// fixed point.
func mergeRanges(ranges []TimeRange) []TimeRange {
	var in []TimeRange
	for _, r := range ranges {
		if !r.IsZero() {
			in = append(in, r)
		}
	}
	if len(in) == 0 {
		return nil
	}

	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	out := []TimeRange{in[0]}
	for _, r := range in[1:] {
		last := &out[len(out)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// subtractAll removes every block range from the slot set, collecting the
// actually-removed portions as exclusions when debug is on.
func subtractAll(slots, blocks []TimeRange, reason ExclusionReason, exclusions []Exclusion, debug bool) ([]TimeRange, []Exclusion) {
	for _, b := range blocks {
		if b.IsZero() {
			continue
		}
		if debug {
			for _, s := range slots {
				if s.Intersects(b) {
					exclusions = append(exclusions, Exclusion{
						Range:  b.Clip(s),
						Reason: reason,
					})
				}
			}
		}
		slots = subtract(slots, b)
	}
	return slots, exclusions
}

// subtract removes block from every slot it intersects: a fully covered slot
// disappears, a split slot leaves up to two remainders.
func subtract(slots []TimeRange, block TimeRange) []TimeRange {
	var out []TimeRange
	for _, s := range slots {
		if !s.Intersects(block) {
			out = append(out, s)
			continue
		}
		before := TimeRange{Start: s.Start, End: block.Start}
		if !before.IsZero() {
			out = append(out, before)
		}
		after := TimeRange{Start: block.End, End: s.End}
		if !after.IsZero() {
			out = append(out, after)
		}
	}
	return out
}
