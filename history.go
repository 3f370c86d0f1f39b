// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"math"

	"golang.org/x/exp/slices"
)

// Equivalenter is implemented by values stored in a History: two values
// that are Equivalent are treated as re-broadcasts of the same
// underlying property rather than distinct entries.
type Equivalenter[T any] interface {
	Equivalent(other T) bool
}

// IterMode selects which subset/order History.Each walks.
type IterMode int

const (
	EachAll IterMode = iota
	EachAllInverted
	EachNoRedundant
)

type historyItem[T Equivalenter[T]] struct {
	value    T
	time     GPSTime
	tTag     int64
	priority int
}

// History is a versioned, priority-ordered catalog of observations of
// one property over time (ephemerides for one satellite, or the
// ionospheric/UTC parameter set), keyed by a quantized time tag so that
// near-duplicate broadcasts collapse onto the same slot. It mirrors
// the selection/merge semantics of a property history keyed by
// observation time rather than arrival order.
type History[T Equivalenter[T]] struct {
	Quantization float64 // seconds; defaults to 10 if zero

	items    []historyItem[T]
	selected int // index into items, or -1 if nothing selected yet
}

// NewHistory returns an empty History using the default 10-second time
// quantization.
func NewHistory[T Equivalenter[T]]() *History[T] {
	return &History[T]{Quantization: 10, selected: -1}
}

func (h *History[T]) quant() float64 {
	if h.Quantization == 0 {
		return 10
	}
	return h.Quantization
}

func (h *History[T]) tTagOf(t GPSTime) int64 {
	q := h.quant()
	return int64(math.Floor(t.Sub(GPSTime{})/q + 0.5))
}

// Add inserts value observed at time t with priority priorityDelta
// (which may be 0 or negative to de-prioritize a source). If an
// equivalent entry already occupies the same time tag, no duplicate is
// inserted: a zero priorityDelta replaces that entry's value in place,
// and a nonzero one is added to its priority, after which the entries
// sharing the tag are re-sorted by priority.
func (h *History[T]) Add(value T, t GPSTime, priorityDelta int) {
	tag := h.tTagOf(t)

	// Look for an existing entry at the same time tag that's equivalent.
	for i := range h.items {
		if h.items[i].tTag != tag {
			continue
		}
		if h.items[i].value.Equivalent(value) {
			if priorityDelta == 0 {
				// Equivalent entry, no priority change requested: treat
				// this as a refresh of the broadcast fields rather than
				// a priority bump.
				h.items[i].value = value
				return
			}
			h.items[i].priority += priorityDelta
			h.reorderAround(i)
			return
		}
	}

	item := historyItem[T]{value: value, time: t, tTag: tag, priority: priorityDelta}

	// Insertion point: chronological by tTag, then by descending
	// priority within a tie.
	idx := 0
	for idx < len(h.items) && (h.items[idx].tTag < tag ||
		(h.items[idx].tTag == tag && h.items[idx].priority >= item.priority)) {
		idx++
	}
	h.items = append(h.items, historyItem[T]{})
	copy(h.items[idx+1:], h.items[idx:])
	h.items[idx] = item

	if h.selected >= idx {
		h.selected++
	}
}

// reorderAround re-sorts entries sharing i's time tag by descending
// priority, keeping the selected index pointed at the same item.
func (h *History[T]) reorderAround(i int) {
	tag := h.items[i].tTag
	lo, hi := i, i
	for lo > 0 && h.items[lo-1].tTag == tag {
		lo--
	}
	for hi < len(h.items)-1 && h.items[hi+1].tTag == tag {
		hi++
	}
	selectedTag := -1
	if h.selected >= 0 {
		selectedTag = h.selected
	}
	for a := lo; a <= hi; a++ {
		for b := a + 1; b <= hi; b++ {
			if h.items[b].priority > h.items[a].priority {
				h.items[a], h.items[b] = h.items[b], h.items[a]
				if selectedTag == a {
					selectedTag = b
				} else if selectedTag == b {
					selectedTag = a
				}
			}
		}
	}
	h.selected = selectedTag
}

// Select looks for a better item than the one currently selected,
// preferring the nearest entry (by time) that isValid reports true
// for, breaking ties toward higher priority. The sign of the time
// difference between targetTime and the current selection picks a
// single search direction - forward (newer broadcasts) when
// targetTime has moved on from the selection, or backward (the rarer,
// slower case of jumping back to an earlier time) otherwise - rather
// than scanning the whole history on every call. It returns the zero
// value and false if the history is empty or nothing valid is found
// in either the current selection or the chosen direction.
func (h *History[T]) Select(targetTime GPSTime, isValid func(T, GPSTime) bool) (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	if h.selected < 0 || h.selected >= len(h.items) {
		h.selected = len(h.items) - 1
	}

	best := -1
	bestDT := math.Inf(1)
	if isValid(h.items[h.selected].value, targetTime) {
		best = h.selected
		bestDT = math.Abs(targetTime.Sub(h.items[best].time))
	}

	consider := func(i int) {
		if !isValid(h.items[i].value, targetTime) {
			return
		}
		dt := math.Abs(targetTime.Sub(h.items[i].time))
		if best < 0 || dt < bestDT || (dt == bestDT && h.items[i].priority > h.items[best].priority) {
			best, bestDT = i, dt
		}
	}

	if targetTime.Sub(h.items[h.selected].time) >= 0 {
		for i := h.selected + 1; i < len(h.items); i++ {
			consider(i)
		}
	} else {
		for i := 0; i < h.selected; i++ {
			consider(i)
		}
	}

	if best < 0 {
		return zero, false
	}
	h.selected = best
	return h.items[best].value, true
}

// Each walks the history in the order given by mode, calling fn for
// each retained entry. EachNoRedundant skips entries immediately
// superseded by an equivalent, higher-priority neighbor.
func (h *History[T]) Each(mode IterMode, fn func(value T, t GPSTime)) {
	switch mode {
	case EachAllInverted:
		for i := len(h.items) - 1; i >= 0; i-- {
			fn(h.items[i].value, h.items[i].time)
		}
	case EachNoRedundant:
		var redundant []int
		for i := range h.items {
			for j := range h.items {
				if i == j || h.items[i].tTag != h.items[j].tTag {
					continue
				}
				if h.items[j].priority > h.items[i].priority && h.items[i].value.Equivalent(h.items[j].value) {
					redundant = append(redundant, i)
					break
				}
			}
		}
		for i := range h.items {
			if slices.Contains(redundant, i) {
				continue
			}
			fn(h.items[i].value, h.items[i].time)
		}
	default:
		for i := range h.items {
			fn(h.items[i].value, h.items[i].time)
		}
	}
}

// Len reports the number of retained entries (including redundant ones).
func (h *History[T]) Len() int {
	return len(h.items)
}

// Merge folds another history's entries into h via Add, preserving each
// entry's relative priority. If keepOriginalPriority is false, entries
// from other are inserted with priority 0 rather than their original
// priority, so a merge never lets an untrusted secondary source outrank
// what's already in h.
func (h *History[T]) Merge(other *History[T], keepOriginalPriority bool) {
	other.Each(EachAll, func(v T, t GPSTime) {
		p := 0
		if keepOriginalPriority {
			for _, it := range other.items {
				if it.time == t {
					p = it.priority
					break
				}
			}
		}
		h.Add(v, t, p)
	})
}
