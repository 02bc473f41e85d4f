// Copyright (c) 2025 BVK Chaitanya

package tracker

import "slices"

// HistoryCapacity is the maximum number of change events kept per entity.
const HistoryCapacity = 100

// history is a bounded list of change events. Oldest events are evicted
// first.
type history struct {
	events []*ChangeEvent
}

func (h *history) add(ev *ChangeEvent) {
	h.events = append(h.events, ev)
	if n := len(h.events) - HistoryCapacity; n > 0 {
		h.events = slices.Delete(h.events, 0, n)
	}
}

func (h *history) len() int {
	return len(h.events)
}

func (h *history) list() []*ChangeEvent {
	events := make([]*ChangeEvent, 0, len(h.events))
	for _, ev := range h.events {
		c := *ev
		events = append(events, &c)
	}
	return events
}
