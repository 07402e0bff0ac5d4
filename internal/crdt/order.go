package crdt

import (
	"sort"

	"github.com/iudanet/posync/internal/models"
)

// Precedes reports whether a must be applied before b.
//
// Causal order decides first. For concurrent (or equal) clocks the
// server-assigned sequence breaks the tie, then the origin device id so the
// order is deterministic on every replica.
func Precedes(a, b *models.LocalEvent) bool {
	switch Compare(a.VectorClock, b.VectorClock) {
	case Before:
		return true
	case After:
		return false
	}

	if a.ServerSeq != b.ServerSeq {
		return a.ServerSeq < b.ServerSeq
	}
	if a.DeviceID != b.DeviceID {
		return a.DeviceID < b.DeviceID
	}
	return a.Seq < b.Seq
}

// SortCausal orders events for replay. Events are first sorted by server
// sequence and then stably reordered so no event precedes one it causally
// depends on.
func SortCausal(events []*models.LocalEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].ServerSeq != events[j].ServerSeq {
			return events[i].ServerSeq < events[j].ServerSeq
		}
		if events[i].DeviceID != events[j].DeviceID {
			return events[i].DeviceID < events[j].DeviceID
		}
		return events[i].Seq < events[j].Seq
	})

	// Causal order is only a partial order, so a comparison sort cannot be
	// used directly. The prefix events[:j] is kept causally consistent: an
	// event is moved in front of the first earlier event it happened before.
	for j := 1; j < len(events); j++ {
		for k := 0; k < j; k++ {
			if !HappenedBefore(events[j].VectorClock, events[k].VectorClock) {
				continue
			}
			e := events[j]
			copy(events[k+1:j+1], events[k:j])
			events[k] = e
			break
		}
	}
}

// Winner returns the event whose state survives when both address the same
// entity: the causally later one, or for concurrent events the one that
// comes last by Precedes.
func Winner(a, b *models.LocalEvent) *models.LocalEvent {
	if Precedes(a, b) {
		return b
	}
	return a
}
