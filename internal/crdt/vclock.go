package crdt

import "github.com/iudanet/posync/internal/models"

// Ordering is the causal relation between two vector clocks.
type Ordering int

const (
	Equal      Ordering = iota // одинаковые часы
	Before                     // a happened-before b
	After                      // b happened-before a
	Concurrent                 // ни одно не предшествует другому
)

func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// Compare determines the causal relation of a to b. A missing entry counts as 0.
//
// a happened-before b iff every component of a is <= the corresponding component
// of b and at least one is strictly less.
func Compare(a, b models.VectorClock) Ordering {
	aLess, bLess := false, false

	for deviceID, av := range a {
		bv := b[deviceID]
		if av < bv {
			aLess = true
		} else if av > bv {
			bLess = true
		}
	}
	for deviceID, bv := range b {
		if _, seen := a[deviceID]; seen {
			continue
		}
		if bv > 0 {
			aLess = true
		} else if bv < 0 {
			bLess = true
		}
	}

	switch {
	case aLess && bLess:
		return Concurrent
	case aLess:
		return Before
	case bLess:
		return After
	default:
		return Equal
	}
}

// HappenedBefore reports whether a causally precedes b.
func HappenedBefore(a, b models.VectorClock) bool {
	return Compare(a, b) == Before
}

// IsConcurrent reports whether neither clock precedes the other.
func IsConcurrent(a, b models.VectorClock) bool {
	return Compare(a, b) == Concurrent
}

// Descends reports whether b has observed everything a has (a <= b component-wise).
func Descends(b, a models.VectorClock) bool {
	o := Compare(a, b)
	return o == Before || o == Equal
}

// Merge returns a new clock holding the per-device maximum of a and b.
func Merge(a, b models.VectorClock) models.VectorClock {
	out := a.Clone()
	for deviceID, bv := range b {
		if bv > out[deviceID] {
			out[deviceID] = bv
		}
	}
	return out
}
