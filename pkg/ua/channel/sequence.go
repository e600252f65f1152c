package channel

// sequenceWrapThreshold is the value after which the next legal
// sequence number wraps to 1 rather than continuing to increment
// (spec.md §3: "after 4294966271 the next legal value is 1").
const sequenceWrapThreshold uint32 = 4294966271

// sequenceWindowSize bounds how far ahead of the last-seen sequence
// number an incoming value may legally jump (spec.md §3: "legal
// successor is any value in [n+1, n+1024]").
const sequenceWindowSize uint32 = 1024

// nextSequenceNumber returns the sequence number that legally follows
// last, applying the wrap rule.
func nextSequenceNumber(last uint32) uint32 {
	if last >= sequenceWrapThreshold {
		return 1
	}
	return last + 1
}

// isLegalSuccessor reports whether candidate is an acceptable next
// sequence number given the last one seen, honouring the wrap rule at
// the boundary: when last is within sequenceWindowSize of the
// threshold, the legal window spans across the wrap point.
func isLegalSuccessor(last, candidate uint32) bool {
	if candidate == 0 {
		return false
	}
	lo := nextSequenceNumber(last)
	if last >= sequenceWrapThreshold {
		return candidate == 1
	}
	hi := last + sequenceWindowSize
	if hi >= sequenceWrapThreshold {
		// Window crosses the wrap boundary: legal range is
		// [lo, sequenceWrapThreshold] union [1, hi-sequenceWrapThreshold].
		if candidate >= lo && candidate <= sequenceWrapThreshold {
			return true
		}
		wrapped := hi - sequenceWrapThreshold
		return candidate >= 1 && candidate <= wrapped
	}
	return candidate >= lo && candidate <= hi
}

// sequenceCounter tracks one direction's (send or receive) sequence
// number state for a channel.
type sequenceCounter struct {
	last    uint32
	started bool
}

// Send returns the next sequence number to stamp on an outgoing
// chunk and advances state.
func (s *sequenceCounter) Send() uint32 {
	if !s.started {
		s.started = true
		s.last = 1
		return 1
	}
	s.last = nextSequenceNumber(s.last)
	return s.last
}

// Accept validates an incoming sequence number against the legal
// successor window and, if valid, advances state.
func (s *sequenceCounter) Accept(n uint32) bool {
	if !s.started {
		s.started = true
		s.last = n
		return n != 0
	}
	if !isLegalSuccessor(s.last, n) {
		return false
	}
	s.last = n
	return true
}
