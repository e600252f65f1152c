package types

import "time"

// unixToUATicks is the tick count (100ns units) between the OPC UA
// epoch (1601-01-01 UTC, spec.md §4.1) and the Unix epoch. The gap
// itself (~369 years) already exceeds what an int64 nanosecond
// time.Duration can hold, so conversions add this constant to
// Unix-epoch-relative ticks instead of routing the full 1601-epoch
// offset through a time.Duration.
const unixToUATicks = 116444736000000000

// DateTimeFromTime converts a time.Time to the OPC UA 100ns-tick
// encoding.
func DateTimeFromTime(t time.Time) int64 {
	t = t.UTC()
	return t.Unix()*10000000 + int64(t.Nanosecond())/100 + unixToUATicks
}

// TimeFromDateTime converts the OPC UA 100ns-tick encoding back to a
// time.Time.
func TimeFromDateTime(v int64) time.Time {
	unixTicks := v - unixToUATicks
	seconds := unixTicks / 10000000
	nanos := (unixTicks % 10000000) * 100
	return time.Unix(seconds, nanos).UTC()
}
