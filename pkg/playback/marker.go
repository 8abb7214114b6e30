package playback

import (
	"fmt"
	"strconv"
	"strings"
)

// HundredNsPerSec is the number of 100-ns units per second used by the
// engine's marker stream.
const HundredNsPerSec int64 = 10_000_000

// Marker is a single parsed entry from a callback's marker string: Name is
// the index number reported to the caller as DriverState.lastIndex;
// Offset is the 100-ns offset from utterance start at which it occurs.
type Marker struct {
	Name   uint32
	Offset int64
}

// ParseMarkers parses a "name1:pos1|name2:pos2|..." marker string into an
// ordered list of Markers. An empty string yields no markers and no error.
// A malformed entry yields InvalidMarkerString-shaped error; callers (see
// Pipeline.Deliver) log it and recover by feeding the remaining buffer as
// one chunk, matching the engine contract that the callback must never
// propagate an error.
func ParseMarkers(s string) ([]Marker, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	markers := make([]Marker, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		name, pos, ok := strings.Cut(part, ":")
		if !ok {
			return markers, fmt.Errorf("invalid marker entry %q: missing ':'", part)
		}
		n, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			return markers, fmt.Errorf("invalid marker name %q: %w", name, err)
		}
		t, err := strconv.ParseInt(pos, 10, 64)
		if err != nil {
			return markers, fmt.Errorf("invalid marker offset %q: %w", pos, err)
		}
		if t < 0 {
			return markers, fmt.Errorf("invalid marker offset %q: negative", pos)
		}
		markers = append(markers, Marker{Name: uint32(n), Offset: t})
	}
	return markers, nil
}

// ByteOffset converts a 100-ns offset to a byte offset at the given sample
// rate and bytes-per-sample, using integer arithmetic throughout to avoid
// floating-point drift: t * bytesPerSecond / HundredNsPerSec, kept in
// 64-bit since t can be on the order of 10^7 * seconds.
func ByteOffset(offset100ns int64, bytesPerSecond int64) int64 {
	return offset100ns * bytesPerSecond / HundredNsPerSec
}
