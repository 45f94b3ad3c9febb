package fold

import (
	"fmt"
	"slices"
)

// LineRange is an inclusive, zero-based range of document lines.
type LineRange struct {
	// Start is the first line of the range.
	Start int

	// End is the last line of the range. End >= Start.
	End int

	// EndColumn is the length in bytes of the end line.
	EndColumn int
}

// NewLineRange creates a range between two lines. The bounds are swapped if
// given in reverse order.
func NewLineRange(start, end int) LineRange {
	if end < start {
		start, end = end, start
	}
	return LineRange{Start: start, End: end}
}

// Equal reports whether both ranges cover the same lines.
// EndColumn is derived from the document and does not take part.
func (r LineRange) Equal(other LineRange) bool {
	return r.Start == other.Start && r.End == other.End
}

// Intersects reports whether the ranges share at least one line.
func (r LineRange) Intersects(other LineRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Contains reports whether line lies within the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Lines returns the number of lines covered.
func (r LineRange) Lines() int {
	return r.End - r.Start + 1
}

// String returns the range as "[start,end]".
func (r LineRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// StartLines returns the start line of every range, in order.
func StartLines(ranges []LineRange) []int {
	lines := make([]int, len(ranges))
	for i, r := range ranges {
		lines[i] = r.Start
	}
	return lines
}

// ContainsRange reports whether ranges holds a range equal to r.
func ContainsRange(ranges []LineRange, r LineRange) bool {
	return slices.ContainsFunc(ranges, r.Equal)
}

// Subtract returns the ranges of from that have no equal range in any of
// the excluded sets. Order is preserved.
func Subtract(from []LineRange, exclude ...[]LineRange) []LineRange {
	var out []LineRange
	for _, r := range from {
		excluded := false
		for _, set := range exclude {
			if ContainsRange(set, r) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, r)
		}
	}
	return out
}
