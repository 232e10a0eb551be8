package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lox/bridgedealer/internal/engine"
)

// FloatG renders a float the way C's %g does: six significant digits,
// trailing zeros trimmed, scientific notation for extreme magnitudes.
func FloatG(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

// Average renders one average line: "label: value".
func Average(a *engine.AverageTotal) string {
	label := a.Label
	if label == "" {
		label = "Average"
	}
	return fmt.Sprintf("%s: %s\n", label, FloatG(a.Mean()))
}

// Frequency renders one frequency table: a header line, one row per
// value, and Low/High overflow rows when a range was declared.
func Frequency(f *engine.FrequencyTotal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Frequency %s:\n", f.Label)

	minVal, maxVal := f.Min, f.Max
	if !f.HasRange {
		if len(f.Buckets) == 0 {
			return sb.String()
		}
		values := make([]int32, 0, len(f.Buckets))
		for v := range f.Buckets {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		minVal, maxVal = values[0], values[len(values)-1]
	}

	if f.HasRange && f.Low > 0 {
		fmt.Fprintf(&sb, "Low\t%8d\n", f.Low)
	}
	for v := minVal; v <= maxVal; v++ {
		fmt.Fprintf(&sb, "%5d\t%8d\n", v, f.Buckets[v])
	}
	if f.HasRange && f.High > 0 {
		fmt.Fprintf(&sb, "High\t%8d\n", f.High)
	}
	return sb.String()
}

// RunSummary renders the end-of-run statistics block.
func RunSummary(generated, produced, seed uint64, seconds float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generated %d hands\n", generated)
	fmt.Fprintf(&sb, "Produced %d hands\n", produced)
	fmt.Fprintf(&sb, "Initial random seed %d\n", seed)
	fmt.Fprintf(&sb, "Time needed %7.3f sec\n", seconds)
	return sb.String()
}
