package engine

import (
	"github.com/lox/bridgedealer/internal/eval"
	"github.com/lox/bridgedealer/internal/script"
)

// AverageTotal accumulates one `average` action across matching deals.
type AverageTotal struct {
	Label string
	Sum   float64
	Count uint64
}

// Mean returns sum/n, or 0 for an empty accumulator.
func (a *AverageTotal) Mean() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// FrequencyTotal accumulates one `frequency` action across matching
// deals. With a declared range, out-of-range values collect in the
// Low/High overflow counters; otherwise the table auto-ranges over
// the observed buckets.
type FrequencyTotal struct {
	Label    string
	Buckets  map[int32]uint64
	HasRange bool
	Min      int32
	Max      int32
	Low      uint64
	High     uint64
}

// add buckets one sampled value.
func (f *FrequencyTotal) add(v int32) {
	if f.HasRange {
		if v < f.Min {
			f.Low++
			return
		}
		if v > f.Max {
			f.High++
			return
		}
	}
	f.Buckets[v]++
}

// Totals is the supervisor's aggregate state, merged from per-deal
// samples in serial order. Merging is addition throughout, so any
// partitioning of the matching-deal stream yields the same totals.
type Totals struct {
	Averages    []AverageTotal
	Frequencies []FrequencyTotal
}

func newTotals(prog *script.Program) *Totals {
	t := &Totals{}
	for _, spec := range prog.Averages {
		t.Averages = append(t.Averages, AverageTotal{Label: spec.Label})
	}
	for _, spec := range prog.Frequencies {
		t.Frequencies = append(t.Frequencies, FrequencyTotal{
			Label:    spec.Label,
			Buckets:  make(map[int32]uint64),
			HasRange: spec.HasRange,
			Min:      spec.Min,
			Max:      spec.Max,
		})
	}
	return t
}

// sampleSet holds one matching deal's evaluated action expressions.
// Workers compute these so the supervisor only merges integers.
type sampleSet struct {
	avg  []int32
	freq []int32
}

// takeSamples evaluates every average and frequency expression for
// the current deal in the evaluation context.
func takeSamples(ctx *eval.Context, prog *script.Program) (sampleSet, error) {
	var s sampleSet
	if len(prog.Averages) > 0 {
		s.avg = make([]int32, len(prog.Averages))
		for i, spec := range prog.Averages {
			v, err := ctx.Eval(spec.Expr)
			if err != nil {
				return s, err
			}
			s.avg[i] = v
		}
	}
	if len(prog.Frequencies) > 0 {
		s.freq = make([]int32, len(prog.Frequencies))
		for i, spec := range prog.Frequencies {
			v, err := ctx.Eval(spec.Expr)
			if err != nil {
				return s, err
			}
			s.freq[i] = v
		}
	}
	return s, nil
}

// merge folds one matching deal's samples into the totals.
func (t *Totals) merge(s sampleSet) {
	for i := range s.avg {
		t.Averages[i].Sum += float64(s.avg[i])
		t.Averages[i].Count++
	}
	for i := range s.freq {
		t.Frequencies[i].add(s.freq[i])
	}
}
