package calc

import (
	"math"
	"sort"

	"factory-assistant/internal/model"
)

func clamp(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return clamp(num / den)
}

func percent(num, den float64) float64 {
	return clamp(ratio(num, den) * 100)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	return ratio(sum(values), float64(len(values)))
}

// describe computes population statistics. An empty input yields zero stats.
func describe(values []float64) model.NumericStats {
	if len(values) == 0 {
		return model.NumericStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	avg := mean(sorted)
	var sq float64
	for _, v := range sorted {
		sq += (v - avg) * (v - avg)
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return model.NumericStats{
		Mean:   clamp(avg),
		Std:    clamp(math.Sqrt(sq / float64(n))),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: median,
		N:      n,
	}
}

// counter tallies labels and keeps first-seen order so equal counts stay stable.
type counter struct {
	order  []string
	counts map[string]float64
}

func newCounter() *counter {
	return &counter{counts: make(map[string]float64)}
}

func (c *counter) add(label string, n float64) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label] += n
}

func (c *counter) size() int {
	return len(c.order)
}

// buckets returns the tallies sorted by count, highest first.
func (c *counter) buckets() []model.Bucket {
	out := make([]model.Bucket, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, model.Bucket{Label: label, Count: c.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
