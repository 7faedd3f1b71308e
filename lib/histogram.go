package lib

import "fmt"
import "sort"
import "strconv"
import "strings"

// HistogramInt64 is a statistical histogram over int64 samples. Used by
// Dump()/Utilization() to report the occupancy of each free-list bucket,
// the way bnclabs-gostore's llrb_stats.go feeds node-size samples into one
// of these before logging them.
type HistogramInt64 struct {
	n         int64
	minval    int64
	maxval    int64
	sum       int64
	init      bool
	histogram map[int64]int64
}

// NewHistogramInt64 returns an empty histogram.
func NewHistogramInt64() *HistogramInt64 {
	return &HistogramInt64{histogram: make(map[int64]int64)}
}

// Add a sample, bucketed under bucket.
func (h *HistogramInt64) Add(bucket, sample int64) {
	h.n++
	h.sum += sample
	if !h.init || sample < h.minval {
		h.minval, h.init = sample, true
	}
	if sample > h.maxval {
		h.maxval = sample
	}
	h.histogram[bucket] += sample
}

// Min sample value added so far.
func (h *HistogramInt64) Min() int64 { return h.minval }

// Max sample value added so far.
func (h *HistogramInt64) Max() int64 { return h.maxval }

// Samples returns the number of Add calls made.
func (h *HistogramInt64) Samples() int64 { return h.n }

// Sum of all samples.
func (h *HistogramInt64) Sum() int64 { return h.sum }

// Logstring renders the per-bucket totals as a single JSON-like line, the
// way lib.HistogramInt64.Logstring() does in the teacher.
func (h *HistogramInt64) Logstring() string {
	keys := make([]int64, 0, len(h.histogram))
	for k := range h.histogram {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`"%v": %v`, strconv.FormatInt(k, 10), h.histogram[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
