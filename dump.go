package vmem

import "fmt"
import "strings"

import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/vmem/lib"

// Dump renders the arena's address-ordered segment list and hash index as a
// human-readable string, one line per segment in address order, following
// the teacher's own llrb.stats/log convention of a humanize.Bytes-formatted
// diagnostic dump (llrb_stats.go's (*LLRB).log). Intended for debugging and
// tests, not for machine parsing.
func (a *Arena) Dump() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "arena %q quantum=%v segments=%v allocated=%v\n",
		a.name, a.quantum, a.nsegs, humanize.Bytes(uint64(a.allocated)))

	for sg := a.blHead; sg != nil; sg = sg.blNext {
		fmt.Fprintf(&b, "  [%#x, %#x) %v size=%v",
			sg.base, sg.end(), sg.kind, humanize.Bytes(uint64(sg.size)))
		if sg.imported {
			b.WriteString(" (imported)")
		}
		b.WriteString("\n")
	}

	b.WriteString("hash index:\n")
	for i, chain := range a.hBuckets {
		if chain == nil {
			continue
		}
		fmt.Fprintf(&b, "  bucket %d:", i)
		for s := chain; s != nil; s = s.hNext {
			fmt.Fprintf(&b, " %#x", s.base)
		}
		b.WriteString("\n")
	}

	b.WriteString(a.utilizationLocked())
	return b.String()
}

// Utilization summarizes the free-list's per-bucket occupancy as a
// HistogramInt64 keyed by bucket index, in the spirit of llrb_stats.go's
// h_heightav/fullstats histograms: every free segment adds its size as one
// sample under its bucket_of(size), so the report gives free bytes per
// size class and a caller can see at a glance which size classes the arena
// is fragmenting into.
func (a *Arena) Utilization() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.utilizationLocked()
}

func (a *Arena) utilizationLocked() string {
	h := lib.NewHistogramInt64()
	for i, seg := range a.flBuckets {
		for s := seg; s != nil; s = s.flNext {
			h.Add(int64(i), s.size)
		}
	}
	return fmt.Sprintf("free-list utilization: %v\n", h.Logstring())
}
