package vmem

// segfit.go implements seg_fit (spec.md §4.E) and the two fit policies,
// instant-fit and best-fit, that drive Xalloc's bucket scan.
//
// segFit computes the lowest address within seg satisfying size, align,
// phase, nocross and the [minaddr, maxaddr) window, following the
// intersection semantics spec.md §9's "Open questions" prescribes (the
// source formulation's MIN/MAX widens the window instead of clamping into
// it; that is treated as a bug here, not reproduced).
func segFit(seg *segment, size, align, phase, nocross, minaddr, maxaddr int64) (int64, bool) {
	start := seg.base
	if minaddr > start {
		start = minaddr
	}
	start = alignUp(start-phase, align) + phase
	if start < seg.base {
		start += align
	}
	if nocross != 0 {
		if (start / nocross) != ((start + size - 1) / nocross) {
			start = ((start/nocross)+1)*nocross + phase
		}
	}
	if start < seg.base {
		return 0, false
	}

	end := seg.end()
	if maxaddr != 0 && maxaddr < end {
		end = maxaddr
	}
	if start+size <= end {
		return start, true
	}
	return 0, false
}

// alignUp rounds v up to the nearest multiple of align, using floor
// division so it stays correct when v-phase goes negative (start before
// base, phase after it): Go's % truncates toward zero, so a naive
// v+(align-v%align) overshoots by a full align for negative v.
func alignUp(v, align int64) int64 {
	r := v % align
	if r < 0 {
		r += align
	}
	if r == 0 {
		return v
	}
	return v + (align - r)
}

// findFitInstant implements instant-fit: the first segment of the first
// non-empty bucket at or above bucket_of(size) whose seg_fit succeeds. The
// bucket choice already guarantees enough room for alignment/phase in the
// common case; on the rare miss, instant-fit advances to the next bucket
// rather than scanning further within the same one, keeping the search
// O(K) worst case.
func (a *Arena) findFitInstant(size, align, phase, nocross, minaddr, maxaddr int64) (*segment, int64) {
	for i := bucketOf(size); i != -1; {
		i = a.flNextNonEmpty(i)
		if i == -1 {
			return nil, 0
		}
		if seg := a.flBuckets[i]; seg != nil {
			if start, ok := segFit(seg, size, align, phase, nocross, minaddr, maxaddr); ok {
				return seg, start
			}
		}
		i++
	}
	return nil, 0
}

// findFitBest implements best-fit: within each bucket from
// bucket_of(size) upward, scan every segment and keep the smallest one
// for which seg_fit succeeds; stop at the first bucket that yields a fit.
func (a *Arena) findFitBest(size, align, phase, nocross, minaddr, maxaddr int64) (*segment, int64) {
	for i := bucketOf(size); i != -1; {
		i = a.flNextNonEmpty(i)
		if i == -1 {
			return nil, 0
		}
		var best *segment
		var bestStart int64
		for seg := a.flBuckets[i]; seg != nil; seg = seg.flNext {
			start, ok := segFit(seg, size, align, phase, nocross, minaddr, maxaddr)
			if !ok {
				continue
			}
			if best == nil || seg.size < best.size {
				best, bestStart = seg, start
			}
		}
		if best != nil {
			return best, bestStart
		}
		i++
	}
	return nil, 0
}
