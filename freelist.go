package vmem

import "math/bits"

import "github.com/bnclabs/vmem/lib"

// freelist.go implements component C of spec.md §2/§4.C: K=64 buckets of
// free segments, bucket i holding segments with 2^i <= size < 2^(i+1).
// Each bucket is an unordered singly linked intrusive list, insert at
// head, O(1) removal via the segment's own flNext pointer. flOccupancy is
// a one-bit-per-bucket occupancy map (lib.Bit64, widened from the
// teacher's lib.Bit32/malloc/freebits.go bit-trick style) so instant-fit's
// "first non-empty bucket at or above bucket_of(size)" is a find-first-set
// over a 64-bit word rather than a linear scan of up to 64 buckets.

func bucketOf(size int64) int {
	return bits.Len64(uint64(size)) - 1
}

func (a *Arena) flInsert(seg *segment) {
	i := bucketOf(seg.size)
	seg.flNext = a.flBuckets[i]
	a.flBuckets[i] = seg
	a.flOccupancy = a.flOccupancy.Setbit(uint(i))
}

func (a *Arena) flRemove(seg *segment) {
	i := bucketOf(seg.size)
	if a.flBuckets[i] == seg {
		a.flBuckets[i] = seg.flNext
	} else {
		prev := a.flBuckets[i]
		for prev != nil && prev.flNext != seg {
			prev = prev.flNext
		}
		if prev != nil {
			prev.flNext = seg.flNext
		}
	}
	seg.flNext = nil
	if a.flBuckets[i] == nil {
		a.flOccupancy = a.flOccupancy.Clearbit(uint(i))
	}
}

// flNextNonEmpty returns the lowest bucket index >= from that has at
// least one free segment, or -1 if none does.
func (a *Arena) flNextNonEmpty(from int) int {
	if from >= K {
		return -1
	}
	if from <= 0 {
		return a.flOccupancy.Findfirstset()
	}
	mask := lib.Bit64(^uint64(0) << uint(from))
	return (a.flOccupancy & mask).Findfirstset()
}
