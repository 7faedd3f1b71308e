package vmem

import "encoding/binary"

import "github.com/spaolacci/murmur3"

// seghash.go implements component D of spec.md §2/§4.D: a fixed-width
// open hash table, keyed by base address, chained buckets, sized at Arena
// creation with no dynamic resize. The hash function is murmur3's 64-bit
// mix over the 8 address bytes, which spec.md §4.D names directly as
// acceptable ("a 64-bit finalizer of Murmur3... uniformity over low bits
// of aligned addresses").

func (a *Arena) hIndexOf(base int64) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(base))
	return int(murmur3.Sum64(buf[:]) % uint64(len(a.hBuckets)))
}

func (a *Arena) hInsert(seg *segment) {
	i := a.hIndexOf(seg.base)
	seg.hNext = a.hBuckets[i]
	a.hBuckets[i] = seg
}

func (a *Arena) hLookup(base int64) *segment {
	i := a.hIndexOf(base)
	for s := a.hBuckets[i]; s != nil; s = s.hNext {
		if s.base == base {
			return s
		}
	}
	return nil
}

func (a *Arena) hRemove(seg *segment) {
	i := a.hIndexOf(seg.base)
	if a.hBuckets[i] == seg {
		a.hBuckets[i] = seg.hNext
		seg.hNext = nil
		return
	}
	prev := a.hBuckets[i]
	for prev != nil && prev.hNext != seg {
		prev = prev.hNext
	}
	if prev != nil {
		prev.hNext = seg.hNext
	}
	seg.hNext = nil
}
