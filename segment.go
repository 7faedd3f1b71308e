package vmem

// Kind classifies a segment, spec.md §3.
type Kind uint8

const (
	// KindSpan marks a segment installed by Add (or imported from a
	// source) describing one whole contiguous extent. Spans live only in
	// the address-ordered list (seglist.go); they never appear in the
	// free-list or hash index.
	KindSpan Kind = iota + 1
	// KindAllocated marks an in-use segment, indexed by base in seghash.go.
	KindAllocated
	// KindFree marks a free segment, indexed by size class in freelist.go.
	KindFree
)

func (k Kind) String() string {
	switch k {
	case KindSpan:
		return "SPAN"
	case KindAllocated:
		return "ALLOCATED"
	case KindFree:
		return "FREE"
	default:
		return "UNKNOWN"
	}
}

// segment is a boundary tag describing one contiguous extent, spec.md §3.
// Every segment lives in exactly one position in the address-ordered list
// (blPrev/blNext); a FREE segment also lives in exactly one free-list
// bucket (flNext) and an ALLOCATED segment in exactly one hash bucket
// (hNext). span points at the owning SPAN segment for every non-span
// segment, used to confine coalescing and neighbour checks to within one
// span (invariant 2) and to detect when a free segment has grown back to
// cover its whole imported span (Free's release-to-source path).
//
// Pointer-linked rather than the dense-index slab spec.md §9 suggests for
// strict-ownership languages: Go's GC makes plain pointers safe here, and
// it mirrors the teacher's own poolflist intrusive-pointer convention more
// closely than an arena-owned array would. See DESIGN.md.
type segment struct {
	base int64
	size int64
	kind Kind

	imported bool // set only on SPAN segments acquired via Source.Import
	span     *segment

	blPrev, blNext *segment // seglist.go: address-ordered list
	flNext         *segment // freelist.go: singly linked free bucket chain
	hNext          *segment // seghash.go: singly linked hash bucket chain
	poolNext       *segment // segpool.go: pool's own free-record chain
}

func (s *segment) end() int64 { return s.base + s.size }
