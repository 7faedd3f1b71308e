// Package vmsrc holds the callback contracts an arena uses to reach outside
// itself: a Source that supplies and reclaims spans, and a PageSource that
// backs the freestanding segment pool. Kept in its own package the way
// bnclabs-gostore/api holds contracts (Mallocer) shared across engines that
// would otherwise need to import one another.
package vmsrc

// Source is implemented by an upstream arena (or any extent supplier) that a
// child arena imports spans from. A child arena's Import call typically rounds
// the requested size up to the source's own quantum before delegating.
type Source interface {
	// Import obtains a new extent of at least size bytes from the source.
	// Returns ErrNoMem-compatible error when the source itself is exhausted.
	Import(size int64) (base int64, got int64, err error)

	// Release returns an extent previously obtained from Import. base and
	// size must match a prior Import call exactly; violations are caller
	// bugs, not recoverable errors.
	Release(base, size int64)
}

// PageSource backs the freestanding segment pool's refill path (spec.md
// §4.A, §6). It stands in for a kernel page allocator: AllocPages returns n
// contiguous pages' worth of raw storage for boundary-tag records.
type PageSource interface {
	// AllocPages returns storage for n pages, each PageSize bytes.
	AllocPages(n int) []byte
}

// PageSize is the fixed page granularity the freestanding pool refills in,
// per spec.md §6 ("alloc_pages(n) -> ... n contiguous 4096-byte pages").
const PageSize = 4096
