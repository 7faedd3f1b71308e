package vmem

import "sync"
import "unsafe"

import "github.com/bnclabs/vmem/vmsrc"

// segPool supplies and recycles segment records, spec.md §4.A. acquire
// must never fail during an Xalloc call that has already passed admission
// (the engine pre-acquires the worst-case number of records before
// mutating arena state); release never fails.
type segPool interface {
	acquire(bootstrapping bool) *segment
	release(rec *segment)
}

// hostedPool realizes segPool against the host heap: every acquire is a
// Go allocation, every release lets the GC reclaim the record. This is
// the teacher's "hosted mode" (malloc's poolflist, modulo cgo): no static
// reserve, no bootstrap lifecycle, acquire cannot meaningfully fail.
type hostedPool struct{}

func (hostedPool) acquire(bool) *segment { return &segment{} }
func (hostedPool) release(*segment)      {}

// heapPages is the default vmsrc.PageSource: plain Go-heap storage, used
// when no application-supplied page source is configured. A real
// freestanding deployment would point this at a kernel page allocator;
// here it stands in the way bnclabs-gostore/malloc's poolflist stands in
// for a kernel slab with C.malloc.
type heapPages struct{}

func (heapPages) AllocPages(n int) []byte {
	return make([]byte, n*vmsrc.PageSize)
}

var recordSize = int(unsafe.Sizeof(segment{}))
var recordsPerPage = vmsrc.PageSize / recordSize

// freestandingPool is the process-global, freestanding realization of
// segPool described in spec.md §4.A and §9's "Global segment pool" note:
// a single intrusive free-list of segment records, bootstrapped with a
// static reserve and refilled RefillRecords at a time from a PageSource
// when the free count drops to NFreesegsMin. It is process-wide and guarded by
// its own lock so that a refill triggered while some arena holds its own
// lock can never deadlock on that arena (spec.md §5's re-entrancy rule).
type freestandingPool struct {
	mu          sync.Mutex
	pages       vmsrc.PageSource
	free        *segment
	nfree       int
	bootstrapped bool
}

var globalPool = &freestandingPool{pages: heapPages{}}

// Bootstrap installs the freestanding pool's static reserve; calls after
// the first are no-ops. The pool also bootstraps itself on its first
// acquire (which Create triggers when it installs an initial span), so
// applications only need this directly when they want to choose their own
// vmsrc.PageSource via SetPageSource first.
func Bootstrap() {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	globalPool.bootstrapLocked()
}

func (p *freestandingPool) bootstrapLocked() {
	if p.bootstrapped {
		return
	}
	p.refillLocked(FreestandingReserve)
	p.bootstrapped = true
}

// refill tops up the pool unconditionally, ignoring the low-water mark.
// This is what the BOOTSTRAP flag (spec.md §4.E step 1, "if flags &
// BOOTSTRAP, refill the segment pool first") actually calls: unlike
// Bootstrap/bootstrapLocked, which install the static reserve exactly
// once and no-op forever after, refill runs every time it's called; on a
// pool that has not been bootstrapped yet it installs the reserve instead
// of adding n records. A
// caller passing BOOTSTRAP acknowledges spec.md §4.A's recursion hazard
// (this pool's PageSource may itself be the arena making this call) and
// must invoke refill before taking its own lock, so the pool never needs
// to refill again from inside that lock — see acquire's bootstrapping
// parameter below.
func (p *freestandingPool) refill(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.bootstrapped {
		p.bootstrapLocked()
		return
	}
	p.refillLocked(n)
}

// SetPageSource swaps the freestanding pool's page source. Must be called
// before Bootstrap/the first freestanding Create; intended for tests and
// for applications layering the freestanding pool's refill path on top of
// another vmem.Arena (the bootstrap hazard spec.md §4.A describes).
func SetPageSource(ps vmsrc.PageSource) {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	p := globalPool
	p.pages = ps
}

func (p *freestandingPool) refillLocked(nrecords int) {
	pages := (nrecords + recordsPerPage - 1) / recordsPerPage
	if pages < 1 {
		pages = 1
	}
	buf := p.pages.AllocPages(pages)
	n := len(buf) / recordSize
	if n > nrecords {
		n = nrecords
	}
	if n == 0 {
		panicf("vmem: page source returned too little storage for a single segment record")
	}
	recs := unsafe.Slice((*segment)(unsafe.Pointer(&buf[0])), n)
	for i := range recs {
		recs[i] = segment{}
		recs[i].poolNext = p.free
		p.free = &recs[i]
		p.nfree++
	}
}

func (p *freestandingPool) acquire(bootstrapping bool) *segment {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.bootstrapped {
		// Lazily bootstrap on first use regardless of bootstrapping: this
		// installs the static reserve, not a refill, so it is safe even
		// while the caller's own arena lock is held (bootstrapLocked's
		// page-source call only ever happens once, never re-entering an
		// arena that is mid-construction).
		p.bootstrapLocked()
	}
	if bootstrapping {
		// The caller passed BOOTSTRAP and already ran refill() before
		// taking its own lock (see Arena.Xalloc), acknowledging spec.md
		// §4.A's recursion hazard: this pool's PageSource may be an arena
		// layered on the caller, and refilling again from in here would
		// re-enter that arena's lock. Skip it and trust the pre-lock
		// top-up, even if nfree has since dropped to the low-water mark.
	} else if p.nfree <= NFreesegsMin {
		p.refillLocked(RefillRecords)
	}
	rec := p.free
	p.free = rec.poolNext
	rec.poolNext = nil
	p.nfree--
	return rec
}

func (p *freestandingPool) release(rec *segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*rec = segment{}
	rec.poolNext = p.free
	p.free = rec
	p.nfree++
}
