package vmem

import "fmt"
import "sync"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/vmem/lib"
import "github.com/bnclabs/vmem/vmsrc"

// Arena is a bounded universe of integer-addressed resources with its own
// metadata structures, spec.md §3. All public methods take arena.mu for
// their whole duration (spec.md §5): two concurrent calls on the same
// arena appear atomic and totally ordered, and no public method suspends
// or blocks on external I/O while holding the lock — the exceptions,
// Xalloc importing from a source and Free/Destroy releasing to it, call
// into the source's own lock, which is always taken child-before-parent
// (spec.md §5's nested-locking rule).
type Arena struct {
	name    string
	quantum int64
	source  vmsrc.Source
	pool    segPool

	qcacheMax    int64
	defaultFlags int

	mu sync.Mutex

	blHead, blTail *segment // seglist.go

	flBuckets   [K]*segment // freelist.go
	flOccupancy lib.Bit64

	hBuckets []*segment // seghash.go

	nsegs     int64
	allocated int64
}

// Create builds a new arena. If source is nil and size > 0, an initial
// span [base, base+size) is installed via Add, spec.md §4.E. If source is
// non-nil, the arena starts empty and Xalloc imports spans from it on
// demand. quantum must be a power of two; it is the arena's minimum
// allocation size and alignment unit.
//
// setts configures the non-essential knobs malloc.Defaultsettings'
// analogue exposes: "hashsize" (allocated-segment hash table width) and
// "fit" ("instant" or "best", the policy Alloc's shorthand uses). A nil
// setts behaves like Defaultsettings() for those two keys.
func Create(
	name string, base, size, quantum int64,
	source vmsrc.Source, qcacheMax int64, pooled bool,
	setts s.Settings,
) (*Arena, error) {
	if quantum <= 0 || quantum&(quantum-1) != 0 {
		panicf("vmem: quantum %v is not a power of two", quantum)
	}
	if src, ok := source.(*Arena); ok {
		for up := src; up != nil; {
			next, ok := up.source.(*Arena)
			if !ok {
				break
			}
			if next == src {
				panicf("vmem: cyclic source graph detected for arena %q", name)
			}
			up = next
		}
	}

	var pool segPool = hostedPool{}
	if pooled {
		pool = globalPool
	}

	a := &Arena{
		name:         name,
		quantum:      quantum,
		source:       source,
		pool:         pool,
		qcacheMax:    qcacheMax,
		defaultFlags: fitFlag(setts),
		hBuckets:     make([]*segment, hashsizeOf(setts)),
	}

	if source == nil && size > 0 {
		a.addSpanLocked(base, size, false)
	}
	infof("vmem: created arena %q base=%#x size=%#x quantum=%v", name, base, size, quantum)
	return a, nil
}

// Add installs a new span into the arena. It is a caller bug — raised as
// a panic, not returned as an error — for [base, base+size) to overlap any
// existing span in this arena (spec.md §4.E).
func (a *Arena) Add(base, size int64, flags int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addSpanLocked(base, size, false)
}

func (a *Arena) addSpanLocked(base, size int64, imported bool) {
	for sp := a.blHead; sp != nil; sp = sp.blNext {
		if sp.kind != KindSpan {
			continue
		}
		if base < sp.end() && sp.base < base+size {
			panicf("vmem: add(%#x,%#x) overlaps existing span [%#x,%#x)", base, size, sp.base, sp.end())
		}
	}

	// false: addSpanLocked never participates in the BOOTSTRAP pre-lock
	// top-up protocol (see Xalloc), so it must let acquire refill in-lock
	// if needed rather than silently skip a refill nothing topped up.
	span := a.pool.acquire(false)
	*span = segment{base: base, size: size, kind: KindSpan, imported: imported}
	a.blAppend(span)

	free := a.pool.acquire(false)
	*free = segment{base: base, size: size, kind: KindFree, span: span}
	a.blInsertAfter(span, free)
	a.flInsert(free)

	a.nsegs++
	debugf("vmem: %q add span [%#x,%#x) imported=%v", a.name, base, base+size, imported)
}

// Alloc is shorthand for Xalloc(size, 0, 0, 0, 0, 0, flags).
func (a *Arena) Alloc(size int64, flags int) (int64, error) {
	return a.Xalloc(size, 0, 0, 0, 0, 0, flags)
}

// Xalloc is the central allocation operation, spec.md §4.E. size is
// rounded up to the arena's quantum; align (0 means quantum) must be a
// power-of-two multiple of quantum; the returned base satisfies
// (base-phase) mod align == 0, never straddles a nocross boundary (when
// nocross != 0), and falls within [minaddr, maxaddr) (when set). Returns
// ErrNoMem, the only recoverable failure this package produces, when
// neither the arena's own free segments nor an import from its source can
// satisfy the request.
func (a *Arena) Xalloc(size, align, phase, nocross, minaddr, maxaddr int64, flags int) (int64, error) {
	if size <= 0 {
		panicf("vmem: Xalloc size must be positive, got %v", size)
	}
	size = roundUp(size, a.quantum)
	if align == 0 {
		align = a.quantum
	}
	if align&(align-1) != 0 || align%a.quantum != 0 {
		panicf("vmem: align %v is not a power-of-two multiple of quantum %v", align, a.quantum)
	}
	if flags&(InstantFit|BestFit) == 0 {
		flags |= a.defaultFlags
	}

	// spec.md §4.E step 1: "if flags & BOOTSTRAP, refill the segment pool
	// first." This must happen before a.mu is taken: the freestanding
	// pool's PageSource may itself be an arena layered on this one (the
	// recursion hazard spec.md §4.A and §9 describe), and refilling
	// in-lock would re-enter that arena's own lock. refill runs every
	// call, unlike the one-shot Bootstrap/bootstrapLocked.
	if flags&Bootstrap != 0 {
		if a.pool == globalPool {
			globalPool.refill(RefillRecords)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	bootstrapping := flags&Bootstrap != 0 && a.pool == globalPool
	lead := a.pool.acquire(bootstrapping)
	trail := a.pool.acquire(bootstrapping)
	defer func() {
		if lead != nil {
			a.pool.release(lead)
		}
		if trail != nil {
			a.pool.release(trail)
		}
	}()

	for attempt := 0; attempt < 2; attempt++ {
		var seg *segment
		var start int64
		if flags&BestFit != 0 {
			seg, start = a.findFitBest(size, align, phase, nocross, minaddr, maxaddr)
		} else {
			seg, start = a.findFitInstant(size, align, phase, nocross, minaddr, maxaddr)
		}
		if seg != nil {
			allocSeg := a.splitAndAlloc(seg, start, size, &lead, &trail)
			a.hInsert(allocSeg)
			a.allocated += allocSeg.size
			debugf("vmem: %q xalloc size=%v -> %#x", a.name, size, allocSeg.base)
			return allocSeg.base, nil
		}
		if a.source == nil {
			break
		}
		base, got, err := a.source.Import(size)
		if err != nil || got < size {
			break
		}
		a.addSpanLocked(base, got, true)
	}
	warnf("vmem: %q xalloc size=%v failed: %v", a.name, size, ErrNoMem)
	return 0, ErrNoMem
}

// splitAndAlloc carves seg down to exactly [start, start+size), spec.md
// §4.E step 5. Any leading gap [seg.base, start) and any trailing
// leftover >= quantum become new FREE segments, consuming the pre-acquired
// *lead/*trail records (set to nil once consumed, so Xalloc's deferred
// release only returns the unused one(s)). If the trailing remainder is
// smaller than one quantum, seg itself is promoted whole to ALLOCATED
// instead of being shrunk to exactly size, per spec.md's "no trailing
// leftover" case.
func (a *Arena) splitAndAlloc(seg *segment, start, size int64, lead, trail **segment) *segment {
	a.flRemove(seg)
	span := seg.span

	if start > seg.base {
		l := *lead
		*lead = nil
		*l = segment{base: seg.base, size: start - seg.base, kind: KindFree, span: span}
		a.blInsertBefore(seg, l)
		a.flInsert(l)
		a.nsegs++
		seg.size -= l.size
		seg.base = start
	}

	if remainder := seg.size - size; remainder >= a.quantum {
		t := *trail
		*trail = nil
		*t = segment{base: seg.base + size, size: remainder, kind: KindFree, span: span}
		a.blInsertAfter(seg, t)
		a.flInsert(t)
		a.nsegs++
		seg.size = size
	}

	seg.kind = KindAllocated
	return seg
}

// Free returns an address previously returned by Xalloc/Alloc. It is a
// caller bug — panic, not an error — to free an address this arena never
// allocated, or to pass a size that doesn't match (within quantum
// rounding) the size it was allocated with.
func (a *Arena) Free(address, size int64) {
	size = roundUp(size, a.quantum)

	a.mu.Lock()
	defer a.mu.Unlock()

	seg := a.hLookup(address)
	if seg == nil {
		panicf("vmem: %q free of unknown address %#x", a.name, address)
	}
	if seg.size != size {
		panicf("vmem: %q free size mismatch at %#x: allocated %v, freed %v", a.name, address, seg.size, size)
	}
	a.hRemove(seg)
	seg.kind = KindFree
	a.allocated -= seg.size

	if prev := seg.blPrev; prev != nil && prev.kind == KindFree && prev.span == seg.span {
		a.flRemove(prev)
		a.blRemove(prev)
		seg.base = prev.base
		seg.size += prev.size
		a.pool.release(prev)
		a.nsegs--
	}
	if next := seg.blNext; next != nil && next.kind == KindFree && next.span == seg.span {
		a.flRemove(next)
		a.blRemove(next)
		seg.size += next.size
		a.pool.release(next)
		a.nsegs--
	}

	span := seg.span
	if a.source != nil && span.imported && seg.base == span.base && seg.size == span.size {
		a.blRemove(seg)
		a.blRemove(span)
		a.nsegs--
		a.source.Release(span.base, span.size)
		a.pool.release(seg)
		a.pool.release(span)
		debugf("vmem: %q released imported span [%#x,%#x) to source", a.name, span.base, span.end())
		return
	}

	a.flInsert(seg)
	debugf("vmem: %q free %#x size=%v", a.name, address, size)
}

// Destroy releases every imported span back to the arena's source, frees
// every segment record, and releases the arena itself. Destroying an
// arena with outstanding allocations is a caller bug.
func (a *Arena) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for sg := a.blHead; sg != nil; {
		next := sg.blNext
		if sg.kind == KindAllocated {
			panicf("vmem: %q destroy called with outstanding allocation at %#x", a.name, sg.base)
		}
		if sg.kind == KindSpan && sg.imported && a.source != nil {
			a.source.Release(sg.base, sg.size)
		}
		a.pool.release(sg)
		sg = next
	}
	a.blHead, a.blTail = nil, nil
	for i := range a.flBuckets {
		a.flBuckets[i] = nil
	}
	a.flOccupancy = 0
	for i := range a.hBuckets {
		a.hBuckets[i] = nil
	}
	infof("vmem: destroyed arena %q", a.name)
}

// Import satisfies vmsrc.Source: it lets one *Arena be layered as another
// arena's source, spec.md §9's nested-arena pattern ("a child arena's
// source is another arena whose import rounds to the source's quantum").
// size is rounded up to this arena's own quantum before delegating to
// Xalloc, then reported back as got.
func (a *Arena) Import(size int64) (base, got int64, err error) {
	got = roundUp(size, a.quantum)
	base, err = a.Xalloc(got, 0, 0, 0, 0, 0, 0)
	if err != nil {
		return 0, 0, err
	}
	return base, got, nil
}

// Release satisfies vmsrc.Source: it returns an extent a downstream arena
// imported from this one via Import, the counterpart to Free.
func (a *Arena) Release(base, size int64) {
	a.Free(base, size)
}

func roundUp(v, quantum int64) int64 {
	if r := v % quantum; r != 0 {
		return v + (quantum - r)
	}
	return v
}

func (a *Arena) String() string {
	return fmt.Sprintf("vmem.Arena{name:%q, quantum:%v, segments:%v, allocated:%v}",
		a.name, a.quantum, a.nsegs, a.allocated)
}
