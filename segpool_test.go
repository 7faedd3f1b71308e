package vmem

import "testing"

func TestHostedPoolAlwaysSucceeds(t *testing.T) {
	var p hostedPool
	recs := make([]*segment, 0, 64)
	for i := 0; i < 64; i++ {
		recs = append(recs, p.acquire(false))
	}
	for _, r := range recs {
		if r == nil {
			t.Errorf("hostedPool.acquire returned nil")
		}
		p.release(r)
	}
}

func TestHeapPagesAllocPages(t *testing.T) {
	pages := heapPages{}
	buf := pages.AllocPages(2)
	if len(buf) != 2*4096 {
		t.Errorf("expected %v bytes, got %v", 2*4096, len(buf))
	}
}

func TestFreestandingPoolBootstrapAndRefill(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	p.bootstrapLocked()
	if !p.bootstrapped {
		t.Errorf("expected pool bootstrapped")
	}
	if p.nfree < FreestandingReserve {
		t.Errorf("expected at least %v free records after bootstrap, got %v", FreestandingReserve, p.nfree)
	}

	start := p.nfree
	rec := p.acquire(false)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if p.nfree != start-1 {
		t.Errorf("expected nfree to drop by one, got %v want %v", p.nfree, start-1)
	}
	p.release(rec)
	if p.nfree != start {
		t.Errorf("expected nfree restored after release, got %v want %v", p.nfree, start)
	}
}

func TestFreestandingPoolRefillsBelowLowWaterMark(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	p.bootstrapLocked()
	// drain down to the low-water mark
	var drained []*segment
	for p.nfree > NFreesegsMin {
		drained = append(drained, p.acquire(false))
	}
	before := p.nfree
	if before > NFreesegsMin {
		t.Fatalf("test setup failed to reach the low-water mark, nfree=%v", before)
	}
	p.acquire(false) // should trigger a refill before handing one out
	if p.nfree < NFreesegsMin {
		t.Errorf("expected refill to keep nfree at or above the low-water mark, got %v", p.nfree)
	}
	for _, d := range drained {
		p.release(d)
	}
}

func TestFreestandingPoolLazyBootstrap(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	rec := p.acquire(false)
	if rec == nil {
		t.Fatal("expected lazy bootstrap to succeed on first acquire")
	}
	if !p.bootstrapped {
		t.Errorf("expected pool marked bootstrapped after first acquire")
	}
}

func TestFreestandingPoolRefillUnconditional(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	p.bootstrapLocked()
	before := p.nfree // well above NFreesegsMin right after bootstrap
	p.refill(RefillRecords)
	if p.nfree != before+RefillRecords {
		t.Errorf("expected refill to add %v records unconditionally, got nfree %v want %v",
			RefillRecords, p.nfree, before+RefillRecords)
	}
}

func TestFreestandingPoolRefillBootstrapsIfNeeded(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	p.refill(RefillRecords)
	if !p.bootstrapped {
		t.Errorf("expected refill on a never-bootstrapped pool to install the static reserve")
	}
	if p.nfree < FreestandingReserve {
		t.Errorf("expected at least %v free records, got %v", FreestandingReserve, p.nfree)
	}
}

// acquire(true) must not refill in-lock even at/below the low-water mark:
// the caller is expected to have called refill() itself before taking its
// own lock, and acquire trusts that rather than risk re-entering the same
// lock through the page source.
func TestAcquireBootstrappingSkipsInLockRefill(t *testing.T) {
	p := &freestandingPool{pages: heapPages{}}
	p.bootstrapLocked()
	var drained []*segment
	for p.nfree > NFreesegsMin {
		drained = append(drained, p.acquire(false))
	}
	before := p.nfree
	rec := p.acquire(true)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if p.nfree != before-1 {
		t.Errorf("expected acquire(true) to skip refilling, nfree went from %v to %v", before, p.nfree)
	}
	drained = append(drained, rec)
	for _, d := range drained {
		p.release(d)
	}
}

func TestRecordsPerPageCoverSegmentSize(t *testing.T) {
	if recordSize <= 0 {
		t.Fatalf("expected positive record size, got %v", recordSize)
	}
	if recordsPerPage < 1 {
		t.Errorf("expected at least one segment record per page, got %v", recordsPerPage)
	}
}
