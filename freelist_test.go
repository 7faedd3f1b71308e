package vmem

import "testing"

import "github.com/stretchr/testify/assert"

func TestBucketOf(t *testing.T) {
	cases := []struct {
		size int64
		want int
	}{
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{4095, 11},
		{4096, 12},
		{4097, 12},
		{8191, 12},
		{8192, 13},
	}
	for _, c := range cases {
		if got := bucketOf(c.size); got != c.want {
			t.Errorf("bucketOf(%v) = %v, want %v", c.size, got, c.want)
		}
	}
}

func newTestArena() *Arena {
	return &Arena{quantum: 4096, hBuckets: make([]*segment, 16)}
}

func TestFlInsertRemoveSingleBucket(t *testing.T) {
	a := newTestArena()
	s1 := &segment{base: 0, size: 4096, kind: KindFree}
	s2 := &segment{base: 4096, size: 4096, kind: KindFree}
	a.flInsert(s1)
	a.flInsert(s2)
	assert.Equal(t, bucketOf(4096), a.flOccupancy.Findfirstset())
	assert.Same(t, s2, a.flBuckets[bucketOf(4096)], "expected most recently inserted segment at bucket head")

	a.flRemove(s2)
	assert.Same(t, s1, a.flBuckets[bucketOf(4096)])
	a.flRemove(s1)
	assert.Nil(t, a.flBuckets[bucketOf(4096)])
	assert.Zero(t, a.flOccupancy)
}

func TestFlNextNonEmpty(t *testing.T) {
	a := newTestArena()
	a.flInsert(&segment{base: 0, size: 4096, kind: KindFree})  // bucket 12
	a.flInsert(&segment{base: 1 << 20, size: 1 << 16, kind: KindFree}) // bucket 16

	if i := a.flNextNonEmpty(0); i != 12 {
		t.Errorf("expected 12, got %v", i)
	}
	if i := a.flNextNonEmpty(13); i != 16 {
		t.Errorf("expected 16, got %v", i)
	}
	if i := a.flNextNonEmpty(17); i != -1 {
		t.Errorf("expected -1 past the last occupied bucket, got %v", i)
	}
	if i := a.flNextNonEmpty(K); i != -1 {
		t.Errorf("expected -1 at the bucket ceiling, got %v", i)
	}
}

func TestFlRemoveMiddleOfChain(t *testing.T) {
	a := newTestArena()
	s1 := &segment{base: 0, size: 4096, kind: KindFree}
	s2 := &segment{base: 4096, size: 4096, kind: KindFree}
	s3 := &segment{base: 8192, size: 4096, kind: KindFree}
	a.flInsert(s1)
	a.flInsert(s2)
	a.flInsert(s3)
	// chain head-to-tail is s3 -> s2 -> s1
	a.flRemove(s2)
	if s3.flNext != s1 {
		t.Errorf("expected s2 spliced out of the chain")
	}
}
