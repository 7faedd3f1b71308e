package vmem

import "testing"

import "github.com/stretchr/testify/assert"

func TestHInsertLookupRemove(t *testing.T) {
	a := &Arena{hBuckets: make([]*segment, 8)}
	s1 := &segment{base: 0x1000, size: 4096, kind: KindAllocated}
	s2 := &segment{base: 0x2000, size: 4096, kind: KindAllocated}
	s3 := &segment{base: 0x3000, size: 4096, kind: KindAllocated}
	a.hInsert(s1)
	a.hInsert(s2)
	a.hInsert(s3)

	assert.Same(t, s2, a.hLookup(0x2000))
	assert.Nil(t, a.hLookup(0x9999))

	a.hRemove(s2)
	assert.Nil(t, a.hLookup(0x2000))
	assert.Same(t, s1, a.hLookup(0x1000))
	assert.Same(t, s3, a.hLookup(0x3000))
}

func TestHIndexOfStableAndSpread(t *testing.T) {
	a := &Arena{hBuckets: make([]*segment, 1024)}
	seen := map[int]bool{}
	for base := int64(0); base < 4096*64; base += 4096 {
		i := a.hIndexOf(base)
		if i < 0 || i >= len(a.hBuckets) {
			t.Fatalf("hIndexOf(%#x) = %v out of range", base, i)
		}
		seen[i] = true
	}
	if a.hIndexOf(0x1234) != a.hIndexOf(0x1234) {
		t.Errorf("hIndexOf must be stable for the same base")
	}
	if len(seen) < 2 {
		t.Errorf("expected murmur3 to spread sequential addresses across multiple buckets, got %v distinct", len(seen))
	}
}

func TestHRemoveHeadOfChain(t *testing.T) {
	a := &Arena{hBuckets: make([]*segment, 1)} // force every address into bucket 0
	s1 := &segment{base: 1, kind: KindAllocated}
	s2 := &segment{base: 2, kind: KindAllocated}
	a.hInsert(s1)
	a.hInsert(s2)
	a.hRemove(s2) // s2 is the head (most recently inserted)
	if a.hBuckets[0] != s1 {
		t.Errorf("expected s1 to become the bucket head after removing s2")
	}
}
