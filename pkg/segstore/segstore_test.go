package segstore

import (
	"errors"
	"testing"
)

func TestIdentifierRecycling(t *testing.T) {
	// map, map, unmap the first, map again; the third map must reuse
	// the first map's identifier (LIFO).
	s := New(nil)
	id1 := s.Map(1)
	id2 := s.Map(1)
	if id1 == id2 {
		t.Fatalf("expected distinct identifiers, got %d and %d", id1, id2)
	}
	if err := s.Unmap(id1); err != nil {
		t.Fatalf("Unmap(%d) failed: %v", id1, err)
	}
	id3 := s.Map(1)
	if id3 != id1 {
		t.Fatalf("Map after Unmap(%d) = %d, want %d (LIFO reuse)", id1, id3, id1)
	}
}

func TestMapThenLoadIsZero(t *testing.T) {
	s := New(nil)
	id := s.Map(8)
	for off := uint32(0); off < 8; off++ {
		v, err := s.Get(id, off)
		if err != nil {
			t.Fatalf("Get(%d, %d) failed: %v", id, off, err)
		}
		if v != 0 {
			t.Fatalf("Get(%d, %d) = %d, want 0", id, off, v)
		}
	}
}

func TestStoreThenLoadIsIdentity(t *testing.T) {
	s := New(nil)
	id := s.Map(4)
	if err := s.Set(id, 2, 0xDEADBEEF); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := s.Get(id, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("Get after Set = %#x, want %#x", v, 0xDEADBEEF)
	}
	// Store must not affect any other cell.
	for _, off := range []uint32{0, 1, 3} {
		v, err := s.Get(id, off)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", off, err)
		}
		if v != 0 {
			t.Fatalf("Get(%d) = %d, want 0 (unaffected by unrelated store)", off, v)
		}
	}
}

func TestDuplicateZeroOntoZeroIsIdentity(t *testing.T) {
	s := New([]uint32{1, 2, 3})
	length, err := s.DuplicateToZero(0)
	if err != nil {
		t.Fatalf("DuplicateToZero(0) failed: %v", err)
	}
	if length != 3 {
		t.Fatalf("length = %d, want 3", length)
	}
	for off, want := range []uint32{1, 2, 3} {
		v, err := s.Get(0, uint32(off))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != want {
			t.Fatalf("Get(0, %d) = %d, want %d", off, v, want)
		}
	}
}

func TestDuplicateReplacesSegmentZero(t *testing.T) {
	s := New([]uint32{0, 0})
	src := s.Map(2)
	s.Set(src, 0, 11)
	s.Set(src, 1, 22)
	length, err := s.DuplicateToZero(src)
	if err != nil {
		t.Fatalf("DuplicateToZero failed: %v", err)
	}
	if length != 2 {
		t.Fatalf("length = %d, want 2", length)
	}
	v0, _ := s.Get(0, 0)
	v1, _ := s.Get(0, 1)
	if v0 != 11 || v1 != 22 {
		t.Fatalf("segment 0 = [%d, %d], want [11, 22]", v0, v1)
	}
	// The duplicate must be independent storage: mutating the source
	// must not affect the new segment 0.
	s.Set(src, 0, 99)
	v0, _ = s.Get(0, 0)
	if v0 != 11 {
		t.Fatalf("segment 0[0] = %d after mutating source, want unaffected 11", v0)
	}
}

func TestUnmapZeroIsFatal(t *testing.T) {
	s := New(nil)
	if err := s.Unmap(0); !errors.Is(err, ErrUnmapZero) {
		t.Fatalf("Unmap(0) = %v, want ErrUnmapZero", err)
	}
}

func TestUnmapAlreadyUnmappedIsFatal(t *testing.T) {
	s := New(nil)
	id := s.Map(1)
	if err := s.Unmap(id); err != nil {
		t.Fatalf("first Unmap failed: %v", err)
	}
	if err := s.Unmap(id); !errors.Is(err, ErrAlreadyUnmapped) {
		t.Fatalf("second Unmap(%d) = %v, want ErrAlreadyUnmapped", id, err)
	}
}

func TestAccessUnmappedIsFatal(t *testing.T) {
	s := New(nil)
	if _, err := s.Get(42, 0); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("Get(42, 0) = %v, want ErrUnmapped", err)
	}
}

func TestAccessTombstonedIsFatal(t *testing.T) {
	s := New(nil)
	id := s.Map(1)
	if err := s.Unmap(id); err != nil {
		t.Fatalf("Unmap failed: %v", err)
	}
	if _, err := s.Get(id, 0); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("Get after Unmap = %v, want ErrUnmapped", err)
	}
}

func TestOffsetOutOfRangeIsFatal(t *testing.T) {
	s := New(nil)
	id := s.Map(2)
	if _, err := s.Get(id, 2); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("Get out of range = %v, want ErrOffsetOutOfRange", err)
	}
}

func TestZeroLengthSegmentIsLegal(t *testing.T) {
	s := New(nil)
	id := s.Map(0)
	length, err := s.Length(id)
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}
	if length != 0 {
		t.Fatalf("Length = %d, want 0", length)
	}
}
