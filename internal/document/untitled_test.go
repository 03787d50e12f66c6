package document

import "testing"

func TestUntitledSetSmallestUnused(t *testing.T) {
	var s untitledSet
	for want := 1; want <= 3; want++ {
		if got := s.acquire(); got != want {
			t.Fatalf("acquire() = %d, want %d", got, want)
		}
	}

	s.release(2)
	if s.inUse(2) {
		t.Error("inUse(2) = true after release")
	}
	if got := s.acquire(); got != 2 {
		t.Errorf("acquire() = %d, want 2", got)
	}
	if got := s.acquire(); got != 4 {
		t.Errorf("acquire() = %d, want 4", got)
	}
}

func TestUntitledSetAcrossWords(t *testing.T) {
	var s untitledSet
	for i := 1; i <= 130; i++ {
		if got := s.acquire(); got != i {
			t.Fatalf("acquire() = %d, want %d", got, i)
		}
	}
	s.release(64)
	s.release(65)
	if got := s.acquire(); got != 64 {
		t.Errorf("acquire() = %d, want 64", got)
	}
	if got := s.acquire(); got != 65 {
		t.Errorf("acquire() = %d, want 65", got)
	}
	if got := s.acquire(); got != 131 {
		t.Errorf("acquire() = %d, want 131", got)
	}
}

func TestUntitledSetReleaseUnknown(t *testing.T) {
	var s untitledSet
	s.release(0)
	s.release(-3)
	s.release(500)
	if got := s.acquire(); got != 1 {
		t.Errorf("acquire() = %d, want 1", got)
	}

	s.release(1)
	if len(s.words) != 0 {
		t.Errorf("words = %v after releasing everything, want empty", s.words)
	}
}
