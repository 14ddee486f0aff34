package records

import "testing"

func TestChunksSplitsAtCap(t *testing.T) {
	items := make([]int, 1001)
	got := chunks(items, 400)
	if len(got) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(got))
	}
	if len(got[0]) != 400 || len(got[1]) != 400 || len(got[2]) != 201 {
		t.Errorf("chunk sizes = %d/%d/%d", len(got[0]), len(got[1]), len(got[2]))
	}
}

func TestChunksEmpty(t *testing.T) {
	if got := chunks([]int{}, 400); len(got) != 0 {
		t.Errorf("chunks of empty slice = %d groups", len(got))
	}
}

func TestChunksExactMultiple(t *testing.T) {
	got := chunks(make([]int, 800), 400)
	if len(got) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(got))
	}
}

func TestChunksDefaultsCap(t *testing.T) {
	got := chunks(make([]int, 500), 0)
	if len(got) != 2 || len(got[0]) != BatchCap {
		t.Fatalf("unexpected chunking with zero size: %d groups", len(got))
	}
}
