package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"photoaudit/internal/profiles"
)

func subjects(n int) []profiles.Profile {
	out := make([]profiles.Profile, n)
	for i := range out {
		out[i] = profiles.Profile{ProfileID: string(rune('a' + i))}
	}
	return out
}

func TestForEachProfileVisitsAll(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	err := ForEachProfile(context.Background(), subjects(5), 3, func(_ context.Context, p profiles.Profile) error {
		mu.Lock()
		seen[p.ProfileID]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachProfile: %v", err)
	}
	if len(seen) != 5 {
		t.Errorf("visited %d subjects, want 5", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("subject %s visited %d times", id, count)
		}
	}
}

func TestForEachProfileBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32

	err := ForEachProfile(context.Background(), subjects(8), 2, func(_ context.Context, _ profiles.Profile) error {
		n := current.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		current.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachProfile: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestForEachProfileStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	err := ForEachProfile(context.Background(), subjects(50), 1, func(_ context.Context, _ profiles.Profile) error {
		if calls.Add(1) == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls.Load() == 50 {
		t.Error("error did not stop remaining subjects")
	}
}
