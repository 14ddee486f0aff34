package runlock

import (
	"errors"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if lock.Path() == "" {
		t.Error("lock path is empty")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = again.Release()
}

func TestAcquireHeld(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	if _, err := Acquire(dir); !errors.Is(err, ErrHeld) {
		t.Errorf("second acquire err = %v, want ErrHeld", err)
	}
}

func TestReleaseNil(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("nil release: %v", err)
	}
}
