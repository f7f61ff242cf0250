package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerFiresAfterTimeout(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncerResetDefersFiring(t *testing.T) {
	d := NewDebouncer(60 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		d.Reset()

		select {
		case <-d.C():
			t.Fatal("fired while being reset")
		default:
		}
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired after resets stopped")
	}
}

func TestDebouncerStopPreventsFiring(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Stop()

	select {
	case <-d.C():
		t.Fatal("fired after stop")
	case <-time.After(80 * time.Millisecond):
	}

	// Reset after Stop stays inert.
	d.Reset()
	select {
	case <-d.C():
		t.Fatal("fired after stop and reset")
	case <-time.After(80 * time.Millisecond):
	}

	assert.NotPanics(t, d.Stop)
}
