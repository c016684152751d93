package watch

import (
	"testing"
	"time"
)

func TestSubscribeAndWake(t *testing.T) {
	h := NewHub(nil)

	ch, cancel := h.Subscribe(7)
	defer cancel()

	h.wake(7)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive wake-up")
	}
}

func TestWakeOnlyTargetWorkspace(t *testing.T) {
	h := NewHub(nil)

	ch7, cancel7 := h.Subscribe(7)
	defer cancel7()
	ch8, cancel8 := h.Subscribe(8)
	defer cancel8()

	h.wake(7)
	select {
	case <-ch7:
	case <-time.After(time.Second):
		t.Fatal("workspace 7 subscriber did not wake")
	}
	select {
	case <-ch8:
		t.Fatal("workspace 8 subscriber woke for workspace 7 change")
	default:
	}
}

func TestWakeCoalesces(t *testing.T) {
	h := NewHub(nil)

	ch, cancel := h.Subscribe(7)
	defer cancel()

	// A slow reader gets at most one pending wake-up; re-reading the full
	// snapshot covers all intermediate changes.
	h.wake(7)
	h.wake(7)
	h.wake(7)

	<-ch
	select {
	case <-ch:
		t.Fatal("expected coalesced wake-ups")
	default:
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	h := NewHub(nil)

	ch, cancel := h.Subscribe(7)
	cancel()

	h.wake(7)
	select {
	case <-ch:
		t.Fatal("cancelled subscriber received wake-up")
	default:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) != 0 {
		t.Errorf("subscriber map not cleaned up: %v", h.subs)
	}
}
