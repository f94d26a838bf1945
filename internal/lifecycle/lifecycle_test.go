package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type fakeHook struct {
	startErr   error
	started    bool
	stopCalled bool
}

func (h *fakeHook) Start(context.Context) error {
	h.started = true
	return h.startErr
}
func (h *fakeHook) Stop() { h.stopCalled = true }

func TestBind_StartsAllAndStopsInReverse(t *testing.T) {
	var order []int
	a := &orderedHook{id: 1, order: &order}
	b := &orderedHook{id: 2, order: &order}

	stop, err := Bind(context.Background(), a, b)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	stop()

	want := []int{2, 1}
	if len(order) != 2 || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("stop order = %v, want %v", order, want)
	}
}

func TestBind_FailedStartStopsAlreadyStarted(t *testing.T) {
	a := &fakeHook{}
	b := &fakeHook{startErr: errors.New("boom")}

	_, err := Bind(context.Background(), a, b)
	if err == nil {
		t.Fatal("expected error")
	}
	if !a.stopCalled {
		t.Fatal("expected already-started hook to be stopped on failure")
	}
}

type orderedHook struct {
	id    int
	order *[]int
}

func (h *orderedHook) Start(context.Context) error { return nil }
func (h *orderedHook) Stop()                       { *h.order = append(*h.order, h.id) }
