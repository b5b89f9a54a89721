package barrier

import (
	"testing"
	"time"

	"github.com/pentaring/meshcore/internal/orientation"
)

func TestAwaitReturnsImmediatelyForUnlistedOrientation(t *testing.T) {
	c := New(nil)
	done := make(chan struct{})
	go func() {
		c.Await(orientation.North)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Await blocked on an orientation with no linearization entry")
	}
}

func TestAwaitReturnsImmediatelyForFirstInOrder(t *testing.T) {
	c := New([]orientation.Orientation{orientation.North, orientation.East})
	done := make(chan struct{})
	go func() {
		c.Await(orientation.North)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Await blocked on the first slot in the linearization")
	}
}

func TestAwaitBlocksUntilPredecessorReleases(t *testing.T) {
	c := New([]orientation.Orientation{orientation.North, orientation.East})
	done := make(chan struct{})
	go func() {
		c.Await(orientation.East)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("East must not be released before North's first peer connection")
	case <-time.After(50 * time.Millisecond):
	}

	c.Release(orientation.North)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("East was not released after North released")
	}
}

func TestReleaseIsIdempotentAndWakesAllWaiters(t *testing.T) {
	c := New([]orientation.Orientation{orientation.North, orientation.East})
	const waiters = 5
	done := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			c.Await(orientation.East)
			done <- struct{}{}
		}()
	}
	time.Sleep(20 * time.Millisecond)

	c.Release(orientation.North)
	c.Release(orientation.North) // idempotent

	for i := 0; i < waiters; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d was never released", i)
		}
	}
}
