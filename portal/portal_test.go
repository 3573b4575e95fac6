package portal_test

import (
	"testing"
	"time"

	"github.com/ais-project/portalvm/object"
	"github.com/ais-project/portalvm/portal"
)

func TestSpawnThenFetchLocal(t *testing.T) {
	p := portal.New(2)
	closureAddr := object.Address{Task: 1, Serial: 1}
	spawned := p.Spawn(0, closureAddr)

	fetched, ok := p.Fetch(0)
	if !ok {
		t.Fatal("expected a runnable task, got none")
	}
	if fetched.Id != spawned.Id || fetched.Closure != closureAddr {
		t.Fatalf("expected to fetch back the spawned task, got %+v", fetched)
	}
}

func TestFetchStealsFromPeer(t *testing.T) {
	p := portal.New(2)
	closureAddr := object.Address{Task: 1, Serial: 1}
	spawned := p.Spawn(0, closureAddr)

	// thread 1 has nothing local; it should steal thread 0's task.
	fetched, ok := p.Fetch(1)
	if !ok {
		t.Fatal("expected a runnable task, got none")
	}
	if fetched.Id != spawned.Id {
		t.Fatalf("expected thread 1 to steal task %d, got %d", spawned.Id, fetched.Id)
	}
}

func TestSuspendThenWakerRequeues(t *testing.T) {
	p := portal.New(1)
	closureAddr := object.Address{Task: 1, Serial: 1}
	task := p.Spawn(0, closureAddr)
	fetched, ok := p.Fetch(0)
	if !ok {
		t.Fatal("expected a runnable task, got none")
	}

	p.Suspend(0, fetched)
	wake := p.Waker(0, fetched)

	done := make(chan portal.Task, 1)
	go func() {
		refetched, ok := p.Fetch(0)
		if !ok {
			return
		}
		done <- refetched
	}()

	// give Fetch a moment to park before waking it.
	time.Sleep(20 * time.Millisecond)
	wake()

	select {
	case refetched := <-done:
		if refetched.Id != task.Id {
			t.Fatalf("expected to refetch task %d, got %d", task.Id, refetched.Id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for woken task to be refetched")
	}
}

func TestWakerOnAlreadyReadyTaskIsNoop(t *testing.T) {
	p := portal.New(1)
	closureAddr := object.Address{Task: 1, Serial: 1}
	task := p.Spawn(0, closureAddr)
	// never suspended: waker should be a no-op, not a double-enqueue.
	wake := p.Waker(0, task)
	wake()

	first, ok := p.Fetch(0)
	if !ok {
		t.Fatal("expected a runnable task, got none")
	}
	if first.Id != task.Id {
		t.Fatalf("expected task %d, got %d", task.Id, first.Id)
	}
}
