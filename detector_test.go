package eastlite

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunAbandonsExpiredContext(t *testing.T) {

	d := &Detector{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	finished := make(chan struct{})

	_, _, err := d.run(ctx, func() detectOut {
		<-block
		close(finished)
		return detectOut{}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// the abandoned pass is still in flight, not torn down
	select {
	case <-finished:
		t.Fatal("abandoned pass should still be running")
	default:
	}

	close(block)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned pass never ran to completion")
	}
}

func TestRunSerializesAfterAbandon(t *testing.T) {

	d := &Detector{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})

	_, _, err := d.run(ctx, func() detectOut {
		<-block
		return detectOut{}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// a second pass on the same detector must wait until the abandoned
	// pass has released the network
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_, _, _ = d.run(context.Background(), func() detectOut {
			close(started)
			return detectOut{}
		})
		close(done)
	}()

	select {
	case <-started:
		t.Fatal("second pass started while the abandoned pass held the network")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second pass never ran after the abandoned pass completed")
	}
}
