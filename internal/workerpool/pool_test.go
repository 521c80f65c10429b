package workerpool

import (
	"sync/atomic"
	"testing"
	"time"
)

// board -> 5 pages -> 4 threads -> 3 posts each, matching spec §8 scenario 4.
func TestForkJoinCompleteness(t *testing.T) {
	p := New(8)
	defer p.Close()

	type board struct{}
	type page struct{}
	type thread struct{}
	type post struct{ n int }

	var work Func
	work = func(unit any) any {
		switch unit.(type) {
		case board:
			for i := 0; i < 5; i++ {
				p.Push(work, page{})
			}
			return nil
		case page:
			for i := 0; i < 4; i++ {
				p.Push(work, thread{})
			}
			return nil
		case thread:
			for i := 0; i < 3; i++ {
				p.Push(work, post{n: i})
			}
			return nil
		case post:
			return unit
		}
		return nil
	}

	p.Push(work, board{})
	p.Join()

	results := p.GetResults()
	if len(results) != 60 {
		t.Fatalf("expected 60 posts, got %d", len(results))
	}
}

func TestJoinWaitsForInFlightPushes(t *testing.T) {
	p := New(4)
	defer p.Close()

	var counter int64
	var work Func
	depth := 50
	work = func(unit any) any {
		n := unit.(int)
		atomic.AddInt64(&counter, 1)
		if n > 0 {
			p.Push(work, n-1)
		}
		return nil
	}

	p.Push(work, depth)
	p.Join()

	if got := atomic.LoadInt64(&counter); got != int64(depth+1) {
		t.Fatalf("expected %d tasks to run, got %d", depth+1, got)
	}
}

func TestPanickingTaskDoesNotEscapeJoin(t *testing.T) {
	p := New(2)
	defer p.Close()

	p.Push(func(unit any) any {
		panic("boom")
	}, nil)
	p.Push(func(unit any) any {
		return "ok"
	}, nil)

	done := make(chan struct{})
	go func() {
		p.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Join did not return after a panicking task")
	}

	results := p.GetResults()
	if len(results) != 1 || results[0] != "ok" {
		t.Fatalf("expected only the successful result, got %v", results)
	}
}

func TestGetResultsClearsBuffer(t *testing.T) {
	p := New(2)
	defer p.Close()

	p.Push(func(unit any) any { return 1 }, nil)
	p.Join()
	if r := p.GetResults(); len(r) != 1 {
		t.Fatalf("expected 1 result, got %d", len(r))
	}
	if r := p.GetResults(); len(r) != 0 {
		t.Fatalf("expected results cleared, got %d", len(r))
	}
}
