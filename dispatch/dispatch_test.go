package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMarshal_InlineOnOwner(t *testing.T) {
	l := NewLoop(1)
	ctx := WithOwner(context.Background(), l)

	ran := false
	Marshal(ctx, l, func(context.Context) { ran = true })
	if !ran {
		t.Fatal("task was not run inline on the owner")
	}
	if n := l.Drain(context.Background()); n != 0 {
		t.Errorf("Drain() = %d, want nothing queued", n)
	}
}

func TestMarshal_PostsFromOtherGoroutine(t *testing.T) {
	l := NewLoop(1)
	ran := false
	Marshal(context.Background(), l, func(ctx context.Context) {
		ran = true
		if !OnOwner(ctx, l) {
			t.Error("task context not marked as owned")
		}
	})
	if ran {
		t.Fatal("task ran before the owner drained it")
	}
	if n := l.Drain(context.Background()); n != 1 || !ran {
		t.Errorf("Drain() = %d, ran = %v", n, ran)
	}
}

func TestOnOwner_OtherDispatcher(t *testing.T) {
	a, b := NewLoop(0), NewLoop(0)
	if OnOwner(WithOwner(context.Background(), a), b) {
		t.Error("context owned by a reported as owned by b")
	}
	if OnOwner(context.Background(), a) {
		t.Error("plain context reported as owned")
	}
}

func TestMarshal_NestedDoesNotRequeue(t *testing.T) {
	l := NewLoop(4)
	depth := 0
	var task Task
	task = func(ctx context.Context) {
		depth++
		if depth < 3 {
			Marshal(ctx, l, task)
		}
	}
	l.Post(task)
	if n := l.Drain(context.Background()); n != 1 {
		t.Errorf("Drain() = %d, want the nested calls inline", n)
	}
	if depth != 3 {
		t.Errorf("depth = %d, want 3", depth)
	}
}

func TestLoop_RunOrderAndStop(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = l.Run(ctx)
	}()

	var got []int
	for i := range 3 {
		l.Post(func(context.Context) { got = append(got, i) })
	}
	finished := make(chan struct{})
	l.Post(func(context.Context) { close(finished) })
	<-finished
	cancel()
	wg.Wait()

	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", runErr)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("order = %v", got)
	}

	done := make(chan struct{})
	go func() {
		l.Post(func(context.Context) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Post blocked after the loop stopped")
	}
}

type recordingSender struct{ msgs []tea.Msg }

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgram_PostSendsTaskMsg(t *testing.T) {
	rec := &recordingSender{}
	p := &Program{Sender: rec}

	ran := false
	Marshal(context.Background(), p, func(context.Context) { ran = true })
	if ran || len(rec.msgs) != 1 {
		t.Fatalf("ran = %v, msgs = %d", ran, len(rec.msgs))
	}
	msg, ok := rec.msgs[0].(TaskMsg)
	if !ok {
		t.Fatalf("sent %T, want TaskMsg", rec.msgs[0])
	}
	msg.Task(WithOwner(context.Background(), p))
	if !ran {
		t.Error("task did not run")
	}
}
