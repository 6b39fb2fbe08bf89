package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestExecuteKeepsInputOrder(t *testing.T) {
	p := NewPool(3, func(ctx context.Context, in int) (string, error) {
		time.Sleep(time.Duration(5-in) * time.Millisecond)
		return fmt.Sprintf("r%d", in), nil
	})

	tasks := p.Execute(context.Background(), []int{1, 2, 3, 4, 5})

	var got []string
	for _, task := range tasks {
		if task.Err != nil {
			t.Fatalf("task %d failed: %v", task.Input, task.Err)
		}
		got = append(got, task.Result)
	}
	if diff := cmp.Diff([]string{"r1", "r2", "r3", "r4", "r5"}, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	p := NewPool(2, func(ctx context.Context, in int) (int, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return in, nil
	})

	p.Execute(context.Background(), make([]int, 10))

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestExecuteCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool(2, func(ctx context.Context, in string) (int, error) {
		if in == "bad" {
			return 0, boom
		}
		return len(in), nil
	})

	tasks := p.Execute(context.Background(), []string{"de", "bad", "fr"})

	errs := Errors(tasks)
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("Errors() = %v, want [boom]", errs)
	}
	if tasks[0].Result != 2 || tasks[2].Result != 2 {
		t.Errorf("successful tasks lost their results: %+v", tasks)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := NewPool(1, func(ctx context.Context, in int) (int, error) {
		calls.Add(1)
		return in, nil
	})

	tasks := p.Execute(ctx, []int{1, 2, 3})
	if calls.Load() != 0 {
		t.Errorf("process called %d times after cancellation", calls.Load())
	}
	for _, task := range tasks {
		if !errors.Is(task.Err, context.Canceled) {
			t.Errorf("task %d error = %v, want context.Canceled", task.Input, task.Err)
		}
	}
}
