package triage

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// UIThread runs functions on the host's single UI goroutine.
type UIThread interface {
	Post(fn func())
}

// Task is a fire-and-forget background job whose continuation runs on the UI thread.
type Task struct {
	name string
	done chan struct{}
}

// Done is closed after the continuation (or the fault handler) has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until Done is closed.
func (t *Task) Wait() {
	<-t.done
}

// PanicError is a recovered panic turned into an error at a task boundary.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Start runs work off the UI thread, then posts then(result, err) to ui.
// A panic in work, a panic in then, or an error returned by then is logged
// and handed to fault on the UI thread; it never escapes the task.
// There is no cancellation: a started task runs to completion.
func Start[T any](
	ctx context.Context,
	ui UIThread,
	logger hclog.Logger,
	name string,
	work func(context.Context) (T, error),
	then func(T, error) error,
	fault func(error),
) *Task {
	t := &Task{name: name, done: make(chan struct{})}

	go func() {
		result, err, workPanic := runWork(ctx, work)
		ui.Post(func() {
			defer close(t.done)
			if workPanic != nil {
				t.fail(logger, workPanic, fault)
				return
			}
			if ferr := runThen(then, result, err); ferr != nil {
				t.fail(logger, ferr, fault)
			}
		})
	}()

	return t
}

func (t *Task) fail(logger hclog.Logger, err error, fault func(error)) {
	logger.Error("task failed", "task", t.name, "error", err)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("fault handler panicked", "task", t.name, "panic", fmt.Sprint(r))
		}
	}()
	if fault != nil {
		fault(err)
	}
}

func runWork[T any](ctx context.Context, work func(context.Context) (T, error)) (result T, err error, panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = &PanicError{Value: r}
		}
	}()
	result, err = work(ctx)
	return result, err, nil
}

func runThen[T any](then func(T, error) error, result T, err error) (ferr error) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &PanicError{Value: r}
		}
	}()
	return then(result, err)
}
