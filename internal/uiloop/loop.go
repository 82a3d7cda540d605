package uiloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Loop is a single goroutine that executes posted functions one at a time, in
// posting order. It plays the role of the host UI thread.
type Loop struct {
	queue   chan func()
	quit    chan struct{}
	stopped chan struct{}
	logger  hclog.Logger

	quitOnce sync.Once
	stopOnce sync.Once
}

// New creates a loop with a queue of the given size.
func New(size int, logger hclog.Logger) *Loop {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if size < 1 {
		size = 1
	}
	return &Loop{
		queue:   make(chan func(), size),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run executes posted functions until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic on ui loop", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post schedules fn on the loop. Functions posted after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.stopped:
		l.logger.Warn("ui loop is stopped, dropping posted function")
	}
}

// Close stops the loop after the function currently executing returns.
func (l *Loop) Close() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
