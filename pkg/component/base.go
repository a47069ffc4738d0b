// Package component runs the daemon's long-lived parts: the relay, the
// ingress listeners, the exporter, the API and the watchdog.
package component

import (
	"context"
	"sync"

	"github.com/winlab/netconflogger/pkg/logger"
)

type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Base carries the lifecycle context and goroutine tracking shared by every
// component. Embed it and call StartContext in Start and StopContext last in
// Stop.
type Base struct {
	name   string
	Ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBase(name string) *Base {
	return &Base{name: name, Ctx: context.Background()}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) StartContext(parentCtx context.Context) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	b.Ctx, b.cancel = context.WithCancel(parentCtx)
}

// StopContext cancels Ctx and waits for every goroutine started with Go. It
// is safe before StartContext and when called twice.
func (b *Base) StopContext() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Go runs fn until it returns. A panic in fn is logged against the component
// and does not take the process down.
func (b *Base) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Get(b.name).Error("Component goroutine panicked", "panic", r)
			}
		}()
		fn()
	}()
}
