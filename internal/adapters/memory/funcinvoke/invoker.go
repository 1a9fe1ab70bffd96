package funcinvoke

import (
	"context"
	"sync"
)

// Invoker is an in-memory funcinvoke.Invoker. It records invocations and
// can be scripted to fail, which is how tests simulate remote function
// outages.
type Invoker struct {
	mu sync.Mutex

	Err error

	calls   int
	lastFn  string
	lastTok string
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

func (i *Invoker) Invoke(ctx context.Context, name string, bearerToken string) error {
	_ = ctx
	i.mu.Lock()
	defer i.mu.Unlock()

	i.calls++
	i.lastFn = name
	i.lastTok = bearerToken
	return i.Err
}

func (i *Invoker) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// Last returns the most recent function name and bearer token.
func (i *Invoker) Last() (string, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastFn, i.lastTok
}
